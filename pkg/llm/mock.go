package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tidwall/gjson"
)

// Mock is a deterministic gateway used by the seed command and by tests.
// Scripted results can be queued; without a script it answers with a
// canned response matching the shape the caller expects, inferred from the
// payload fields.
type Mock struct {
	mu    sync.Mutex
	queue []Result
}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Model() string {
	return "mock"
}

// Enqueue adds a scripted result returned by the next Call.
func (m *Mock) Enqueue(r Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, r)
}

func (m *Mock) Call(_ context.Context, _ string, payload interface{}, _ CallOptions) Result {
	m.mu.Lock()
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		return next
	}
	m.mu.Unlock()

	data, err := marshalPayload(payload)
	if err != nil {
		return errorResult(err.Error(), "MarshalError", 0)
	}

	messageText := gjson.Get(data, "message_text")
	switch {
	case messageText.Exists() && gjson.Get(data, "known_persons").Exists():
		return cannedExtraction(messageText.String())
	case messageText.Exists() && gjson.Get(data, "resolved_persons").Exists():
		return cannedExtraction(messageText.String())
	case messageText.Exists():
		return JSONResult(map[string]interface{}{
			"persons": []interface{}{},
			"notes":   "mock person extraction",
		}, 100, 30, 150)
	default:
		return JSONResult(map[string]interface{}{
			"questions": []interface{}{
				map[string]interface{}{
					"question_text": "Can you tell me more about this?",
					"reason":        "mock question",
					"confidence":    0.8,
					"target":        map[string]interface{}{"type": "global", "ref": nil},
				},
			},
		}, 100, 30, 150)
	}
}

func cannedExtraction(messageText string) Result {
	summary := messageText
	if len(summary) > 50 {
		summary = summary[:50]
	}
	return JSONResult(map[string]interface{}{
		"memories": []interface{}{
			map[string]interface{}{
				"summary":             "Extracted memory from: " + summary,
				"narrative":           messageText,
				"time_text":           nil,
				"location_text":       nil,
				"topics":              []string{"mock"},
				"importance":          0.7,
				"persons":             []interface{}{},
				"chapter_suggestions": []interface{}{},
			},
		},
		"unknowns": []interface{}{},
		"notes":    "mock extraction",
	}, 100, 50, 200)
}

// JSONResult builds a Result whose parsed payload is the marshaled value.
func JSONResult(v interface{}, tokenIn, tokenOut, latencyMS int) Result {
	data, _ := json.MarshalIndent(v, "", "  ")
	return Result{
		RawText:   string(data),
		Parsed:    data,
		TokenIn:   tokenIn,
		TokenOut:  tokenOut,
		LatencyMS: latencyMS,
	}
}
