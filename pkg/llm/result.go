package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Result is the outcome of one gateway call. Failures never escape this
// boundary as Go errors: transport problems, timeouts and unparseable
// model output are all folded into Parsed as an {"error": ...} payload so
// the caller can log them to provenance and continue.
type Result struct {
	RawText   string
	Parsed    json.RawMessage
	TokenIn   int
	TokenOut  int
	LatencyMS int
}

// GatewayError reports whether Parsed carries the error shape, and the
// error text when it does.
func (r Result) GatewayError() (string, bool) {
	e := gjson.GetBytes(r.Parsed, "error")
	if e.Exists() {
		return e.String(), true
	}
	return "", false
}

func errorResult(msg, kind string, latencyMS int) Result {
	payload, _ := json.Marshal(map[string]string{"error": msg, "type": kind})
	return Result{
		RawText:   msg,
		Parsed:    payload,
		LatencyMS: latencyMS,
	}
}

// CallOptions tunes a single model invocation. The extractor runs colder
// and with more output budget than the planner.
type CallOptions struct {
	Temperature float64
	MaxTokens   int64
}

// Gateway turns a system prompt plus a JSON-marshalable context into raw
// model text and a best-effort parsed payload, with token counts and
// latency. Implementations must never return failures other than through
// the Result's error payload.
type Gateway interface {
	Call(ctx context.Context, systemPrompt string, payload interface{}, opts CallOptions) Result
	Model() string
}

func marshalPayload(payload interface{}) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("could not marshal gateway payload: %w", err)
	}
	return string(data), nil
}
