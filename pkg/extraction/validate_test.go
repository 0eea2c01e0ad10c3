package extraction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifebook-lab/lifebook/pkg/llm"
)

func rawResult(payload string) llm.Result {
	return llm.Result{RawText: payload, Parsed: json.RawMessage(payload)}
}

func TestValidateExtractorGatewayErrorIsInvalid(t *testing.T) {
	out, reason := ValidateExtractor(rawResult(`{"error": "timeout", "type": "timeout"}`))
	assert.Nil(t, out)
	assert.Equal(t, "timeout", reason)
}

func TestValidateExtractorAcceptsWellFormedOutput(t *testing.T) {
	out, reason := ValidateExtractor(rawResult(`{
		"memories": [
			{
				"summary": "Поездка на дачу",
				"narrative": "Летом мы всей семьёй ездили на дачу под Тулой.",
				"time_text": "лето 1995",
				"topics": ["семья", "дача"],
				"importance": 0.7,
				"persons": [
					{"name": "Иван", "type": "family", "confidence": 0.9}
				],
				"chapter_suggestions": [
					{"title": "Детство", "confidence": 0.8}
				]
			}
		],
		"unknowns": ["когда именно"]
	}`))
	require.Empty(t, reason)
	require.NotNil(t, out)
	require.Len(t, out.Memories, 1)
	mem := out.Memories[0]
	assert.Equal(t, "Поездка на дачу", mem.Summary)
	require.NotNil(t, mem.TimeText)
	assert.Equal(t, "лето 1995", *mem.TimeText)
	assert.Equal(t, []string{"семья", "дача"}, mem.Topics)
	require.Len(t, mem.Persons, 1)
	assert.Equal(t, "Иван", mem.Persons[0].Name)
	assert.Equal(t, []string{"когда именно"}, out.Unknowns)
}

func TestValidateExtractorRejections(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		reason  string
	}{
		{
			name:    "not an object",
			payload: `[1, 2, 3]`,
			reason:  "memory-list shape",
		},
		{
			name:    "missing summary",
			payload: `{"memories": [{"summary": "", "narrative": "x", "importance": 0.5}]}`,
			reason:  "memories[0]: summary is required",
		},
		{
			name:    "missing narrative",
			payload: `{"memories": [{"summary": "x", "narrative": "", "importance": 0.5}]}`,
			reason:  "memories[0]: narrative is required",
		},
		{
			name:    "importance out of range",
			payload: `{"memories": [{"summary": "x", "narrative": "y", "importance": 1.5}]}`,
			reason:  "memories[0]: importance 1.5 out of range [0,1]",
		},
		{
			name: "person without name",
			payload: `{"memories": [{"summary": "x", "narrative": "y", "importance": 0.5,
				"persons": [{"name": "", "type": "family", "confidence": 0.9}]}]}`,
			reason: "memories[0].persons[0]: name is required",
		},
		{
			name: "unknown person type",
			payload: `{"memories": [{"summary": "x", "narrative": "y", "importance": 0.5,
				"persons": [{"name": "Иван", "type": "stranger", "confidence": 0.9}]}]}`,
			reason: `memories[0].persons[0]: unknown person type "stranger"`,
		},
		{
			name: "person confidence out of range",
			payload: `{"memories": [{"summary": "x", "narrative": "y", "importance": 0.5,
				"persons": [{"name": "Иван", "type": "family", "confidence": -0.1}]}]}`,
			reason: "memories[0].persons[0]: confidence -0.1 out of range [0,1]",
		},
		{
			name: "chapter suggestion without title",
			payload: `{"memories": [{"summary": "x", "narrative": "y", "importance": 0.5,
				"chapter_suggestions": [{"title": "", "confidence": 0.8}]}]}`,
			reason: "memories[0].chapter_suggestions[0]: title is required",
		},
		{
			name: "chapter confidence out of range",
			payload: `{"memories": [{"summary": "x", "narrative": "y", "importance": 0.5,
				"chapter_suggestions": [{"title": "Детство", "confidence": 2}]}]}`,
			reason: "memories[0].chapter_suggestions[0]: confidence 2 out of range [0,1]",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, reason := ValidateExtractor(rawResult(tc.payload))
			assert.Nil(t, out)
			assert.Contains(t, reason, tc.reason)
		})
	}
}

func TestValidateExtractorAcceptsEmptyMemoryList(t *testing.T) {
	out, reason := ValidateExtractor(rawResult(`{"memories": [], "unknowns": []}`))
	require.Empty(t, reason)
	require.NotNil(t, out)
	assert.Empty(t, out.Memories)
}

func TestValidatePersons(t *testing.T) {
	out, reason := ValidatePersons(rawResult(`{
		"persons": [
			{"name": "Иван", "type": "family", "confidence": 0.9, "mentioned_as": "папа"},
			{"name": "Сергей", "type": "colleague", "confidence": 0.6}
		]
	}`))
	require.Empty(t, reason)
	require.NotNil(t, out)
	require.Len(t, out.Persons, 2)
	assert.Equal(t, "папа", out.Persons[0].MentionedAs)

	out, reason = ValidatePersons(rawResult(`{"persons": [{"name": "Иван", "type": "alien", "confidence": 0.9}]}`))
	assert.Nil(t, out)
	assert.Equal(t, `persons[0]: unknown person type "alien"`, reason)

	out, reason = ValidatePersons(rawResult(`{"error": "rate limited", "type": "api_error"}`))
	assert.Nil(t, out)
	assert.Equal(t, "rate limited", reason)
}

func TestValidatePlanner(t *testing.T) {
	out, reason := ValidatePlanner(rawResult(`{
		"questions": [
			{
				"question_text": "Когда вы переехали в Москву?",
				"reason": "time gap",
				"confidence": 0.7,
				"target": {"type": "memory", "ref": "12"}
			}
		]
	}`))
	require.Empty(t, reason)
	require.NotNil(t, out)
	require.Len(t, out.Questions, 1)
	require.NotNil(t, out.Questions[0].Target.Ref)
	assert.Equal(t, "12", *out.Questions[0].Target.Ref)

	out, reason = ValidatePlanner(rawResult(`{"questions": [{"question_text": "", "confidence": 0.5, "target": {"type": "memory"}}]}`))
	assert.Nil(t, out)
	assert.Equal(t, "questions[0]: question_text is required", reason)

	out, reason = ValidatePlanner(rawResult(`{"questions": [{"question_text": "x", "confidence": 0.5, "target": {"type": "galaxy"}}]}`))
	assert.Nil(t, out)
	assert.Equal(t, `questions[0]: unknown target type "galaxy"`, reason)

	out, reason = ValidatePlanner(rawResult(`{"questions": [{"question_text": "x", "confidence": 1.2, "target": {"type": "memory"}}]}`))
	assert.Nil(t, out)
	assert.Equal(t, "questions[0]: confidence 1.2 out of range [0,1]", reason)
}
