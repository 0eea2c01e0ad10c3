package extraction

import (
	"encoding/json"
	"fmt"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/llm"
)

// The validator decodes gateway output exactly once, at this boundary.
// Downstream code only ever sees typed structs, never raw JSON. Every
// function returns the decoded output and an empty string when valid, or
// nil and the violation text when not. A gateway-reported error payload is
// invalid without any schema checks. Invalid output is never an error for
// the message as a whole: the caller records it to provenance and treats
// the call as zero-yield.

func ValidateExtractor(res llm.Result) (*ExtractorOutput, string) {
	if errText, ok := res.GatewayError(); ok {
		return nil, errText
	}

	var out ExtractorOutput
	if err := json.Unmarshal(res.Parsed, &out); err != nil {
		return nil, "memory-list shape: " + err.Error()
	}

	for i, mem := range out.Memories {
		if mem.Summary == "" {
			return nil, fmt.Sprintf("memories[%d]: summary is required", i)
		}
		if mem.Narrative == "" {
			return nil, fmt.Sprintf("memories[%d]: narrative is required", i)
		}
		if mem.Importance < 0 || mem.Importance > 1 {
			return nil, fmt.Sprintf("memories[%d]: importance %v out of range [0,1]", i, mem.Importance)
		}
		for j, person := range mem.Persons {
			if reason := checkPerson(person); reason != "" {
				return nil, fmt.Sprintf("memories[%d].persons[%d]: %s", i, j, reason)
			}
		}
		for j, suggestion := range mem.ChapterSuggestions {
			if suggestion.Title == "" {
				return nil, fmt.Sprintf("memories[%d].chapter_suggestions[%d]: title is required", i, j)
			}
			if suggestion.Confidence < 0 || suggestion.Confidence > 1 {
				return nil, fmt.Sprintf("memories[%d].chapter_suggestions[%d]: confidence %v out of range [0,1]", i, j, suggestion.Confidence)
			}
		}
	}

	return &out, ""
}

func ValidatePersons(res llm.Result) (*PersonExtractorOutput, string) {
	if errText, ok := res.GatewayError(); ok {
		return nil, errText
	}

	var out PersonExtractorOutput
	if err := json.Unmarshal(res.Parsed, &out); err != nil {
		return nil, "person-list shape: " + err.Error()
	}

	for i, person := range out.Persons {
		if reason := checkPerson(person); reason != "" {
			return nil, fmt.Sprintf("persons[%d]: %s", i, reason)
		}
	}

	return &out, ""
}

func ValidatePlanner(res llm.Result) (*PlannerOutput, string) {
	if errText, ok := res.GatewayError(); ok {
		return nil, errText
	}

	var out PlannerOutput
	if err := json.Unmarshal(res.Parsed, &out); err != nil {
		return nil, "question-list shape: " + err.Error()
	}

	for i, q := range out.Questions {
		if q.QuestionText == "" {
			return nil, fmt.Sprintf("questions[%d]: question_text is required", i)
		}
		if q.Confidence < 0 || q.Confidence > 1 {
			return nil, fmt.Sprintf("questions[%d]: confidence %v out of range [0,1]", i, q.Confidence)
		}
		if !models.ValidQuestionTarget(q.Target.Type) {
			return nil, fmt.Sprintf("questions[%d]: unknown target type %q", i, q.Target.Type)
		}
	}

	return &out, ""
}

func checkPerson(p PersonCandidate) string {
	if p.Name == "" {
		return "name is required"
	}
	if !models.ValidPersonType(p.Type) {
		return fmt.Sprintf("unknown person type %q", p.Type)
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Sprintf("confidence %v out of range [0,1]", p.Confidence)
	}
	return ""
}
