// Package eval is the offline harness comparing person extraction across
// pipeline revisions: labelled test messages run through both pipelines
// and the linked persons are scored against expectations.
package eval

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
)

// LabeledPerson is one expected extraction, keyed by lowercased name and
// type for scoring.
type LabeledPerson struct {
	Name string            `json:"name"`
	Type models.PersonType `json:"type"`
}

// TestMessage is one labelled input message.
type TestMessage struct {
	ID              string          `json:"id"`
	Text            string          `json:"text"`
	Notes           string          `json:"notes,omitempty"`
	ExpectedPersons []LabeledPerson `json:"expected_persons"`
}

type messageFile struct {
	Messages []TestMessage `json:"messages"`
}

// LoadMessages reads a labelled message set from a JSON file.
func LoadMessages(path string) ([]TestMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read test messages")
	}
	var file messageFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "could not parse test messages")
	}
	if len(file.Messages) == 0 {
		return nil, errors.New("test message file contains no messages")
	}
	return file.Messages, nil
}

// VariantIssue flags an expected person that only matched under a
// different spelling, the main failure mode the two-stage pipeline was
// built to fix.
type VariantIssue struct {
	Expected string `json:"expected"`
	Found    string `json:"found"`
}

// Comparison scores one pipeline's output for one message.
type Comparison struct {
	Pipeline models.PipelineVersion `json:"pipeline"`

	ExpectedCount int `json:"expected_count"`
	ActualCount   int `json:"actual_count"`

	Correct []LabeledPerson `json:"correct"`
	Missed  []LabeledPerson `json:"missed"`
	Extra   []LabeledPerson `json:"extra"`

	VariantIssues []VariantIssue `json:"variant_issues,omitempty"`

	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1_score"`
}

type personKey struct {
	name string
	typ  models.PersonType
}

// ComparePersons scores stored persons against expectations. Matching is
// exact on (lowercased name, type); near-misses where one name contains
// the other surface as variant issues instead of silent mismatches.
func ComparePersons(expected []LabeledPerson, actual []models.Person, pipeline models.PipelineVersion) Comparison {
	expectedSet := map[personKey]LabeledPerson{}
	for _, p := range expected {
		expectedSet[personKey{strings.ToLower(p.Name), p.Type}] = p
	}
	actualSet := map[personKey]LabeledPerson{}
	for _, p := range actual {
		actualSet[personKey{strings.ToLower(p.DisplayName), p.Type}] = LabeledPerson{Name: p.DisplayName, Type: p.Type}
	}

	cmp := Comparison{
		Pipeline:      pipeline,
		ExpectedCount: len(expectedSet),
		ActualCount:   len(actualSet),
	}

	for key, p := range expectedSet {
		if _, ok := actualSet[key]; ok {
			cmp.Correct = append(cmp.Correct, p)
		} else {
			cmp.Missed = append(cmp.Missed, p)
		}
	}
	for key, p := range actualSet {
		if _, ok := expectedSet[key]; !ok {
			cmp.Extra = append(cmp.Extra, p)
		}
	}
	sortPersons(cmp.Correct)
	sortPersons(cmp.Missed)
	sortPersons(cmp.Extra)

	for _, exp := range expected {
		expName := strings.ToLower(exp.Name)
		for _, act := range actual {
			actName := strings.ToLower(act.DisplayName)
			if expName == actName {
				continue
			}
			if strings.Contains(expName, actName) || strings.Contains(actName, expName) {
				cmp.VariantIssues = append(cmp.VariantIssues, VariantIssue{Expected: exp.Name, Found: act.DisplayName})
				break
			}
		}
	}

	if cmp.ActualCount > 0 {
		cmp.Precision = float64(len(cmp.Correct)) / float64(cmp.ActualCount)
	}
	if cmp.ExpectedCount > 0 {
		cmp.Recall = float64(len(cmp.Correct)) / float64(cmp.ExpectedCount)
	}
	if cmp.Precision+cmp.Recall > 0 {
		cmp.F1 = 2 * cmp.Precision * cmp.Recall / (cmp.Precision + cmp.Recall)
	}

	return cmp
}

func sortPersons(persons []LabeledPerson) {
	sort.Slice(persons, func(i, j int) bool {
		if persons[i].Name != persons[j].Name {
			return persons[i].Name < persons[j].Name
		}
		return persons[i].Type < persons[j].Type
	})
}
