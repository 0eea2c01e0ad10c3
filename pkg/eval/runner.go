package eval

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/extraction"
)

// PersonSource reads back the persons a processed message produced.
// Satisfied by the database store.
type PersonSource interface {
	PersonsForMessage(messageID uint, version models.PipelineVersion) ([]models.Person, error)
}

// MessageResult holds both pipelines' scores for one labelled message.
type MessageResult struct {
	Message TestMessage `json:"message"`
	V1      Comparison  `json:"comparison_v1"`
	V2      Comparison  `json:"comparison_v2"`
}

// Runner drives labelled messages through both pipelines against the same
// session, so the two revisions see identical history.
type Runner struct {
	pipeline *extraction.Pipeline
	source   PersonSource
}

func NewRunner(pipeline *extraction.Pipeline, source PersonSource) *Runner {
	return &Runner{pipeline: pipeline, source: source}
}

func (r *Runner) Run(ctx context.Context, sessionID uint, messages []TestMessage) ([]MessageResult, error) {
	results := make([]MessageResult, 0, len(messages))
	for _, msg := range messages {
		result := MessageResult{Message: msg}

		for _, version := range []models.PipelineVersion{models.PipelineV1, models.PipelineV2} {
			summary, err := r.pipeline.ProcessMessage(ctx, sessionID, msg.Text, extraction.Options{Pipeline: version})
			if err != nil {
				return nil, err
			}
			persons, err := r.source.PersonsForMessage(summary.MessageID, version)
			if err != nil {
				return nil, err
			}

			cmp := ComparePersons(msg.ExpectedPersons, persons, version)
			switch version {
			case models.PipelineV1:
				result.V1 = cmp
			case models.PipelineV2:
				result.V2 = cmp
			}

			log.WithFields(log.Fields{
				"message":  msg.ID,
				"pipeline": version,
				"correct":  len(cmp.Correct),
				"expected": cmp.ExpectedCount,
			}).Info("message evaluated")
		}

		results = append(results, result)
	}
	return results, nil
}
