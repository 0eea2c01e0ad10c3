package extraction

import (
	"encoding/json"

	"github.com/jackc/pgtype"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/llm"
	"github.com/lifebook-lab/lifebook/pkg/prompts"
)

// recordPromptRun appends one immutable provenance row for a model
// invocation, valid or not. Invalid output is never dropped silently: the
// error text rides along for offline audit.
func recordPromptRun(tx Store, sessionID uint, messageID *uint, name prompts.Name, version string,
	pipelineVersion models.PipelineVersion, model string, input interface{}, res llm.Result, errText string) (*models.PromptRun, error) {

	run := &models.PromptRun{
		SessionID:       sessionID,
		MessageID:       messageID,
		PromptName:      string(name),
		PromptVersion:   version,
		PipelineVersion: pipelineVersion,
		Model:           model,
		InputJSON:       marshalJSONB(input),
		OutputText:      res.RawText,
		OutputJSON:      rawJSONB(res.Parsed),
		ParseOK:         errText == "",
		TokenIn:         res.TokenIn,
		TokenOut:        res.TokenOut,
		LatencyMS:       res.LatencyMS,
	}
	if errText != "" {
		run.ErrorText = &errText
		validationFailures.WithLabelValues(string(name)).Inc()
	}
	modelCalls.WithLabelValues(string(name)).Inc()

	if err := tx.CreatePromptRun(run); err != nil {
		return nil, err
	}
	return run, nil
}

func marshalJSONB(v interface{}) pgtype.JSONB {
	if v == nil {
		return pgtype.JSONB{Status: pgtype.Null}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return pgtype.JSONB{Status: pgtype.Null}
	}
	return pgtype.JSONB{Bytes: data, Status: pgtype.Present}
}

func rawJSONB(raw json.RawMessage) pgtype.JSONB {
	if len(raw) == 0 {
		return pgtype.JSONB{Status: pgtype.Null}
	}
	return pgtype.JSONB{Bytes: raw, Status: pgtype.Present}
}
