package extraction

import (
	"context"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/prompts"
)

// SingleStage is the v1 pipeline: one context-heavy extractor call does
// person identification and memory extraction at once.
type SingleStage struct {
	*Pipeline
}

func (s *SingleStage) Version() models.PipelineVersion {
	return models.PipelineV1
}

func (s *SingleStage) Extract(ctx context.Context, tx Store, env *messageEnv) (*extractionYield, error) {
	ectx, err := s.builder.BuildExtractorContext(tx, env.UserID, env.SessionID, env.Message.ID)
	if err != nil {
		return nil, err
	}
	ectx.MessageText = env.Message.ContentText

	promptText, err := s.catalog.Get(prompts.Extractor, env.ExtractorVersion)
	if err != nil {
		return nil, err
	}

	res := s.gateway.Call(ctx, promptText, ectx, extractorCallOptions)
	out, errText := ValidateExtractor(res)

	messageID := env.Message.ID
	run, err := recordPromptRun(tx, env.SessionID, &messageID, prompts.Extractor, env.ExtractorVersion,
		models.PipelineV1, s.gateway.Model(), ectx, res, errText)
	if err != nil {
		return nil, err
	}

	if out == nil {
		env.Log.WithField("reason", errText).Warn("extractor output invalid, applying zero entities")
		return &extractionYield{ExtractorRunID: run.ID}, nil
	}

	resolver := NewResolver(tx, s.cfg.Resolver)
	yield, err := s.applyMemories(tx, env, models.PipelineV1, out.Memories,
		func(tx Store, memory *models.Memory, cand PersonCandidate) (*models.Person, bool, error) {
			memoryID := memory.ID
			return resolver.Resolve(env.UserID, cand, env.Message.ContentText, models.PipelineV1, &memoryID)
		})
	if err != nil {
		return nil, err
	}
	yield.ExtractorRunID = run.ID
	return yield, nil
}

// TwoStage is the v2 pipeline: a cheap, focused person-extraction call
// runs first, its candidates are batch-resolved, and only then does memory
// extraction run with the settled person list injected. Stage B links
// persons solely against the Stage-A result map; names it invents are
// dropped, never resolved ad hoc.
type TwoStage struct {
	*Pipeline
}

func (s *TwoStage) Version() models.PipelineVersion {
	return models.PipelineV2
}

func (s *TwoStage) Extract(ctx context.Context, tx Store, env *messageEnv) (*extractionYield, error) {
	messageID := env.Message.ID

	// Stage A: person identification over the bare message and history.
	pctx, err := s.builder.BuildPersonContext(tx, env.SessionID, env.Message.ID)
	if err != nil {
		return nil, err
	}
	pctx.MessageText = env.Message.ContentText

	personPrompt, err := s.catalog.Get(prompts.PersonExtractor, env.PersonVersion)
	if err != nil {
		return nil, err
	}

	personRes := s.gateway.Call(ctx, personPrompt, pctx, personCallOptions)
	personOut, personErrText := ValidatePersons(personRes)

	personRun, err := recordPromptRun(tx, env.SessionID, &messageID, prompts.PersonExtractor, env.PersonVersion,
		models.PipelineV2, s.gateway.Model(), pctx, personRes, personErrText)
	if err != nil {
		return nil, err
	}

	// Batch-local variant folding must finish before any Stage-B work;
	// an invalid Stage A degrades to an empty resolved set.
	resolved := newResolvedSet()
	if personOut != nil {
		resolver := NewResolver(tx, s.cfg.Resolver)
		resolved, err = resolver.ResolveBatch(env.UserID, personOut.Persons, env.Message.ContentText)
		if err != nil {
			return nil, err
		}
	} else {
		env.Log.WithField("reason", personErrText).Warn("person extractor output invalid, continuing with no resolved persons")
	}

	// Stage B: memory extraction with the resolved person list injected.
	ectx, err := s.builder.BuildExtractorContext(tx, env.UserID, env.SessionID, env.Message.ID)
	if err != nil {
		return nil, err
	}
	ectx.MessageText = env.Message.ContentText
	for _, p := range resolved.Persons {
		ectx.ResolvedPersons = append(ectx.ResolvedPersons, KnownPerson{ID: p.ID, Name: p.DisplayName, Type: p.Type})
	}

	extractorPrompt, err := s.catalog.Get(prompts.Extractor, env.ExtractorVersion)
	if err != nil {
		return nil, err
	}

	res := s.gateway.Call(ctx, extractorPrompt, ectx, extractorCallOptions)
	out, errText := ValidateExtractor(res)

	run, err := recordPromptRun(tx, env.SessionID, &messageID, prompts.Extractor, env.ExtractorVersion,
		models.PipelineV2, s.gateway.Model(), ectx, res, errText)
	if err != nil {
		return nil, err
	}

	if out == nil {
		env.Log.WithField("reason", errText).Warn("extractor output invalid, applying zero entities")
		return &extractionYield{PersonRunID: personRun.ID, ExtractorRunID: run.ID, Persons: resolved.Created}, nil
	}

	yield, err := s.applyMemories(tx, env, models.PipelineV2, out.Memories,
		func(_ Store, _ *models.Memory, cand PersonCandidate) (*models.Person, bool, error) {
			person, ok := resolved.Lookup(cand.Name)
			if !ok {
				return nil, false, nil
			}
			return person, false, nil
		})
	if err != nil {
		return nil, err
	}
	yield.PersonRunID = personRun.ID
	yield.ExtractorRunID = run.ID
	yield.Persons += resolved.Created
	return yield, nil
}
