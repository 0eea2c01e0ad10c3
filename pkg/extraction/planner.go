package extraction

import (
	"context"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/prompts"
)

// PlannerMemory and PlannerChapter are the planner's view of the record:
// top recent memories with truncated narrative, and chapters with their
// memory counts.
type PlannerMemory struct {
	ID         uint    `json:"id"`
	Summary    string  `json:"summary"`
	Narrative  string  `json:"narrative"`
	Importance float64 `json:"importance"`
}

type PlannerChapter struct {
	ID          uint                 `json:"id"`
	Title       string               `json:"title"`
	Status      models.ChapterStatus `json:"status"`
	MemoryCount int64                `json:"memory_count"`
}

type PlannerContext struct {
	RecentMemories []PlannerMemory  `json:"recent_memories"`
	Chapters       []PlannerChapter `json:"chapters"`
	KnownGaps      []string         `json:"known_gaps"`
}

func (p *Pipeline) buildPlannerContext(tx Store, userID uint) (*PlannerContext, error) {
	memories, err := tx.RecentMemories(userID, p.cfg.Bounds.PlannerMemories)
	if err != nil {
		return nil, err
	}
	plannerMemories := make([]PlannerMemory, 0, len(memories))
	for _, m := range memories {
		plannerMemories = append(plannerMemories, PlannerMemory{
			ID:         m.ID,
			Summary:    m.Summary,
			Narrative:  truncate(m.Narrative, p.cfg.Bounds.PlannerNarrativeCap),
			Importance: m.ImportanceScore,
		})
	}

	chapters, err := tx.RecentChapters(userID, p.cfg.Bounds.RecentChapters)
	if err != nil {
		return nil, err
	}
	plannerChapters := make([]PlannerChapter, 0, len(chapters))
	for _, c := range chapters {
		count, err := tx.ChapterMemoryCount(c.ID)
		if err != nil {
			return nil, err
		}
		plannerChapters = append(plannerChapters, PlannerChapter{
			ID:          c.ID,
			Title:       c.Title,
			Status:      c.Status,
			MemoryCount: count,
		})
	}

	return &PlannerContext{
		RecentMemories: plannerMemories,
		Chapters:       plannerChapters,
		KnownGaps:      []string{},
	}, nil
}

// runPlanner asks the model for follow-up questions and inserts one
// pending QuestionQueue row per returned question. Targets stay opaque
// reference strings; no entity resolution happens here. Planner failure is
// zero-yield and never rolls back extraction writes.
func (p *Pipeline) runPlanner(ctx context.Context, tx Store, env *messageEnv, version string,
	pipelineVersion models.PipelineVersion) (uint, int, error) {

	pctx, err := p.buildPlannerContext(tx, env.UserID)
	if err != nil {
		return 0, 0, err
	}

	promptText, err := p.catalog.Get(prompts.Planner, version)
	if err != nil {
		return 0, 0, err
	}

	res := p.gateway.Call(ctx, promptText, pctx, plannerCallOptions)
	out, errText := ValidatePlanner(res)

	run, err := recordPromptRun(tx, env.SessionID, nil, prompts.Planner, version,
		pipelineVersion, p.gateway.Model(), pctx, res, errText)
	if err != nil {
		return 0, 0, err
	}

	if out == nil {
		env.Log.WithField("reason", errText).Warn("planner output invalid, no questions queued")
		return run.ID, 0, nil
	}

	created := 0
	for _, q := range out.Questions {
		question := &models.QuestionQueue{
			UserID:       env.UserID,
			SessionID:    env.SessionID,
			QuestionText: q.QuestionText,
			Reason:       q.Reason,
			Confidence:   q.Confidence,
			TargetType:   q.Target.Type,
			TargetRef:    q.Target.Ref,
			Status:       models.QuestionStatusPending,
		}
		if err := tx.CreateQuestion(question); err != nil {
			return 0, 0, err
		}
		created++
	}

	return run.ID, created, nil
}
