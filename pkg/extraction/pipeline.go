package extraction

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/llm"
	"github.com/lifebook-lab/lifebook/pkg/prompts"
)

// ErrSessionNotFound aborts the whole request: processing a message for a
// nonexistent session is a missing prerequisite, not a degradable failure.
var ErrSessionNotFound = errors.New("session not found")

// ChapterConfidenceThreshold gates chapter creation and linking: a
// suggestion must clear this strictly to have any effect.
const ChapterConfidenceThreshold = 0.7

var (
	extractorCallOptions = llm.CallOptions{Temperature: 0.3, MaxTokens: 4000}
	personCallOptions    = llm.CallOptions{Temperature: 0.3, MaxTokens: 1500}
	plannerCallOptions   = llm.CallOptions{Temperature: 0.5, MaxTokens: 2000}
)

// Options selects the strategy and prompt versions for one message. Empty
// versions mean the latest registered one.
type Options struct {
	Pipeline         models.PipelineVersion
	ExtractorVersion string
	PlannerVersion   string
}

// Summary reports what one ProcessMessage call did.
type Summary struct {
	RunID     string `json:"run_id"`
	MessageID uint   `json:"message_id"`

	PersonRunID    uint `json:"person_run_id,omitempty"`
	ExtractorRunID uint `json:"extractor_run_id"`
	PlannerRunID   uint `json:"planner_run_id"`

	MemoriesCreated  int `json:"memories_created"`
	PersonsCreated   int `json:"persons_created"`
	ChaptersCreated  int `json:"chapters_created"`
	QuestionsCreated int `json:"questions_created"`

	// DroppedPersonRefs are names the memory extractor referenced that the
	// person stage never surfaced; the two-stage pipeline drops them
	// rather than resolving ad hoc.
	DroppedPersonRefs []string `json:"dropped_person_refs,omitempty"`
}

// Pipeline drives the end-to-end sequence for one incoming message. All
// writes for a message happen in a single transaction committed at the
// end; intermediate rows are visible to later reads inside it.
type Pipeline struct {
	store   Store
	gateway llm.Gateway
	catalog *prompts.Catalog
	builder *ContextBuilder
	cfg     Config
}

func NewPipeline(store Store, gateway llm.Gateway, catalog *prompts.Catalog, cfg Config) *Pipeline {
	return &Pipeline{
		store:   store,
		gateway: gateway,
		catalog: catalog,
		builder: NewContextBuilder(cfg.Bounds),
		cfg:     cfg,
	}
}

// ExtractionStrategy is one of the two coexisting extraction shapes. Both
// share the resolver, validator, provenance log and chapter handling.
type ExtractionStrategy interface {
	Version() models.PipelineVersion
	Extract(ctx context.Context, tx Store, env *messageEnv) (*extractionYield, error)
}

type messageEnv struct {
	UserID    uint
	SessionID uint
	Message   *models.Message

	ExtractorVersion string
	PersonVersion    string

	Log *log.Entry
}

type extractionYield struct {
	PersonRunID    uint
	ExtractorRunID uint

	Memories int
	Persons  int
	Chapters int
	Dropped  []string
}

func (p *Pipeline) ProcessMessage(ctx context.Context, sessionID uint, text string, opts Options) (*Summary, error) {
	if opts.Pipeline == "" {
		opts.Pipeline = models.PipelineV1
	}
	if !models.ValidPipelineVersion(opts.Pipeline) {
		return nil, errors.Errorf("unknown pipeline version %q", opts.Pipeline)
	}

	// Unknown prompts or versions abort before anything is written.
	extractorVersion, err := p.resolvePromptVersion(prompts.Extractor, opts.ExtractorVersion)
	if err != nil {
		return nil, err
	}
	plannerVersion, err := p.resolvePromptVersion(prompts.Planner, opts.PlannerVersion)
	if err != nil {
		return nil, err
	}
	personVersion := ""
	if opts.Pipeline == models.PipelineV2 {
		personVersion, err = p.resolvePromptVersion(prompts.PersonExtractor, "")
		if err != nil {
			return nil, err
		}
	}

	summary := &Summary{RunID: uuid.NewString()}
	plog := log.WithFields(log.Fields{
		"run":      summary.RunID,
		"session":  sessionID,
		"pipeline": opts.Pipeline,
	})

	err = p.store.Transaction(func(tx Store) error {
		session, err := tx.GetSession(sessionID)
		if err != nil {
			return err
		}
		if session == nil {
			return errors.Wrapf(ErrSessionNotFound, "session %d", sessionID)
		}

		// The user message is always persisted, even when extraction fails.
		message := &models.Message{
			SessionID:   sessionID,
			Role:        models.RoleUser,
			ContentText: text,
		}
		if err := tx.CreateMessage(message); err != nil {
			return err
		}
		summary.MessageID = message.ID

		env := &messageEnv{
			UserID:           session.UserID,
			SessionID:        sessionID,
			Message:          message,
			ExtractorVersion: extractorVersion,
			PersonVersion:    personVersion,
			Log:              plog,
		}

		var strategy ExtractionStrategy
		switch opts.Pipeline {
		case models.PipelineV2:
			strategy = &TwoStage{p}
		default:
			strategy = &SingleStage{p}
		}

		yield, err := strategy.Extract(ctx, tx, env)
		if err != nil {
			return err
		}
		summary.PersonRunID = yield.PersonRunID
		summary.ExtractorRunID = yield.ExtractorRunID
		summary.MemoriesCreated = yield.Memories
		summary.PersonsCreated = yield.Persons
		summary.ChaptersCreated = yield.Chapters
		summary.DroppedPersonRefs = yield.Dropped

		plannerRunID, questions, err := p.runPlanner(ctx, tx, env, plannerVersion, opts.Pipeline)
		if err != nil {
			return err
		}
		summary.PlannerRunID = plannerRunID
		summary.QuestionsCreated = questions

		return nil
	})
	if err != nil {
		return nil, err
	}

	pipelineRuns.WithLabelValues(string(opts.Pipeline)).Inc()
	plog.WithFields(log.Fields{
		"memories":  summary.MemoriesCreated,
		"persons":   summary.PersonsCreated,
		"chapters":  summary.ChaptersCreated,
		"questions": summary.QuestionsCreated,
	}).Info("message processed")

	return summary, nil
}

func (p *Pipeline) resolvePromptVersion(name prompts.Name, version string) (string, error) {
	if version == "" {
		return p.catalog.Latest(name)
	}
	if _, err := p.catalog.Get(name, version); err != nil {
		return "", err
	}
	return version, nil
}

// resolveFunc maps one candidate to a person for a memory being created.
// A nil person with nil error means the reference is dropped.
type resolveFunc func(tx Store, memory *models.Memory, cand PersonCandidate) (*models.Person, bool, error)

// applyMemories folds validated extractor output into the database:
// memory rows, person links with max-confidence merge, and thresholded
// chapter find-or-create plus links.
func (p *Pipeline) applyMemories(tx Store, env *messageEnv, version models.PipelineVersion,
	memories []ExtractedMemory, resolve resolveFunc) (*extractionYield, error) {

	yield := &extractionYield{}

	for _, mem := range memories {
		memory := &models.Memory{
			UserID:          env.UserID,
			SessionID:       env.SessionID,
			SourceMessageID: env.Message.ID,
			Summary:         mem.Summary,
			Narrative:       mem.Narrative,
			TimeText:        mem.TimeText,
			LocationText:    mem.LocationText,
			Topics:          mem.Topics,
			ImportanceScore: mem.Importance,
			PipelineVersion: version,
		}
		if err := tx.CreateMemory(memory); err != nil {
			return nil, err
		}
		yield.Memories++

		for _, cand := range mem.Persons {
			person, created, err := resolve(tx, memory, cand)
			if err != nil {
				return nil, err
			}
			if person == nil {
				yield.Dropped = append(yield.Dropped, cand.Name)
				continue
			}
			if created {
				yield.Persons++
			}
			if err := tx.UpsertMemoryPerson(memory.ID, person.ID, cand.Confidence); err != nil {
				return nil, err
			}
		}

		for _, suggestion := range mem.ChapterSuggestions {
			created, err := p.applyChapterSuggestion(tx, env.UserID, memory, suggestion)
			if err != nil {
				return nil, err
			}
			if created {
				yield.Chapters++
			}
		}
	}

	return yield, nil
}

func (p *Pipeline) applyChapterSuggestion(tx Store, userID uint, memory *models.Memory, suggestion ChapterSuggestion) (bool, error) {
	if suggestion.Confidence <= ChapterConfidenceThreshold {
		return false, nil
	}

	chapter, err := tx.FindChapterByTitle(userID, suggestion.Title)
	if err != nil {
		return false, err
	}

	created := false
	if chapter == nil {
		count, err := tx.CountChapters(userID)
		if err != nil {
			return false, err
		}
		chapter = &models.Chapter{
			UserID:     userID,
			Title:      suggestion.Title,
			OrderIndex: int(count),
			Status:     models.ChapterStatusDraft,
		}
		if err := tx.CreateChapter(chapter); err != nil {
			return false, err
		}
		created = true
	}

	if err := tx.UpsertMemoryChapter(memory.ID, chapter.ID, suggestion.Confidence); err != nil {
		return false, err
	}
	return created, nil
}
