package extraction

import (
	"github.com/lifebook-lab/lifebook/pkg/db/models"
)

// KnownPerson, KnownChapter and MemorySnippet are the entity snapshots
// injected into model context. Kept deliberately small: the context
// builder trades completeness for predictable token cost.
type KnownPerson struct {
	ID   uint              `json:"id"`
	Name string            `json:"name"`
	Type models.PersonType `json:"type"`
}

type KnownChapter struct {
	ID     uint                 `json:"id"`
	Title  string               `json:"title"`
	Status models.ChapterStatus `json:"status"`
}

type MemorySnippet struct {
	Summary   string `json:"summary"`
	Narrative string `json:"narrative"`
}

// ExtractorContext is the full grounding snapshot for memory extraction.
type ExtractorContext struct {
	SessionID       uint            `json:"session_id"`
	MessageText     string          `json:"message_text"`
	MessageHistory  []string        `json:"message_history"`
	KnownPersons    []KnownPerson   `json:"known_persons"`
	KnownChapters   []KnownChapter  `json:"known_chapters"`
	RecentMemories  []MemorySnippet `json:"recent_memories"`
	ResolvedPersons []KnownPerson   `json:"resolved_persons,omitempty"`
}

// PersonContext is the trimmed snapshot for the dedicated person
// extractor: only the message and recent history, deliberately withholding
// the entity and chapter context to keep the call cheap and focused.
type PersonContext struct {
	SessionID      uint     `json:"session_id"`
	MessageText    string   `json:"message_text"`
	MessageHistory []string `json:"message_history"`
}

// ContextBuilder assembles size-bounded snapshots of existing entities.
// Pure read, no side effects.
type ContextBuilder struct {
	bounds Bounds
}

func NewContextBuilder(bounds Bounds) *ContextBuilder {
	return &ContextBuilder{bounds: bounds}
}

func (b *ContextBuilder) BuildExtractorContext(store Store, userID, sessionID, excludeMessageID uint) (*ExtractorContext, error) {
	history, err := b.messageHistory(store, sessionID, excludeMessageID)
	if err != nil {
		return nil, err
	}

	memories, err := store.RecentMemories(userID, b.bounds.RecentMemories)
	if err != nil {
		return nil, err
	}
	snippets := make([]MemorySnippet, 0, len(memories))
	for _, m := range memories {
		snippets = append(snippets, MemorySnippet{
			Summary:   m.Summary,
			Narrative: truncate(m.Narrative, b.bounds.MemoryNarrativeCap),
		})
	}

	persons, err := store.RecentPersons(userID, b.bounds.RecentPersons)
	if err != nil {
		return nil, err
	}
	knownPersons := make([]KnownPerson, 0, len(persons))
	for _, p := range persons {
		knownPersons = append(knownPersons, KnownPerson{ID: p.ID, Name: p.DisplayName, Type: p.Type})
	}

	chapters, err := store.RecentChapters(userID, b.bounds.RecentChapters)
	if err != nil {
		return nil, err
	}
	knownChapters := make([]KnownChapter, 0, len(chapters))
	for _, c := range chapters {
		knownChapters = append(knownChapters, KnownChapter{ID: c.ID, Title: c.Title, Status: c.Status})
	}

	return &ExtractorContext{
		SessionID:      sessionID,
		MessageHistory: history,
		KnownPersons:   knownPersons,
		KnownChapters:  knownChapters,
		RecentMemories: snippets,
	}, nil
}

func (b *ContextBuilder) BuildPersonContext(store Store, sessionID, excludeMessageID uint) (*PersonContext, error) {
	history, err := b.messageHistory(store, sessionID, excludeMessageID)
	if err != nil {
		return nil, err
	}
	return &PersonContext{
		SessionID:      sessionID,
		MessageHistory: history,
	}, nil
}

func (b *ContextBuilder) messageHistory(store Store, sessionID, excludeMessageID uint) ([]string, error) {
	messages, err := store.RecentMessages(sessionID, b.bounds.MessageHistory, excludeMessageID)
	if err != nil {
		return nil, err
	}

	// Newest first from the store; the model reads oldest first.
	history := make([]string, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		history = append(history, truncate(messages[i].ContentText, b.bounds.MessageCharCap))
	}
	return history, nil
}

func truncate(s string, capRunes int) string {
	if capRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= capRunes {
		return s
	}
	return string(runes[:capRunes])
}
