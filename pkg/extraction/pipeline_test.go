package extraction

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/llm"
	"github.com/lifebook-lab/lifebook/pkg/prompts"
)

func newTestPipeline(store Store, gateway llm.Gateway) *Pipeline {
	return NewPipeline(store, gateway, prompts.DefaultCatalog(), DefaultConfig())
}

func extractorResult(memories ...map[string]interface{}) llm.Result {
	ms := make([]interface{}, 0, len(memories))
	for _, m := range memories {
		ms = append(ms, m)
	}
	return llm.JSONResult(map[string]interface{}{
		"memories": ms,
		"unknowns": []interface{}{},
	}, 120, 80, 300)
}

func memoryJSON(summary string, persons []interface{}, suggestions []interface{}) map[string]interface{} {
	return map[string]interface{}{
		"summary":             summary,
		"narrative":           summary + ", подробный рассказ",
		"topics":              []string{"тест"},
		"importance":          0.8,
		"persons":             persons,
		"chapter_suggestions": suggestions,
	}
}

func personJSON(name string, personType models.PersonType, confidence float64) map[string]interface{} {
	return map[string]interface{}{
		"name":       name,
		"type":       string(personType),
		"confidence": confidence,
	}
}

func emptyPlannerResult() llm.Result {
	return llm.JSONResult(map[string]interface{}{"questions": []interface{}{}}, 50, 10, 100)
}

func gatewayFailure(msg string) llm.Result {
	payload, _ := json.Marshal(map[string]string{"error": msg, "type": "timeout"})
	return llm.Result{RawText: msg, Parsed: payload, LatencyMS: 120000}
}

func TestProcessMessageSingleStage(t *testing.T) {
	store := newMemStore()
	session := store.addSession(7)

	mock := llm.NewMock()
	mock.Enqueue(extractorResult(memoryJSON("Прогулка с Анной",
		[]interface{}{personJSON("Анна", models.PersonTypeFriend, 0.9)},
		[]interface{}{map[string]interface{}{"title": "Детство", "confidence": 0.8}},
	)))
	mock.Enqueue(llm.JSONResult(map[string]interface{}{
		"questions": []interface{}{
			map[string]interface{}{
				"question_text": "Когда это было?",
				"reason":        "нет датировки",
				"confidence":    0.6,
				"target":        map[string]interface{}{"type": "memory"},
			},
		},
	}, 90, 40, 250))

	p := newTestPipeline(store, mock)
	summary, err := p.ProcessMessage(context.Background(), session.ID, "Мы с Анной гуляли в парке", Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 1, summary.MemoriesCreated)
	assert.Equal(t, 1, summary.PersonsCreated)
	assert.Equal(t, 1, summary.ChaptersCreated)
	assert.Equal(t, 1, summary.QuestionsCreated)
	assert.Zero(t, summary.PersonRunID)
	assert.NotZero(t, summary.ExtractorRunID)
	assert.NotZero(t, summary.PlannerRunID)

	require.Len(t, store.messages, 1)
	assert.Equal(t, "Мы с Анной гуляли в парке", store.messages[0].ContentText)
	assert.Equal(t, summary.MessageID, store.messages[0].ID)

	require.Len(t, store.memories, 1)
	memory := store.memories[0]
	assert.Equal(t, uint(7), memory.UserID)
	assert.Equal(t, summary.MessageID, memory.SourceMessageID)
	assert.Equal(t, models.PipelineV1, memory.PipelineVersion)
	assert.Equal(t, 0.8, memory.ImportanceScore)

	require.Len(t, store.persons, 1)
	person := store.persons[0]
	assert.Equal(t, "Анна", person.DisplayName)
	assert.Equal(t, models.PipelineV1, person.PipelineVersion)
	require.NotNil(t, person.FirstSeenMemoryID)
	assert.Equal(t, memory.ID, *person.FirstSeenMemoryID)
	assert.Equal(t, 0.9, store.memoryPersons[[2]uint{memory.ID, person.ID}])

	require.Len(t, store.chapters, 1)
	chapter := store.chapters[0]
	assert.Equal(t, "Детство", chapter.Title)
	assert.Equal(t, 0, chapter.OrderIndex)
	assert.Equal(t, models.ChapterStatusDraft, chapter.Status)
	assert.Equal(t, 0.8, store.memoryChapters[[2]uint{memory.ID, chapter.ID}])

	require.Len(t, store.questions, 1)
	question := store.questions[0]
	assert.Equal(t, models.QuestionStatusPending, question.Status)
	assert.Equal(t, models.QuestionTargetMemory, question.TargetType)
	assert.Equal(t, session.ID, question.SessionID)

	extractorRun := store.runByName("extractor")
	require.NotNil(t, extractorRun)
	assert.True(t, extractorRun.ParseOK)
	require.NotNil(t, extractorRun.MessageID)
	assert.Equal(t, summary.MessageID, *extractorRun.MessageID)
	assert.Equal(t, models.PipelineV1, extractorRun.PipelineVersion)
	assert.Equal(t, "mock", extractorRun.Model)
	assert.Equal(t, 120, extractorRun.TokenIn)

	plannerRun := store.runByName("planner")
	require.NotNil(t, plannerRun)
	assert.True(t, plannerRun.ParseOK)
	assert.Nil(t, plannerRun.MessageID)
}

func TestProcessMessageUnknownSession(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(store, llm.NewMock())

	_, err := p.ProcessMessage(context.Background(), 999, "текст", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Empty(t, store.messages)
	assert.Empty(t, store.runs)
}

func TestProcessMessageUnknownPromptVersionAbortsBeforeWrites(t *testing.T) {
	store := newMemStore()
	store.addSession(1)
	p := newTestPipeline(store, llm.NewMock())

	_, err := p.ProcessMessage(context.Background(), 1, "текст", Options{ExtractorVersion: "v99"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown version")
	assert.Empty(t, store.messages)

	_, err = p.ProcessMessage(context.Background(), 1, "текст", Options{Pipeline: "v3"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown pipeline version")
	assert.Empty(t, store.messages)
}

func TestProcessMessageExtractorFailureIsContained(t *testing.T) {
	store := newMemStore()
	session := store.addSession(1)

	mock := llm.NewMock()
	mock.Enqueue(gatewayFailure("timeout"))
	mock.Enqueue(emptyPlannerResult())

	p := newTestPipeline(store, mock)
	summary, err := p.ProcessMessage(context.Background(), session.ID, "важное сообщение", Options{})
	require.NoError(t, err)

	// The message survives, extraction yields nothing, the failure is an
	// audit row rather than an error.
	require.Len(t, store.messages, 1)
	assert.Equal(t, 0, summary.MemoriesCreated)
	assert.Equal(t, 0, summary.PersonsCreated)
	assert.Empty(t, store.memories)
	assert.Empty(t, store.persons)

	run := store.runByName("extractor")
	require.NotNil(t, run)
	assert.False(t, run.ParseOK)
	require.NotNil(t, run.ErrorText)
	assert.Equal(t, "timeout", *run.ErrorText)
	assert.Equal(t, 120000, run.LatencyMS)
}

func TestProcessMessagePlannerFailureIsContained(t *testing.T) {
	store := newMemStore()
	session := store.addSession(1)

	mock := llm.NewMock()
	mock.Enqueue(extractorResult(memoryJSON("Тихий вечер", nil, nil)))
	mock.Enqueue(gatewayFailure("rate limited"))

	p := newTestPipeline(store, mock)
	summary, err := p.ProcessMessage(context.Background(), session.ID, "вечером читал книгу", Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.MemoriesCreated)
	assert.Equal(t, 0, summary.QuestionsCreated)
	assert.Empty(t, store.questions)

	run := store.runByName("planner")
	require.NotNil(t, run)
	assert.False(t, run.ParseOK)
}

func TestChapterSuggestionThresholdIsStrict(t *testing.T) {
	store := newMemStore()
	session := store.addSession(1)

	mock := llm.NewMock()
	mock.Enqueue(extractorResult(memoryJSON("Школьные годы", nil, []interface{}{
		map[string]interface{}{"title": "Юность", "confidence": 0.65},
		map[string]interface{}{"title": "Школа", "confidence": 0.7},
		map[string]interface{}{"title": "Детство", "confidence": 0.71},
	})))
	mock.Enqueue(emptyPlannerResult())

	p := newTestPipeline(store, mock)
	summary, err := p.ProcessMessage(context.Background(), session.ID, "в школе я любил математику", Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ChaptersCreated)
	require.Len(t, store.chapters, 1)
	assert.Equal(t, "Детство", store.chapters[0].Title)
	require.Len(t, store.memoryChapters, 1)
}

func TestChapterReuseByTitleIsCaseInsensitive(t *testing.T) {
	store := newMemStore()
	session := store.addSession(1)
	require.NoError(t, store.CreateChapter(&models.Chapter{UserID: 1, Title: "Детство", Status: models.ChapterStatusDraft}))

	mock := llm.NewMock()
	mock.Enqueue(extractorResult(memoryJSON("Двор", nil, []interface{}{
		map[string]interface{}{"title": "детство", "confidence": 0.9},
	})))
	mock.Enqueue(emptyPlannerResult())

	p := newTestPipeline(store, mock)
	summary, err := p.ProcessMessage(context.Background(), session.ID, "мы играли во дворе", Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, summary.ChaptersCreated)
	assert.Len(t, store.chapters, 1)
	require.Len(t, store.memoryChapters, 1)
}

func TestDuplicatePersonReferencesMergeToMaxConfidence(t *testing.T) {
	store := newMemStore()
	session := store.addSession(1)

	mock := llm.NewMock()
	mock.Enqueue(extractorResult(memoryJSON("Анна",
		[]interface{}{
			personJSON("Анна", models.PersonTypeFriend, 0.4),
			personJSON("анна", models.PersonTypeFriend, 0.9),
			personJSON("Анна", models.PersonTypeFriend, 0.5),
		}, nil)))
	mock.Enqueue(emptyPlannerResult())

	p := newTestPipeline(store, mock)
	summary, err := p.ProcessMessage(context.Background(), session.ID, "снова виделся с Анной", Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.PersonsCreated)
	require.Len(t, store.persons, 1)
	require.Len(t, store.memoryPersons, 1)
	memory := store.memories[0]
	assert.Equal(t, 0.9, store.memoryPersons[[2]uint{memory.ID, store.persons[0].ID}])
}

func TestProcessMessageTwoStage(t *testing.T) {
	store := newMemStore()
	session := store.addSession(3)

	mock := llm.NewMock()
	mock.Enqueue(llm.JSONResult(map[string]interface{}{
		"persons": []interface{}{
			map[string]interface{}{
				"name": "папа", "type": "family", "confidence": 0.9, "mentioned_as": "папа",
			},
		},
	}, 80, 30, 180))
	mock.Enqueue(extractorResult(memoryJSON("Папа купил дом",
		[]interface{}{
			personJSON("Иван", models.PersonTypeFamily, 0.85),
			personJSON("папа", models.PersonTypeFamily, 0.6),
			personJSON("Гендальф", models.PersonTypeOther, 0.5),
		}, nil)))
	mock.Enqueue(emptyPlannerResult())

	p := newTestPipeline(store, mock)
	summary, err := p.ProcessMessage(context.Background(), session.ID, "папа Иван купил дом", Options{Pipeline: models.PipelineV2})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.MemoriesCreated)
	assert.Equal(t, 1, summary.PersonsCreated)
	assert.Equal(t, []string{"Гендальф"}, summary.DroppedPersonRefs)
	assert.NotZero(t, summary.PersonRunID)
	assert.NotZero(t, summary.ExtractorRunID)

	// Role promotion in the person stage created a single named person;
	// both "Иван" and the "папа" alias link to the same row.
	require.Len(t, store.persons, 1)
	person := store.persons[0]
	assert.Equal(t, "Иван", person.DisplayName)
	assert.Equal(t, models.PipelineV2, person.PipelineVersion)

	memory := store.memories[0]
	assert.Equal(t, models.PipelineV2, memory.PipelineVersion)
	require.Len(t, store.memoryPersons, 1)
	assert.Equal(t, 0.85, store.memoryPersons[[2]uint{memory.ID, person.ID}])

	personRun := store.runByName("person_extractor")
	require.NotNil(t, personRun)
	assert.True(t, personRun.ParseOK)
	assert.Equal(t, models.PipelineV2, personRun.PipelineVersion)
	require.NotNil(t, personRun.MessageID)
	assert.Equal(t, summary.MessageID, *personRun.MessageID)
}

func TestProcessMessageTwoStagePersonFailureDegradesToEmptySet(t *testing.T) {
	store := newMemStore()
	session := store.addSession(1)

	mock := llm.NewMock()
	mock.Enqueue(gatewayFailure("bad json"))
	mock.Enqueue(extractorResult(memoryJSON("Встреча",
		[]interface{}{personJSON("Иван", models.PersonTypeFamily, 0.8)}, nil)))
	mock.Enqueue(emptyPlannerResult())

	p := newTestPipeline(store, mock)
	summary, err := p.ProcessMessage(context.Background(), session.ID, "встретил Ивана", Options{Pipeline: models.PipelineV2})
	require.NoError(t, err)

	// Memory extraction still runs, but every person reference is dropped
	// instead of being resolved ad hoc.
	assert.Equal(t, 1, summary.MemoriesCreated)
	assert.Equal(t, 0, summary.PersonsCreated)
	assert.Equal(t, []string{"Иван"}, summary.DroppedPersonRefs)
	assert.Empty(t, store.persons)
	assert.Empty(t, store.memoryPersons)

	personRun := store.runByName("person_extractor")
	require.NotNil(t, personRun)
	assert.False(t, personRun.ParseOK)
}
