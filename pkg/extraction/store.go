package extraction

import (
	"github.com/lifebook-lab/lifebook/pkg/db/models"
)

// Store is the persistence surface the pipeline consumes: plain
// create/find/update operations executed inside the transaction scope of
// one ProcessMessage call. Find methods return (nil, nil) when no row
// matches.
type Store interface {
	GetSession(id uint) (*models.Session, error)
	CreateMessage(m *models.Message) error
	// RecentMessages returns the newest messages first, excluding the one
	// currently being processed.
	RecentMessages(sessionID uint, limit int, excludeMessageID uint) ([]models.Message, error)

	RecentMemories(userID uint, limit int) ([]models.Memory, error)
	RecentPersons(userID uint, limit int) ([]models.Person, error)
	RecentChapters(userID uint, limit int) ([]models.Chapter, error)

	// FindPersonByName matches display names case-insensitively within one
	// pipeline-version namespace.
	FindPersonByName(userID uint, name string, version models.PipelineVersion) (*models.Person, error)
	PersonsByType(userID uint, personType models.PersonType, version models.PipelineVersion) ([]models.Person, error)
	CreatePerson(p *models.Person) error
	SavePerson(p *models.Person) error

	CreateMemory(m *models.Memory) error
	// UpsertMemoryPerson creates the link row or raises its confidence to
	// the maximum seen, never lowering it.
	UpsertMemoryPerson(memoryID, personID uint, confidence float64) error
	UpsertMemoryChapter(memoryID, chapterID uint, confidence float64) error

	FindChapterByTitle(userID uint, title string) (*models.Chapter, error)
	CountChapters(userID uint) (int64, error)
	CreateChapter(c *models.Chapter) error
	ChapterMemoryCount(chapterID uint) (int64, error)

	CreateQuestion(q *models.QuestionQueue) error
	CreatePromptRun(r *models.PromptRun) error

	// Transaction runs fn against a transactional view of the store and
	// commits once when fn returns nil. Rows created inside fn are visible
	// to later reads in the same transaction.
	Transaction(fn func(Store) error) error
}
