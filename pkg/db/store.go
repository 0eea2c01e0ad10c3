package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/extraction"
)

// Store is the gorm-backed persistence surface consumed by the extraction
// pipeline. One Store per transaction scope; Transaction hands the
// callback a Store bound to the transactional connection.
type Store struct {
	db *gorm.DB
}

func NewStore(dbc *DB) *Store {
	return &Store{db: dbc.DB}
}

func (s *Store) GetSession(id uint) (*models.Session, error) {
	var session models.Session
	if err := s.db.First(&session, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (s *Store) CreateMessage(m *models.Message) error {
	return s.db.Create(m).Error
}

func (s *Store) RecentMessages(sessionID uint, limit int, excludeMessageID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.
		Where("session_id = ? AND id <> ?", sessionID, excludeMessageID).
		Order("id DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (s *Store) RecentMemories(userID uint, limit int) ([]models.Memory, error) {
	var memories []models.Memory
	err := s.db.
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&memories).Error
	return memories, err
}

func (s *Store) RecentPersons(userID uint, limit int) ([]models.Person, error) {
	var persons []models.Person
	err := s.db.
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&persons).Error
	return persons, err
}

func (s *Store) RecentChapters(userID uint, limit int) ([]models.Chapter, error) {
	var chapters []models.Chapter
	err := s.db.
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&chapters).Error
	return chapters, err
}

func (s *Store) FindPersonByName(userID uint, name string, version models.PipelineVersion) (*models.Person, error) {
	var person models.Person
	err := s.db.
		Where("user_id = ? AND lower(display_name) = lower(?) AND pipeline_version = ?", userID, name, version).
		First(&person).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &person, nil
}

func (s *Store) PersonsByType(userID uint, personType models.PersonType, version models.PipelineVersion) ([]models.Person, error) {
	var persons []models.Person
	err := s.db.
		Where("user_id = ? AND type = ? AND pipeline_version = ?", userID, personType, version).
		Order("id").
		Find(&persons).Error
	return persons, err
}

func (s *Store) CreatePerson(p *models.Person) error {
	return s.db.Create(p).Error
}

func (s *Store) SavePerson(p *models.Person) error {
	return s.db.Save(p).Error
}

func (s *Store) CreateMemory(m *models.Memory) error {
	return s.db.Create(m).Error
}

func (s *Store) UpsertMemoryPerson(memoryID, personID uint, confidence float64) error {
	link := models.MemoryPerson{MemoryID: memoryID, PersonID: personID, Confidence: confidence}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "memory_id"}, {Name: "person_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"confidence": gorm.Expr("GREATEST(memory_person.confidence, excluded.confidence)"),
		}),
	}).Create(&link).Error
}

func (s *Store) UpsertMemoryChapter(memoryID, chapterID uint, confidence float64) error {
	link := models.MemoryChapter{MemoryID: memoryID, ChapterID: chapterID, Confidence: confidence}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "memory_id"}, {Name: "chapter_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"confidence": gorm.Expr("GREATEST(memory_chapter.confidence, excluded.confidence)"),
		}),
	}).Create(&link).Error
}

func (s *Store) FindChapterByTitle(userID uint, title string) (*models.Chapter, error) {
	var chapter models.Chapter
	err := s.db.
		Where("user_id = ? AND lower(title) = lower(?)", userID, title).
		First(&chapter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &chapter, nil
}

func (s *Store) CountChapters(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Chapter{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (s *Store) CreateChapter(c *models.Chapter) error {
	return s.db.Create(c).Error
}

func (s *Store) ChapterMemoryCount(chapterID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.MemoryChapter{}).Where("chapter_id = ?", chapterID).Count(&count).Error
	return count, err
}

func (s *Store) CreateQuestion(q *models.QuestionQueue) error {
	return s.db.Create(q).Error
}

func (s *Store) CreatePromptRun(r *models.PromptRun) error {
	return s.db.Create(r).Error
}

func (s *Store) Transaction(fn func(extraction.Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}
