package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
)

// Read/update operations backing the REST surface. These run outside the
// pipeline's transaction scope.

func (s *Store) CreateUser(u *models.User) error {
	return s.db.Create(u).Error
}

func (s *Store) GetUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateSession(session *models.Session) error {
	return s.db.Create(session).Error
}

func (s *Store) ListSessions(userID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := s.db.Where("user_id = ?", userID).Order("id").Find(&sessions).Error
	return sessions, err
}

func (s *Store) ListMessages(sessionID uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Where("session_id = ?", sessionID).Order("id").Find(&messages).Error
	return messages, err
}

// ListMemories returns a user's memories, optionally filtered to one
// pipeline version.
func (s *Store) ListMemories(userID uint, version models.PipelineVersion) ([]models.Memory, error) {
	q := s.db.Where("user_id = ?", userID)
	if version != "" {
		q = q.Where("pipeline_version = ?", version)
	}
	var memories []models.Memory
	err := q.Order("id DESC").Find(&memories).Error
	return memories, err
}

func (s *Store) ListPersons(userID uint, version models.PipelineVersion) ([]models.Person, error) {
	q := s.db.Where("user_id = ?", userID)
	if version != "" {
		q = q.Where("pipeline_version = ?", version)
	}
	var persons []models.Person
	err := q.Order("id").Find(&persons).Error
	return persons, err
}

func (s *Store) ListChapters(userID uint) ([]models.Chapter, error) {
	var chapters []models.Chapter
	err := s.db.Where("user_id = ?", userID).Order("order_index").Find(&chapters).Error
	return chapters, err
}

func (s *Store) ListQuestions(userID uint, status models.QuestionStatus) ([]models.QuestionQueue, error) {
	q := s.db.Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var questions []models.QuestionQueue
	err := q.Order("id").Find(&questions).Error
	return questions, err
}

// UpdateQuestionStatus performs an explicit status transition; this is the
// only mutation question rows ever receive.
func (s *Store) UpdateQuestionStatus(id uint, status models.QuestionStatus) (*models.QuestionQueue, error) {
	var question models.QuestionQueue
	if err := s.db.First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	question.Status = status
	if err := s.db.Save(&question).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (s *Store) ListPromptRuns(sessionID uint) ([]models.PromptRun, error) {
	var runs []models.PromptRun
	err := s.db.Where("session_id = ?", sessionID).Order("id").Find(&runs).Error
	return runs, err
}

// PersonsForMessage returns the distinct persons linked to memories
// extracted from one message, within one pipeline-version namespace. Used
// by the offline evaluation harness.
func (s *Store) PersonsForMessage(messageID uint, version models.PipelineVersion) ([]models.Person, error) {
	var persons []models.Person
	err := s.db.
		Distinct("persons.*").
		Table("persons").
		Joins("JOIN memory_person ON memory_person.person_id = persons.id").
		Joins("JOIN memories ON memories.id = memory_person.memory_id").
		Where("memories.source_message_id = ? AND persons.pipeline_version = ?", messageID, version).
		Find(&persons).Error
	return persons, err
}
