package extraction

import (
	"strings"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
)

// memStore is an in-memory Store used by the package tests. It mirrors
// the semantics the gorm store provides: case-insensitive name and title
// matches, newest-first recency ordering, and max-confidence link merges.
type memStore struct {
	sessions map[uint]*models.Session
	messages []*models.Message
	memories []*models.Memory
	persons  []*models.Person
	chapters []*models.Chapter
	runs     []*models.PromptRun

	questions []*models.QuestionQueue

	memoryPersons  map[[2]uint]float64
	memoryChapters map[[2]uint]float64

	nextID uint
}

func newMemStore() *memStore {
	return &memStore{
		sessions:       map[uint]*models.Session{},
		memoryPersons:  map[[2]uint]float64{},
		memoryChapters: map[[2]uint]float64{},
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) addSession(userID uint) *models.Session {
	session := &models.Session{ID: s.id(), UserID: userID}
	s.sessions[session.ID] = session
	return session
}

func (s *memStore) addPerson(userID uint, name string, personType models.PersonType, version models.PipelineVersion) *models.Person {
	person := &models.Person{ID: s.id(), UserID: userID, DisplayName: name, Type: personType, PipelineVersion: version}
	s.persons = append(s.persons, person)
	return person
}

func (s *memStore) GetSession(id uint) (*models.Session, error) {
	return s.sessions[id], nil
}

func (s *memStore) CreateMessage(m *models.Message) error {
	m.ID = s.id()
	s.messages = append(s.messages, m)
	return nil
}

func (s *memStore) RecentMessages(sessionID uint, limit int, excludeMessageID uint) ([]models.Message, error) {
	var out []models.Message
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		m := s.messages[i]
		if m.SessionID == sessionID && m.ID != excludeMessageID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (s *memStore) RecentMemories(userID uint, limit int) ([]models.Memory, error) {
	var out []models.Memory
	for i := len(s.memories) - 1; i >= 0 && len(out) < limit; i-- {
		if s.memories[i].UserID == userID {
			out = append(out, *s.memories[i])
		}
	}
	return out, nil
}

func (s *memStore) RecentPersons(userID uint, limit int) ([]models.Person, error) {
	var out []models.Person
	for i := len(s.persons) - 1; i >= 0 && len(out) < limit; i-- {
		if s.persons[i].UserID == userID {
			out = append(out, *s.persons[i])
		}
	}
	return out, nil
}

func (s *memStore) RecentChapters(userID uint, limit int) ([]models.Chapter, error) {
	var out []models.Chapter
	for i := len(s.chapters) - 1; i >= 0 && len(out) < limit; i-- {
		if s.chapters[i].UserID == userID {
			out = append(out, *s.chapters[i])
		}
	}
	return out, nil
}

func (s *memStore) FindPersonByName(userID uint, name string, version models.PipelineVersion) (*models.Person, error) {
	for _, p := range s.persons {
		if p.UserID == userID && p.PipelineVersion == version && strings.EqualFold(p.DisplayName, name) {
			return p, nil
		}
	}
	return nil, nil
}

func (s *memStore) PersonsByType(userID uint, personType models.PersonType, version models.PipelineVersion) ([]models.Person, error) {
	var out []models.Person
	for _, p := range s.persons {
		if p.UserID == userID && p.Type == personType && p.PipelineVersion == version {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *memStore) CreatePerson(p *models.Person) error {
	p.ID = s.id()
	s.persons = append(s.persons, p)
	return nil
}

func (s *memStore) SavePerson(p *models.Person) error {
	for i, existing := range s.persons {
		if existing.ID == p.ID {
			s.persons[i] = p
			return nil
		}
	}
	s.persons = append(s.persons, p)
	return nil
}

func (s *memStore) CreateMemory(m *models.Memory) error {
	m.ID = s.id()
	s.memories = append(s.memories, m)
	return nil
}

func (s *memStore) UpsertMemoryPerson(memoryID, personID uint, confidence float64) error {
	key := [2]uint{memoryID, personID}
	if existing, ok := s.memoryPersons[key]; ok && existing > confidence {
		return nil
	}
	s.memoryPersons[key] = confidence
	return nil
}

func (s *memStore) UpsertMemoryChapter(memoryID, chapterID uint, confidence float64) error {
	key := [2]uint{memoryID, chapterID}
	if existing, ok := s.memoryChapters[key]; ok && existing > confidence {
		return nil
	}
	s.memoryChapters[key] = confidence
	return nil
}

func (s *memStore) FindChapterByTitle(userID uint, title string) (*models.Chapter, error) {
	for _, c := range s.chapters {
		if c.UserID == userID && strings.EqualFold(c.Title, title) {
			return c, nil
		}
	}
	return nil, nil
}

func (s *memStore) CountChapters(userID uint) (int64, error) {
	var count int64
	for _, c := range s.chapters {
		if c.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) CreateChapter(c *models.Chapter) error {
	c.ID = s.id()
	s.chapters = append(s.chapters, c)
	return nil
}

func (s *memStore) ChapterMemoryCount(chapterID uint) (int64, error) {
	var count int64
	for key := range s.memoryChapters {
		if key[1] == chapterID {
			count++
		}
	}
	return count, nil
}

func (s *memStore) CreateQuestion(q *models.QuestionQueue) error {
	q.ID = s.id()
	s.questions = append(s.questions, q)
	return nil
}

func (s *memStore) CreatePromptRun(r *models.PromptRun) error {
	r.ID = s.id()
	s.runs = append(s.runs, r)
	return nil
}

func (s *memStore) Transaction(fn func(Store) error) error {
	return fn(s)
}

func (s *memStore) personByID(id uint) *models.Person {
	for _, p := range s.persons {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *memStore) runByName(name string) *models.PromptRun {
	for _, r := range s.runs {
		if r.PromptName == name {
			return r
		}
	}
	return nil
}
