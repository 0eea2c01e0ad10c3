package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/extraction"
)

func uintParam(req *http.Request, name string) (uint, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return 0, errors.Errorf("missing required parameter %q", name)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Errorf("parameter %q must be a positive integer", name)
	}
	return uint(v), nil
}

func (s *Server) jsonHealth(w http.ResponseWriter, _ *http.Request) {
	RespondWithJSON(http.StatusOK, w, map[string]string{"status": "ok"})
}

func (s *Server) jsonUsers(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		var body struct {
			Name   string `json:"name"`
			Locale string `json:"locale"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(http.StatusBadRequest, w, "could not parse request body: "+err.Error())
			return
		}
		if body.Name == "" {
			respondError(http.StatusBadRequest, w, "name is required")
			return
		}
		user := &models.User{Name: body.Name, Locale: body.Locale}
		if err := s.store.CreateUser(user); err != nil {
			respondError(http.StatusInternalServerError, w, err.Error())
			return
		}
		RespondWithJSON(http.StatusCreated, w, user)
	case http.MethodGet:
		id, err := uintParam(req, "id")
		if err != nil {
			respondError(http.StatusBadRequest, w, err.Error())
			return
		}
		user, err := s.store.GetUser(id)
		if err != nil {
			respondError(http.StatusInternalServerError, w, err.Error())
			return
		}
		if user == nil {
			respondError(http.StatusNotFound, w, "user not found")
			return
		}
		RespondWithJSON(http.StatusOK, w, user)
	default:
		respondError(http.StatusMethodNotAllowed, w, "method not allowed")
	}
}

func (s *Server) jsonSessions(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		var body struct {
			UserID uint `json:"user_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(http.StatusBadRequest, w, "could not parse request body: "+err.Error())
			return
		}
		if body.UserID == 0 {
			respondError(http.StatusBadRequest, w, "user_id is required")
			return
		}
		session := &models.Session{UserID: body.UserID}
		if err := s.store.CreateSession(session); err != nil {
			respondError(http.StatusInternalServerError, w, err.Error())
			return
		}
		RespondWithJSON(http.StatusCreated, w, session)
	case http.MethodGet:
		userID, err := uintParam(req, "user_id")
		if err != nil {
			respondError(http.StatusBadRequest, w, err.Error())
			return
		}
		sessions, err := s.store.ListSessions(userID)
		if err != nil {
			respondError(http.StatusInternalServerError, w, err.Error())
			return
		}
		RespondWithJSON(http.StatusOK, w, sessions)
	default:
		respondError(http.StatusMethodNotAllowed, w, "method not allowed")
	}
}

// jsonMessages posts a message through the pipeline or lists a session's
// messages. Processing is synchronous: the response carries the run
// summary once the transaction has committed.
func (s *Server) jsonMessages(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodPost:
		var body struct {
			SessionID        uint                   `json:"session_id"`
			Text             string                 `json:"text"`
			Pipeline         models.PipelineVersion `json:"pipeline,omitempty"`
			ExtractorVersion string                 `json:"extractor_version,omitempty"`
			PlannerVersion   string                 `json:"planner_version,omitempty"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			respondError(http.StatusBadRequest, w, "could not parse request body: "+err.Error())
			return
		}
		if body.SessionID == 0 || body.Text == "" {
			respondError(http.StatusBadRequest, w, "session_id and text are required")
			return
		}

		summary, err := s.processor.ProcessMessage(req.Context(), body.SessionID, body.Text, extraction.Options{
			Pipeline:         body.Pipeline,
			ExtractorVersion: body.ExtractorVersion,
			PlannerVersion:   body.PlannerVersion,
		})
		if err != nil {
			switch {
			case errors.Is(err, extraction.ErrSessionNotFound):
				respondError(http.StatusNotFound, w, err.Error())
			case strings.Contains(err.Error(), "unknown"):
				respondError(http.StatusBadRequest, w, err.Error())
			default:
				log.WithError(err).Error("message processing failed")
				respondError(http.StatusInternalServerError, w, err.Error())
			}
			return
		}
		RespondWithJSON(http.StatusOK, w, summary)
	case http.MethodGet:
		sessionID, err := uintParam(req, "session_id")
		if err != nil {
			respondError(http.StatusBadRequest, w, err.Error())
			return
		}
		messages, err := s.store.ListMessages(sessionID)
		if err != nil {
			respondError(http.StatusInternalServerError, w, err.Error())
			return
		}
		RespondWithJSON(http.StatusOK, w, messages)
	default:
		respondError(http.StatusMethodNotAllowed, w, "method not allowed")
	}
}

func pipelineParam(req *http.Request) (models.PipelineVersion, bool) {
	version := models.PipelineVersion(req.URL.Query().Get("pipeline"))
	if version != "" && !models.ValidPipelineVersion(version) {
		return "", false
	}
	return version, true
}

func (s *Server) jsonMemories(w http.ResponseWriter, req *http.Request) {
	userID, err := uintParam(req, "user_id")
	if err != nil {
		respondError(http.StatusBadRequest, w, err.Error())
		return
	}
	version, ok := pipelineParam(req)
	if !ok {
		respondError(http.StatusBadRequest, w, "unknown pipeline version")
		return
	}
	memories, err := s.store.ListMemories(userID, version)
	if err != nil {
		respondError(http.StatusInternalServerError, w, err.Error())
		return
	}
	RespondWithJSON(http.StatusOK, w, memories)
}

func (s *Server) jsonPersons(w http.ResponseWriter, req *http.Request) {
	userID, err := uintParam(req, "user_id")
	if err != nil {
		respondError(http.StatusBadRequest, w, err.Error())
		return
	}
	version, ok := pipelineParam(req)
	if !ok {
		respondError(http.StatusBadRequest, w, "unknown pipeline version")
		return
	}
	persons, err := s.store.ListPersons(userID, version)
	if err != nil {
		respondError(http.StatusInternalServerError, w, err.Error())
		return
	}
	RespondWithJSON(http.StatusOK, w, persons)
}

func (s *Server) jsonChapters(w http.ResponseWriter, req *http.Request) {
	userID, err := uintParam(req, "user_id")
	if err != nil {
		respondError(http.StatusBadRequest, w, err.Error())
		return
	}
	chapters, err := s.store.ListChapters(userID)
	if err != nil {
		respondError(http.StatusInternalServerError, w, err.Error())
		return
	}
	RespondWithJSON(http.StatusOK, w, chapters)
}

func (s *Server) jsonQuestions(w http.ResponseWriter, req *http.Request) {
	userID, err := uintParam(req, "user_id")
	if err != nil {
		respondError(http.StatusBadRequest, w, err.Error())
		return
	}
	status := models.QuestionStatus(req.URL.Query().Get("status"))
	if status != "" && !models.ValidQuestionStatus(status) {
		respondError(http.StatusBadRequest, w, "unknown question status")
		return
	}
	questions, err := s.store.ListQuestions(userID, status)
	if err != nil {
		respondError(http.StatusInternalServerError, w, err.Error())
		return
	}
	RespondWithJSON(http.StatusOK, w, questions)
}

// jsonQuestionStatus is the only mutation question rows receive: an
// explicit pending -> asked/dismissed transition from the product surface.
func (s *Server) jsonQuestionStatus(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		respondError(http.StatusMethodNotAllowed, w, "method not allowed")
		return
	}
	var body struct {
		ID     uint                  `json:"id"`
		Status models.QuestionStatus `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(http.StatusBadRequest, w, "could not parse request body: "+err.Error())
		return
	}
	if body.ID == 0 || !models.ValidQuestionStatus(body.Status) {
		respondError(http.StatusBadRequest, w, "id and a valid status are required")
		return
	}
	question, err := s.store.UpdateQuestionStatus(body.ID, body.Status)
	if err != nil {
		respondError(http.StatusInternalServerError, w, err.Error())
		return
	}
	if question == nil {
		respondError(http.StatusNotFound, w, "question not found")
		return
	}
	RespondWithJSON(http.StatusOK, w, question)
}

func (s *Server) jsonPromptRuns(w http.ResponseWriter, req *http.Request) {
	sessionID, err := uintParam(req, "session_id")
	if err != nil {
		respondError(http.StatusBadRequest, w, err.Error())
		return
	}
	runs, err := s.store.ListPromptRuns(sessionID)
	if err != nil {
		respondError(http.StatusInternalServerError, w, err.Error())
		return
	}
	RespondWithJSON(http.StatusOK, w, runs)
}
