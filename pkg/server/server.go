// Package server exposes the data model and the message pipeline over a
// small JSON API. Thin by intent: validation and persistence semantics
// live in the extraction and db packages.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	metricsprom "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmetrics "github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"

	"github.com/lifebook-lab/lifebook/pkg/db/models"
	"github.com/lifebook-lab/lifebook/pkg/extraction"
)

// The recorder registers its collectors on the default registry, so it
// must exist exactly once regardless of how many handlers are built.
var httpRecorder = metricsprom.NewRecorder(metricsprom.Config{})

// Store is the persistence surface the API reads and writes outside the
// pipeline's transaction scope.
type Store interface {
	CreateUser(*models.User) error
	GetUser(id uint) (*models.User, error)
	CreateSession(*models.Session) error
	ListSessions(userID uint) ([]models.Session, error)
	ListMessages(sessionID uint) ([]models.Message, error)
	ListMemories(userID uint, version models.PipelineVersion) ([]models.Memory, error)
	ListPersons(userID uint, version models.PipelineVersion) ([]models.Person, error)
	ListChapters(userID uint) ([]models.Chapter, error)
	ListQuestions(userID uint, status models.QuestionStatus) ([]models.QuestionQueue, error)
	UpdateQuestionStatus(id uint, status models.QuestionStatus) (*models.QuestionQueue, error)
	ListPromptRuns(sessionID uint) ([]models.PromptRun, error)
}

// MessageProcessor runs the extraction pipeline for one incoming message.
type MessageProcessor interface {
	ProcessMessage(ctx context.Context, sessionID uint, text string, opts extraction.Options) (*extraction.Summary, error)
}

type Server struct {
	listenAddr string
	store      Store
	processor  MessageProcessor

	httpServer *http.Server
}

func New(listenAddr string, store Store, processor MessageProcessor) *Server {
	return &Server{
		listenAddr: listenAddr,
		store:      store,
		processor:  processor,
	}
}

func (s *Server) Handler() http.Handler {
	serveMux := http.NewServeMux()
	serveMux.HandleFunc("/api/health", s.jsonHealth)
	serveMux.HandleFunc("/api/users", s.jsonUsers)
	serveMux.HandleFunc("/api/sessions", s.jsonSessions)
	serveMux.HandleFunc("/api/messages", s.jsonMessages)
	serveMux.HandleFunc("/api/memories", s.jsonMemories)
	serveMux.HandleFunc("/api/persons", s.jsonPersons)
	serveMux.HandleFunc("/api/chapters", s.jsonChapters)
	serveMux.HandleFunc("/api/questions", s.jsonQuestions)
	serveMux.HandleFunc("/api/questions/status", s.jsonQuestionStatus)
	serveMux.HandleFunc("/api/prompt_runs", s.jsonPromptRuns)
	serveMux.Handle("/metrics", promhttp.Handler())

	mdlw := httpmetrics.New(httpmetrics.Config{Recorder: httpRecorder})
	return std.Handler("", mdlw, serveMux)
}

func (s *Server) Serve() error {
	s.httpServer = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.WithField("addr", s.listenAddr).Info("server listening")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
