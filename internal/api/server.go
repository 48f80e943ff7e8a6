package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MikeSquared-Agency/scribe/internal/servicenow"
	"github.com/MikeSquared-Agency/scribe/internal/summarizer"
	"github.com/MikeSquared-Agency/scribe/internal/transcript"
)

// TranscriptPipeline runs the summarize-and-enrich sequence.
type TranscriptPipeline interface {
	Run(ctx context.Context, transcript string) (*summarizer.Result, error)
}

// StoryPusher is the slice of the ticketing client the push endpoint needs.
type StoryPusher interface {
	CreateStory(ctx context.Context, req servicenow.CreateStoryRequest) (*servicenow.Story, error)
	UpdateStory(ctx context.Context, fragment string, updates map[string]string) (*servicenow.Story, error)
}

// Publisher emits lifecycle events. May be nil when the bus is not
// configured.
type Publisher interface {
	Publish(subject string, data any) error
}

type Server struct {
	router  *chi.Mux
	port    int
	store   transcript.Store
	pipe    TranscriptPipeline
	stories StoryPusher
	events  Publisher
	logger  *slog.Logger
}

func NewServer(port int, store transcript.Store, pipe TranscriptPipeline, stories StoryPusher, events Publisher, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:  router,
		port:    port,
		store:   store,
		pipe:    pipe,
		stories: stories,
		events:  events,
		logger:  logger,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/scribe/status", s.status)
	router.Post("/extract-transcript", s.extractTranscript)
	router.Get("/summarize-transcript/{filename}", s.summarizeTranscript)
	router.Post("/push-stories", s.pushStories)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"agent":  "scribe",
		"status": "ready",
	})
}
