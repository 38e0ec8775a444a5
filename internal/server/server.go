// Package server exposes the HTTP API the web client talks to: the AI
// tools, the persisted collections, and the Google Calendar connection.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/alexanderramin/pointer/internal/calendar"
	"github.com/alexanderramin/pointer/internal/llm"
	"github.com/alexanderramin/pointer/internal/store"
	"github.com/alexanderramin/pointer/internal/tools"
)

// Server is the HTTP API server.
type Server struct {
	client     llm.Client
	tools      *tools.Service
	store      *store.Store
	google     *calendar.GoogleClient
	googleCfg  calendar.GoogleConfig
	reconciler *calendar.Reconciler
	log        *zap.Logger
	router     chi.Router
	port       int
}

// New creates the server and wires all routes.
func New(
	client llm.Client,
	toolSvc *tools.Service,
	st *store.Store,
	google *calendar.GoogleClient,
	googleCfg calendar.GoogleConfig,
	reconciler *calendar.Reconciler,
	log *zap.Logger,
	port int,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		client:     client,
		tools:      toolSvc,
		store:      st,
		google:     google,
		googleCfg:  googleCfg,
		reconciler: reconciler,
		log:        log,
		port:       port,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Post("/essay", s.handleEssay)
		r.Post("/email", s.handleEmail)
		r.Post("/explain", s.handleExplain)
		r.Post("/answer-critic", s.handleAnswerCritic)
		r.Post("/coding-quiz", s.handleCodingQuiz)

		r.Route("/quiz", func(r chi.Router) {
			r.Post("/generate", s.handleQuizGenerate)
			r.Post("/grade", s.handleQuizGrade)
		})

		r.Get("/models", s.handleListModels)
		r.Post("/install-model", s.handleInstallModel)
		r.Get("/speed-mode", s.handleGetSpeedMode)
		r.Post("/speed-mode", s.handleSetSpeedMode)

		r.Route("/google-calendar", func(r chi.Router) {
			r.Get("/auth", s.handleGoogleAuth)
			r.Get("/callback", s.handleGoogleCallback)
			r.Post("/sync", s.handleGoogleSync)
		})

		r.Get("/tasks", s.handleGetTasks)
		r.Put("/tasks", s.handlePutTasks)
		r.Get("/docs", s.handleGetDocs)
		r.Put("/docs", s.handlePutDocs)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", s.handleGetEvents)
			r.Put("/", s.handlePutEvents)
			r.Post("/", s.handleCreateEvent)
			r.Put("/{eventID}", s.handleUpdateEvent)
			r.Delete("/{eventID}", s.handleDeleteEvent)
		})
	})

	s.router = r
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("0.0.0.0:%d", s.port)
	srv := &http.Server{Addr: addr, Handler: s.router}

	go func() {
		<-ctx.Done()
		s.log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("HTTP server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status": "ok",
		"ollama": s.client.Available(r.Context()),
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	if status >= http.StatusInternalServerError {
		s.log.Warn("request failed", zap.Int("status", status), zap.String("message", message))
	}
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// decodeBody parses a JSON request body, answering 400 itself on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// toolError maps a tool service error onto a response: validation
// failures turn into 400 with the field message, anything else into 500
// with the tool's generic failure message.
func (s *Server) toolError(w http.ResponseWriter, err error, failureMessage string) {
	if errors.Is(err, tools.ErrMissingInput) {
		msg := strings.TrimPrefix(err.Error(), tools.ErrMissingInput.Error()+": ")
		s.errorResponse(w, http.StatusBadRequest, msg)
		return
	}
	s.errorResponse(w, http.StatusInternalServerError, failureMessage)
}
