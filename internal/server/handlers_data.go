package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexanderramin/pointer/internal/domain"
)

func (s *Server) handleGetTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.Tasks(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) handlePutTasks(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tasks []domain.Task `json:"tasks"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	for i := range req.Tasks {
		req.Tasks[i].Normalize()
	}
	if err := s.store.SaveTasks(r.Context(), req.Tasks); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save tasks")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleGetDocs(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.Docs(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load docs")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"docs": docs})
}

func (s *Server) handlePutDocs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Docs []domain.Doc `json:"docs"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	for i := range req.Docs {
		req.Docs[i].Normalize()
	}
	if err := s.store.SaveDocs(r.Context(), req.Docs); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save docs")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.store.Events(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load events")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handlePutEvents(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Events []domain.CalendarEvent `json:"events"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	for i := range req.Events {
		req.Events[i].Normalize()
	}
	if err := s.store.SaveEvents(r.Context(), req.Events); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save events")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.CalendarEvent
	if !s.decodeBody(w, r, &ev) {
		return
	}
	if ev.Title == "" || ev.Date == "" {
		s.errorResponse(w, http.StatusBadRequest, "Title and date are required")
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev.Normalize()

	events, err := s.store.Events(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load events")
		return
	}
	events = append(events, ev)
	if err := s.store.SaveEvents(r.Context(), events); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save events")
		return
	}
	s.jsonResponse(w, http.StatusCreated, map[string]any{"success": true, "event": ev})
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	var ev domain.CalendarEvent
	if !s.decodeBody(w, r, &ev) {
		return
	}

	events, err := s.store.Events(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load events")
		return
	}

	idx := -1
	for i := range events {
		if events[i].ID == eventID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.errorResponse(w, http.StatusNotFound, "Event not found")
		return
	}

	// The id and the remote linkage are immutable through this endpoint.
	ev.ID = eventID
	ev.RemoteID = events[idx].RemoteID
	ev.Remote = events[idx].Remote
	ev.Normalize()
	events[idx] = ev

	if err := s.store.SaveEvents(r.Context(), events); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save events")
		return
	}

	// Push the edit to the remote copy in the background, best-effort.
	if ev.RemoteID != "" {
		if tokens := s.requestTokens(r); tokens != nil {
			go func(ev domain.CalendarEvent) {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				s.reconciler.PropagateUpdate(ctx, *tokens, ev)
			}(ev)
		} else {
			s.log.Debug("skipping remote event update, no tokens", zap.String("event_id", ev.ID))
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "event": ev})
}

// handleDeleteEvent removes an event locally. The remote copy, if any,
// is deliberately left alone; the next sync re-imports events the user
// still has on Google.
func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	events, err := s.store.Events(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load events")
		return
	}

	kept := events[:0]
	found := false
	for _, ev := range events {
		if ev.ID == eventID {
			found = true
			continue
		}
		kept = append(kept, ev)
	}
	if !found {
		s.errorResponse(w, http.StatusNotFound, "Event not found")
		return
	}

	if err := s.store.SaveEvents(r.Context(), kept); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to save events")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true})
}
