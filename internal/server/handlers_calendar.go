package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/alexanderramin/pointer/internal/calendar"
	"github.com/alexanderramin/pointer/internal/domain"
)

const (
	accessTokenCookie  = "google_access_token"
	refreshTokenCookie = "google_refresh_token"
)

func (s *Server) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	authURL, err := s.google.AuthURL()
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Google Calendar API not configured")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"authUrl": authURL})
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("error") != "" {
		http.Redirect(w, r, "/?error=auth_failed", http.StatusTemporaryRedirect)
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Redirect(w, r, "/?error=no_code", http.StatusTemporaryRedirect)
		return
	}
	if !s.googleCfg.Configured() {
		http.Redirect(w, r, "/?error=not_configured", http.StatusTemporaryRedirect)
		return
	}

	tokens, err := s.google.Exchange(r.Context(), code)
	if err != nil {
		s.log.Warn("token exchange failed", zap.Error(err))
		http.Redirect(w, r, "/?error=token_failed", http.StatusTemporaryRedirect)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   3600,
	})
	if tokens.RefreshToken != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     refreshTokenCookie,
			Value:    tokens.RefreshToken,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   30 * 24 * 60 * 60,
		})
	}

	// A stored copy lets the background sync run without a browser
	// request carrying the cookies.
	if err := s.store.SaveTokens(r.Context(), *tokens); err != nil {
		s.log.Warn("persisting tokens failed", zap.Error(err))
	}
	if err := s.store.SetSyncEnabled(r.Context(), true); err != nil {
		s.log.Warn("enabling calendar sync failed", zap.Error(err))
	}

	http.Redirect(w, r, "/?success=connected", http.StatusTemporaryRedirect)
}

// requestTokens resolves the OAuth tokens for a request: cookies first,
// then the stored copy.
func (s *Server) requestTokens(r *http.Request) *calendar.Tokens {
	var tokens calendar.Tokens
	if c, err := r.Cookie(accessTokenCookie); err == nil {
		tokens.AccessToken = c.Value
	}
	if c, err := r.Cookie(refreshTokenCookie); err == nil {
		tokens.RefreshToken = c.Value
	}
	if tokens.AccessToken != "" {
		return &tokens
	}

	stored, err := s.store.Tokens(r.Context())
	if err != nil {
		s.log.Warn("loading stored tokens failed", zap.Error(err))
		return nil
	}
	return stored
}

func (s *Server) handleGoogleSync(w http.ResponseWriter, r *http.Request) {
	tokens := s.requestTokens(r)
	if tokens == nil || tokens.AccessToken == "" {
		s.errorResponse(w, http.StatusUnauthorized, "No access token found. Please reconnect to Google Calendar.")
		return
	}

	var req struct {
		Events []domain.CalendarEvent `json:"events"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	// The client's list is the source of truth for local edits; persist
	// it before reconciling so the merge starts from what the user sees.
	if req.Events != nil {
		for i := range req.Events {
			req.Events[i].Normalize()
		}
		if err := s.store.SaveEvents(r.Context(), req.Events); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Failed to save events")
			return
		}
	}

	merged, err := s.reconciler.Sync(r.Context(), *tokens)
	switch {
	case errors.Is(err, calendar.ErrAuthRequired):
		s.errorResponse(w, http.StatusUnauthorized, "Google Calendar authorization expired. Please reconnect to Google Calendar.")
		return
	case errors.Is(err, calendar.ErrSyncInFlight):
		s.errorResponse(w, http.StatusConflict, "A calendar sync is already in progress.")
		return
	case err != nil:
		s.errorResponse(w, http.StatusInternalServerError, "Failed to sync with Google Calendar")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "events": merged})
}
