// Package calendar syncs the local event list with Google Calendar. The
// provider client talks to the Google REST endpoints directly; the
// reconciler merges the two event sets and pushes local-only events up.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/alexanderramin/pointer/internal/domain"
)

var (
	// ErrNotConfigured means the Google client id/secret are missing.
	ErrNotConfigured = errors.New("google calendar not configured")

	// ErrAuthRequired means the tokens are absent, expired, and not
	// refreshable; the user has to reconnect.
	ErrAuthRequired = errors.New("google calendar authorization required")
)

// Tokens is an OAuth token pair. RefreshToken may be empty when Google
// did not issue one.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// GoogleConfig configures the Google Calendar client. The endpoint
// fields exist so tests can point the client at a local server.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthEndpoint  string
	TokenEndpoint string
	APIEndpoint   string
	TimeoutMs     int
}

// DefaultGoogleConfig returns the production Google endpoints.
func DefaultGoogleConfig() GoogleConfig {
	return GoogleConfig{
		RedirectURI:   "http://localhost:3000/api/google-calendar/callback",
		AuthEndpoint:  "https://accounts.google.com/o/oauth2/v2/auth",
		TokenEndpoint: "https://oauth2.googleapis.com/token",
		APIEndpoint:   "https://www.googleapis.com/calendar/v3",
		TimeoutMs:     15000,
	}
}

// LoadGoogleConfig reads the client credentials from the environment.
func LoadGoogleConfig() GoogleConfig {
	cfg := DefaultGoogleConfig()
	cfg.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	cfg.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	if v := os.Getenv("GOOGLE_REDIRECT_URI"); v != "" {
		cfg.RedirectURI = v
	}
	return cfg
}

// Configured reports whether the credentials needed for OAuth are set.
func (c GoogleConfig) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// RemoteEvent is one event item as the Google Calendar API returns it.
// All-day events carry Date; timed events carry DateTime.
type RemoteEvent struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	Start       struct {
		DateTime string `json:"dateTime,omitempty"`
		Date     string `json:"date,omitempty"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime,omitempty"`
		Date     string `json:"date,omitempty"`
	} `json:"end"`
	ColorID string `json:"colorId,omitempty"`
}

// GoogleClient calls the Google Calendar REST API.
type GoogleClient struct {
	cfg  GoogleConfig
	http *http.Client
}

// NewGoogleClient creates a client for the configured endpoints.
func NewGoogleClient(cfg GoogleConfig) *GoogleClient {
	return &GoogleClient{
		cfg:  cfg,
		http: &http.Client{Timeout: time.Duration(cfg.TimeoutMs) * time.Millisecond},
	}
}

// AuthURL builds the consent URL with the calendar scope, offline access
// for a refresh token, and forced consent.
func (c *GoogleClient) AuthURL() (string, error) {
	if !c.cfg.Configured() {
		return "", ErrNotConfigured
	}
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "https://www.googleapis.com/auth/calendar")
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	return c.cfg.AuthEndpoint + "?" + q.Encode(), nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Exchange swaps an authorization code for a token pair.
func (c *GoogleClient) Exchange(ctx context.Context, code string) (*Tokens, error) {
	if !c.cfg.Configured() {
		return nil, ErrNotConfigured
	}
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", c.cfg.RedirectURI)

	tok, err := c.postToken(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}
	return &Tokens{AccessToken: tok.AccessToken, RefreshToken: tok.RefreshToken}, nil
}

// Refresh trades a refresh token for a fresh access token.
func (c *GoogleClient) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if !c.cfg.Configured() {
		return "", ErrNotConfigured
	}
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")

	tok, err := c.postToken(ctx, form)
	if err != nil {
		return "", fmt.Errorf("refreshing access token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("refresh response carried no access token")
	}
	return tok.AccessToken, nil
}

func (c *GoogleClient) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, string(body))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}
	return &tok, nil
}

// ListEvents fetches the primary calendar over a fixed window: from the
// first day of the previous month through the first day of the same
// month next year. Recurring events come back expanded and sorted by
// start time.
func (c *GoogleClient) ListEvents(ctx context.Context, accessToken string) ([]RemoteEvent, error) {
	now := time.Now()
	timeMin := time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
	timeMax := time.Date(now.Year()+1, now.Month(), 1, 0, 0, 0, 0, now.Location())

	q := url.Values{}
	q.Set("timeMin", timeMin.UTC().Format(time.RFC3339))
	q.Set("timeMax", timeMax.UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.APIEndpoint+"/calendars/primary/events?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar API returned status %d", resp.StatusCode)
	}

	var data struct {
		Items []RemoteEvent `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decoding event list: %w", err)
	}
	return data.Items, nil
}

// remoteEventBody is the JSON payload for event create and update calls.
type remoteEventBody struct {
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Start       remoteEventTime `json:"start"`
	End         remoteEventTime `json:"end"`
}

type remoteEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

// eventSpan computes the remote start and end for a local event: one
// hour when the event has a time, a full day when it is all-day.
func eventSpan(ev domain.CalendarEvent) (time.Time, time.Time, error) {
	clock := ev.Time
	if clock == "" {
		clock = "00:00"
	}
	start, err := time.ParseInLocation("2006-01-02T15:04", ev.Date+"T"+clock, time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing event start: %w", err)
	}

	span := 24 * time.Hour
	if ev.Time != "" {
		span = time.Hour
	}
	return start, start.Add(span), nil
}

func buildRemoteEventBody(ev domain.CalendarEvent) (*remoteEventBody, error) {
	start, end, err := eventSpan(ev)
	if err != nil {
		return nil, err
	}
	tz := time.Local.String()
	return &remoteEventBody{
		Summary:     ev.Title,
		Description: ev.Description,
		Start:       remoteEventTime{DateTime: start.Format(time.RFC3339), TimeZone: tz},
		End:         remoteEventTime{DateTime: end.Format(time.RFC3339), TimeZone: tz},
	}, nil
}

// CreateEvent inserts a local event into the primary calendar and
// returns the id Google assigned.
func (c *GoogleClient) CreateEvent(ctx context.Context, accessToken string, ev domain.CalendarEvent) (string, error) {
	body, err := buildRemoteEventBody(ev)
	if err != nil {
		return "", err
	}

	resp, err := c.doEventJSON(ctx, http.MethodPost, "/calendars/primary/events", accessToken, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("creating remote event: status %d", resp.StatusCode)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decoding created event: %w", err)
	}
	return created.ID, nil
}

// UpdateEvent overwrites the remote copy of an event. Returns whether
// the update was accepted.
func (c *GoogleClient) UpdateEvent(ctx context.Context, accessToken, remoteID string, ev domain.CalendarEvent) (bool, error) {
	body, err := buildRemoteEventBody(ev)
	if err != nil {
		return false, err
	}

	resp, err := c.doEventJSON(ctx, http.MethodPut, "/calendars/primary/events/"+url.PathEscape(remoteID), accessToken, body)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

func (c *GoogleClient) doEventJSON(ctx context.Context, method, path, accessToken string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIEndpoint+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}
