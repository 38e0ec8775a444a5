package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alexanderramin/pointer/internal/calendar"
	"github.com/alexanderramin/pointer/internal/domain"
	"github.com/alexanderramin/pointer/internal/llm"
	"github.com/alexanderramin/pointer/internal/store"
	"github.com/alexanderramin/pointer/internal/testutil"
	"github.com/alexanderramin/pointer/internal/tools"
)

// fakeOllama answers every generate call with a fixed response and
// serves an empty model list.
func fakeOllama(t *testing.T, response string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			json.NewEncoder(w).Encode(map[string]any{"model": "test", "response": response, "done": true})
		case "/api/tags":
			json.NewEncoder(w).Encode(map[string]any{"models": []map[string]string{{"name": "llama3.1:8b"}}})
		case "/api/pull":
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

type testEnv struct {
	server *Server
	store  *store.Store
}

func newTestEnv(t *testing.T, ollamaURL, googleURL string) *testEnv {
	t.Helper()

	cfg := llm.DefaultConfig()
	cfg.Endpoint = ollamaURL
	cfg.TimeoutMs = 2000
	cfg.MaxRetries = 0
	client := llm.NewOllamaClient(cfg, nil)

	st := store.New(testutil.NewTestDB(t))
	profile := func(ctx context.Context) llm.Profile {
		mode, _ := st.SpeedMode(ctx)
		return cfg.Profile(mode)
	}
	toolSvc := tools.NewService(client, profile)

	gcfg := calendar.DefaultGoogleConfig()
	gcfg.ClientID = "client-id"
	gcfg.ClientSecret = "client-secret"
	gcfg.TimeoutMs = 2000
	if googleURL != "" {
		gcfg.TokenEndpoint = googleURL + "/token"
		gcfg.APIEndpoint = googleURL + "/calendar/v3"
	}
	google := calendar.NewGoogleClient(gcfg)
	reconciler := calendar.NewReconciler(google, st, zap.NewNop())

	return &testEnv{
		server: New(client, toolSvc, st, google, gcfg, reconciler, zap.NewNop(), 0),
		store:  st,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeResp(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	srv := fakeOllama(t, "")
	defer srv.Close()
	env := newTestEnv(t, srv.URL, "")

	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResp(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["ollama"])
}

func TestChat(t *testing.T) {
	srv := fakeOllama(t, "hi!")
	defer srv.Close()
	env := newTestEnv(t, srv.URL, "")

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi!", decodeResp(t, rec)["message"])
}

func TestChat_BackendDownReturnsApology(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")

	rec := env.do(t, http.MethodPost, "/api/chat", map[string]string{"message": "hello"})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, chatFallbackMessage, decodeResp(t, rec)["message"])
}

func TestEssay_MissingTopicIs400(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")

	rec := env.do(t, http.MethodPost, "/api/essay", map[string]string{"type": "narrative"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeResp(t, rec)["error"], "topic is required")
}

func TestEssay(t *testing.T) {
	srv := fakeOllama(t, "the essay text")
	defer srv.Close()
	env := newTestEnv(t, srv.URL, "")

	rec := env.do(t, http.MethodPost, "/api/essay", map[string]string{"topic": "bees"})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResp(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "the essay text", body["essay"])
}

func TestCodingQuiz_AlwaysReturnsQuiz(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")

	rec := env.do(t, http.MethodPost, "/api/coding-quiz", map[string]string{"code": "def f(): pass"})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeResp(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["note"])
	quizBody := body["quiz"].(map[string]any)
	assert.Len(t, quizBody["questions"], 5)
}

func TestQuizGenerateAndGrade(t *testing.T) {
	srv := fakeOllama(t, "1. What is 2+2?\n   A) 3\n   B) 4\n   C) 5\n   D) 6\n   Correct Answer: B\n")
	defer srv.Close()
	env := newTestEnv(t, srv.URL, "")

	rec := env.do(t, http.MethodPost, "/api/quiz/generate", map[string]any{
		"mode": "topic", "type": "multiple-choice", "count": 5, "content": "arithmetic",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	genBody := decodeResp(t, rec)
	questions := genBody["questions"].([]any)
	require.Len(t, questions, 1)

	// Grade a 7-question sheet with 3 correct: 43%.
	var sheet []map[string]any
	answers := make([]string, 7)
	for i := 0; i < 7; i++ {
		sheet = append(sheet, map[string]any{
			"id": fmt.Sprintf("q%d", i+1), "question": "q", "correctAnswer": "A",
		})
		if i < 3 {
			answers[i] = "a"
		} else {
			answers[i] = "b"
		}
	}
	rec = env.do(t, http.MethodPost, "/api/quiz/grade", map[string]any{
		"type": "multiple-choice", "questions": sheet, "answers": answers,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	gradeBody := decodeResp(t, rec)
	assert.Equal(t, float64(3), gradeBody["correct"])
	assert.Equal(t, float64(7), gradeBody["total"])
	assert.Equal(t, float64(43), gradeBody["score"])
}

func TestQuizGrade_NoQuestions(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	rec := env.do(t, http.MethodPost, "/api/quiz/grade", map[string]any{"type": "multiple-choice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListModels(t *testing.T) {
	srv := fakeOllama(t, "")
	defer srv.Close()
	env := newTestEnv(t, srv.URL, "")

	rec := env.do(t, http.MethodGet, "/api/models", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"llama3.1:8b"}, decodeResp(t, rec)["models"])
}

func TestListModels_BackendDown(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	rec := env.do(t, http.MethodGet, "/api/models", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, []any{}, decodeResp(t, rec)["models"])
}

func TestInstallModel_RequiresName(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	rec := env.do(t, http.MethodPost, "/api/install-model", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpeedModeRoundTrip(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")

	rec := env.do(t, http.MethodGet, "/api/speed-mode", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fast", decodeResp(t, rec)["currentMode"])

	rec = env.do(t, http.MethodPost, "/api/speed-mode", map[string]string{"mode": "quality"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/speed-mode", nil)
	assert.Equal(t, "quality", decodeResp(t, rec)["currentMode"])
}

func TestSpeedMode_InvalidMode(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	rec := env.do(t, http.MethodPost, "/api/speed-mode", map[string]string{"mode": "turbo"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTasksRoundTrip(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")

	task := testutil.NewTask("Write tests")
	rec := env.do(t, http.MethodPut, "/api/tasks", map[string]any{"tasks": []domain.Task{task}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decodeResp(t, rec)["tasks"].([]any)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Write tests", tasks[0].(map[string]any)["title"])
}

func TestEventCreateUpdateDelete(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")

	rec := env.do(t, http.MethodPost, "/api/events", map[string]string{
		"title": "Standup", "date": "2026-09-01", "time": "09:30",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeResp(t, rec)["event"].(map[string]any)
	eventID := created["id"].(string)
	require.NotEmpty(t, eventID)
	assert.Equal(t, domain.DefaultEventColor, created["color"])

	rec = env.do(t, http.MethodPut, "/api/events/"+eventID, map[string]string{
		"title": "Standup (moved)", "date": "2026-09-02", "time": "10:00",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeResp(t, rec)["event"].(map[string]any)
	assert.Equal(t, eventID, updated["id"])
	assert.Equal(t, "Standup (moved)", updated["title"])

	rec = env.do(t, http.MethodDelete, "/api/events/"+eventID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/events", nil)
	assert.Empty(t, decodeResp(t, rec)["events"])
}

func TestEventUpdate_NotFound(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	rec := env.do(t, http.MethodPut, "/api/events/nope", map[string]string{"title": "x", "date": "2026-09-01"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventCreate_RequiresTitleAndDate(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	rec := env.do(t, http.MethodPost, "/api/events", map[string]string{"title": "No date"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGoogleAuthURL(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	rec := env.do(t, http.MethodGet, "/api/google-calendar/auth", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeResp(t, rec)["authUrl"], "client_id=client-id")
}

func TestGoogleAuth_NotConfigured(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	env.server.google = calendar.NewGoogleClient(calendar.DefaultGoogleConfig())

	rec := env.do(t, http.MethodGet, "/api/google-calendar/auth", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGoogleCallback_SetsCookiesAndStoresTokens(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"access_token": "at-1", "refresh_token": "rt-1"})
	}))
	defer google.Close()
	env := newTestEnv(t, "http://127.0.0.1:1", google.URL)

	rec := env.do(t, http.MethodGet, "/api/google-calendar/callback?code=the-code", nil)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/?success=connected", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	names := map[string]string{}
	for _, c := range cookies {
		names[c.Name] = c.Value
		assert.True(t, c.HttpOnly)
	}
	assert.Equal(t, "at-1", names[accessTokenCookie])
	assert.Equal(t, "rt-1", names[refreshTokenCookie])

	tokens, err := env.store.Tokens(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tokens)
	assert.Equal(t, "at-1", tokens.AccessToken)

	enabled, err := env.store.SyncEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, enabled)
}

func TestGoogleCallback_ProviderError(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	rec := env.do(t, http.MethodGet, "/api/google-calendar/callback?error=access_denied", nil)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/?error=auth_failed", rec.Header().Get("Location"))
}

func TestGoogleSync_NoTokensIs401(t *testing.T) {
	env := newTestEnv(t, "http://127.0.0.1:1", "")
	rec := env.do(t, http.MethodPost, "/api/google-calendar/sync", map[string]any{"events": []any{}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGoogleSync_MergesWithStoredTokens(t *testing.T) {
	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{
					{"id": "g1", "summary": "Remote event", "start": map[string]string{"date": "2026-09-10"}},
				},
			})
		case r.Method == http.MethodPost:
			json.NewEncoder(w).Encode(map[string]string{"id": "created-1"})
		}
	}))
	defer google.Close()
	env := newTestEnv(t, "http://127.0.0.1:1", google.URL)

	require.NoError(t, env.store.SaveTokens(context.Background(), calendar.Tokens{AccessToken: "at-1"}))

	local := testutil.NewEvent("Local event", "2026-09-11", testutil.WithTime("09:00"))
	rec := env.do(t, http.MethodPost, "/api/google-calendar/sync", map[string]any{
		"events": []domain.CalendarEvent{local},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeResp(t, rec)
	assert.Equal(t, true, body["success"])
	events := body["events"].([]any)
	require.Len(t, events, 2)
	first := events[0].(map[string]any)
	second := events[1].(map[string]any)
	assert.Equal(t, local.ID, first["id"])
	assert.Equal(t, "created-1", first["googleEventId"])
	assert.Equal(t, "google_g1", second["id"])

	// The merged list is persisted.
	stored, err := env.store.Events(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
