package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// GenerateRequest holds the parameters for one generation call. Profile
// must be resolved by the caller before the call; the client never
// consults shared state to pick a model.
type GenerateRequest struct {
	Tool    string // tool name for telemetry (chat, essay, quiz, ...)
	Prompt  string
	Profile Profile
}

// GenerateResponse holds the result of a generation call.
type GenerateResponse struct {
	Text      string
	Model     string
	LatencyMs int64
}

// ChunkFunc receives incremental output during a streaming generation.
// Returning an error aborts the stream.
type ChunkFunc func(chunk string) error

// Client provides access to the generation backend.
type Client interface {
	// Generate sends a prompt and returns the whole text response at once.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error)

	// GenerateStream sends a prompt and delivers output incrementally via
	// onChunk. The returned response carries the concatenated text.
	GenerateStream(ctx context.Context, req GenerateRequest, onChunk ChunkFunc) (*GenerateResponse, error)

	// ListModels returns the names of models installed on the backend.
	ListModels(ctx context.Context) ([]string, error)

	// Pull asks the backend to download a model. The call returns once the
	// backend has accepted the request.
	Pull(ctx context.Context, model string) error

	// Available checks whether the backend is reachable.
	Available(ctx context.Context) bool
}

// ollamaClient implements Client using the Ollama HTTP API.
type ollamaClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewOllamaClient creates a Client that talks to a local Ollama instance.
func NewOllamaClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &ollamaClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

// generateRequest is the JSON body sent to POST /api/generate.
type generateRequest struct {
	Model   string  `json:"model"`
	Prompt  string  `json:"prompt"`
	Stream  bool    `json:"stream"`
	Options Options `json:"options"`
}

// generateResponse is one JSON object returned by POST /api/generate.
// Non-streaming calls return a single object; streaming calls return one
// object per chunk with Done marking the last.
type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

func (c *ollamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	body := generateRequest{
		Model:   req.Profile.Model,
		Prompt:  req.Prompt,
		Stream:  false,
		Options: req.Profile.Options,
	}

	var lastErr error
	attempts := 1 + c.cfg.MaxRetries

	for i := 0; i < attempts; i++ {
		resp, err := c.doGenerate(ctx, body)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			c.observer.OnCallComplete(CallEvent{
				Tool:      req.Tool,
				Model:     req.Profile.Model,
				LatencyMs: latency,
				Success:   true,
			})
			return &GenerateResponse{
				Text:      resp.Response,
				Model:     resp.Model,
				LatencyMs: latency,
			}, nil
		}
		lastErr = err

		// Don't retry on context cancellation/timeout.
		if ctx.Err() != nil {
			break
		}
	}

	return nil, c.finishError(req, start, lastErr, ctx.Err() != nil)
}

func (c *ollamaClient) GenerateStream(ctx context.Context, req GenerateRequest, onChunk ChunkFunc) (*GenerateResponse, error) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	body := generateRequest{
		Model:   req.Profile.Model,
		Prompt:  req.Prompt,
		Stream:  true,
		Options: req.Profile.Options,
	}

	httpResp, err := c.post(ctx, "/api/generate", body)
	if err != nil {
		return nil, c.finishError(req, start, err, ctx.Err() != nil)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		err := fmt.Errorf("ollama returned status %d: %s", httpResp.StatusCode, string(respBody))
		return nil, c.finishError(req, start, err, false)
	}

	var text bytes.Buffer
	model := req.Profile.Model

	scanner := bufio.NewScanner(httpResp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			return nil, c.finishError(req, start, fmt.Errorf("decoding stream chunk: %w", err), false)
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if chunk.Response != "" {
			text.WriteString(chunk.Response)
			if onChunk != nil {
				if err := onChunk(chunk.Response); err != nil {
					return nil, c.finishError(req, start, err, false)
				}
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, c.finishError(req, start, err, ctx.Err() != nil)
	}

	latency := time.Since(start).Milliseconds()
	c.observer.OnCallComplete(CallEvent{
		Tool:      req.Tool,
		Model:     model,
		LatencyMs: latency,
		Success:   true,
	})
	return &GenerateResponse{
		Text:      text.String(),
		Model:     model,
		LatencyMs: latency,
	}, nil
}

// finishError emits the failure event and maps the raw error onto the
// package sentinels.
func (c *ollamaClient) finishError(req GenerateRequest, start time.Time, lastErr error, timedOut bool) error {
	latency := time.Since(start).Milliseconds()
	c.observer.OnCallComplete(CallEvent{
		Tool:      req.Tool,
		Model:     req.Profile.Model,
		LatencyMs: latency,
		Success:   false,
		ErrorCode: errorCode(lastErr, timedOut),
	})

	if timedOut {
		return ErrTimeout
	}
	if isConnectionError(lastErr) {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

func (c *ollamaClient) doGenerate(ctx context.Context, body generateRequest) (*generateResponse, error) {
	httpResp, err := c.post(ctx, "/api/generate", body)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp generateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &resp, nil
}

func (c *ollamaClient) post(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.http.Do(httpReq)
}

func (c *ollamaClient) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return nil, ErrUnavailable
		}
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", httpResp.StatusCode)
	}

	var resp tagsResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (c *ollamaClient) Pull(ctx context.Context, model string) error {
	httpResp, err := c.post(ctx, "/api/pull", pullRequest{Name: model, Stream: false})
	if err != nil {
		if isConnectionError(err) {
			return ErrUnavailable
		}
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return fmt.Errorf("ollama returned status %d: %s", httpResp.StatusCode, string(respBody))
	}
	return nil
}

func (c *ollamaClient) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error, timedOut bool) string {
	switch {
	case timedOut:
		return "TIMEOUT"
	case err == nil:
		return ""
	case isConnectionError(err):
		return "UNAVAILABLE"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}
