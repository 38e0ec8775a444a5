// Package tools implements the AI-assisted tools: chat, essay writer,
// email writer, explainer, answer critic, study quiz generation, and the
// coding quiz. Each tool builds a prompt, runs it through the generation
// client at the caller's current speed profile, and shapes the output.
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/pointer/internal/llm"
	"github.com/alexanderramin/pointer/internal/quiz"
)

// ErrMissingInput marks a request rejected before any model call because a
// required field is empty.
var ErrMissingInput = errors.New("missing required input")

// ProfileFunc resolves the speed profile to use for one request. It is
// called once per tool invocation so a concurrent profile change never
// splits a single request across models.
type ProfileFunc func(ctx context.Context) llm.Profile

// Service runs the AI tools against a generation client.
type Service struct {
	client  llm.Client
	profile ProfileFunc
}

// NewService creates a tool service. If profile is nil the default
// profile for the fast mode is used for every call.
func NewService(client llm.Client, profile ProfileFunc) *Service {
	if profile == nil {
		cfg := llm.DefaultConfig()
		profile = func(context.Context) llm.Profile { return cfg.Profile(llm.ModeFast) }
	}
	return &Service{client: client, profile: profile}
}

func (s *Service) generate(ctx context.Context, tool, prompt string) (string, error) {
	resp, err := s.client.Generate(ctx, llm.GenerateRequest{
		Tool:    tool,
		Prompt:  prompt,
		Profile: s.profile(ctx),
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Chat sends the user's message straight through as the prompt.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrMissingInput)
	}
	return s.generate(ctx, "chat", message)
}

// ChatStream is Chat with incremental delivery of the response.
func (s *Service) ChatStream(ctx context.Context, message string, onChunk llm.ChunkFunc) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrMissingInput)
	}
	resp, err := s.client.GenerateStream(ctx, llm.GenerateRequest{
		Tool:    "chat",
		Prompt:  message,
		Profile: s.profile(ctx),
	}, onChunk)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// EssayRequest selects the essay kind and target length. Unknown values
// fall back to an expository essay of medium length.
type EssayRequest struct {
	Topic  string `json:"topic"`
	Type   string `json:"type"`
	Length string `json:"length"`
}

// Essay writes a complete essay on the requested topic.
func (s *Service) Essay(ctx context.Context, req EssayRequest) (string, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return "", fmt.Errorf("%w: topic is required", ErrMissingInput)
	}
	return s.generate(ctx, "essay", essayPrompt(req.Topic, req.Type, req.Length))
}

// EmailRequest carries the draft or brief plus the desired tone and the
// action to take on it. Unknown values fall back to a polite rewrite.
type EmailRequest struct {
	Content string `json:"content"`
	Tone    string `json:"tone"`
	Action  string `json:"action"`
}

// Email writes, rewrites, or otherwise reworks an email.
func (s *Service) Email(ctx context.Context, req EmailRequest) (string, error) {
	if strings.TrimSpace(req.Content) == "" {
		return "", fmt.Errorf("%w: email content is required", ErrMissingInput)
	}
	return s.generate(ctx, "email", emailPrompt(req.Content, req.Tone, req.Action))
}

// ExplainRequest names the topic and the explanation style. Unknown
// styles fall back to simple everyday language.
type ExplainRequest struct {
	Topic string `json:"topic"`
	Style string `json:"style"`
}

// Explain produces an explanation of the topic in the requested style.
func (s *Service) Explain(ctx context.Context, req ExplainRequest) (string, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return "", fmt.Errorf("%w: topic is required", ErrMissingInput)
	}
	return s.generate(ctx, "explain", explainPrompt(req.Topic, req.Style))
}

// CritiqueRequest carries the answer under review and, optionally, the
// question it answers.
type CritiqueRequest struct {
	Answer   string `json:"answer"`
	Question string `json:"question"`
}

// Critique reviews an answer and returns deliberately tough feedback.
func (s *Service) Critique(ctx context.Context, req CritiqueRequest) (string, error) {
	if strings.TrimSpace(req.Answer) == "" {
		return "", fmt.Errorf("%w: answer is required", ErrMissingInput)
	}
	return s.generate(ctx, "answer-critic", criticPrompt(req.Question, req.Answer))
}

// StudyQuizRequest asks for a quiz generated from notes or about a topic.
type StudyQuizRequest struct {
	Mode    quiz.Mode `json:"mode"`
	Type    quiz.Type `json:"type"`
	Count   int       `json:"count"`
	Content string    `json:"content"`
}

// StudyQuizResult pairs the parsed questions with the raw generated text
// so callers can show the original when parsing came up short.
type StudyQuizResult struct {
	Raw       string          `json:"raw"`
	Questions []quiz.Question `json:"questions"`
}

// StudyQuiz generates and parses a study quiz. The question count
// defaults to 5.
func (s *Service) StudyQuiz(ctx context.Context, req StudyQuizRequest) (*StudyQuizResult, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrMissingInput)
	}
	count := req.Count
	if count <= 0 {
		count = 5
	}

	raw, err := s.generate(ctx, "study-quiz", quiz.GenerationPrompt(req.Type, req.Mode, req.Content, count))
	if err != nil {
		return nil, err
	}

	return &StudyQuizResult{
		Raw:       raw,
		Questions: quiz.Parse(raw, req.Type, count),
	}, nil
}
