package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/pointer/internal/llm"
)

// CodingQuestion is one multiple-choice question about a piece of code.
// CorrectAnswer is the 0-based index into Options.
type CodingQuestion struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// CodingQuiz is a full quiz generated from submitted code.
type CodingQuiz struct {
	ID             string           `json:"id"`
	Questions      []CodingQuestion `json:"questions"`
	TotalQuestions int              `json:"totalQuestions"`
}

// CodingQuizResult carries the quiz plus a note when the quiz had to be
// produced without the model.
type CodingQuizResult struct {
	Quiz CodingQuiz `json:"quiz"`
	Note string     `json:"note,omitempty"`
}

// codingQuizEnvelope matches the JSON structure the prompt demands.
type codingQuizEnvelope struct {
	Quiz CodingQuiz `json:"quiz"`
}

const codingQuizFallbackNote = "Generated fallback quiz due to AI service issues"

// CodingQuiz generates a quiz about the submitted code. A usable quiz
// always comes back: when the model is unreachable the static fallback
// quiz is returned with a note, and when the model answers but its output
// yields no parseable quiz a fallback built from the shape of the code is
// used instead. The only error is an empty code field.
func (s *Service) CodingQuiz(ctx context.Context, code string) (*CodingQuizResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%w: code is required", ErrMissingInput)
	}

	quizID := fmt.Sprintf("quiz_%d", time.Now().UnixMilli())

	raw, err := s.generate(ctx, "coding-quiz", codingQuizPrompt(code, quizID))
	if err != nil {
		return &CodingQuizResult{Quiz: staticFallbackQuiz(quizID), Note: codingQuizFallbackNote}, nil
	}

	env, err := llm.ExtractJSON[codingQuizEnvelope](raw, nil)
	if err != nil {
		return &CodingQuizResult{Quiz: shapeFallbackQuiz(code, quizID)}, nil
	}
	if env.Quiz.Questions == nil {
		return &CodingQuizResult{Quiz: staticFallbackQuiz(quizID), Note: codingQuizFallbackNote}, nil
	}

	return &CodingQuizResult{Quiz: sanitizeCodingQuiz(env.Quiz, quizID)}, nil
}

// sanitizeCodingQuiz fills in anything the model left out so the quiz is
// always well formed for the client.
func sanitizeCodingQuiz(q CodingQuiz, quizID string) CodingQuiz {
	if q.ID == "" {
		q.ID = quizID
	}
	for i := range q.Questions {
		question := &q.Questions[i]
		if question.ID == "" {
			question.ID = fmt.Sprintf("q%d", i+1)
		}
		if question.Question == "" {
			question.Question = fmt.Sprintf("Question %d", i+1)
		}
		if len(question.Options) == 0 {
			question.Options = []string{"Option A", "Option B", "Option C", "Option D"}
		}
		if question.CorrectAnswer < 0 || question.CorrectAnswer >= len(question.Options) {
			question.CorrectAnswer = 0
		}
		if question.Explanation == "" {
			question.Explanation = "No explanation provided."
		}
	}
	q.TotalQuestions = len(q.Questions)
	return q
}
