// Package quiz parses model-generated quiz text into structured questions
// and grades user-submitted answers. Parsing is a best-effort line
// heuristic over the format the generation prompts ask for, not a grammar;
// exotic model output may produce malformed quizzes and that is accepted.
package quiz

// Type selects the question format of a quiz.
type Type string

const (
	TypeMultipleChoice Type = "multiple-choice"
	TypeShortAnswer    Type = "short-answer"
)

// ParseType maps a raw string to a Type, defaulting to multiple choice.
func ParseType(s string) Type {
	if Type(s) == TypeShortAnswer {
		return TypeShortAnswer
	}
	return TypeMultipleChoice
}

// Mode selects what the quiz is generated from.
type Mode string

const (
	ModeNotes Mode = "notes"
	ModeTopic Mode = "topic"
)

// Question is a single parsed quiz question. Options is populated only for
// multiple choice. CorrectAnswer holds a choice letter (A-D) for multiple
// choice, or the expected response text for short answer. UserAnswer and
// IsCorrect are filled in by grading and never persisted.
type Question struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer"`
	UserAnswer    string   `json:"userAnswer,omitempty"`
	IsCorrect     bool     `json:"isCorrect"`
}
