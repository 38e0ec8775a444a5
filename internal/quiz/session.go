package quiz

// Session tracks one pass through a quiz: the current question index, the
// running correct count, and whether the quiz is complete. Answering the
// last question freezes the session; further submissions are ignored.
type Session struct {
	Type      Type       `json:"type"`
	Questions []Question `json:"questions"`
	Current   int        `json:"currentQuestion"`
	Correct   int        `json:"score"`
	Complete  bool       `json:"isComplete"`
}

// NewSession starts a session at the first question.
func NewSession(qType Type, questions []Question) *Session {
	return &Session{Type: qType, Questions: questions}
}

// Answer grades the submitted answer against the current question, records
// it, and advances. On the last question the session transitions to
// complete and the index stays put. Returns whether the answer was
// accepted as correct; always false once complete.
func (s *Session) Answer(submitted string) bool {
	if s.Complete || s.Current >= len(s.Questions) {
		return false
	}

	q := &s.Questions[s.Current]
	q.UserAnswer = submitted
	q.IsCorrect = isCorrect(s.Type, submitted, q.CorrectAnswer)
	if q.IsCorrect {
		s.Correct++
	}

	if s.Current == len(s.Questions)-1 {
		s.Complete = true
	} else {
		s.Current++
	}
	return q.IsCorrect
}

// Score returns the integer percentage score so far.
func (s *Session) Score() int {
	return Percent(s.Correct, len(s.Questions))
}
