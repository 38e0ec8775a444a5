package quiz

import (
	"math"
	"strings"
)

// CorrectMultipleChoice reports whether the submitted choice letter matches
// the parsed correct letter, ignoring case.
func CorrectMultipleChoice(submitted, correct string) bool {
	return strings.EqualFold(submitted, correct)
}

// CorrectShortAnswer reports whether a free-text answer is accepted. Exact
// match after trimming and case folding always passes. Otherwise both
// strings are tokenized on whitespace, tokens of length <= 2 are dropped,
// and the answer is accepted when at least half (rounded up) of the
// expected answer's tokens share a substring with some submitted token, in
// either direction. Deliberately lenient; not an edit-distance or semantic
// match.
func CorrectShortAnswer(submitted, correct string) bool {
	sub := strings.ToLower(strings.TrimSpace(submitted))
	want := strings.ToLower(strings.TrimSpace(correct))

	if sub == want {
		return true
	}

	wantTokens := significantTokens(want)
	subTokens := significantTokens(sub)

	matching := 0
	for _, w := range wantTokens {
		for _, s := range subTokens {
			if strings.Contains(s, w) || strings.Contains(w, s) {
				matching++
				break
			}
		}
	}

	return matching >= (len(wantTokens)+1)/2
}

func significantTokens(s string) []string {
	var tokens []string
	for _, t := range strings.Fields(s) {
		if len(t) > 2 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Percent converts a correct count into an integer percentage score,
// rounded to the nearest whole number.
func Percent(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Result is the outcome of grading a full answer sheet.
type Result struct {
	Questions []Question `json:"questions"`
	Correct   int        `json:"correct"`
	Total     int        `json:"total"`
	Score     int        `json:"score"`
}

// Grade scores one submitted answer per question, in order. Questions
// without a submitted answer count as incorrect. The returned questions
// carry the submitted answer and correctness flag.
func Grade(questions []Question, qType Type, answers []string) Result {
	graded := make([]Question, len(questions))
	copy(graded, questions)

	correct := 0
	for i := range graded {
		if i >= len(answers) {
			break
		}
		graded[i].UserAnswer = answers[i]
		if isCorrect(qType, answers[i], graded[i].CorrectAnswer) {
			graded[i].IsCorrect = true
			correct++
		}
	}

	return Result{
		Questions: graded,
		Correct:   correct,
		Total:     len(graded),
		Score:     Percent(correct, len(graded)),
	}
}

func isCorrect(qType Type, submitted, correct string) bool {
	if qType == TypeShortAnswer {
		return CorrectShortAnswer(submitted, correct)
	}
	return CorrectMultipleChoice(submitted, correct)
}
