package quiz

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	questionStartRe = regexp.MustCompile(`^\d+\.`)
	questionTrimRe  = regexp.MustCompile(`^\d+\.\s*`)
	optionRe        = regexp.MustCompile(`^[A-D]\)`)
	optionTrimRe    = regexp.MustCompile(`^[A-D]\)\s*`)
	answerLetterRe  = regexp.MustCompile(`(?i)Answer:\s*([A-D])`)
)

const expectedAnswerMarker = "Expected Answer:"

// Parse scans generated quiz text line by line and extracts up to limit
// questions. A leading "N." starts a new question; "X)" lines are options
// (multiple choice); an "Answer:"/"Correct Answer:" line captures the
// correct letter; an "Expected Answer:" line captures the expected
// response verbatim (short answer). In multiple-choice mode any other line
// seen before the first option is folded into the question text.
func Parse(text string, qType Type, limit int) []Question {
	var questions []Question
	var current *Question

	push := func() {
		if current != nil && current.Question != "" {
			questions = append(questions, *current)
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case questionStartRe.MatchString(line):
			push()
			current = &Question{
				Question: questionTrimRe.ReplaceAllString(line, ""),
			}

		case current == nil:
			// Preamble before the first numbered line.

		case qType == TypeMultipleChoice && optionRe.MatchString(line):
			current.Options = append(current.Options, optionTrimRe.ReplaceAllString(line, ""))

		case qType == TypeMultipleChoice && strings.Contains(line, "Answer:"):
			if m := answerLetterRe.FindStringSubmatch(line); m != nil {
				current.CorrectAnswer = strings.ToUpper(m[1])
			}

		case qType == TypeShortAnswer && strings.Contains(line, expectedAnswerMarker):
			idx := strings.Index(line, expectedAnswerMarker)
			current.CorrectAnswer = strings.TrimSpace(line[idx+len(expectedAnswerMarker):])

		case qType == TypeMultipleChoice && len(current.Options) == 0:
			// Wrapped question text.
			current.Question += " " + line
		}
	}
	push()

	if limit > 0 && len(questions) > limit {
		questions = questions[:limit]
	}
	for i := range questions {
		questions[i].ID = fmt.Sprintf("q%d", i+1)
	}
	return questions
}
