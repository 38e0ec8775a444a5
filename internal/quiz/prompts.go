package quiz

import "fmt"

// GenerationPrompt builds the prompt asking the model for a quiz in the
// line format Parse understands.
func GenerationPrompt(qType Type, mode Mode, content string, count int) string {
	sourcePhrase := "about this topic"
	sourceLabel := "Topic"
	if mode == ModeNotes {
		sourcePhrase = "based on these class notes/slides"
		sourceLabel = "Class Notes/Slides"
	}

	if qType == TypeShortAnswer {
		return fmt.Sprintf(`Create %d short-answer questions %s. The questions should require brief but thoughtful responses that demonstrate understanding of the material.

%s: %s

Please format the quiz as follows:
1. Question 1: [Question text]
   Expected Answer: [Brief expected response]

2. Question 2: [Question text]
   Expected Answer: [Brief expected response]

[Continue format...]

Make sure the questions test comprehension, application, and analysis of the key concepts.`, count, sourcePhrase, sourceLabel, content)
	}

	return fmt.Sprintf(`Create %d multiple-choice questions %s. Each question should have 4 options (A, B, C, D) with only one correct answer. Make sure the questions test understanding of key concepts.

%s: %s

Please format the quiz as follows:
1. Question 1
   A) Option A
   B) Option B
   C) Option C
   D) Option D
   Correct Answer: A

2. Question 2
   A) Option A
   B) Option B
   C) Option C
   D) Option D
   Correct Answer: B

[Continue format...]

Make sure the questions are clear, relevant to the material, and test different aspects of the content.`, count, sourcePhrase, sourceLabel, content)
}
