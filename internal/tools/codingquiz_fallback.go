package tools

import "strings"

// shapeFallbackQuiz builds a quiz from coarse features of the code when
// the model answered but produced no parseable quiz. The questions are
// generic; the feature checks only steer a few of the answers.
func shapeFallbackQuiz(code, quizID string) CodingQuiz {
	codeLines := len(strings.Split(code, "\n"))
	hasFunction := strings.Contains(code, "function") || strings.Contains(code, "def") ||
		strings.Contains(code, "const") || strings.Contains(code, "let")
	hasLoop := strings.Contains(code, "for") || strings.Contains(code, "while") ||
		strings.Contains(code, "forEach")

	subject := "code snippet"
	if codeLines > 10 {
		subject = "program"
	}

	q2Question := "What programming construct is this?"
	q2Answer := 2
	q2Explanation := "This appears to be a code block or expression."
	if hasFunction {
		q2Question = "What type of function is this?"
		q2Answer = 3
		q2Explanation = "This appears to be a regular function based on the syntax."
	}

	q4Question := "What is the computational complexity?"
	q4Answer := 0
	q4Explanation := "This appears to be a simple operation with constant time complexity."
	if hasLoop {
		q4Question = "What is the time complexity of this algorithm?"
		q4Answer = 1
		q4Explanation = "Based on the loop structure, this appears to have linear time complexity."
	}

	return CodingQuiz{
		ID: quizID,
		Questions: []CodingQuestion{
			{
				ID:       "q1",
				Question: "What is the main purpose of this " + subject + "?",
				Options: []string{
					"To process and manipulate data",
					"To display information to the user",
					"To perform mathematical calculations",
					"To handle user input and validation",
				},
				CorrectAnswer: 0,
				Explanation:   "Based on the code structure, this appears to be designed for data processing and manipulation.",
			},
			{
				ID:       "q2",
				Question: q2Question,
				Options: []string{
					"Recursive function",
					"Async function",
					"Arrow function",
					"Regular function",
				},
				CorrectAnswer: q2Answer,
				Explanation:   q2Explanation,
			},
			{
				ID:       "q3",
				Question: "What would happen if the input is null or undefined?",
				Options: []string{
					"The code would crash with an error",
					"It would return null or undefined",
					"It would throw a specific exception",
					"It would continue normally",
				},
				CorrectAnswer: 0,
				Explanation:   "Without proper null checking, the code would likely crash when processing null or undefined values.",
			},
			{
				ID:       "q4",
				Question: q4Question,
				Options: []string{
					"O(1) - Constant time",
					"O(n) - Linear time",
					"O(n²) - Quadratic time",
					"O(log n) - Logarithmic time",
				},
				CorrectAnswer: q4Answer,
				Explanation:   q4Explanation,
			},
			{
				ID:       "q5",
				Question: "Which programming concept is most prominently demonstrated here?",
				Options: []string{
					"Object-oriented programming",
					"Functional programming",
					"Procedural programming",
					"Event-driven programming",
				},
				CorrectAnswer: 2,
				Explanation:   "This code appears to follow procedural programming principles with step-by-step execution.",
			},
		},
		TotalQuestions: 5,
	}
}

// staticFallbackQuiz is the last resort when the model cannot be reached
// at all.
func staticFallbackQuiz(quizID string) CodingQuiz {
	return CodingQuiz{
		ID: quizID,
		Questions: []CodingQuestion{
			{
				ID:       "q1",
				Question: "What is the main purpose of this code?",
				Options: []string{
					"To process data",
					"To display information",
					"To calculate values",
					"To handle errors",
				},
				CorrectAnswer: 0,
				Explanation:   "This code appears to process data based on the logic shown.",
			},
			{
				ID:       "q2",
				Question: "What type of function is this?",
				Options: []string{
					"Recursive function",
					"Async function",
					"Arrow function",
					"Regular function",
				},
				CorrectAnswer: 3,
				Explanation:   "This appears to be a regular function based on the syntax.",
			},
			{
				ID:       "q3",
				Question: "What would happen if the input is null?",
				Options: []string{
					"The code would crash",
					"It would return null",
					"It would throw an error",
					"It would continue normally",
				},
				CorrectAnswer: 0,
				Explanation:   "Without null checking, the code would likely crash when processing null values.",
			},
			{
				ID:       "q4",
				Question: "What is the time complexity of this algorithm?",
				Options: []string{
					"O(1)",
					"O(n)",
					"O(n²)",
					"O(log n)",
				},
				CorrectAnswer: 1,
				Explanation:   "Based on the code structure, this appears to have linear time complexity.",
			},
			{
				ID:       "q5",
				Question: "Which programming concept is demonstrated here?",
				Options: []string{
					"Inheritance",
					"Polymorphism",
					"Encapsulation",
					"Abstraction",
				},
				CorrectAnswer: 3,
				Explanation:   "The code abstracts complex operations into simpler, more manageable functions.",
			},
		},
		TotalQuestions: 5,
	}
}
