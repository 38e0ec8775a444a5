package tools

import "fmt"

// Enumerations for the writing tools. Unknown keys fall back to the
// defaults noted on each map.

// defaults to expository
var essayTypes = map[string]string{
	"argumentative": "an argumentative essay with a clear thesis and supporting evidence",
	"descriptive":   "a descriptive essay with vivid details and sensory language",
	"narrative":     "a narrative essay that tells a story or recounts an experience",
	"expository":    "an expository essay that explains or informs about the topic",
	"persuasive":    "a persuasive essay that convinces the reader of a particular viewpoint",
}

// defaults to medium
var essayLengths = map[string]string{
	"short":  "300-500 words",
	"medium": "500-800 words",
	"long":   "800-1200 words",
}

// defaults to polite
var emailTones = map[string]string{
	"formal":       "formal and professional",
	"casual":       "casual and friendly",
	"confident":    "confident and assertive",
	"polite":       "polite and courteous",
	"enthusiastic": "enthusiastic and energetic",
}

// defaults to rewrite
var emailActions = map[string]string{
	"write":   "write a new email",
	"rewrite": "rewrite this email",
	"improve": "improve this email",
	"shorten": "shorten this email",
	"expand":  "expand this email",
}

// defaults to simple
var explainStyles = map[string]string{
	"metaphor":  "using metaphors and analogies",
	"story":     "as a story or narrative",
	"simple":    "in simple, everyday language",
	"technical": "with technical details and examples",
	"visual":    "with visual descriptions and imagery",
}

func pick(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return m[fallback]
}

func essayPrompt(topic, essayType, length string) string {
	return fmt.Sprintf(`Write %s about "%s".

Requirements:
- Length: %s
- Well-structured with introduction, body paragraphs, and conclusion
- Clear, engaging writing style
- Proper grammar and flow
- Include relevant examples or evidence where appropriate

Please write a complete essay that meets these requirements.`,
		pick(essayTypes, essayType, "expository"), topic,
		pick(essayLengths, length, "medium"))
}

func emailPrompt(content, tone, action string) string {
	selectedTone := pick(emailTones, tone, "polite")
	selectedAction := pick(emailActions, action, "rewrite")

	contentLabel := "Original email:"
	if action == "write" {
		contentLabel = "Email content to write:"
	}

	return fmt.Sprintf(`%s in a %s tone.

%s
%s

Please %s maintaining the %s tone while ensuring clarity and professionalism.`,
		selectedAction, selectedTone, contentLabel, content, selectedAction, selectedTone)
}

func explainPrompt(topic, style string) string {
	return fmt.Sprintf(`Explain the following topic %s. Make it engaging and easy to understand:

Topic: %s

Please provide a clear, well-structured explanation that helps someone understand this concept.`,
		pick(explainStyles, style, "simple"), topic)
}

func criticPrompt(question, answer string) string {
	if question == "" {
		question = "General question"
	}
	return fmt.Sprintf(`You are a harsh but helpful critic. Review this answer to the question and provide brutally honest feedback.

Question: %s

Answer: %s

Provide feedback that is:
1. Harsh and critical - point out flaws, weaknesses, and areas for improvement
2. Constructive - explain WHY something is wrong and HOW to fix it
3. Specific - don't just say "this is wrong", explain exactly what's wrong
4. Educational - help the person learn from their mistakes

Be direct, honest, and tough but fair. Focus on helping them improve.`, question, answer)
}

func codingQuizPrompt(code, quizID string) string {
	return fmt.Sprintf("Analyze the following code and create a coding quiz with 5 multiple choice questions that test understanding of the code's logic, syntax, and concepts.\n\nCode:\n```\n%s\n```\n\n"+`Generate a JSON response with this exact structure:
{
  "quiz": {
    "id": "%s",
    "questions": [
      {
        "id": "q1",
        "question": "What is the main purpose of this code?",
        "options": [
          "To calculate the sum of all numbers in an array",
          "To sort the array in ascending order",
          "To find the maximum value in the array",
          "To remove duplicate elements from the array"
        ],
        "correctAnswer": 0,
        "explanation": "This code iterates through the array and adds each element to a running total, effectively calculating the sum."
      }
    ],
    "totalQuestions": 5
  }
}

IMPORTANT REQUIREMENTS:
1. Analyze the ACTUAL code provided above
2. Create questions that are SPECIFIC to this code's functionality
3. Make all 4 options plausible but only one correct
4. Questions should test: logic flow, syntax, edge cases, algorithms, data structures
5. Explanations should be educational and explain WHY the answer is correct
6. correctAnswer should be the 0-based index (0, 1, 2, or 3) of the correct option
7. Do NOT use generic placeholders like "Option A", "Option B" - write actual answers
8. Make sure the questions and answers are relevant to the specific code provided

Return ONLY the JSON, no other text or explanations.`, code, quizID)
}
