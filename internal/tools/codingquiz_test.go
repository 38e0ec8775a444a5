package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quizJSON = `{
  "quiz": {
    "id": "quiz_123",
    "questions": [
      {
        "id": "q1",
        "question": "What does the loop compute?",
        "options": ["The sum", "The product", "The max", "The min"],
        "correctAnswer": 0,
        "explanation": "Each element is added to a running total."
      },
      {
        "id": "q2",
        "question": "What is the initial value of total?",
        "options": ["0", "1", "undefined", "null"],
        "correctAnswer": 0,
        "explanation": "total starts at zero."
      }
    ],
    "totalQuestions": 2
  }
}`

const sumCode = `function sum(xs) {
  let total = 0;
  for (const x of xs) total += x;
  return total;
}`

func TestCodingQuiz_ParsesModelJSON(t *testing.T) {
	fake := &fakeOllama{t: t, response: quizJSON}
	srv := fake.server()
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	res, err := svc.CodingQuiz(context.Background(), sumCode)

	require.NoError(t, err)
	assert.Empty(t, res.Note)
	assert.Equal(t, "quiz_123", res.Quiz.ID)
	require.Len(t, res.Quiz.Questions, 2)
	assert.Equal(t, 2, res.Quiz.TotalQuestions)
	assert.Equal(t, "What does the loop compute?", res.Quiz.Questions[0].Question)
	assert.Contains(t, fake.lastPrompt, sumCode)
}

func TestCodingQuiz_JSONWrappedInProse(t *testing.T) {
	fake := &fakeOllama{t: t, response: "Sure! Here is your quiz:\n\n" + quizJSON + "\n\nGood luck!"}
	srv := fake.server()
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	res, err := svc.CodingQuiz(context.Background(), sumCode)

	require.NoError(t, err)
	assert.Equal(t, "quiz_123", res.Quiz.ID)
	require.Len(t, res.Quiz.Questions, 2)
}

func TestCodingQuiz_SanitizesIncompleteQuestions(t *testing.T) {
	partial := `{
  "quiz": {
    "questions": [
      {"question": "Only a question, nothing else?"},
      {"id": "custom", "question": "Out of range answer?", "options": ["a", "b"], "correctAnswer": 7}
    ]
  }
}`
	fake := &fakeOllama{t: t, response: partial}
	srv := fake.server()
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	res, err := svc.CodingQuiz(context.Background(), sumCode)

	require.NoError(t, err)
	require.Len(t, res.Quiz.Questions, 2)
	assert.NotEmpty(t, res.Quiz.ID)
	assert.Equal(t, 2, res.Quiz.TotalQuestions)

	q1 := res.Quiz.Questions[0]
	assert.Equal(t, "q1", q1.ID)
	assert.Len(t, q1.Options, 4)
	assert.Equal(t, 0, q1.CorrectAnswer)
	assert.Equal(t, "No explanation provided.", q1.Explanation)

	q2 := res.Quiz.Questions[1]
	assert.Equal(t, "custom", q2.ID)
	assert.Equal(t, 0, q2.CorrectAnswer)
}

func TestCodingQuiz_UnparseableOutputUsesShapeFallback(t *testing.T) {
	fake := &fakeOllama{t: t, response: "I cannot produce JSON today."}
	srv := fake.server()
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	res, err := svc.CodingQuiz(context.Background(), sumCode)

	require.NoError(t, err)
	assert.Empty(t, res.Note)
	require.Len(t, res.Quiz.Questions, 5)
	// sumCode declares a function and loops, which steers two answers.
	assert.Equal(t, "What type of function is this?", res.Quiz.Questions[1].Question)
	assert.Equal(t, 3, res.Quiz.Questions[1].CorrectAnswer)
	assert.Equal(t, "What is the time complexity of this algorithm?", res.Quiz.Questions[3].Question)
	assert.Equal(t, 1, res.Quiz.Questions[3].CorrectAnswer)
}

func TestCodingQuiz_MissingQuestionsUsesStaticFallback(t *testing.T) {
	fake := &fakeOllama{t: t, response: `{"quiz": {"id": "quiz_9"}}`}
	srv := fake.server()
	defer srv.Close()

	svc := newTestService(t, srv.URL)
	res, err := svc.CodingQuiz(context.Background(), sumCode)

	require.NoError(t, err)
	assert.Equal(t, codingQuizFallbackNote, res.Note)
	require.Len(t, res.Quiz.Questions, 5)
	assert.Equal(t, 5, res.Quiz.TotalQuestions)
}

func TestCodingQuiz_BackendDownUsesStaticFallback(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")
	res, err := svc.CodingQuiz(context.Background(), sumCode)

	require.NoError(t, err)
	assert.Equal(t, codingQuizFallbackNote, res.Note)
	require.Len(t, res.Quiz.Questions, 5)
	assert.Equal(t, "What is the main purpose of this code?", res.Quiz.Questions[0].Question)
}

func TestCodingQuiz_EmptyCodeRejected(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:1")
	_, err := svc.CodingQuiz(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestShapeFallback_PlainSnippet(t *testing.T) {
	q := shapeFallbackQuiz("x = 1 + 2", "quiz_1")
	assert.Equal(t, "quiz_1", q.ID)
	require.Len(t, q.Questions, 5)
	assert.Contains(t, q.Questions[0].Question, "code snippet")
	assert.Equal(t, "What programming construct is this?", q.Questions[1].Question)
	assert.Equal(t, 2, q.Questions[1].CorrectAnswer)
	assert.Equal(t, "What is the computational complexity?", q.Questions[3].Question)
	assert.Equal(t, 0, q.Questions[3].CorrectAnswer)
}
