package server

import (
	"net/http"

	"github.com/alexanderramin/pointer/internal/llm"
	"github.com/alexanderramin/pointer/internal/quiz"
	"github.com/alexanderramin/pointer/internal/tools"
)

const chatFallbackMessage = "Sorry, I'm having trouble connecting to the AI model. Please try again."

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	reply, err := s.tools.Chat(r.Context(), req.Message)
	if err != nil {
		// The chat UI shows this body directly, so it carries an apology
		// instead of an error field.
		s.jsonResponse(w, http.StatusInternalServerError, map[string]string{"message": chatFallbackMessage})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"message": reply})
}

func (s *Server) handleEssay(w http.ResponseWriter, r *http.Request) {
	var req tools.EssayRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	essay, err := s.tools.Essay(r.Context(), req)
	if err != nil {
		s.toolError(w, err, "Failed to generate essay")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "essay": essay})
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	var req tools.EmailRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	email, err := s.tools.Email(r.Context(), req)
	if err != nil {
		s.toolError(w, err, "Failed to generate email")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "email": email})
}

func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req tools.ExplainRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	explanation, err := s.tools.Explain(r.Context(), req)
	if err != nil {
		s.toolError(w, err, "Failed to generate explanation")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "explanation": explanation})
}

func (s *Server) handleAnswerCritic(w http.ResponseWriter, r *http.Request) {
	var req tools.CritiqueRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	feedback, err := s.tools.Critique(r.Context(), req)
	if err != nil {
		s.toolError(w, err, "Failed to generate feedback")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"success": true, "feedback": feedback})
}

func (s *Server) handleCodingQuiz(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	// The service falls back internally, so the only error here is
	// missing input.
	result, err := s.tools.CodingQuiz(r.Context(), req.Code)
	if err != nil {
		s.toolError(w, err, "Failed to generate quiz")
		return
	}

	resp := map[string]any{"success": true, "quiz": result.Quiz}
	if result.Note != "" {
		resp["note"] = result.Note
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleQuizGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode    string `json:"mode"`
		Type    string `json:"type"`
		Count   int    `json:"count"`
		Content string `json:"content"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}

	mode := quiz.ModeTopic
	if quiz.Mode(req.Mode) == quiz.ModeNotes {
		mode = quiz.ModeNotes
	}

	result, err := s.tools.StudyQuiz(r.Context(), tools.StudyQuizRequest{
		Mode:    mode,
		Type:    quiz.ParseType(req.Type),
		Count:   req.Count,
		Content: req.Content,
	})
	if err != nil {
		s.toolError(w, err, "Failed to generate quiz")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":   true,
		"raw":       result.Raw,
		"questions": result.Questions,
	})
}

func (s *Server) handleQuizGrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type      string          `json:"type"`
		Questions []quiz.Question `json:"questions"`
		Answers   []string        `json:"answers"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if len(req.Questions) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "Questions are required")
		return
	}

	result := quiz.Grade(req.Questions, quiz.ParseType(req.Type), req.Answers)
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":   true,
		"questions": result.Questions,
		"correct":   result.Correct,
		"total":     result.Total,
		"score":     result.Score,
	})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.client.ListModels(r.Context())
	if err != nil {
		s.jsonResponse(w, http.StatusInternalServerError, map[string]any{"models": []string{}})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"models": models})
}

func (s *Server) handleInstallModel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Model == "" {
		s.errorResponse(w, http.StatusBadRequest, "Model name is required")
		return
	}

	if err := s.client.Pull(r.Context(), req.Model); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to install model")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Started installing " + req.Model,
	})
}

func (s *Server) handleGetSpeedMode(w http.ResponseWriter, r *http.Request) {
	mode, err := s.store.SpeedMode(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get speed mode")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"currentMode":    mode,
		"availableModes": llm.Modes,
	})
}

func (s *Server) handleSetSpeedMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !s.decodeBody(w, r, &req) {
		return
	}
	if !llm.ValidMode(req.Mode) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid mode. Must be 'fast', 'balanced', or 'quality'")
		return
	}

	mode := llm.Mode(req.Mode)
	if err := s.store.SetSpeedMode(r.Context(), mode); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to update speed mode")
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"mode":    mode,
		"message": "Speed mode updated to " + req.Mode,
	})
}
