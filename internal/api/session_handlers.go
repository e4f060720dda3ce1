package api

import (
	"net/http"

	"github.com/pmarks/flashdeck/internal/logger"
	"github.com/pmarks/flashdeck/internal/scheduler"
)

type startSessionRequest struct {
	DeckID *string `json:"deck_id"`
}

type gradeRequest struct {
	Grade int `json:"grade"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	sess, err := s.Session.Start(r.Context(), req.DeckID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if sess == nil {
		// Nothing due: a defined no-op, not an error.
		log.Debug("session not started: no due cards")
		writeJSON(w, r, http.StatusOK, map[string]any{"session": nil})
		return
	}

	log.Info("session started: %d cards", len(sess.CardIDs))
	writeJSON(w, r, http.StatusCreated, map[string]any{"session": sess})
}

func (s *Server) handleCurrentCard(w http.ResponseWriter, r *http.Request) {
	sess := s.Session.Session()
	if sess == nil {
		writeJSON(w, r, http.StatusOK, map[string]any{"session": nil, "card": nil})
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"session": sess,
		"card":    s.Session.CurrentCard(),
	})
}

func (s *Server) handleGradeCard(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.Session.Grade(r.Context(), scheduler.Grade(req.Grade)); err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"session": s.Session.Session(),
		"card":    s.Session.CurrentCard(),
	})
}

func (s *Server) handleSkipCard(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.Skip(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"session": s.Session.Session(),
		"card":    s.Session.CurrentCard(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Session.End(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGradingChoices lists the four grades for answer feedback.
func (s *Server) handleGradingChoices(w http.ResponseWriter, r *http.Request) {
	type choice struct {
		Value       int    `json:"value"`
		Label       string `json:"label"`
		Description string `json:"description"`
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"grades": []choice{
			{Value: int(scheduler.Again), Label: "Again", Description: "Completely forgot"},
			{Value: int(scheduler.Hard), Label: "Hard", Description: "Remembered with difficulty"},
			{Value: int(scheduler.Good), Label: "Good", Description: "Remembered with some effort"},
			{Value: int(scheduler.Easy), Label: "Easy", Description: "Remembered easily"},
		},
	})
}
