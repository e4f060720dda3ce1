package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pmarks/flashdeck/internal/logger"
)

type cardRequest struct {
	Question string `json:"question" validate:"required,max=5000"`
	Answer   string `json:"answer" validate:"required,max=5000"`
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	deckID := chi.URLParam(r, "id")

	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.Repo.AddCard(r.Context(), deckID, req.Question, req.Answer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Stats.Recompute(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("card added: %s to deck %s", card.ID, deckID)
	writeJSON(w, r, http.StatusCreated, map[string]any{"card": card})
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.Repo.UpdateCard(r.Context(), id, req.Question, req.Answer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"card": card})
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.Repo.DeleteCard(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Stats.Recompute(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("card deleted: %s", id)
	w.WriteHeader(http.StatusNoContent)
}
