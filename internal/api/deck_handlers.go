package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pmarks/flashdeck/internal/errors"
	"github.com/pmarks/flashdeck/internal/logger"
	"github.com/pmarks/flashdeck/internal/models"
)

type deckRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// deckResponse is a deck plus its current due-card count.
type deckResponse struct {
	models.Deck
	DueCount int `json:"due_count"`
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks := s.Repo.Decks()

	out := make([]deckResponse, len(decks))
	for i, deck := range decks {
		out[i] = deckResponse{Deck: deck, DueCount: s.Repo.DueCount(&deck.ID)}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"decks": out})
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req deckRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.Repo.CreateDeck(r.Context(), req.Name, req.Description)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("deck created: %s", deck.ID)
	writeJSON(w, r, http.StatusCreated, map[string]any{"deck": deck})
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deck, ok := s.Repo.Deck(id)
	if !ok {
		handleError(w, r, errors.NewUnknownDeckError(id))
		return
	}

	cards, err := s.Repo.CardsInDeck(id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"deck":  deckResponse{Deck: deck, DueCount: s.Repo.DueCount(&deck.ID)},
		"cards": cards,
	})
}

func (s *Server) handleUpdateDeck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req deckRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.Repo.UpdateDeck(r.Context(), id, req.Name, req.Description)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"deck": deck})
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.Repo.DeleteDeck(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("deck deleted: %s", id)
	w.WriteHeader(http.StatusNoContent)
}
