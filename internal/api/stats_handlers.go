package api

import (
	"net/http"

	"github.com/pmarks/flashdeck/internal/logger"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if err := s.Stats.Recompute(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"stats": s.Stats.Stats()})
}

// handleDueCount reports due cards across all decks, or for a single deck
// when the deck_id query parameter is set.
func (s *Server) handleDueCount(w http.ResponseWriter, r *http.Request) {
	var deckID *string
	if id := r.URL.Query().Get("deck_id"); id != "" {
		deckID = &id
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"due_count": s.Repo.DueCount(deckID)})
}

// handleReset wipes all decks, cards, session state and statistics.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	if err := s.Session.Reset(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Repo.Reset(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Stats.Reset(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("all application data reset")
	w.WriteHeader(http.StatusNoContent)
}
