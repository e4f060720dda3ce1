package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/decks", s.handleListDecks)
		r.Post("/decks", s.handleCreateDeck)
		r.Get("/decks/{id}", s.handleGetDeck)
		r.Put("/decks/{id}", s.handleUpdateDeck)
		r.Delete("/decks/{id}", s.handleDeleteDeck)
		r.Post("/decks/{id}/cards", s.handleAddCard)

		r.Put("/cards/{id}", s.handleUpdateCard)
		r.Delete("/cards/{id}", s.handleDeleteCard)

		r.Post("/session/start", s.handleStartSession)
		r.Get("/session/current", s.handleCurrentCard)
		r.Post("/session/grade", s.handleGradeCard)
		r.Post("/session/skip", s.handleSkipCard)
		r.Post("/session/end", s.handleEndSession)

		r.Get("/grades", s.handleGradingChoices)
		r.Get("/stats", s.handleStats)
		r.Get("/due-count", s.handleDueCount)
		r.Post("/reset", s.handleReset)
	})

	return r
}
