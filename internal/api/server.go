// Package api exposes the study application over a JSON HTTP surface.
package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/pmarks/flashdeck/internal/repository"
	"github.com/pmarks/flashdeck/internal/session"
	"github.com/pmarks/flashdeck/internal/stats"
)

// Server holds the application state the handlers operate on.
type Server struct {
	Repo    *repository.Repository
	Session *session.Engine
	Stats   *stats.Aggregator
}

// validate checks request payload struct tags.
var validate = validator.New(validator.WithRequiredStructEnabled())
