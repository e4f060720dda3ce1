// Package session runs study sessions over a frozen snapshot of due cards.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pmarks/flashdeck/internal/logger"
	"github.com/pmarks/flashdeck/internal/models"
	"github.com/pmarks/flashdeck/internal/repository"
	"github.com/pmarks/flashdeck/internal/scheduler"
	"github.com/pmarks/flashdeck/internal/stats"
	"github.com/pmarks/flashdeck/internal/storage"
)

// Engine owns the single optional study session. States: no session, active
// session, complete (which immediately clears back to no session). At most one
// session exists at a time; the mutex serializes session mutation.
type Engine struct {
	mu      sync.Mutex
	repo    *repository.Repository
	stats   *stats.Aggregator
	store   storage.Store
	current *models.StudySession
}

// New creates an Engine. Call Load to restore a persisted in-flight session.
func New(repo *repository.Repository, aggregator *stats.Aggregator, store storage.Store) *Engine {
	return &Engine{repo: repo, stats: aggregator, store: store}
}

// Load restores a persisted session, if one was active when the process last
// stopped.
func (e *Engine) Load(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("session")

	e.mu.Lock()
	defer e.mu.Unlock()

	blob, err := e.store.Load(ctx, storage.NamespaceSession)
	if err != nil {
		return err
	}
	if blob == nil {
		return nil
	}

	var sess models.StudySession
	if err := json.Unmarshal(blob, &sess); err != nil {
		log.Error("failed to decode session: %v", err)
		return err
	}
	if !sess.IsActive {
		return nil
	}
	e.current = &sess
	log.Info("restored session: %d cards, position %d", len(sess.CardIDs), sess.CurrentIndex)
	return nil
}

// Start snapshots the currently due card ids, deck-scoped when deckID is
// non-nil, and begins a session. With nothing due no session is created and
// nil is returned; this is a defined no-op, not an error. Presentation order
// is the snapshot order and is never re-evaluated mid-session.
func (e *Engine) Start(ctx context.Context, deckID *string) (*models.StudySession, error) {
	log := logger.FromContext(ctx).WithPrefix("session")

	e.mu.Lock()
	defer e.mu.Unlock()

	due := e.repo.DueCards(deckID)
	if len(due) == 0 {
		log.Debug("no due cards, session not started")
		return nil, nil
	}

	ids := make([]string, len(due))
	for i, card := range due {
		ids[i] = card.ID
	}

	e.current = &models.StudySession{
		DeckID:       deckID,
		CardIDs:      ids,
		CurrentIndex: 0,
		StartedAt:    time.Now(),
		IsActive:     true,
	}
	if err := e.saveSession(ctx); err != nil {
		return nil, err
	}
	log.Info("session started: %d cards", len(ids))
	return e.sessionCopy(), nil
}

// Session returns a copy of the active session, or nil.
func (e *Engine) Session() *models.StudySession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessionCopy()
}

// CurrentCard returns the card at the session's position, or nil when there is
// no active session or the card no longer exists.
func (e *Engine) CurrentCard() *models.Card {
	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.currentCardIDLocked()
	if !ok {
		return nil
	}
	card, ok := e.repo.Card(id)
	if !ok {
		return nil
	}
	return &card
}

// Grade applies the scheduler to the current card, writes the updated card
// back, advances the session, and completes it after the last card. With no
// active session it is a no-op. An out-of-range grade is an error and does not
// advance.
func (e *Engine) Grade(ctx context.Context, grade scheduler.Grade) error {
	log := logger.FromContext(ctx).WithPrefix("session")

	e.mu.Lock()
	defer e.mu.Unlock()

	id, ok := e.currentCardIDLocked()
	if !ok {
		log.Debug("grade ignored: no active session")
		return nil
	}

	card, found := e.repo.Card(id)
	if !found {
		// The card was deleted mid-session; leave the position alone, like a
		// dangling snapshot entry.
		log.Warn("current card %s no longer exists", id)
		return nil
	}

	res, err := scheduler.ComputeNextReview(grade, card.IntervalDays, card.EaseFactor)
	if err != nil {
		return err
	}

	now := time.Now()
	correct := grade >= scheduler.Good

	card.IntervalDays = res.IntervalDays
	card.EaseFactor = res.EaseFactor
	card.NextReview = &res.NextReview
	card.LastReviewed = &now
	card.Reviews++
	if correct {
		card.Correct++
		card.Streak++
	} else {
		card.Streak = 0
	}

	if err := e.repo.SaveCard(ctx, card); err != nil {
		return err
	}
	if e.current.DeckID != nil {
		if err := e.repo.TouchDeck(ctx, *e.current.DeckID, now); err != nil {
			return err
		}
	}

	log.Debug("card graded: id=%s, grade=%s, next interval=%d days", id, grade, res.IntervalDays)

	if err := e.advanceLocked(ctx); err != nil {
		return err
	}
	return e.stats.RecordReview(ctx)
}

// Skip advances past the current card without mutating it. With no active
// session it is a no-op.
func (e *Engine) Skip(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || !e.current.IsActive {
		return nil
	}
	return e.advanceLocked(ctx)
}

// End forces the session to complete regardless of position.
func (e *Engine) End(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("session")

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return nil
	}
	log.Info("session ended at position %d of %d", e.current.CurrentIndex, len(e.current.CardIDs))
	return e.completeLocked(ctx)
}

// Reset discards any session state, persisted or in memory.
func (e *Engine) Reset(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.current = nil
	return e.store.Clear(ctx, storage.NamespaceSession)
}

func (e *Engine) currentCardIDLocked() (string, bool) {
	if e.current == nil || !e.current.IsActive {
		return "", false
	}
	if e.current.CurrentIndex >= len(e.current.CardIDs) {
		return "", false
	}
	return e.current.CardIDs[e.current.CurrentIndex], true
}

func (e *Engine) advanceLocked(ctx context.Context) error {
	e.current.CurrentIndex++
	if e.current.CurrentIndex >= len(e.current.CardIDs) {
		logger.FromContext(ctx).WithPrefix("session").Info("session complete: %d cards", len(e.current.CardIDs))
		return e.completeLocked(ctx)
	}
	return e.saveSession(ctx)
}

func (e *Engine) completeLocked(ctx context.Context) error {
	now := time.Now()
	e.current.EndedAt = &now
	e.current.IsActive = false
	e.current = nil
	return e.store.Clear(ctx, storage.NamespaceSession)
}

func (e *Engine) saveSession(ctx context.Context) error {
	blob, err := json.Marshal(e.current)
	if err != nil {
		return err
	}
	return e.store.Save(ctx, storage.NamespaceSession, blob)
}

func (e *Engine) sessionCopy() *models.StudySession {
	if e.current == nil {
		return nil
	}
	c := *e.current
	c.CardIDs = append([]string(nil), e.current.CardIDs...)
	return &c
}
