// Package repository owns the canonical card and deck collections. Collections
// are loaded once from storage at startup, mutated in place, and written back
// after every mutation.
package repository

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pmarks/flashdeck/internal/errors"
	"github.com/pmarks/flashdeck/internal/logger"
	"github.com/pmarks/flashdeck/internal/models"
	"github.com/pmarks/flashdeck/internal/scheduler"
	"github.com/pmarks/flashdeck/internal/storage"
)

// Repository holds the card and deck collections. A single instance exists per
// process; the mutex guards against concurrent HTTP callers.
type Repository struct {
	mu    sync.Mutex
	store storage.Store
	cards map[string]*models.Card
	decks map[string]*models.Deck
}

// New creates an empty Repository backed by the given store. Call Load before
// serving requests.
func New(store storage.Store) *Repository {
	return &Repository{
		store: store,
		cards: make(map[string]*models.Card),
		decks: make(map[string]*models.Deck),
	}
}

// Load reads the persisted card and deck collections. Absent namespaces leave
// the collections empty.
func (r *Repository) Load(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("repository")

	r.mu.Lock()
	defer r.mu.Unlock()

	blob, err := r.store.Load(ctx, storage.NamespaceCards)
	if err != nil {
		return err
	}
	if blob != nil {
		if err := json.Unmarshal(blob, &r.cards); err != nil {
			log.Error("failed to decode cards: %v", err)
			return err
		}
	}

	blob, err = r.store.Load(ctx, storage.NamespaceDecks)
	if err != nil {
		return err
	}
	if blob != nil {
		if err := json.Unmarshal(blob, &r.decks); err != nil {
			log.Error("failed to decode decks: %v", err)
			return err
		}
	}

	log.Info("loaded %d cards, %d decks", len(r.cards), len(r.decks))
	return nil
}

// CreateDeck creates an empty deck.
func (r *Repository) CreateDeck(ctx context.Context, name, description string) (models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("repository")

	r.mu.Lock()
	defer r.mu.Unlock()

	deck := &models.Deck{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
		CardIDs:     []string{},
	}
	r.decks[deck.ID] = deck

	if err := r.saveDecks(ctx); err != nil {
		return models.Deck{}, err
	}
	log.Debug("deck created: id=%s, name=%s", deck.ID, deck.Name)
	return copyDeck(deck), nil
}

// UpdateDeck renames a deck and updates its description.
func (r *Repository) UpdateDeck(ctx context.Context, id, name, description string) (models.Deck, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[id]
	if !ok {
		return models.Deck{}, errors.NewUnknownDeckError(id)
	}
	deck.Name = name
	deck.Description = description

	if err := r.saveDecks(ctx); err != nil {
		return models.Deck{}, err
	}
	return copyDeck(deck), nil
}

// DeleteDeck removes a deck. Its cards are kept: they may still belong to
// other decks and remain schedulable globally.
func (r *Repository) DeleteDeck(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("repository")

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.decks[id]; !ok {
		return errors.NewUnknownDeckError(id)
	}
	delete(r.decks, id)

	if err := r.saveDecks(ctx); err != nil {
		return err
	}
	log.Debug("deck deleted: id=%s", id)
	return nil
}

// Deck returns a copy of the deck with the given id.
func (r *Repository) Deck(id string) (models.Deck, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[id]
	if !ok {
		return models.Deck{}, false
	}
	return copyDeck(deck), true
}

// Decks returns all decks ordered by creation time.
func (r *Repository) Decks() []models.Deck {
	r.mu.Lock()
	defer r.mu.Unlock()

	decks := make([]models.Deck, 0, len(r.decks))
	for _, deck := range r.decks {
		decks = append(decks, copyDeck(deck))
	}
	sort.Slice(decks, func(i, j int) bool {
		if decks[i].CreatedAt.Equal(decks[j].CreatedAt) {
			return decks[i].ID < decks[j].ID
		}
		return decks[i].CreatedAt.Before(decks[j].CreatedAt)
	})
	return decks
}

// AddCard creates a card with fresh scheduling state and appends it to the
// deck's card list.
func (r *Repository) AddCard(ctx context.Context, deckID, question, answer string) (models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("repository")

	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[deckID]
	if !ok {
		return models.Card{}, errors.NewUnknownDeckError(deckID)
	}

	card := scheduler.NewCardState()
	card.ID = uuid.NewString()
	card.Question = question
	card.Answer = answer
	card.CreatedAt = time.Now()

	r.cards[card.ID] = &card
	deck.CardIDs = append(deck.CardIDs, card.ID)

	if err := r.saveCards(ctx); err != nil {
		return models.Card{}, err
	}
	if err := r.saveDecks(ctx); err != nil {
		return models.Card{}, err
	}
	log.Debug("card added: id=%s, deck=%s", card.ID, deckID)
	return card, nil
}

// UpdateCard edits a card's question and answer. Scheduling state is untouched.
func (r *Repository) UpdateCard(ctx context.Context, id, question, answer string) (models.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[id]
	if !ok {
		return models.Card{}, errors.NewUnknownCardError(id)
	}
	card.Question = question
	card.Answer = answer

	if err := r.saveCards(ctx); err != nil {
		return models.Card{}, err
	}
	return *card, nil
}

// SaveCard writes back a card's full state, scheduling fields included.
func (r *Repository) SaveCard(ctx context.Context, card models.Card) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cards[card.ID]; !ok {
		return errors.NewUnknownCardError(card.ID)
	}
	r.cards[card.ID] = &card
	return r.saveCards(ctx)
}

// DeleteCard removes a card and cascades it out of every deck's card list.
func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("repository")

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.cards[id]; !ok {
		return errors.NewUnknownCardError(id)
	}
	delete(r.cards, id)

	for _, deck := range r.decks {
		deck.CardIDs = removeID(deck.CardIDs, id)
	}

	if err := r.saveCards(ctx); err != nil {
		return err
	}
	if err := r.saveDecks(ctx); err != nil {
		return err
	}
	log.Debug("card deleted: id=%s", id)
	return nil
}

// Card returns a copy of the card with the given id.
func (r *Repository) Card(id string) (models.Card, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	card, ok := r.cards[id]
	if !ok {
		return models.Card{}, false
	}
	return *card, true
}

// Cards returns all cards in unspecified order.
func (r *Repository) Cards() []models.Card {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allCardsLocked()
}

// CardsInDeck returns the deck's cards in the deck's order. Dangling ids are
// skipped.
func (r *Repository) CardsInDeck(deckID string) ([]models.Card, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[deckID]
	if !ok {
		return nil, errors.NewUnknownDeckError(deckID)
	}
	return r.deckCardsLocked(deck), nil
}

// DueCards returns the currently due cards, optionally scoped to a deck. An
// unknown deck id yields an empty result rather than an error so that session
// start stays a no-op.
func (r *Repository) DueCards(deckID *string) []models.Card {
	r.mu.Lock()
	defer r.mu.Unlock()

	var pool []models.Card
	if deckID != nil {
		deck, ok := r.decks[*deckID]
		if !ok {
			return nil
		}
		pool = r.deckCardsLocked(deck)
	} else {
		pool = r.allCardsLocked()
	}

	var due []models.Card
	for _, card := range pool {
		if scheduler.IsDue(card.NextReview) {
			due = append(due, card)
		}
	}
	return due
}

// DueCount returns the number of currently due cards.
func (r *Repository) DueCount(deckID *string) int {
	return len(r.DueCards(deckID))
}

// TouchDeck stamps the deck's last-reviewed time. Unknown decks are ignored:
// the deck may have been deleted while a session scoped to it was running.
func (r *Repository) TouchDeck(ctx context.Context, id string, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	deck, ok := r.decks[id]
	if !ok {
		return nil
	}
	deck.LastReviewed = &t
	return r.saveDecks(ctx)
}

// Reset drops all cards and decks and clears their namespaces.
func (r *Repository) Reset(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("repository")

	r.mu.Lock()
	defer r.mu.Unlock()

	r.cards = make(map[string]*models.Card)
	r.decks = make(map[string]*models.Deck)

	if err := r.store.Clear(ctx, storage.NamespaceCards); err != nil {
		return err
	}
	if err := r.store.Clear(ctx, storage.NamespaceDecks); err != nil {
		return err
	}
	log.Info("repository reset")
	return nil
}

// Callers must hold r.mu.
func (r *Repository) allCardsLocked() []models.Card {
	cards := make([]models.Card, 0, len(r.cards))
	for _, card := range r.cards {
		cards = append(cards, *card)
	}
	sort.Slice(cards, func(i, j int) bool {
		if cards[i].CreatedAt.Equal(cards[j].CreatedAt) {
			return cards[i].ID < cards[j].ID
		}
		return cards[i].CreatedAt.Before(cards[j].CreatedAt)
	})
	return cards
}

func (r *Repository) deckCardsLocked(deck *models.Deck) []models.Card {
	cards := make([]models.Card, 0, len(deck.CardIDs))
	for _, id := range deck.CardIDs {
		if card, ok := r.cards[id]; ok {
			cards = append(cards, *card)
		}
	}
	return cards
}

func (r *Repository) saveCards(ctx context.Context) error {
	blob, err := json.Marshal(r.cards)
	if err != nil {
		return err
	}
	return r.store.Save(ctx, storage.NamespaceCards, blob)
}

func (r *Repository) saveDecks(ctx context.Context) error {
	blob, err := json.Marshal(r.decks)
	if err != nil {
		return err
	}
	return r.store.Save(ctx, storage.NamespaceDecks, blob)
}

func copyDeck(deck *models.Deck) models.Deck {
	c := *deck
	c.CardIDs = append([]string(nil), deck.CardIDs...)
	return c
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
