package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/pmarks/flashdeck/internal/errors"
	"github.com/pmarks/flashdeck/internal/repository"
	"github.com/pmarks/flashdeck/internal/storage"
	"github.com/pmarks/flashdeck/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type RepositorySuite struct {
	suite.Suite
	store *storage.SQLiteStore
	repo  *repository.Repository
}

func (s *RepositorySuite) SetupTest() {
	s.store = testutil.NewTestStore(s.T())
	s.repo = repository.New(s.store)
	s.Require().NoError(s.repo.Load(context.Background()))
}

func (s *RepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.store)
}

func (s *RepositorySuite) TestCreateDeck() {
	ctx := context.Background()

	deck, err := s.repo.CreateDeck(ctx, "Spanish", "Basic vocabulary")
	s.Require().NoError(err)
	s.Assert().NotEmpty(deck.ID)
	s.Assert().Equal("Spanish", deck.Name)
	s.Assert().Empty(deck.CardIDs)
	s.Assert().Nil(deck.LastReviewed)

	got, ok := s.repo.Deck(deck.ID)
	s.Require().True(ok)
	s.Assert().Equal(deck.ID, got.ID)
}

func (s *RepositorySuite) TestAddCard_InitialState() {
	ctx := context.Background()

	deck, err := s.repo.CreateDeck(ctx, "Spanish", "")
	s.Require().NoError(err)

	card, err := s.repo.AddCard(ctx, deck.ID, "hola", "hello")
	s.Require().NoError(err)
	s.Assert().Equal(2.5, card.EaseFactor)
	s.Assert().Equal(0, card.IntervalDays)
	s.Assert().Nil(card.NextReview, "new card is never scheduled")
	s.Assert().Equal(0, card.Reviews)

	got, ok := s.repo.Deck(deck.ID)
	s.Require().True(ok)
	s.Assert().Equal([]string{card.ID}, got.CardIDs)
}

func (s *RepositorySuite) TestAddCard_UnknownDeck() {
	_, err := s.repo.AddCard(context.Background(), "missing", "q", "a")
	s.Require().Error(err)
	s.Assert().Equal(errors.ErrCodeUnknownDeck, errors.Code(err))
}

func (s *RepositorySuite) TestDeleteCard_CascadesOutOfAllDecks() {
	ctx := context.Background()

	deckA, err := s.repo.CreateDeck(ctx, "A", "")
	s.Require().NoError(err)
	deckB, err := s.repo.CreateDeck(ctx, "B", "")
	s.Require().NoError(err)

	cardA, err := s.repo.AddCard(ctx, deckA.ID, "a", "stays")
	s.Require().NoError(err)
	doomed, err := s.repo.AddCard(ctx, deckB.ID, "b1", "deleted")
	s.Require().NoError(err)
	cardB, err := s.repo.AddCard(ctx, deckB.ID, "b2", "stays")
	s.Require().NoError(err)

	s.Require().NoError(s.repo.DeleteCard(ctx, doomed.ID))

	_, ok := s.repo.Card(doomed.ID)
	s.Assert().False(ok)

	deckBFull, ok := s.repo.Deck(deckB.ID)
	s.Require().True(ok)
	s.Assert().Equal([]string{cardB.ID}, deckBFull.CardIDs, "only the deleted card leaves the list")

	deckAFull, ok := s.repo.Deck(deckA.ID)
	s.Require().True(ok)
	s.Assert().Equal([]string{cardA.ID}, deckAFull.CardIDs, "unrelated deck is untouched")
}

func (s *RepositorySuite) TestDeleteCard_Unknown() {
	err := s.repo.DeleteCard(context.Background(), "missing")
	s.Require().Error(err)
	s.Assert().Equal(errors.ErrCodeUnknownCard, errors.Code(err))
}

func (s *RepositorySuite) TestDeleteDeck_KeepsCards() {
	ctx := context.Background()

	deck, err := s.repo.CreateDeck(ctx, "Doomed", "")
	s.Require().NoError(err)
	card, err := s.repo.AddCard(ctx, deck.ID, "q", "a")
	s.Require().NoError(err)

	s.Require().NoError(s.repo.DeleteDeck(ctx, deck.ID))

	_, ok := s.repo.Deck(deck.ID)
	s.Assert().False(ok)
	_, ok = s.repo.Card(card.ID)
	s.Assert().True(ok, "deleting a deck does not delete its cards")
}

func (s *RepositorySuite) TestDueCards() {
	ctx := context.Background()

	deck, err := s.repo.CreateDeck(ctx, "Due", "")
	s.Require().NoError(err)

	fresh, err := s.repo.AddCard(ctx, deck.ID, "fresh", "never scheduled")
	s.Require().NoError(err)
	overdue, err := s.repo.AddCard(ctx, deck.ID, "overdue", "past due date")
	s.Require().NoError(err)
	scheduled, err := s.repo.AddCard(ctx, deck.ID, "scheduled", "future due date")
	s.Require().NoError(err)

	past := time.Now().Add(-time.Hour)
	overdue.NextReview = &past
	s.Require().NoError(s.repo.SaveCard(ctx, overdue))

	future := time.Now().Add(24 * time.Hour)
	scheduled.NextReview = &future
	s.Require().NoError(s.repo.SaveCard(ctx, scheduled))

	due := s.repo.DueCards(&deck.ID)
	ids := make([]string, len(due))
	for i, c := range due {
		ids[i] = c.ID
	}
	s.Assert().ElementsMatch([]string{fresh.ID, overdue.ID}, ids)

	s.Assert().Equal(2, s.repo.DueCount(nil))
}

func (s *RepositorySuite) TestDueCards_UnknownDeck() {
	unknown := "missing"
	s.Assert().Empty(s.repo.DueCards(&unknown))
}

func (s *RepositorySuite) TestCardsInDeck_SkipsDanglingIDs() {
	ctx := context.Background()

	deck, err := s.repo.CreateDeck(ctx, "Deck", "")
	s.Require().NoError(err)
	card, err := s.repo.AddCard(ctx, deck.ID, "q", "a")
	s.Require().NoError(err)

	cards, err := s.repo.CardsInDeck(deck.ID)
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Assert().Equal(card.ID, cards[0].ID)

	_, err = s.repo.CardsInDeck("missing")
	s.Require().Error(err)
	s.Assert().Equal(errors.ErrCodeUnknownDeck, errors.Code(err))
}

func (s *RepositorySuite) TestUpdateCard_KeepsSchedulingState() {
	ctx := context.Background()

	deck, err := s.repo.CreateDeck(ctx, "Deck", "")
	s.Require().NoError(err)
	card, err := s.repo.AddCard(ctx, deck.ID, "q", "a")
	s.Require().NoError(err)

	card.IntervalDays = 6
	card.EaseFactor = 2.2
	card.Reviews = 3
	s.Require().NoError(s.repo.SaveCard(ctx, card))

	updated, err := s.repo.UpdateCard(ctx, card.ID, "q2", "a2")
	s.Require().NoError(err)
	s.Assert().Equal("q2", updated.Question)
	s.Assert().Equal(6, updated.IntervalDays)
	s.Assert().Equal(2.2, updated.EaseFactor)
	s.Assert().Equal(3, updated.Reviews)
}

func (s *RepositorySuite) TestPersistenceRoundTrip() {
	ctx := context.Background()

	deck, err := s.repo.CreateDeck(ctx, "Persisted", "survives a restart")
	s.Require().NoError(err)
	card, err := s.repo.AddCard(ctx, deck.ID, "q", "a")
	s.Require().NoError(err)

	// A second repository over the same store sees the same state.
	reloaded := repository.New(s.store)
	s.Require().NoError(reloaded.Load(ctx))

	gotDeck, ok := reloaded.Deck(deck.ID)
	s.Require().True(ok)
	s.Assert().Equal("Persisted", gotDeck.Name)
	s.Assert().Equal([]string{card.ID}, gotDeck.CardIDs)

	gotCard, ok := reloaded.Card(card.ID)
	s.Require().True(ok)
	s.Assert().Equal("q", gotCard.Question)
	s.Assert().Nil(gotCard.NextReview)
}

func (s *RepositorySuite) TestReset() {
	ctx := context.Background()

	deck, err := s.repo.CreateDeck(ctx, "Gone", "")
	s.Require().NoError(err)
	_, err = s.repo.AddCard(ctx, deck.ID, "q", "a")
	s.Require().NoError(err)

	s.Require().NoError(s.repo.Reset(ctx))

	s.Assert().Empty(s.repo.Decks())
	s.Assert().Empty(s.repo.Cards())

	reloaded := repository.New(s.store)
	s.Require().NoError(reloaded.Load(ctx))
	s.Assert().Empty(reloaded.Decks())
}

func (s *RepositorySuite) TestDecks_OrderedByCreation() {
	ctx := context.Background()

	first, err := s.repo.CreateDeck(ctx, "first", "")
	s.Require().NoError(err)
	second, err := s.repo.CreateDeck(ctx, "second", "")
	s.Require().NoError(err)

	decks := s.repo.Decks()
	s.Require().Len(decks, 2)
	ids := []string{decks[0].ID, decks[1].ID}
	s.Assert().ElementsMatch([]string{first.ID, second.ID}, ids)
	s.Assert().False(decks[1].CreatedAt.Before(decks[0].CreatedAt))
}

func (s *RepositorySuite) TestReturnedDeckIsACopy() {
	ctx := context.Background()

	deck, err := s.repo.CreateDeck(ctx, "Deck", "")
	s.Require().NoError(err)
	_, err = s.repo.AddCard(ctx, deck.ID, "q", "a")
	s.Require().NoError(err)

	got, ok := s.repo.Deck(deck.ID)
	s.Require().True(ok)
	got.CardIDs[0] = "tampered"

	fresh, ok := s.repo.Deck(deck.ID)
	s.Require().True(ok)
	s.Assert().NotEqual("tampered", fresh.CardIDs[0])
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}
