package stats_test

import (
	"context"
	"testing"
	"time"

	"github.com/pmarks/flashdeck/internal/models"
	"github.com/pmarks/flashdeck/internal/repository"
	"github.com/pmarks/flashdeck/internal/stats"
	"github.com/pmarks/flashdeck/internal/storage"
	"github.com/pmarks/flashdeck/internal/testutil"
	"github.com/stretchr/testify/suite"
)

type AggregatorSuite struct {
	suite.Suite
	store *storage.SQLiteStore
	repo  *repository.Repository
	agg   *stats.Aggregator
}

func (s *AggregatorSuite) SetupTest() {
	s.store = testutil.NewTestStore(s.T())
	s.repo = repository.New(s.store)
	s.Require().NoError(s.repo.Load(context.Background()))
	s.agg = stats.New(s.repo, s.store)
}

func (s *AggregatorSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.store)
}

// seedCard creates a card and overwrites its counters.
func (s *AggregatorSuite) seedCard(deckID string, reviews, correct int, ease float64) models.Card {
	ctx := context.Background()
	card, err := s.repo.AddCard(ctx, deckID, "q", "a")
	s.Require().NoError(err)
	card.Reviews = reviews
	card.Correct = correct
	card.EaseFactor = ease
	s.Require().NoError(s.repo.SaveCard(ctx, card))
	return card
}

func (s *AggregatorSuite) seedDeck() string {
	deck, err := s.repo.CreateDeck(context.Background(), "deck", "")
	s.Require().NoError(err)
	return deck.ID
}

// reviewAt bumps the card's counters and records the review at the given time.
func (s *AggregatorSuite) reviewAt(cardID string, now time.Time) {
	ctx := context.Background()
	card, ok := s.repo.Card(cardID)
	s.Require().True(ok)
	card.Reviews++
	card.Correct++
	s.Require().NoError(s.repo.SaveCard(ctx, card))
	s.Require().NoError(s.agg.RecordReviewAt(ctx, now))
}

func (s *AggregatorSuite) TestRetention_ZeroWithoutReviews() {
	deckID := s.seedDeck()
	s.seedCard(deckID, 0, 0, 2.5)

	s.Require().NoError(s.agg.Recompute(context.Background()))

	got := s.agg.Stats()
	s.Assert().Equal(0, got.TotalReviews)
	s.Assert().Equal(0.0, got.Retention)
	s.Assert().Equal(0, got.CardsLearned)
}

func (s *AggregatorSuite) TestRetention_SeventyPercent() {
	deckID := s.seedDeck()
	s.seedCard(deckID, 6, 4, 2.5)
	s.seedCard(deckID, 4, 3, 2.1)

	s.Require().NoError(s.agg.Recompute(context.Background()))

	got := s.agg.Stats()
	s.Assert().Equal(10, got.TotalReviews)
	s.Assert().Equal(7, got.CorrectReviews)
	s.Assert().InDelta(70.0, got.Retention, 0.0001)
	s.Assert().Equal(2, got.CardsLearned)
	s.Assert().InDelta(2.3, got.AverageEase, 0.0001)
}

func (s *AggregatorSuite) TestAverageEase_ZeroWithoutCards() {
	s.Require().NoError(s.agg.Recompute(context.Background()))
	s.Assert().Equal(0.0, s.agg.Stats().AverageEase)
}

func (s *AggregatorSuite) TestDueCount() {
	ctx := context.Background()
	deckID := s.seedDeck()

	_, err := s.repo.AddCard(ctx, deckID, "due", "now")
	s.Require().NoError(err)
	later, err := s.repo.AddCard(ctx, deckID, "later", "tomorrow")
	s.Require().NoError(err)

	future := time.Now().Add(24 * time.Hour)
	later.NextReview = &future
	s.Require().NoError(s.repo.SaveCard(ctx, later))

	s.Require().NoError(s.agg.Recompute(ctx))
	s.Assert().Equal(1, s.agg.Stats().CardsToReview)
}

func (s *AggregatorSuite) TestRecompute_LeavesDailyLogAndStreakAlone() {
	ctx := context.Background()
	deckID := s.seedDeck()
	s.seedCard(deckID, 5, 4, 2.5)

	now := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.Local)
	s.Require().NoError(s.agg.RecomputeAt(ctx, now))

	got := s.agg.Stats()
	s.Assert().Equal(5, got.TotalReviews, "counts are refreshed")
	s.Assert().Empty(got.DailyReviews, "a count refresh writes no activity entry")
	s.Assert().Equal(0, got.StreakDays)
}

func (s *AggregatorSuite) TestDailyLog_TodayOverwrittenInPlace() {
	ctx := context.Background()
	deckID := s.seedDeck()
	s.seedCard(deckID, 3, 2, 2.5)

	now := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.Local)
	s.Require().NoError(s.agg.RecordReviewAt(ctx, now))

	got := s.agg.Stats()
	s.Require().Len(got.DailyReviews, 1)
	s.Assert().Equal("2026-08-28", got.DailyReviews[0].Date)
	s.Assert().Equal(3, got.DailyReviews[0].Count)

	// More reviews the same day update the entry instead of appending.
	s.seedCard(deckID, 5, 5, 2.5)
	s.Require().NoError(s.agg.RecordReviewAt(ctx, now.Add(2*time.Hour)))

	got = s.agg.Stats()
	s.Require().Len(got.DailyReviews, 1)
	s.Assert().Equal(8, got.DailyReviews[0].Count, "the entry holds cumulative totals")
	s.Assert().Equal(7, got.DailyReviews[0].Correct)
}

func (s *AggregatorSuite) TestDailyLog_CappedAtThirtyEntries() {
	deckID := s.seedDeck()
	card := s.seedCard(deckID, 0, 0, 2.5)

	start := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.Local)
	for day := 0; day < 35; day++ {
		s.reviewAt(card.ID, start.AddDate(0, 0, day))
	}

	got := s.agg.Stats()
	s.Require().Len(got.DailyReviews, 30, "oldest entries drop first")
	s.Assert().Equal("2026-06-06", got.DailyReviews[0].Date)
	s.Assert().Equal("2026-07-05", got.DailyReviews[29].Date)
}

func (s *AggregatorSuite) TestStreak_ConsecutiveDays() {
	deckID := s.seedDeck()
	card := s.seedCard(deckID, 0, 0, 2.5)

	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.Local)
	for day := 0; day < 4; day++ {
		s.reviewAt(card.ID, start.AddDate(0, 0, day))
	}

	got := s.agg.Stats()
	s.Assert().Equal(4, got.StreakDays)
	s.Require().Len(got.DailyReviews, 4)
	s.Assert().Equal(4, got.DailyReviews[3].Count, "each entry snapshots the running total")
}

func (s *AggregatorSuite) TestStreak_NotExtendedWithoutReviews() {
	ctx := context.Background()
	deckID := s.seedDeck()
	card := s.seedCard(deckID, 0, 0, 2.5)

	day1 := time.Date(2026, time.August, 27, 12, 0, 0, 0, time.Local)
	s.reviewAt(card.ID, day1)
	s.Require().Equal(1, s.agg.Stats().StreakDays)

	// Viewing stats or adding cards on later days refreshes counts only.
	s.Require().NoError(s.agg.RecomputeAt(ctx, day1.AddDate(0, 0, 1)))
	s.Require().NoError(s.agg.RecomputeAt(ctx, day1.AddDate(0, 0, 2)))

	got := s.agg.Stats()
	s.Assert().Equal(1, got.StreakDays, "review-free days never extend the streak")
	s.Require().Len(got.DailyReviews, 1)
	s.Assert().Equal("2026-08-27", got.DailyReviews[0].Date)
}

func (s *AggregatorSuite) TestStreak_BrokenByGap() {
	deckID := s.seedDeck()
	card := s.seedCard(deckID, 0, 0, 2.5)

	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.Local)
	s.reviewAt(card.ID, start)
	s.reviewAt(card.ID, start.AddDate(0, 0, 1))
	// Skip March 3.
	s.reviewAt(card.ID, start.AddDate(0, 0, 3))

	s.Assert().Equal(1, s.agg.Stats().StreakDays, "streak stops at the first gap")
}

func (s *AggregatorSuite) TestStreak_ZeroWithoutActivityToday() {
	ctx := context.Background()
	deckID := s.seedDeck()
	s.seedCard(deckID, 0, 0, 2.5)

	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.Local)
	s.Require().NoError(s.agg.RecordReviewAt(ctx, now))

	s.Assert().Equal(0, s.agg.Stats().StreakDays, "a zero-count entry does not start a streak")
}

func (s *AggregatorSuite) TestStreak_AcrossMonthBoundary() {
	deckID := s.seedDeck()
	card := s.seedCard(deckID, 0, 0, 2.5)

	// Feb 27, Feb 28, Mar 1 of a non-leap year are consecutive.
	s.reviewAt(card.ID, time.Date(2026, time.February, 27, 12, 0, 0, 0, time.Local))
	s.reviewAt(card.ID, time.Date(2026, time.February, 28, 12, 0, 0, 0, time.Local))
	s.reviewAt(card.ID, time.Date(2026, time.March, 1, 12, 0, 0, 0, time.Local))

	s.Assert().Equal(3, s.agg.Stats().StreakDays)
}

func (s *AggregatorSuite) TestLoad_RestoresPersistedStats() {
	ctx := context.Background()
	deckID := s.seedDeck()
	s.seedCard(deckID, 10, 7, 2.5)

	s.Require().NoError(s.agg.Recompute(ctx))

	reloaded := stats.New(s.repo, s.store)
	s.Require().NoError(reloaded.Load(ctx))

	got := reloaded.Stats()
	s.Assert().Equal(10, got.TotalReviews)
	s.Assert().InDelta(70.0, got.Retention, 0.0001)
	s.Assert().Equal(1, got.CardsToReview, "due count is refreshed on load")
}

func (s *AggregatorSuite) TestReset() {
	ctx := context.Background()
	deckID := s.seedDeck()
	s.seedCard(deckID, 10, 7, 2.5)
	s.Require().NoError(s.agg.Recompute(ctx))

	s.Require().NoError(s.agg.Reset(ctx))

	got := s.agg.Stats()
	s.Assert().Equal(0, got.TotalReviews)
	s.Assert().Empty(got.DailyReviews)

	blob, err := s.store.Load(ctx, storage.NamespaceStats)
	s.Require().NoError(err)
	s.Assert().Nil(blob)
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}
