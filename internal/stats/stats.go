// Package stats maintains the derived review statistics: retention, streaks,
// learned/due counts and the rolling daily-activity log.
package stats

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pmarks/flashdeck/internal/logger"
	"github.com/pmarks/flashdeck/internal/models"
	"github.com/pmarks/flashdeck/internal/repository"
	"github.com/pmarks/flashdeck/internal/scheduler"
	"github.com/pmarks/flashdeck/internal/storage"
)

// The daily log keeps at most this many calendar-day entries.
const maxDailyEntries = 30

const dateLayout = "2006-01-02"

// Aggregator recomputes ReviewStats from the card collection after any card
// mutation. The daily log carries cumulative totals snapshotted under each
// day's date and is only written when a review actually happens; count-only
// refreshes never roll it forward.
type Aggregator struct {
	mu    sync.Mutex
	repo  *repository.Repository
	store storage.Store
	stats models.ReviewStats
}

// New creates an Aggregator over the given repository.
func New(repo *repository.Repository, store storage.Store) *Aggregator {
	return &Aggregator{repo: repo, store: store}
}

// Load restores the persisted statistics and refreshes the due-card count,
// which depends on the clock rather than on stored state.
func (a *Aggregator) Load(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("stats")

	a.mu.Lock()
	defer a.mu.Unlock()

	blob, err := a.store.Load(ctx, storage.NamespaceStats)
	if err != nil {
		return err
	}
	if blob != nil {
		if err := json.Unmarshal(blob, &a.stats); err != nil {
			log.Error("failed to decode stats: %v", err)
			return err
		}
	}
	a.stats.CardsToReview = a.repo.DueCount(nil)
	log.Info("loaded stats: %d reviews, %d daily entries", a.stats.TotalReviews, len(a.stats.DailyReviews))
	return nil
}

// Stats returns a copy of the current statistics.
func (a *Aggregator) Stats() models.ReviewStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := a.stats
	stats.DailyReviews = append([]models.DailyReview(nil), a.stats.DailyReviews...)
	return stats
}

// Recompute rebuilds the derived counts from the card collection and persists
// them. The daily log and streak are left alone: they record review activity,
// and this path also runs on review-free mutations (card add/delete) and reads.
func (a *Aggregator) Recompute(ctx context.Context) error {
	return a.RecomputeAt(ctx, time.Now())
}

// RecomputeAt is Recompute with an explicit clock.
func (a *Aggregator) RecomputeAt(ctx context.Context, now time.Time) error {
	cards := a.repo.Cards()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.refreshCountsLocked(cards, now)
	return a.persistLocked(ctx)
}

// RecordReview rebuilds the counts and extends the daily activity log under
// today's date. Called after a card is graded; it is the only path that writes
// the log or the streak.
func (a *Aggregator) RecordReview(ctx context.Context) error {
	return a.RecordReviewAt(ctx, time.Now())
}

// RecordReviewAt is RecordReview with an explicit clock.
func (a *Aggregator) RecordReviewAt(ctx context.Context, now time.Time) error {
	log := logger.FromContext(ctx).WithPrefix("stats")

	cards := a.repo.Cards()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.refreshCountsLocked(cards, now)
	a.updateDailyLog(now, a.stats.TotalReviews, a.stats.CorrectReviews)
	a.stats.StreakDays = a.streakDays(now)

	if err := a.persistLocked(ctx); err != nil {
		return err
	}
	log.Debug("review recorded: reviews=%d, retention=%.1f%%, streak=%d days",
		a.stats.TotalReviews, a.stats.Retention, a.stats.StreakDays)
	return nil
}

// Callers must hold a.mu.
func (a *Aggregator) refreshCountsLocked(cards []models.Card, now time.Time) {
	var totalReviews, correctReviews, learned, due int
	var easeSum float64
	for _, card := range cards {
		totalReviews += card.Reviews
		correctReviews += card.Correct
		easeSum += card.EaseFactor
		if card.Reviews > 0 {
			learned++
		}
		if scheduler.IsDueAt(card.NextReview, now) {
			due++
		}
	}

	a.stats.TotalReviews = totalReviews
	a.stats.CorrectReviews = correctReviews
	a.stats.Retention = 0
	if totalReviews > 0 {
		a.stats.Retention = float64(correctReviews) / float64(totalReviews) * 100
	}
	a.stats.CardsLearned = learned
	a.stats.CardsToReview = due
	a.stats.AverageEase = 0
	if len(cards) > 0 {
		a.stats.AverageEase = easeSum / float64(len(cards))
	}
}

func (a *Aggregator) persistLocked(ctx context.Context) error {
	blob, err := json.Marshal(a.stats)
	if err != nil {
		return err
	}
	return a.store.Save(ctx, storage.NamespaceStats, blob)
}

// Reset drops all statistics and clears the namespace.
func (a *Aggregator) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats = models.ReviewStats{}
	return a.store.Clear(ctx, storage.NamespaceStats)
}

// updateDailyLog overwrites today's entry with the current totals, or appends
// one, trimming the log to the most recent maxDailyEntries.
func (a *Aggregator) updateDailyLog(now time.Time, totalReviews, correctReviews int) {
	today := now.Format(dateLayout)

	for i := range a.stats.DailyReviews {
		if a.stats.DailyReviews[i].Date == today {
			a.stats.DailyReviews[i].Count = totalReviews
			a.stats.DailyReviews[i].Correct = correctReviews
			return
		}
	}

	a.stats.DailyReviews = append(a.stats.DailyReviews, models.DailyReview{
		Date:    today,
		Count:   totalReviews,
		Correct: correctReviews,
	})
	if n := len(a.stats.DailyReviews); n > maxDailyEntries {
		a.stats.DailyReviews = a.stats.DailyReviews[n-maxDailyEntries:]
	}
}

// streakDays counts consecutive calendar days with activity ending today,
// walking backward one day at a time and stopping at the first gap.
func (a *Aggregator) streakDays(now time.Time) int {
	byDate := make(map[string]models.DailyReview, len(a.stats.DailyReviews))
	for _, entry := range a.stats.DailyReviews {
		byDate[entry.Date] = entry
	}

	today, ok := byDate[now.Format(dateLayout)]
	if !ok || today.Count == 0 {
		return 0
	}

	streak := 1
	day := now.AddDate(0, 0, -1)
	for {
		entry, ok := byDate[day.Format(dateLayout)]
		if !ok || entry.Count == 0 {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
