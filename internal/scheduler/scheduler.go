// Package scheduler implements the SM-2 style spaced repetition policy that
// decides when a card should next be shown.
package scheduler

import (
	"math"
	"time"

	"github.com/pmarks/flashdeck/internal/errors"
	"github.com/pmarks/flashdeck/internal/models"
)

// Grade is the recall-quality signal supplied after a review.
type Grade int

const (
	Again Grade = iota
	Hard
	Good
	Easy
)

func (g Grade) String() string {
	switch g {
	case Again:
		return "again"
	case Hard:
		return "hard"
	case Good:
		return "good"
	case Easy:
		return "easy"
	default:
		return "unknown"
	}
}

// Valid reports whether g is one of the four defined grades.
func (g Grade) Valid() bool {
	return g >= Again && g <= Easy
}

// Interval and ease bounds. Intervals are whole days.
const (
	MinInterval = 1
	MaxInterval = 365
	MinEase     = 1.3
	MaxEase     = 2.5
	DefaultEase = 2.5
)

// Result is the scheduling state produced by grading a card.
type Result struct {
	IntervalDays int
	EaseFactor   float64
	NextReview   time.Time
}

// ComputeNextReview computes the next interval, ease factor and due date for a
// card graded now. It is deterministic apart from the wall clock used for the
// due date.
func ComputeNextReview(grade Grade, currentInterval int, currentEase float64) (Result, error) {
	return ComputeNextReviewAt(grade, currentInterval, currentEase, time.Now())
}

// ComputeNextReviewAt is ComputeNextReview with an explicit clock.
func ComputeNextReviewAt(grade Grade, currentInterval int, currentEase float64, now time.Time) (Result, error) {
	interval := currentInterval
	ease := currentEase

	switch grade {
	case Again:
		ease = math.Max(MinEase, currentEase-0.2)
		interval = MinInterval
	case Hard:
		ease = math.Max(MinEase, currentEase-0.15)
		interval = max(MinInterval, int(math.Round(float64(currentInterval)*1.2)))
	case Good:
		// Ease factor is unchanged.
		switch currentInterval {
		case 0:
			interval = 1 // first review
		case 1:
			interval = 3 // second review
		default:
			interval = int(math.Round(float64(currentInterval) * currentEase))
		}
	case Easy:
		ease = math.Min(MaxEase, currentEase+0.15)
		switch currentInterval {
		case 0:
			interval = 3
		case 1:
			interval = 5
		default:
			interval = int(math.Round(float64(currentInterval) * currentEase * 1.3))
		}
	default:
		return Result{}, errors.NewInvalidGradeError(int(grade))
	}

	interval = min(MaxInterval, max(MinInterval, interval))
	ease = math.Min(MaxEase, math.Max(MinEase, ease))

	return Result{
		IntervalDays: interval,
		EaseFactor:   ease,
		// Day intervals follow the calendar, including month and year
		// rollover, not fixed 24h multiples.
		NextReview: now.AddDate(0, 0, interval),
	}, nil
}

// IsDue reports whether a card with the given next-review time is due now.
// A nil time means the card was never scheduled and is always due.
func IsDue(nextReview *time.Time) bool {
	return IsDueAt(nextReview, time.Now())
}

// IsDueAt is IsDue with an explicit clock.
func IsDueAt(nextReview *time.Time, now time.Time) bool {
	if nextReview == nil {
		return true
	}
	return !now.Before(*nextReview)
}

// NewCardState returns the scheduling state of a freshly created card: default
// ease, zero interval, never scheduled, zero counters.
func NewCardState() models.Card {
	return models.Card{EaseFactor: DefaultEase}
}
