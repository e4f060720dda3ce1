package models

import "time"

// Card is a single question/answer pair together with its scheduling state.
// A nil NextReview means the card has never been scheduled and is due immediately.
type Card struct {
	ID           string     `json:"id"`
	Question     string     `json:"question"`
	Answer       string     `json:"answer"`
	CreatedAt    time.Time  `json:"created_at"`
	LastReviewed *time.Time `json:"last_reviewed"`
	NextReview   *time.Time `json:"next_review"`
	EaseFactor   float64    `json:"ease_factor"`
	IntervalDays int        `json:"interval_days"`
	Reviews      int        `json:"reviews"`
	Correct      int        `json:"correct"`
	Streak       int        `json:"streak"`
}

// Deck groups cards by reference. CardIDs keeps insertion order, which only
// matters for display; scheduling never depends on it.
type Deck struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
	LastReviewed *time.Time `json:"last_reviewed"`
	CardIDs      []string   `json:"card_ids"`
}

// StudySession is a frozen snapshot of due-card ids taken at session start.
// The snapshot is never re-evaluated while the session runs.
type StudySession struct {
	DeckID       *string    `json:"deck_id"`
	CardIDs      []string   `json:"card_ids"`
	CurrentIndex int        `json:"current_index"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at"`
	IsActive     bool       `json:"is_active"`
}

// DailyReview is one calendar day in the rolling activity log. Count and
// Correct hold the cumulative totals as of that day, not per-day deltas.
type DailyReview struct {
	Date    string `json:"date"`
	Count   int    `json:"count"`
	Correct int    `json:"correct"`
}

// ReviewStats is a derived projection over the card collection plus its own
// historical daily log. It is always recomputed, never hand-edited.
type ReviewStats struct {
	TotalReviews   int           `json:"total_reviews"`
	CorrectReviews int           `json:"correct_reviews"`
	Retention      float64       `json:"retention"`
	StreakDays     int           `json:"streak_days"`
	CardsLearned   int           `json:"cards_learned"`
	CardsToReview  int           `json:"cards_to_review"`
	AverageEase    float64       `json:"average_ease"`
	DailyReviews   []DailyReview `json:"daily_reviews"`
}
