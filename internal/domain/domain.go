package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category selects which question bank a request targets.
type Category string

const (
	CategoryCapitals Category = "capitals"
	CategoryFlags    Category = "flags"
)

func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryCapitals, CategoryFlags:
		return Category(s), true
	}

	return "", false
}

// Difficulty is a filter (easy, medium, hard) or a shuffle mode (random)
// over a continent's question set.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyRandom Difficulty = "random"
)

func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyRandom:
		return Difficulty(s), true
	}

	return "", false
}

// Question is a single multiple-choice item from a continent's question set.
// Capitals questions are identified by their text, flags questions by the
// country code used to render the flag image. The source data carries no
// numeric IDs.
type Question struct {
	QuestionText  string     `json:"question,omitempty"`
	CountryCode   string     `json:"country_code,omitempty"`
	Options       []string   `json:"options"`
	CorrectAnswer string     `json:"correct_answer"`
	Difficulty    Difficulty `json:"difficulty"`
	Explanation   string     `json:"explanation,omitempty"`
}

// Key returns the identifying field for the given category.
func (q Question) Key(c Category) string {
	if c == CategoryFlags {
		return q.CountryCode
	}

	return q.QuestionText
}

// CheckResult is the outcome of validating a submitted answer.
// Explanation and FunFact are empty when unavailable.
type CheckResult struct {
	IsCorrect     bool
	CorrectAnswer string
	Explanation   string
	FunFact       string
}

// ScoreEntry is the latest persisted score for one (user, gameType) bucket.
// GameType is a composite key such as "capitals_europe".
type ScoreEntry struct {
	GameType       string
	Score          decimal.Decimal
	TotalQuestions int
	CorrectAnswers int
	DurationSec    int
	Metadata       map[string]any
	UpdatedAt      time.Time
}

// ScoreSnapshot is one immutable history record. Snapshots are appended on
// every recorded score and never mutated afterwards.
type ScoreSnapshot struct {
	SnapshotID     string
	GameType       string
	Score          decimal.Decimal
	TotalQuestions int
	CorrectAnswers int
	DurationSec    int
	CreatedAt      time.Time
}

// Leaderboard is the ranked view over all users' latest scores for one
// gameType, sorted by score in descending order.
type Leaderboard struct {
	GameType string
	Entries  []LeaderboardEntry
}

type LeaderboardEntry struct {
	UserID string
	Score  float64
}
