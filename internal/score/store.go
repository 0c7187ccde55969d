package score

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"geoquiz/internal/domain"
)

// Store is the narrow persistence interface the recorder depends on, so the
// service is testable without a live database.
type Store interface {
	// UpsertLatest merges u into the latest-score document for
	// (userID, u.GameType). Nil optional fields are pruned: the stored value
	// for those fields survives the write.
	UpsertLatest(ctx context.Context, userID string, u LatestUpdate) error

	// AppendSnapshot appends one immutable history record. The store assigns
	// the creation timestamp.
	AppendSnapshot(ctx context.Context, userID string, s domain.ScoreSnapshot) error

	// Latest returns the latest entry per gameType for a user. An unknown
	// user yields an empty map, not an error.
	Latest(ctx context.Context, userID string) (map[string]domain.ScoreEntry, error)

	// History returns up to limit snapshots, newest first.
	History(ctx context.Context, userID string, limit int) ([]domain.ScoreSnapshot, error)
}

type LatestUpdate struct {
	GameType       string
	Score          decimal.Decimal
	TotalQuestions *int
	CorrectAnswers *int
	DurationSec    *int
	Metadata       map[string]any
	UpdatedAt      time.Time
}
