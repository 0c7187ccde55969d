package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventNameScoreRecorded = "score.recorded"
)

// EventScoreRecorded is published after the latest-score write succeeds.
type EventScoreRecorded struct {
	UserID     string
	GameType   string
	Score      decimal.Decimal
	RecordTime time.Time
}

func (EventScoreRecorded) Name() string { return EventNameScoreRecorded }
