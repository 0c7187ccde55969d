package score

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"geoquiz/internal/domain"
	"geoquiz/internal/errors"
	"geoquiz/internal/event"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

type Config struct {
	EventBus *event.Bus
	Store    Store
}

// Service is the score recorder. The latest-score upsert is the primary
// guarantee; the history append is a secondary audit trail and best-effort.
type Service struct {
	eb    *event.Bus
	store Store
}

func NewService(c Config) *Service {
	return &Service{
		eb:    c.EventBus,
		store: c.Store,
	}
}

type RecordRequest struct {
	UserID   string
	GameType string
	Score    decimal.Decimal

	// Optional fields; nil means absent and is pruned from the write so the
	// merge keeps whatever the latest document already holds.
	TotalQuestions *int
	CorrectAnswers *int
	DurationSec    *int
	Metadata       map[string]any
}

// Record upserts the latest score for (userID, gameType) and appends a
// history snapshot. A history failure is logged and swallowed; it never
// turns a successful latest-score write into a failure for the caller.
func (s *Service) Record(ctx context.Context, req RecordRequest) error {
	if strings.TrimSpace(req.UserID) == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("userId is required"))
	}
	if strings.TrimSpace(req.GameType) == "" {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("gameType is required"))
	}

	now := time.Now().UTC()

	err := s.store.UpsertLatest(ctx, req.UserID, LatestUpdate{
		GameType:       req.GameType,
		Score:          req.Score,
		TotalQuestions: req.TotalQuestions,
		CorrectAnswers: req.CorrectAnswers,
		DurationSec:    req.DurationSec,
		Metadata:       req.Metadata,
		UpdatedAt:      now,
	})
	if err != nil {
		return errors.Convert(err)
	}

	s.appendHistory(ctx, req)

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventScoreRecorded{
			UserID:     req.UserID,
			GameType:   req.GameType,
			Score:      req.Score,
			RecordTime: now,
		})
	}

	return nil
}

func (s *Service) appendHistory(ctx context.Context, req RecordRequest) {
	id, err := uuid.NewV7()
	if err != nil {
		slog.ErrorContext(ctx, "score: generate snapshot ID failed", "error", err)
		return
	}

	snap := domain.ScoreSnapshot{
		SnapshotID: id.String(),
		GameType:   req.GameType,
		Score:      req.Score,
	}
	if req.TotalQuestions != nil {
		snap.TotalQuestions = *req.TotalQuestions
	}
	if req.CorrectAnswers != nil {
		snap.CorrectAnswers = *req.CorrectAnswers
	}
	if req.DurationSec != nil {
		snap.DurationSec = *req.DurationSec
	}

	if err := s.store.AppendSnapshot(ctx, req.UserID, snap); err != nil {
		slog.ErrorContext(ctx, "score: append history failed",
			"user", req.UserID,
			"game_type", req.GameType,
			"error", err,
		)
	}
}

type StatsRequest struct {
	UserID         string
	IncludeHistory bool
	HistoryLimit   int
}

type StatsResponse struct {
	Latest  map[string]domain.ScoreEntry
	History []domain.ScoreSnapshot
}

// Stats returns the latest score per gameType and, optionally, the history
// newest-first. A history retrieval failure degrades to latest-only rather
// than failing the whole request.
func (s *Service) Stats(ctx context.Context, req StatsRequest) (*StatsResponse, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, errors.New(errors.CodeInvalidArgument, errors.WithMessagef("userId is required"))
	}

	latest, err := s.store.Latest(ctx, req.UserID)
	if err != nil {
		return nil, errors.Convert(err)
	}

	resp := &StatsResponse{Latest: latest}

	if req.IncludeHistory {
		limit := req.HistoryLimit
		if limit <= 0 {
			limit = defaultHistoryLimit
		}
		if limit > maxHistoryLimit {
			limit = maxHistoryLimit
		}

		history, err := s.store.History(ctx, req.UserID, limit)
		if err != nil {
			slog.ErrorContext(ctx, "score: read history failed",
				"user", req.UserID,
				"error", err,
			)
		} else {
			resp.History = history
		}
	}

	return resp, nil
}
