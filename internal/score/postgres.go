package score

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"geoquiz/internal/domain"
)

// Schema creates the score tables. Applied by the migrate command.
//
//go:embed schema.sql
var Schema string

// PostgresStore persists scores in Postgres: an upsert-merged latest_scores
// row per (user, gameType) and an append-only score_history table.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (p *PostgresStore) UpsertLatest(ctx context.Context, userID string, u LatestUpdate) error {
	const stmt = `
INSERT INTO latest_scores (user_id, game_type, score, total_questions, correct_answers, duration_sec, metadata, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id, game_type) DO UPDATE SET
	score           = EXCLUDED.score,
	total_questions = COALESCE(EXCLUDED.total_questions, latest_scores.total_questions),
	correct_answers = COALESCE(EXCLUDED.correct_answers, latest_scores.correct_answers),
	duration_sec    = COALESCE(EXCLUDED.duration_sec, latest_scores.duration_sec),
	metadata        = COALESCE(EXCLUDED.metadata, latest_scores.metadata),
	updated_at      = EXCLUDED.updated_at;`

	var metadata map[string]any
	if len(u.Metadata) > 0 {
		metadata = u.Metadata
	}

	_, err := p.db.Exec(ctx, stmt,
		userID, u.GameType, u.Score,
		u.TotalQuestions, u.CorrectAnswers, u.DurationSec,
		metadata, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert latest score: %w", err)
	}

	return nil
}

func (p *PostgresStore) AppendSnapshot(ctx context.Context, userID string, s domain.ScoreSnapshot) error {
	const stmt = `
INSERT INTO score_history (snapshot_id, user_id, game_type, score, total_questions, correct_answers, duration_sec)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	_, err := p.db.Exec(ctx, stmt,
		s.SnapshotID, userID, s.GameType, s.Score,
		s.TotalQuestions, s.CorrectAnswers, s.DurationSec,
	)
	if err != nil {
		return fmt.Errorf("append snapshot: %w", err)
	}

	return nil
}

func (p *PostgresStore) Latest(ctx context.Context, userID string) (map[string]domain.ScoreEntry, error) {
	const stmt = `
SELECT game_type, score, total_questions, correct_answers, duration_sec, metadata, updated_at
FROM latest_scores
WHERE user_id = $1;`

	rows, err := p.db.Query(ctx, stmt, userID)
	if err != nil {
		return nil, fmt.Errorf("query latest scores: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.ScoreEntry, error) {
		var (
			e          domain.ScoreEntry
			tq, ca, ds *int
		)
		if err := r.Scan(&e.GameType, &e.Score, &tq, &ca, &ds, &e.Metadata, &e.UpdatedAt); err != nil {
			return domain.ScoreEntry{}, err
		}

		if tq != nil {
			e.TotalQuestions = *tq
		}
		if ca != nil {
			e.CorrectAnswers = *ca
		}
		if ds != nil {
			e.DurationSec = *ds
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect latest scores: %w", err)
	}

	out := make(map[string]domain.ScoreEntry, len(entries))
	for _, e := range entries {
		out[e.GameType] = e
	}

	return out, nil
}

func (p *PostgresStore) History(ctx context.Context, userID string, limit int) ([]domain.ScoreSnapshot, error) {
	const stmt = `
SELECT snapshot_id, game_type, score, total_questions, correct_answers, duration_sec, created_at
FROM score_history
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2;`

	rows, err := p.db.Query(ctx, stmt, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}

	snaps, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (domain.ScoreSnapshot, error) {
		var (
			s          domain.ScoreSnapshot
			tq, ca, ds *int
		)
		if err := r.Scan(&s.SnapshotID, &s.GameType, &s.Score, &tq, &ca, &ds, &s.CreatedAt); err != nil {
			return domain.ScoreSnapshot{}, err
		}

		if tq != nil {
			s.TotalQuestions = *tq
		}
		if ca != nil {
			s.CorrectAnswers = *ca
		}
		if ds != nil {
			s.DurationSec = *ds
		}
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collect history: %w", err)
	}

	return snaps, nil
}
