package score

import (
	"context"
	"sync"
	"time"

	"geoquiz/internal/domain"
)

// MemoryStore keeps scores in process memory. It backs tests and the
// no-Postgres development mode; nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	latest  map[string]map[string]domain.ScoreEntry
	history map[string][]domain.ScoreSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		latest:  make(map[string]map[string]domain.ScoreEntry),
		history: make(map[string][]domain.ScoreSnapshot),
	}
}

func (m *MemoryStore) UpsertLatest(_ context.Context, userID string, u LatestUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byType, ok := m.latest[userID]
	if !ok {
		byType = make(map[string]domain.ScoreEntry)
		m.latest[userID] = byType
	}

	e := byType[u.GameType]
	e.GameType = u.GameType
	e.Score = u.Score
	e.UpdatedAt = u.UpdatedAt
	if u.TotalQuestions != nil {
		e.TotalQuestions = *u.TotalQuestions
	}
	if u.CorrectAnswers != nil {
		e.CorrectAnswers = *u.CorrectAnswers
	}
	if u.DurationSec != nil {
		e.DurationSec = *u.DurationSec
	}
	if u.Metadata != nil {
		e.Metadata = u.Metadata
	}

	byType[u.GameType] = e
	return nil
}

func (m *MemoryStore) AppendSnapshot(_ context.Context, userID string, s domain.ScoreSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.CreatedAt = time.Now().UTC()
	m.history[userID] = append(m.history[userID], s)
	return nil
}

func (m *MemoryStore) Latest(_ context.Context, userID string) (map[string]domain.ScoreEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]domain.ScoreEntry, len(m.latest[userID]))
	for k, v := range m.latest[userID] {
		out[k] = v
	}

	return out, nil
}

func (m *MemoryStore) History(_ context.Context, userID string, limit int) ([]domain.ScoreSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.history[userID]

	out := make([]domain.ScoreSnapshot, 0, limit)
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}

	return out, nil
}
