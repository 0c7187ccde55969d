package leaderboard

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"geoquiz/internal/domain"
	"geoquiz/internal/event"
)

const defaultLimit = 10

type Config struct {
	EventBus *event.Bus
	Redis    redis.UniversalClient
	Prefix   string
}

// Service maintains one redis sorted set per gameType, fed by
// score.recorded events. It is a read model over the recorder's data;
// losing it loses nothing the score store cannot rebuild.
type Service struct {
	redis  redis.UniversalClient
	prefix string
}

func NewService(c Config) *Service {
	s := &Service{
		redis:  c.Redis,
		prefix: c.Prefix,
	}

	if c.EventBus != nil {
		c.EventBus.Subscribe(domain.EventNameScoreRecorded, func(ctx context.Context, e event.Event) error {
			return s.Apply(ctx, e.(domain.EventScoreRecorded))
		})
	}

	return s
}

// Apply overwrites the user's entry in the gameType leaderboard with the
// latest recorded score.
func (s *Service) Apply(ctx context.Context, e domain.EventScoreRecorded) error {
	err := s.redis.ZAdd(ctx, s.key(e.GameType), redis.Z{
		Score:  e.Score.InexactFloat64(),
		Member: e.UserID,
	}).Err()
	if err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}

	return nil
}

type TopRequest struct {
	GameType string
	Limit    int
}

// Top returns the highest-scoring users for a gameType in descending order.
// A gameType nobody has played yields an empty leaderboard.
func (s *Service) Top(ctx context.Context, req TopRequest) (*domain.Leaderboard, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	res, err := s.redis.ZRevRangeWithScores(ctx, s.key(req.GameType), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(res))
	for _, z := range res {
		entries = append(entries, domain.LeaderboardEntry{
			UserID: z.Member.(string),
			Score:  z.Score,
		})
	}

	return &domain.Leaderboard{
		GameType: req.GameType,
		Entries:  entries,
	}, nil
}

func (s *Service) key(gameType string) string {
	return fmt.Sprintf("%s:%s:leaderboard", s.prefix, gameType)
}
