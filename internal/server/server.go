package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"geoquiz/internal/answer"
	"geoquiz/internal/api"
	"geoquiz/internal/auth"
	"geoquiz/internal/event"
	"geoquiz/internal/leaderboard"
	"geoquiz/internal/question"
	"geoquiz/internal/score"
	"geoquiz/internal/telemetry"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Data struct {
		// Dir is the root of the static question data (capitals/, flags/,
		// funfacts.json).
		Dir string
	}

	Redis struct {
		Leaderboard struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Postgres struct {
		Score struct {
			Addr string
			User string
			Pass string
			Name string
		}
	}

	Auth struct {
		// Tokens maps bearer tokens to user IDs for the static dev provider.
		// Empty disables authentication; all requests are anonymous.
		Tokens map[string]string
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis    redis.UniversalClient
		postgres *pgxpool.Pool
	}

	service struct {
		questions   *question.Store
		validator   *answer.Validator
		scores      *score.Service
		leaderboard *leaderboard.Service
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

// initInfra connects the optional backing stores. Redis and Postgres are
// both optional: without Redis the leaderboard is disabled, without
// Postgres scores live in process memory.
func (s *Server) initInfra() error {
	if addrs := s.c.Redis.Leaderboard.Addrs; len(addrs) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: s.c.Redis.Leaderboard.Pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return fmt.Errorf("redis: %w", err)
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}

		s.infra.redis = r
	}

	if pg := s.c.Postgres.Score; pg.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cc, err := pgxpool.ParseConfig(fmt.Sprintf("postgres://%s:%s@%s/%s", pg.User, pg.Pass, pg.Addr, pg.Name))
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}

		db, err := pgxpool.NewWithConfig(ctx, cc)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}

		if err := db.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}

		s.infra.postgres = db
	}

	return nil
}

func (s *Server) initService() {
	s.service.questions = question.NewStore(question.Config{
		FS: os.DirFS(s.c.Data.Dir),
	})

	// Warm-up failure is not fatal: each request retries the file and
	// surfaces data-unavailable on its own.
	if err := s.service.questions.Warm(context.Background()); err != nil {
		slog.Warn("server: question warm-up failed", "error", err)
	}

	s.service.validator = answer.NewValidator(answer.Config{
		Questions: s.service.questions,
		FunFacts:  question.NewFactBook(os.DirFS(s.c.Data.Dir)),
	})

	var store score.Store
	if s.infra.postgres != nil {
		store = score.NewPostgresStore(s.infra.postgres)
	} else {
		slog.Warn("server: no postgres configured, scores are in-memory only")
		store = score.NewMemoryStore()
	}

	s.service.scores = score.NewService(score.Config{
		EventBus: s.eb,
		Store:    store,
	})

	if s.infra.redis != nil {
		s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
			EventBus: s.eb,
			Redis:    s.infra.redis,
			Prefix:   s.c.Redis.Leaderboard.Prefix,
		})
	}
}

func (s *Server) initAPI() {
	e := gin.New()
	e.Use(gin.Recovery())
	e.Use(telemetry.HTTPMetrics())

	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	e.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	pprof.Register(e, "/debug/pprof")

	var provider auth.IdentityProvider
	if len(s.c.Auth.Tokens) > 0 {
		provider = auth.StaticProvider(s.c.Auth.Tokens)
	}

	api.New(api.Config{
		Router:      e,
		Questions:   s.service.questions,
		Validator:   s.service.validator,
		Scores:      s.service.scores,
		Leaderboard: s.service.leaderboard,
		Identity:    provider,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	if s.infra.postgres != nil {
		s.infra.postgres.Close()
	}
	if s.infra.redis != nil {
		if err := s.infra.redis.Close(); err != nil {
			slog.ErrorContext(ctx, "server: close redis failed", "error", err)
		}
	}

	slog.InfoContext(ctx, "server: shutdown completed")
}
