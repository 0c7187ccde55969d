package api

import (
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"geoquiz/internal/answer"
	"geoquiz/internal/auth"
	"geoquiz/internal/domain"
	"geoquiz/internal/errors"
	"geoquiz/internal/leaderboard"
	"geoquiz/internal/question"
	"geoquiz/internal/score"
)

// Continent names are plain letters (europe, africa, boss); anything else is
// rejected before touching the store.
var continentRe = regexp.MustCompile(`^[a-zA-Z]+$`)

type Config struct {
	Router    gin.IRouter
	Questions *question.Store
	Validator *answer.Validator
	Scores    *score.Service

	// Leaderboard is optional; without it the leaderboard route is not
	// registered.
	Leaderboard *leaderboard.Service

	// Identity is optional; without it all requests are anonymous.
	Identity auth.IdentityProvider
}

type API struct {
	questions *question.Store
	validator *answer.Validator
	scores    *score.Service
	lb        *leaderboard.Service
}

func New(c Config) *API {
	a := &API{
		questions: c.Questions,
		validator: c.Validator,
		scores:    c.Scores,
		lb:        c.Leaderboard,
	}

	g := c.Router.Group("/api", auth.Middleware(c.Identity))

	g.GET("/continents", a.listContinents)

	g.GET("/capitals/:continent/:difficulty", a.selectQuestions(domain.CategoryCapitals))
	g.POST("/capitals/check", a.check(domain.CategoryCapitals))

	g.GET("/flags/:continent/:difficulty", a.selectQuestions(domain.CategoryFlags))
	g.POST("/flags/check", a.check(domain.CategoryFlags))

	g.POST("/stats", a.recordStats)
	g.GET("/stats/:userId", a.getStats)

	if a.lb != nil {
		g.GET("/leaderboard/:gameType", a.getLeaderboard)
	}

	return a
}

func (a *API) listContinents(c *gin.Context) {
	raw := c.DefaultQuery("category", string(domain.CategoryCapitals))
	category, ok := domain.ParseCategory(raw)
	if !ok {
		respondError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid category: %q", raw)))
		return
	}

	continents, err := a.questions.ListContinents(category)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, continents)
}

func (a *API) selectQuestions(category domain.Category) gin.HandlerFunc {
	return func(c *gin.Context) {
		continent := c.Param("continent")
		if !continentRe.MatchString(continent) {
			respondError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid continent: %q", continent)))
			return
		}

		difficulty, ok := domain.ParseDifficulty(c.Param("difficulty"))
		if !ok {
			respondError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid difficulty: %q", c.Param("difficulty"))))
			return
		}

		qs, err := a.questions.Select(category, continent, difficulty)
		if err != nil {
			respondError(c, err)
			return
		}

		// An empty set is "no questions available", not an error.
		if qs == nil {
			qs = []domain.Question{}
		}

		c.JSON(200, qs)
	}
}

type checkRequest struct {
	Continent   string  `json:"continent"`
	Question    string  `json:"question"`
	CountryCode string  `json:"country_code"`
	UserAnswer  *string `json:"userAnswer"`
}

type checkResponse struct {
	IsCorrect     bool    `json:"isCorrect"`
	CorrectAnswer string  `json:"correctAnswer"`
	Explanation   *string `json:"explanation"`
	FunFact       *string `json:"funFact"`
}

func (a *API) check(category domain.Category) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid request body"),
				errors.WithCause(err)))
			return
		}

		if req.Continent == "" {
			respondError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("continent is required")))
			return
		}

		key := req.Question
		if category == domain.CategoryFlags {
			key = req.CountryCode
		}
		if key == "" {
			respondError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("question key is required")))
			return
		}

		res, err := a.validator.Check(category, req.Continent, key, req.UserAnswer)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, checkResponse{
			IsCorrect:     res.IsCorrect,
			CorrectAnswer: res.CorrectAnswer,
			Explanation:   optional(res.Explanation),
			FunFact:       optional(res.FunFact),
		})
	}
}

type recordStatsRequest struct {
	UserID         string         `json:"userId"`
	GameType       string         `json:"gameType"`
	Score          *float64       `json:"score"`
	TotalQuestions *int           `json:"totalQuestions"`
	CorrectAnswers *int           `json:"correctAnswers"`
	DurationSec    *int           `json:"durationSec"`
	Metadata       map[string]any `json:"metadata"`
}

func (a *API) recordStats(c *gin.Context) {
	var req recordStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("invalid request body"),
			errors.WithCause(err)))
		return
	}

	if req.Score == nil {
		respondError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("score is required and must be numeric")))
		return
	}

	if id, ok := auth.FromContext(c); ok && !id.Anonymous && id.UserID != req.UserID {
		respondError(c, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("token identity does not match userId")))
		return
	}

	err := a.scores.Record(c.Request.Context(), score.RecordRequest{
		UserID:         req.UserID,
		GameType:       req.GameType,
		Score:          decimal.NewFromFloat(*req.Score),
		TotalQuestions: req.TotalQuestions,
		CorrectAnswers: req.CorrectAnswers,
		DurationSec:    req.DurationSec,
		Metadata:       req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(200, gin.H{"success": true})
}

type scoreEntryDTO struct {
	Score          float64        `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	CorrectAnswers int            `json:"correctAnswers"`
	DurationSec    int            `json:"durationSec"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type snapshotDTO struct {
	GameType       string    `json:"gameType"`
	Score          float64   `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	DurationSec    int       `json:"durationSec"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (a *API) getStats(c *gin.Context) {
	includeHistory := false
	if raw, ok := c.GetQuery("includeHistory"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid includeHistory: %q", raw)))
			return
		}
		includeHistory = v
	}

	historyLimit := 0
	if raw, ok := c.GetQuery("historyLimit"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid historyLimit: %q", raw)))
			return
		}
		historyLimit = v
	}

	stats, err := a.scores.Stats(c.Request.Context(), score.StatsRequest{
		UserID:         c.Param("userId"),
		IncludeHistory: includeHistory,
		HistoryLimit:   historyLimit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make(map[string]any, len(stats.Latest)+1)
	for gameType, e := range stats.Latest {
		resp[gameType] = scoreEntryDTO{
			Score:          e.Score.InexactFloat64(),
			TotalQuestions: e.TotalQuestions,
			CorrectAnswers: e.CorrectAnswers,
			DurationSec:    e.DurationSec,
			Metadata:       e.Metadata,
			UpdatedAt:      e.UpdatedAt,
		}
	}

	if includeHistory && stats.History != nil {
		history := make([]snapshotDTO, 0, len(stats.History))
		for _, s := range stats.History {
			history = append(history, snapshotDTO{
				GameType:       s.GameType,
				Score:          s.Score.InexactFloat64(),
				TotalQuestions: s.TotalQuestions,
				CorrectAnswers: s.CorrectAnswers,
				DurationSec:    s.DurationSec,
				CreatedAt:      s.CreatedAt,
			})
		}
		resp["_history"] = history
	}

	c.JSON(200, resp)
}

type leaderboardEntryDTO struct {
	UserID string  `json:"userId"`
	Score  float64 `json:"score"`
}

func (a *API) getLeaderboard(c *gin.Context) {
	limit := 0
	if raw, ok := c.GetQuery("limit"); ok {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			respondError(c, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("invalid limit: %q", raw)))
			return
		}
		limit = v
	}

	l, err := a.lb.Top(c.Request.Context(), leaderboard.TopRequest{
		GameType: c.Param("gameType"),
		Limit:    limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	entries := make([]leaderboardEntryDTO, 0, len(l.Entries))
	for _, e := range l.Entries {
		entries = append(entries, leaderboardEntryDTO{
			UserID: e.UserID,
			Score:  e.Score,
		})
	}

	c.JSON(200, gin.H{
		"gameType": l.GameType,
		"entries":  entries,
	})
}

func respondError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.HTTPStatusCode() >= 500 {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"route", c.FullPath(),
			"error", e,
		)
	}

	c.JSON(e.HTTPStatusCode(), gin.H{"error": e})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
