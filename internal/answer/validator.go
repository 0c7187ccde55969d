package answer

import (
	"strings"

	"geoquiz/internal/domain"
	"geoquiz/internal/errors"
)

// Questions is the slice of the question store the validator needs: the full
// loaded set for a continent, not a filtered quiz selection.
type Questions interface {
	Load(category domain.Category, continent string) ([]domain.Question, error)
}

// FunFacts resolves supplementary trivia for a correct answer. Lookups that
// miss or fail must never fail the check request.
type FunFacts interface {
	Lookup(name string) (string, bool)
}

type Config struct {
	Questions Questions
	FunFacts  FunFacts
}

type Validator struct {
	questions Questions
	facts     FunFacts
}

func NewValidator(c Config) *Validator {
	return &Validator{
		questions: c.Questions,
		facts:     c.FunFacts,
	}
}

// Check validates a submitted answer against the canonical one. The key is
// the question text for capitals and the country code for flags. A nil
// submission is the timer-expiry path: it is never correct, but the
// canonical answer and explanation are still returned so the caller can
// reveal them.
func (v *Validator) Check(category domain.Category, continent, key string, submitted *string) (domain.CheckResult, error) {
	qs, err := v.questions.Load(category, continent)
	if err != nil {
		return domain.CheckResult{}, err
	}

	q, ok := find(qs, category, key)
	if !ok {
		return domain.CheckResult{}, errors.New(errors.CodeNotFound,
			errors.WithMessagef("question not found: category=%s continent=%s", category, continent),
		)
	}

	res := domain.CheckResult{
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	}

	if submitted != nil {
		res.IsCorrect = equalAnswer(*submitted, q.CorrectAnswer)
	}

	if v.facts != nil {
		if fact, ok := v.facts.Lookup(q.CorrectAnswer); ok {
			res.FunFact = fact
		}
	}

	return res, nil
}

func find(qs []domain.Question, category domain.Category, key string) (domain.Question, bool) {
	for _, q := range qs {
		if q.Key(category) == key {
			return q, true
		}
	}

	return domain.Question{}, false
}

// equalAnswer compares case-insensitively and ignores surrounding whitespace.
func equalAnswer(submitted, canonical string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(canonical))
}
