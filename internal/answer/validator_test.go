package answer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"geoquiz/internal/answer"
	"geoquiz/internal/domain"
	"geoquiz/internal/errors"
)

type stubQuestions map[string][]domain.Question

func (s stubQuestions) Load(category domain.Category, continent string) ([]domain.Question, error) {
	qs, ok := s[string(category)+"/"+continent]
	if !ok {
		return nil, errors.New(errors.CodeUnavailable, errors.WithMessagef("no data"))
	}

	return qs, nil
}

type stubFacts map[string]string

func (s stubFacts) Lookup(name string) (string, bool) {
	fact, ok := s[name]
	return fact, ok
}

func makeValidator(facts answer.FunFacts) *answer.Validator {
	return answer.NewValidator(answer.Config{
		Questions: stubQuestions{
			"capitals/europe": {
				{
					QuestionText:  "What is the capital of France?",
					Options:       []string{"Paris", "Lyon", "Marseille", "Nice"},
					CorrectAnswer: "Paris",
					Difficulty:    domain.DifficultyEasy,
					Explanation:   "Paris has been the capital since the 10th century.",
				},
			},
			"flags/europe": {
				{
					CountryCode:   "fr",
					Options:       []string{"France", "Italy"},
					CorrectAnswer: "France",
					Difficulty:    domain.DifficultyEasy,
				},
			},
		},
		FunFacts: facts,
	})
}

func TestValidator_Check(t *testing.T) {
	ptr := func(s string) *string { return &s }

	tests := map[string]struct {
		submitted *string
		assert    func(t *testing.T, res domain.CheckResult)
	}{
		"exact answer is correct": {
			submitted: ptr("Paris"),
			assert: func(t *testing.T, res domain.CheckResult) {
				require.True(t, res.IsCorrect)
				require.Equal(t, "Paris", res.CorrectAnswer)
			},
		},

		"comparison ignores case": {
			submitted: ptr("PARIS"),
			assert: func(t *testing.T, res domain.CheckResult) {
				require.True(t, res.IsCorrect)
			},
		},

		"comparison ignores surrounding whitespace": {
			submitted: ptr("  Paris "),
			assert: func(t *testing.T, res domain.CheckResult) {
				require.True(t, res.IsCorrect)
			},
		},

		"lowercase with whitespace is still correct": {
			submitted: ptr(" paris"),
			assert: func(t *testing.T, res domain.CheckResult) {
				require.True(t, res.IsCorrect)
			},
		},

		"wrong answer reveals the canonical one": {
			submitted: ptr("Lyon"),
			assert: func(t *testing.T, res domain.CheckResult) {
				require.False(t, res.IsCorrect)
				require.Equal(t, "Paris", res.CorrectAnswer)
				require.NotEmpty(t, res.Explanation)
			},
		},

		"nil submission is never correct but still reveals": {
			submitted: nil,
			assert: func(t *testing.T, res domain.CheckResult) {
				require.False(t, res.IsCorrect)
				require.Equal(t, "Paris", res.CorrectAnswer)
				require.NotEmpty(t, res.Explanation)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			v := makeValidator(stubFacts{})

			res, err := v.Check(domain.CategoryCapitals, "europe", "What is the capital of France?", tt.submitted)
			require.NoError(t, err)
			tt.assert(t, res)
		})
	}
}

func TestValidator_Check_FlagsUseCountryCode(t *testing.T) {
	v := makeValidator(stubFacts{})

	submitted := "france"
	res, err := v.Check(domain.CategoryFlags, "europe", "fr", &submitted)
	require.NoError(t, err)
	require.True(t, res.IsCorrect)
	require.Equal(t, "France", res.CorrectAnswer)
}

func TestValidator_Check_UnknownKey(t *testing.T) {
	v := makeValidator(stubFacts{})

	_, err := v.Check(domain.CategoryCapitals, "europe", "What is the capital of Atlantis?", nil)
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestValidator_Check_DataUnavailable(t *testing.T) {
	v := makeValidator(stubFacts{})

	_, err := v.Check(domain.CategoryCapitals, "atlantis", "anything", nil)
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.CodeUnavailable))
}

func TestValidator_Check_FunFact(t *testing.T) {
	v := makeValidator(stubFacts{"Paris": "The Eiffel Tower grows in summer."})

	res, err := v.Check(domain.CategoryCapitals, "europe", "What is the capital of France?", nil)
	require.NoError(t, err)
	require.Equal(t, "The Eiffel Tower grows in summer.", res.FunFact)
}

func TestValidator_Check_MissingFunFactIsNotAnError(t *testing.T) {
	v := makeValidator(stubFacts{})

	res, err := v.Check(domain.CategoryCapitals, "europe", "What is the capital of France?", nil)
	require.NoError(t, err)
	require.Empty(t, res.FunFact)
}
