package question_test

import (
	"context"
	"io/fs"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"geoquiz/internal/domain"
	"geoquiz/internal/errors"
	"geoquiz/internal/question"
)

func fixtureFS() fstest.MapFS {
	return fstest.MapFS{
		"capitals/europe.json": {Data: []byte(`[
			{"question": "q1", "options": ["a", "b", "c", "d"], "correct_answer": "a", "difficulty": "easy"},
			{"question": "q2", "options": ["a", "b", "c", "d"], "correct_answer": "b", "difficulty": "easy"},
			{"question": "q3", "options": ["a", "b", "c", "d"], "correct_answer": "c", "difficulty": "medium"},
			{"question": "q4", "options": ["a", "b", "c", "d"], "correct_answer": "d", "difficulty": "hard"}
		]`)},
		"capitals/africa.json": {Data: []byte(`[]`)},
		"capitals/notes.txt":   {Data: []byte(`not a question set`)},
		"flags/europe.json": {Data: []byte(`[
			{"country_code": "fr", "options": ["France", "Italy"], "correct_answer": "France", "difficulty": "easy"}
		]`)},
	}
}

func TestStore_ListContinents(t *testing.T) {
	s := question.NewStore(question.Config{FS: fixtureFS()})

	got, err := s.ListContinents(domain.CategoryCapitals)
	require.NoError(t, err)
	require.Equal(t, []string{"africa", "europe"}, got, "should be sorted and skip non-JSON files")

	got, err = s.ListContinents(domain.CategoryFlags)
	require.NoError(t, err)
	require.Equal(t, []string{"europe"}, got)
}

func TestStore_ListContinents_MissingCategory(t *testing.T) {
	s := question.NewStore(question.Config{FS: fstest.MapFS{}})

	_, err := s.ListContinents(domain.CategoryCapitals)
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.CodeUnavailable))
}

func TestStore_Select(t *testing.T) {
	tests := map[string]struct {
		difficulty domain.Difficulty
		assert     func(t *testing.T, qs []domain.Question)
	}{
		"concrete difficulty returns only matching questions": {
			difficulty: domain.DifficultyEasy,
			assert: func(t *testing.T, qs []domain.Question) {
				require.Len(t, qs, 2)
				for _, q := range qs {
					require.Equal(t, domain.DifficultyEasy, q.Difficulty)
				}
			},
		},

		"single match returns just that question": {
			difficulty: domain.DifficultyMedium,
			assert: func(t *testing.T, qs []domain.Question) {
				require.Len(t, qs, 1)
				require.Equal(t, "q3", qs[0].QuestionText)
			},
		},

		"random returns the whole shuffled set": {
			difficulty: domain.DifficultyRandom,
			assert: func(t *testing.T, qs []domain.Question) {
				require.Len(t, qs, 4)
				// Shuffle is injected to reverse, so order is deterministic.
				require.Equal(t, "q4", qs[0].QuestionText)
				require.Equal(t, "q1", qs[3].QuestionText)
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := question.NewStore(question.Config{
				FS: fixtureFS(),
				Shuffle: func(qs []domain.Question) {
					for i, j := 0, len(qs)-1; i < j; i, j = i+1, j-1 {
						qs[i], qs[j] = qs[j], qs[i]
					}
				},
			})

			qs, err := s.Select(domain.CategoryCapitals, "europe", tt.difficulty)
			require.NoError(t, err)
			tt.assert(t, qs)
		})
	}
}

func TestStore_Select_EmptySetIsNotAnError(t *testing.T) {
	s := question.NewStore(question.Config{FS: fixtureFS()})

	qs, err := s.Select(domain.CategoryCapitals, "africa", domain.DifficultyEasy)
	require.NoError(t, err)
	require.Empty(t, qs)
}

func TestStore_Select_TruncatesToMax(t *testing.T) {
	many := `[`
	for i := 0; i < 15; i++ {
		if i > 0 {
			many += ","
		}
		many += `{"question": "q", "options": ["a"], "correct_answer": "a", "difficulty": "easy"}`
	}
	many += `]`

	s := question.NewStore(question.Config{FS: fstest.MapFS{
		"capitals/boss.json": {Data: []byte(many)},
	}})

	qs, err := s.Select(domain.CategoryCapitals, "boss", domain.DifficultyEasy)
	require.NoError(t, err)
	require.Len(t, qs, question.MaxPerQuiz)
}

func TestStore_Load_Corrupt(t *testing.T) {
	s := question.NewStore(question.Config{FS: fstest.MapFS{
		"capitals/europe.json": {Data: []byte(`{not json`)},
	}})

	_, err := s.Load(domain.CategoryCapitals, "europe")
	require.Error(t, err)
	require.True(t, errors.IsCode(err, errors.CodeUnavailable))
}

func TestStore_Load_CachesFirstRead(t *testing.T) {
	counting := &countingFS{inner: fixtureFS()}
	s := question.NewStore(question.Config{FS: counting})

	first, err := s.Load(domain.CategoryCapitals, "europe")
	require.NoError(t, err)

	second, err := s.Load(domain.CategoryCapitals, "europe")
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, 1, counting.openCount(), "second load should be served from cache")
}

func TestStore_Warm(t *testing.T) {
	counting := &countingFS{inner: fixtureFS()}
	s := question.NewStore(question.Config{FS: counting})

	require.NoError(t, s.Warm(context.Background()))

	opens := counting.openCount()
	_, err := s.Load(domain.CategoryCapitals, "europe")
	require.NoError(t, err)
	require.Equal(t, opens, counting.openCount(), "loads after warm-up should not touch files")
}

type countingFS struct {
	inner fs.FS
	mu    sync.Mutex
	opens int
}

func (c *countingFS) Open(name string) (fs.File, error) {
	c.mu.Lock()
	c.opens++
	c.mu.Unlock()
	return c.inner.Open(name)
}

func (c *countingFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return fs.ReadDir(c.inner, name)
}

func (c *countingFS) openCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}
