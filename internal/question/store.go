package question

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"geoquiz/internal/domain"
	"geoquiz/internal/errors"
)

// MaxPerQuiz caps how many questions a single quiz round receives.
const MaxPerQuiz = 10

const warmConcurrency = 4

type Config struct {
	// FS is the root of the question data, containing one directory per
	// category (capitals/, flags/) with a JSON file per continent.
	FS fs.FS

	// Shuffle permutes a question slice in place. Defaults to an unseeded
	// uniform shuffle; injectable so tests can be deterministic.
	Shuffle func([]domain.Question)
}

// Store loads per-continent question sets from static JSON and caches them
// in memory for the life of the process. The data is shipped with the app
// and never changes at runtime, so there is no invalidation.
type Store struct {
	fsys    fs.FS
	shuffle func([]domain.Question)

	mu         sync.RWMutex
	sets       map[string][]domain.Question
	continents map[domain.Category][]string
}

func NewStore(c Config) *Store {
	s := &Store{
		fsys:       c.FS,
		shuffle:    c.Shuffle,
		sets:       make(map[string][]domain.Question),
		continents: make(map[domain.Category][]string),
	}

	if s.shuffle == nil {
		s.shuffle = func(qs []domain.Question) {
			rand.Shuffle(len(qs), func(i, j int) {
				qs[i], qs[j] = qs[j], qs[i]
			})
		}
	}

	return s
}

// ListContinents returns the sorted continent names for a category, derived
// from the JSON files present in the data directory. The listing is cached
// for the process lifetime.
func (s *Store) ListContinents(category domain.Category) ([]string, error) {
	s.mu.RLock()
	cached, ok := s.continents[category]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	entries, err := fs.ReadDir(s.fsys, string(category))
	if err != nil {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("question data unavailable: category=%s", category),
			errors.WithCause(err),
		)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)

	s.mu.Lock()
	s.continents[category] = names
	s.mu.Unlock()

	return names, nil
}

// Load returns the full question set for a continent, reading and parsing
// the backing file on first use. Read and parse failures are not cached, so
// a later request retries the file.
func (s *Store) Load(category domain.Category, continent string) ([]domain.Question, error) {
	key := string(category) + "/" + continent

	s.mu.RLock()
	cached, ok := s.sets[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	b, err := fs.ReadFile(s.fsys, path.Join(string(category), continent+".json"))
	if err != nil {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("question data unavailable: %s", key),
			errors.WithCause(err),
		)
	}

	var qs []domain.Question
	if err := json.Unmarshal(b, &qs); err != nil {
		return nil, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("question data corrupt: %s", key),
			errors.WithCause(err),
		)
	}

	s.mu.Lock()
	// First writer wins so concurrent loaders agree on the cached slice.
	if prior, ok := s.sets[key]; ok {
		qs = prior
	} else {
		s.sets[key] = qs
	}
	s.mu.Unlock()

	return qs, nil
}

// Select returns at most MaxPerQuiz questions for a quiz round. A concrete
// difficulty filters by exact match; DifficultyRandom shuffles the full set.
// An empty result means no questions are available and is not an error.
func (s *Store) Select(category domain.Category, continent string, difficulty domain.Difficulty) ([]domain.Question, error) {
	all, err := s.Load(category, continent)
	if err != nil {
		return nil, err
	}

	var picked []domain.Question
	if difficulty == domain.DifficultyRandom {
		picked = make([]domain.Question, len(all))
		copy(picked, all)
		s.shuffle(picked)
	} else {
		for _, q := range all {
			if q.Difficulty == difficulty {
				picked = append(picked, q)
			}
		}
	}

	if len(picked) > MaxPerQuiz {
		picked = picked[:MaxPerQuiz]
	}

	return picked, nil
}

// Warm preloads every continent of every category into the cache so the
// first quiz request does not pay for file reads.
func (s *Store) Warm(ctx context.Context) error {
	var eg errgroup.Group
	eg.SetLimit(warmConcurrency)

	for _, category := range []domain.Category{domain.CategoryCapitals, domain.CategoryFlags} {
		continents, err := s.ListContinents(category)
		if err != nil {
			return fmt.Errorf("list continents: %s: %w", category, err)
		}

		for _, continent := range continents {
			category, continent := category, continent
			eg.Go(func() error {
				if _, err := s.Load(category, continent); err != nil {
					return fmt.Errorf("load %s/%s: %w", category, continent, err)
				}
				return nil
			})
		}
	}

	return eg.Wait()
}
