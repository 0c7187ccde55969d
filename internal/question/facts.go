package question

import (
	"encoding/json"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
)

const factsFile = "funfacts.json"

// FactBook resolves supplementary trivia keyed by the canonical answer value.
// It is strictly best-effort: a missing or corrupt facts file only means
// every lookup misses.
type FactBook struct {
	fsys  fs.FS
	once  sync.Once
	facts map[string]string
}

func NewFactBook(fsys fs.FS) *FactBook {
	return &FactBook{fsys: fsys}
}

func (f *FactBook) Lookup(name string) (string, bool) {
	f.once.Do(f.load)

	fact, ok := f.facts[normalizeFactKey(name)]
	return fact, ok
}

func (f *FactBook) load() {
	f.facts = make(map[string]string)

	b, err := fs.ReadFile(f.fsys, factsFile)
	if err != nil {
		slog.Warn("question: fun facts unavailable", "error", err)
		return
	}

	var raw map[string]string
	if err := json.Unmarshal(b, &raw); err != nil {
		slog.Warn("question: fun facts corrupt", "error", err)
		return
	}

	for k, v := range raw {
		f.facts[normalizeFactKey(k)] = v
	}
}

func normalizeFactKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
