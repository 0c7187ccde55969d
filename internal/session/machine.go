// Package session drives a single quiz attempt through its states:
//
//	Loading -> Presenting(i) -> Submitting(i) -> Revealed(i) -> ... -> Complete
//
// A machine belongs to one player and one quiz round. Answer selection and
// countdown expiry race for the same question; a single commit guard makes
// whichever fires first win and the other a no-op.
package session

import (
	"log/slog"
	"sync"
	"time"

	"geoquiz/internal/domain"
)

// DefaultQuestionTime is the countdown for one question.
const DefaultQuestionTime = 10 * time.Second

type State int

const (
	StateLoading State = iota
	StatePresenting
	StateSubmitting
	StateRevealed
	StateComplete
	// StateFailed is the terminal state for an empty question list. There is
	// no retry from here; the player navigates back.
	StateFailed
)

// Outcome classifies a revealed question. Timed-out questions are framed
// distinctly from wrong answers.
type Outcome int

const (
	OutcomeCorrect Outcome = iota
	OutcomeWrong
	OutcomeTimedOut
)

// Checker validates a submitted answer. A nil submission is the timeout path.
type Checker interface {
	Check(category domain.Category, continent, key string, submitted *string) (domain.CheckResult, error)
}

type Config struct {
	Category   domain.Category
	Continent  string
	Difficulty domain.Difficulty
	Questions  []domain.Question
	Checker    Checker

	// QuestionTime defaults to DefaultQuestionTime.
	QuestionTime time.Duration
	// Clock defaults to the system clock; injectable for tests.
	Clock Clock
}

// Reveal is the per-question result shown after the answer is committed.
type Reveal struct {
	Submitted     *string
	CorrectAnswer string
	Explanation   string
	FunFact       string
	Outcome       Outcome
}

// Summary is handed over when the machine completes; the machine itself is
// discarded afterwards.
type Summary struct {
	Category   domain.Category
	Continent  string
	Difficulty domain.Difficulty
	Score      int
	Total      int
}

type Machine struct {
	category     domain.Category
	continent    string
	difficulty   domain.Difficulty
	questions    []domain.Question
	checker      Checker
	clock        Clock
	questionTime time.Duration

	mu       sync.Mutex
	state    State
	index    int
	score    int
	answered bool
	reveals  []Reveal
	timer    Timer
}

func NewMachine(c Config) *Machine {
	m := &Machine{
		category:     c.Category,
		continent:    c.Continent,
		difficulty:   c.Difficulty,
		questions:    c.Questions,
		checker:      c.Checker,
		clock:        c.Clock,
		questionTime: c.QuestionTime,
		state:        StateLoading,
		reveals:      make([]Reveal, len(c.Questions)),
	}

	if m.clock == nil {
		m.clock = systemClock{}
	}
	if m.questionTime <= 0 {
		m.questionTime = DefaultQuestionTime
	}

	return m
}

// Start moves the machine out of Loading: to Presenting(0) when questions
// exist, to the terminal Failed state when the list is empty.
func (m *Machine) Start() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateLoading {
		return m.state
	}

	if len(m.questions) == 0 {
		m.state = StateFailed
		return m.state
	}

	m.presentLocked(0)
	return m.state
}

func (m *Machine) presentLocked(i int) {
	m.index = i
	m.answered = false
	m.state = StatePresenting

	m.timer = m.clock.AfterFunc(m.questionTime, func() {
		m.expire(i)
	})
}

// Select commits the player's answer for the current question. It reports
// false when the commit lost the race: the countdown already expired, the
// question was already answered, or the machine is not presenting.
func (m *Machine) Select(answer string) bool {
	return m.commit(m.indexNow(), &answer)
}

// expire is the countdown callback for question i. The index guard keeps a
// stale timer from touching a later question.
func (m *Machine) expire(i int) {
	m.commit(i, nil)
}

func (m *Machine) commit(i int, submitted *string) bool {
	m.mu.Lock()
	if m.state != StatePresenting || m.answered || m.index != i {
		m.mu.Unlock()
		return false
	}

	m.answered = true
	m.state = StateSubmitting
	if m.timer != nil {
		m.timer.Stop()
	}
	q := m.questions[i]
	m.mu.Unlock()

	// The checker may hit the network; keep it outside the lock. The guard
	// above already made this commit the only writer for question i.
	res, err := m.checker.Check(m.category, m.continent, q.Key(m.category), submitted)
	if err != nil {
		// Reveal from the locally known question instead of surfacing a
		// blocking error mid-quiz.
		slog.Error("session: check answer failed, revealing local answer",
			"category", m.category,
			"continent", m.continent,
			"error", err,
		)

		res = domain.CheckResult{
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		if submitted != nil {
			res.IsCorrect = *submitted == q.CorrectAnswer
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r := Reveal{
		Submitted:     submitted,
		CorrectAnswer: res.CorrectAnswer,
		Explanation:   res.Explanation,
		FunFact:       res.FunFact,
	}

	switch {
	case submitted == nil:
		r.Outcome = OutcomeTimedOut
	case res.IsCorrect:
		r.Outcome = OutcomeCorrect
		m.score++
	default:
		r.Outcome = OutcomeWrong
	}

	m.reveals[i] = r
	m.state = StateRevealed
	return true
}

// Next advances past a revealed question. Advancing is always an explicit
// action; there is no auto-advance delay. From the last question it moves
// to Complete, exactly once.
func (m *Machine) Next() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRevealed {
		return m.state
	}

	if m.index+1 < len(m.questions) {
		m.presentLocked(m.index + 1)
	} else {
		m.state = StateComplete
	}

	return m.state
}

// Summary returns the final tally. It is only meaningful in StateComplete;
// the ok result is false otherwise.
func (m *Machine) Summary() (Summary, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateComplete {
		return Summary{}, false
	}

	return Summary{
		Category:   m.category,
		Continent:  m.continent,
		Difficulty: m.difficulty,
		Score:      m.score,
		Total:      len(m.questions),
	}, true
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

func (m *Machine) Score() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

// Reveal returns the recorded result for question i, valid once that
// question reached Revealed.
func (m *Machine) Reveal(i int) (Reveal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.reveals) {
		return Reveal{}, false
	}
	if i > m.index || (i == m.index && m.state != StateRevealed && m.state != StateComplete) {
		return Reveal{}, false
	}

	return m.reveals[i], true
}

func (m *Machine) indexNow() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}
