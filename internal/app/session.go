package app

import (
	"fmt"
	"sync"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
)

// Phase is the lifecycle state of a game session.
type Phase int

const (
	// PhaseAwaitingQuestion means no dilemma is loaded for the current slot;
	// a fetch is pending or has failed.
	PhaseAwaitingQuestion Phase = iota
	// PhaseQuestionPresented means a dilemma is loaded and exactly one answer
	// may be submitted for it.
	PhaseQuestionPresented
	// PhaseComplete is terminal: no further fetches or submissions.
	PhaseComplete
)

// GameSession tracks one play-through of a fixed-length dilemma sequence for
// a single period. Progress is append-only: every locked answer adds exactly
// one entry to each of the scores/answers/explanations logs, so their length
// always equals currentQuestion-1 until the session completes, and equals
// totalQuestions afterwards. A session lives only as long as the instance;
// nothing is persisted across restarts.
type GameSession struct {
	id     string
	period string

	mu           sync.Mutex
	phase        Phase
	current      int // 1-based question number, never exceeds total
	total        int
	dilemma      *domain.Dilemma
	scores       []float64
	answers      []string
	explanations []string
	fetchErr     error
	epoch        int
	closed       bool
}

// NewSession is exported for transports and tests that drive sessions directly.
func NewSession(id, period string, totalQuestions int) *GameSession {
	return newGameSession(id, period, totalQuestions)
}

func newGameSession(id, period string, totalQuestions int) *GameSession {
	if totalQuestions < 1 {
		totalQuestions = 1
	}
	return &GameSession{
		id:      id,
		period:  period,
		phase:   PhaseAwaitingQuestion,
		current: 1,
		total:   totalQuestions,
	}
}

func (s *GameSession) ID() string     { return s.id }
func (s *GameSession) Period() string { return s.period }

// Snapshot is an immutable view of session progress for rendering.
type Snapshot struct {
	Period          string
	Phase           Phase
	CurrentQuestion int
	TotalQuestions  int
	Scores          []float64
	Answers         []string
	Explanations    []string
	Complete        bool
	Dilemma         *domain.Dilemma
	FetchErr        error
}

// Snapshot copies the current state so callers can render without holding
// any reference into the session's own slices.
func (s *GameSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Period:          s.period,
		Phase:           s.phase,
		CurrentQuestion: s.current,
		TotalQuestions:  s.total,
		Scores:          append([]float64(nil), s.scores...),
		Answers:         append([]string(nil), s.answers...),
		Explanations:    append([]string(nil), s.explanations...),
		Complete:        s.phase == PhaseComplete,
		FetchErr:        s.fetchErr,
	}
	if s.dilemma != nil {
		d := *s.dilemma
		snap.Dilemma = &d
	}
	return snap
}

// beginFetch reserves the fetch slot for the current question and returns an
// epoch token. The token lets a fetch that completes after Close (or after the
// session moved on) be discarded instead of mutating stale state.
func (s *GameSession) beginFetch() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, domain.ErrSessionNotFound
	}
	switch s.phase {
	case PhaseComplete:
		return 0, domain.ErrSessionComplete
	case PhaseQuestionPresented:
		return 0, domain.ErrAnswerLocked
	}
	return s.epoch, nil
}

// presentDilemma installs a fetched dilemma. Returns false when the result is
// stale (session closed or epoch advanced) and was discarded.
func (s *GameSession) presentDilemma(epoch int, d domain.Dilemma) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || epoch != s.epoch || s.phase != PhaseAwaitingQuestion {
		return false
	}
	s.dilemma = &d
	s.fetchErr = nil
	s.phase = PhaseQuestionPresented
	return true
}

// failFetch records a fetch failure. Progress is untouched: the session stays
// in PhaseAwaitingQuestion with the same question number and logs.
func (s *GameSession) failFetch(epoch int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || epoch != s.epoch || s.phase != PhaseAwaitingQuestion {
		return
	}
	s.fetchErr = err
}

// submitAnswer locks in the choice at choiceIndex for the current question.
// It returns the immutable answer record, the question text (for the history
// submission), and whether this answer completed the session.
//
// Valid only while a question is presented; submissions at any other time are
// rejected with a sentinel error and leave the logs untouched, which makes
// duplicate input events no-ops. choiceIndex must be within the presented
// dilemma's choices: transports bounds-check user input, and a violation here
// is a programming error that panics.
func (s *GameSession) submitAnswer(choiceIndex int) (domain.AnsweredQuestion, string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.AnsweredQuestion{}, "", false, domain.ErrSessionNotFound
	}
	switch s.phase {
	case PhaseComplete:
		return domain.AnsweredQuestion{}, "", false, domain.ErrSessionComplete
	case PhaseAwaitingQuestion:
		if len(s.answers) > 0 {
			return domain.AnsweredQuestion{}, "", false, domain.ErrAnswerLocked
		}
		return domain.AnsweredQuestion{}, "", false, domain.ErrNoQuestionPresented
	}

	choices := s.dilemma.Choices
	if choiceIndex < 0 || choiceIndex >= len(choices) {
		panic(fmt.Sprintf("choice index %d out of range for %d choices", choiceIndex, len(choices)))
	}

	letter := AnswerLetter(choiceIndex)
	chosen := choices[choiceIndex]
	question := s.dilemma.Question

	s.answers = append(s.answers, letter+": "+chosen.Text)
	s.scores = append(s.scores, chosen.Score)
	s.explanations = append(s.explanations, chosen.Explanation)

	answered := domain.AnsweredQuestion{
		QuestionIndex: s.current,
		ChosenLetter:  letter,
		ChosenText:    chosen.Text,
		Score:         chosen.Score,
		Explanation:   chosen.Explanation,
	}

	s.dilemma = nil
	if s.current == s.total {
		s.phase = PhaseComplete
		return answered, question, true, nil
	}
	s.current++
	s.phase = PhaseAwaitingQuestion
	return answered, question, false, nil
}

// Close tears the session down. Any in-flight fetch result arriving afterwards
// is discarded by the epoch guard.
func (s *GameSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.epoch++
}

// AnswerLetter maps a zero-based choice index to its display letter (0=A, 1=B, ...).
func AnswerLetter(choiceIndex int) string {
	return string(rune('A' + choiceIndex))
}
