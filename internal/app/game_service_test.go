package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/app"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/Chavan-Kartik/EthicsCardGame/internal/infra/memory"
)

func TestAnswerAdvancesThroughQuestions(t *testing.T) {
	ctx := context.Background()
	service, provider, _ := newTestService(5)

	session, err := service.Begin(ctx, "Medieval Era")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if provider.count() != 1 {
		t.Fatalf("expected one fetch for question 1, got %d", provider.count())
	}

	snap := session.Snapshot()
	if snap.CurrentQuestion != 1 || snap.TotalQuestions != 5 {
		t.Fatalf("expected question 1 of 5, got %d of %d", snap.CurrentQuestion, snap.TotalQuestions)
	}
	if snap.Dilemma == nil || len(snap.Dilemma.Choices) != 3 {
		t.Fatalf("expected a presented 3-choice dilemma, got %+v", snap.Dilemma)
	}

	out, err := service.Answer(ctx, session.ID(), "alice", 1)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if out.Answered.ChosenLetter != "B" {
		t.Fatalf("expected letter B for index 1, got %q", out.Answered.ChosenLetter)
	}
	if out.Complete {
		t.Fatalf("session must not complete on question 1")
	}
	if out.Next == nil {
		t.Fatalf("expected next question to be fetched")
	}
	if provider.count() != 2 {
		t.Fatalf("expected fetch for question 2, got %d fetches", provider.count())
	}

	snap = session.Snapshot()
	if snap.CurrentQuestion != 2 {
		t.Fatalf("expected current question 2, got %d", snap.CurrentQuestion)
	}
	if snap.Answers[0] != "B: Share the harvest" {
		t.Fatalf("unexpected recorded answer %q", snap.Answers[0])
	}
	assertLogInvariant(t, snap)
}

func TestCompletionFlipsExactlyOnce(t *testing.T) {
	ctx := context.Background()
	service, provider, _ := newTestService(5)

	session, err := service.Begin(ctx, "Medieval Era")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	for q := 1; q <= 5; q++ {
		snap := session.Snapshot()
		if snap.Complete {
			t.Fatalf("complete before question %d", q)
		}
		out, err := service.Answer(ctx, session.ID(), "alice", 0)
		if err != nil {
			t.Fatalf("answer q%d: %v", q, err)
		}
		if got, want := out.Complete, q == 5; got != want {
			t.Fatalf("q%d complete=%v, want %v", q, got, want)
		}
		assertLogInvariant(t, session.Snapshot())
	}

	snap := session.Snapshot()
	if !snap.Complete || snap.CurrentQuestion != 5 {
		t.Fatalf("expected complete at question 5, got complete=%v current=%d", snap.Complete, snap.CurrentQuestion)
	}
	if len(snap.Scores) != 5 {
		t.Fatalf("expected 5 recorded scores, got %d", len(snap.Scores))
	}
	// Completion is terminal: the 5th answer must not trigger a 6th fetch.
	if provider.count() != 5 {
		t.Fatalf("expected exactly 5 fetches, got %d", provider.count())
	}

	if _, err := service.Answer(ctx, session.ID(), "alice", 0); !errors.Is(err, domain.ErrSessionComplete) {
		t.Fatalf("expected ErrSessionComplete after finish, got %v", err)
	}
}

func TestDuplicateAnswerIsNoOp(t *testing.T) {
	ctx := context.Background()
	service, provider, _ := newTestService(5)
	provider.setFailAfter(1) // question 2 fetch fails, leaving question 1's answer locked

	session, err := service.Begin(ctx, "Medieval Era")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	out, err := service.Answer(ctx, session.ID(), "alice", 0)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if out.NextErr == nil {
		t.Fatalf("expected next-question fetch failure")
	}

	before := session.Snapshot()
	if _, err := service.Answer(ctx, session.ID(), "alice", 1); !errors.Is(err, domain.ErrAnswerLocked) {
		t.Fatalf("expected ErrAnswerLocked on duplicate submit, got %v", err)
	}
	after := session.Snapshot()
	if len(after.Answers) != len(before.Answers) || len(after.Scores) != len(before.Scores) {
		t.Fatalf("duplicate submit mutated logs: before=%d after=%d", len(before.Answers), len(after.Answers))
	}
}

func TestFetchFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	service, provider, _ := newTestService(5)
	provider.setFailAfter(2)

	session, err := service.Begin(ctx, "Medieval Era")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := service.Answer(ctx, session.ID(), "alice", 0); err != nil {
		t.Fatalf("answer q1: %v", err)
	}

	before := session.Snapshot()
	out, err := service.Answer(ctx, session.ID(), "alice", 0)
	if err != nil {
		t.Fatalf("answer q2 should lock locally: %v", err)
	}
	if out.NextErr == nil {
		t.Fatalf("expected fetch failure surfaced for question 3")
	}

	after := session.Snapshot()
	if after.FetchErr == nil {
		t.Fatalf("expected error flag set on session")
	}
	if after.CurrentQuestion != before.CurrentQuestion+1 {
		t.Fatalf("answer q2 should advance to question 3, got %d", after.CurrentQuestion)
	}
	if len(after.Scores) != 2 {
		t.Fatalf("expected both locked answers kept, got %d scores", len(after.Scores))
	}

	// Manual retry succeeds once the provider recovers.
	provider.setFailAfter(0)
	if _, err := service.Retry(ctx, session.ID()); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if snap := session.Snapshot(); snap.Dilemma == nil || snap.FetchErr != nil {
		t.Fatalf("expected question presented after retry, got %+v", snap)
	}
}

func TestBeginRequiresPeriod(t *testing.T) {
	service, _, _ := newTestService(5)
	if _, err := service.Begin(context.Background(), ""); !errors.Is(err, domain.ErrPeriodRequired) {
		t.Fatalf("expected ErrPeriodRequired, got %v", err)
	}
}

func TestOutOfRangeChoicePanics(t *testing.T) {
	ctx := context.Background()
	service, _, _ := newTestService(5)
	session, err := service.Begin(ctx, "Medieval Era")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for out-of-range choice index")
		}
	}()
	_, _ = service.Answer(ctx, session.ID(), "alice", 99)
}

func TestSummaryAverage(t *testing.T) {
	session := app.NewSession("s1", "Medieval Era", 5)
	store := memory.NewSessionStore()
	store.Put(session)

	// One choice per question, scored to make the mean easy to verify.
	provider := &scriptedProvider{scores: []float64{100, 75, 50, 10, 0}}
	service := app.NewGameService(store, provider, nil, 5)

	if _, err := service.Retry(context.Background(), session.ID()); err != nil {
		t.Fatalf("present question 1: %v", err)
	}
	for q := 1; q <= 5; q++ {
		out, err := service.Answer(context.Background(), session.ID(), "alice", 0)
		if err != nil {
			t.Fatalf("answer q%d: %v", q, err)
		}
		if got, want := out.Answered.QuestionIndex, q; got != want {
			t.Fatalf("answered question %d, want %d", got, want)
		}
	}

	summary := session.Summarize()
	if summary.Average != 47.0 {
		t.Fatalf("expected average 47.0, got %v", summary.Average)
	}
	if summary.AverageLabel != "Immoral Decision" {
		t.Fatalf("expected aggregate label for 47.0, got %q", summary.AverageLabel)
	}
	if len(summary.PerQuestion) != 5 {
		t.Fatalf("expected 5 per-question entries, got %d", len(summary.PerQuestion))
	}
	if summary.PerQuestion[0].Label != "Best Ethical Decision" || summary.PerQuestion[4].Label != "Invalid Decision" {
		t.Fatalf("per-question labels wrong: %+v", summary.PerQuestion)
	}
	if summary.PerQuestion[2].Answer != "A: choice" {
		t.Fatalf("unexpected answer text %q", summary.PerQuestion[2].Answer)
	}
}

func TestSummaryEmptyIsZero(t *testing.T) {
	session := app.NewSession("s1", "Medieval Era", 5)
	summary := session.Summarize()
	if summary.Average != 0 {
		t.Fatalf("expected defensive zero average, got %v", summary.Average)
	}
	if summary.AverageLabel != "Invalid Decision" {
		t.Fatalf("expected zero average classified as invalid, got %q", summary.AverageLabel)
	}
}

func TestRecordFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	service, _, recorder := newTestService(5)
	recorder.setErr(errors.New("backend down"))

	session, err := service.Begin(ctx, "Medieval Era")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	out, err := service.Answer(ctx, session.ID(), "alice", 0)
	if err != nil {
		t.Fatalf("answer must commit locally despite record failure: %v", err)
	}

	select {
	case recErr, ok := <-out.Recorded:
		if !ok || recErr == nil {
			t.Fatalf("expected record error delivered, got ok=%v err=%v", ok, recErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for record result")
	}

	if snap := session.Snapshot(); len(snap.Scores) != 1 || snap.CurrentQuestion != 2 {
		t.Fatalf("local transition must stand, got current=%d scores=%d", snap.CurrentQuestion, len(snap.Scores))
	}
}

func TestRecordCarriesAnswerLetter(t *testing.T) {
	ctx := context.Background()
	service, _, recorder := newTestService(5)

	session, err := service.Begin(ctx, "Medieval Era")
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	out, err := service.Answer(ctx, session.ID(), "alice", 2)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	<-out.Recorded

	subs := recorder.submissions()
	if len(subs) != 1 {
		t.Fatalf("expected one submission, got %d", len(subs))
	}
	if subs[0].SelectedAnswer != "C" || subs[0].Period != "Medieval Era" || subs[0].Question == "" {
		t.Fatalf("unexpected submission %+v", subs[0])
	}
}

func TestClosedSessionDiscardsLateFetch(t *testing.T) {
	session := app.NewSession("s1", "Medieval Era", 5)
	store := memory.NewSessionStore()
	store.Put(session)

	provider := &stubProvider{dilemma: sampleDilemma(), block: make(chan struct{})}
	service := app.NewGameService(store, provider, nil, 5)

	done := make(chan error, 1)
	go func() {
		_, err := service.Retry(context.Background(), session.ID())
		done <- err
	}()

	provider.waitForFetch(t)
	service.End(session.ID())
	close(provider.block)

	if err := <-done; !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected stale fetch rejected, got %v", err)
	}
	if snap := session.Snapshot(); snap.Dilemma != nil {
		t.Fatalf("late fetch result must be discarded after teardown")
	}
}

func assertLogInvariant(t *testing.T, snap app.Snapshot) {
	t.Helper()
	want := snap.CurrentQuestion - 1
	if snap.Complete {
		want = snap.TotalQuestions
	}
	if len(snap.Scores) != want || len(snap.Answers) != want || len(snap.Explanations) != want {
		t.Fatalf("log invariant broken: scores=%d answers=%d explanations=%d want=%d (complete=%v current=%d)",
			len(snap.Scores), len(snap.Answers), len(snap.Explanations), want, snap.Complete, snap.CurrentQuestion)
	}
}

func newTestService(questions int) (*app.GameService, *stubProvider, *stubRecorder) {
	provider := &stubProvider{dilemma: sampleDilemma()}
	recorder := &stubRecorder{}
	service := app.NewGameService(memory.NewSessionStore(), provider, recorder, questions)
	return service, provider, recorder
}

func sampleDilemma() domain.Dilemma {
	return domain.Dilemma{
		Question: "A famine strikes your village. What do you do?",
		Choices: []domain.Choice{
			{Text: "Hoard the grain", Score: 10, Explanation: "Your neighbours starve."},
			{Text: "Share the harvest", Score: 100, Explanation: "Everyone survives the winter."},
			{Text: "Sell at triple price", Score: 50, Explanation: "Profit over people."},
		},
	}
}

type stubProvider struct {
	mu        sync.Mutex
	dilemma   domain.Dilemma
	fetches   int
	failAfter int // fail fetches once count exceeds this (0 disables)
	block     chan struct{}
}

func (p *stubProvider) GetDilemma(_ context.Context, period string) (domain.Dilemma, error) {
	p.mu.Lock()
	p.fetches++
	count := p.fetches
	fail := p.failAfter > 0 && count > p.failAfter
	block := p.block
	p.mu.Unlock()

	if block != nil {
		<-block
	}
	if fail {
		return domain.Dilemma{}, errors.New("provider unavailable")
	}
	return p.dilemma, nil
}

func (p *stubProvider) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches
}

func (p *stubProvider) setFailAfter(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failAfter = n
}

func (p *stubProvider) waitForFetch(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if p.count() > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("fetch never started")
}

// scriptedProvider serves a fixed score sequence, one single-choice dilemma per fetch.
type scriptedProvider struct {
	mu     sync.Mutex
	scores []float64
	next   int
}

func (p *scriptedProvider) GetDilemma(_ context.Context, period string) (domain.Dilemma, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	score := p.scores[p.next%len(p.scores)]
	p.next++
	return domain.Dilemma{
		Question: "Q",
		Choices:  []domain.Choice{{Text: "choice", Score: score, Explanation: "because"}},
	}, nil
}

type stubRecorder struct {
	mu   sync.Mutex
	err  error
	subs []domain.ChoiceSubmission
}

func (r *stubRecorder) RecordChoice(_ context.Context, username string, sub domain.ChoiceSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.subs = append(r.subs, sub)
	return nil
}

func (r *stubRecorder) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *stubRecorder) submissions() []domain.ChoiceSubmission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.ChoiceSubmission(nil), r.subs...)
}
