package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Chavan-Kartik/EthicsCardGame/internal/domain"
	"github.com/google/uuid"
)

// DilemmaRepository loads dilemma content (from cache/backing store).
type DilemmaRepository interface {
	GetDilemma(ctx context.Context, period string) (domain.Dilemma, error)
}

// ChoiceRecorder persists locked answers for the history view.
type ChoiceRecorder interface {
	RecordChoice(ctx context.Context, username string, sub domain.ChoiceSubmission) error
}

// SessionRepository abstracts how live game sessions are held (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *GameSession)
	Get(id string) (*GameSession, bool)
	Delete(id string)
}

// GameService contains the gameplay use cases: begin a session, lock answers,
// and summarize completed games.
type GameService struct {
	sessions         SessionRepository
	dilemmas         DilemmaRepository
	recorder         ChoiceRecorder
	questionsPerGame int
	recordTimeout    time.Duration
}

func NewGameService(sessions SessionRepository, dilemmas DilemmaRepository, recorder ChoiceRecorder, questionsPerGame int) *GameService {
	if questionsPerGame < 1 {
		questionsPerGame = 5
	}
	return &GameService{
		sessions:         sessions,
		dilemmas:         dilemmas,
		recorder:         recorder,
		questionsPerGame: questionsPerGame,
		recordTimeout:    5 * time.Second,
	}
}

// Begin creates a session for the period and fetches its first question.
// An empty period is a navigational precondition failure: no session is
// created and no fetch is attempted. A fetch failure still returns the
// session; it stays on question 1 with the error exposed in its snapshot so
// the caller can offer a manual retry.
func (s *GameService) Begin(ctx context.Context, period string) (*GameSession, error) {
	if period == "" {
		return nil, domain.ErrPeriodRequired
	}
	session := newGameSession(uuid.NewString(), period, s.questionsPerGame)
	s.sessions.Put(session)
	if err := s.loadQuestion(ctx, session); err != nil {
		return session, err
	}
	return session, nil
}

// Retry re-issues the fetch for the current question after a failed load.
// Nothing retries automatically; this is the user-driven path.
func (s *GameService) Retry(ctx context.Context, sessionID string) (*GameSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if err := s.loadQuestion(ctx, session); err != nil {
		return session, err
	}
	return session, nil
}

// AnswerOutcome bundles everything a transport needs after one locked answer.
type AnswerOutcome struct {
	Answered domain.AnsweredQuestion
	Complete bool
	// Next is the dilemma for the following question, nil when the session
	// completed or the follow-up fetch failed.
	Next *domain.Dilemma
	// NextErr reports a follow-up fetch failure. The locked answer and all
	// progress remain recorded; only the next question is missing.
	NextErr error
	// Recorded delivers the result of the fire-and-forget history submission.
	// Receiving is optional; a failure only warrants a user-visible warning.
	Recorded <-chan error
}

// Answer locks the choice at choiceIndex for the session's current question.
// The local state transition commits first; the history submission is then
// dispatched asynchronously and can neither roll it back nor block it. The
// fetch for the next question is issued only after the answer is locked, and
// never once the session is complete.
func (s *GameService) Answer(ctx context.Context, sessionID, username string, choiceIndex int) (AnswerOutcome, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return AnswerOutcome{}, domain.ErrSessionNotFound
	}

	answered, question, complete, err := session.submitAnswer(choiceIndex)
	if err != nil {
		return AnswerOutcome{}, err
	}

	out := AnswerOutcome{Answered: answered, Complete: complete}
	out.Recorded = s.recordAsync(username, domain.ChoiceSubmission{
		Period:         session.Period(),
		Question:       question,
		SelectedAnswer: answered.ChosenLetter,
	})

	if !complete {
		if err := s.loadQuestion(ctx, session); err != nil {
			out.NextErr = err
		} else if snap := session.Snapshot(); snap.Dilemma != nil {
			out.Next = snap.Dilemma
		}
	}
	return out, nil
}

// Summary returns the session's summary. Before completion it covers only the
// answered questions, with the average still taken over the full game length.
func (s *GameService) Summary(sessionID string) (Summary, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return Summary{}, domain.ErrSessionNotFound
	}
	return session.Summarize(), nil
}

// End tears the session down and forgets it. Late fetch or record results for
// it are discarded.
func (s *GameService) End(sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Delete(sessionID)
}

func (s *GameService) loadQuestion(ctx context.Context, session *GameSession) error {
	epoch, err := session.beginFetch()
	if err != nil {
		return err
	}
	dilemma, err := s.dilemmas.GetDilemma(ctx, session.Period())
	if err != nil {
		session.failFetch(epoch, err)
		return fmt.Errorf("load dilemma: %w", err)
	}
	if !session.presentDilemma(epoch, dilemma) {
		return domain.ErrSessionNotFound
	}
	return nil
}

// recordAsync submits the choice for history on its own goroutine with a
// detached context, so session teardown cannot cancel an in-flight record.
func (s *GameService) recordAsync(username string, sub domain.ChoiceSubmission) <-chan error {
	done := make(chan error, 1)
	if s.recorder == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.Background(), s.recordTimeout)
		defer cancel()
		if err := s.recorder.RecordChoice(ctx, username, sub); err != nil {
			log.Printf("record choice failed for %q: %v", username, err)
			done <- err
		}
	}()
	return done
}
