package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a game session does not exist (or was torn down).
	ErrSessionNotFound = errors.New("game session not found")
	// ErrSessionComplete is returned for any play action on a finished session.
	ErrSessionComplete = errors.New("game session already complete")
	// ErrAnswerLocked is returned when an answer is re-submitted for a question
	// that already has one. Callers treat it as an idempotent no-op.
	ErrAnswerLocked = errors.New("answer already locked for current question")
	// ErrNoQuestionPresented is returned when an answer arrives while no dilemma is loaded.
	ErrNoQuestionPresented = errors.New("no question presented")
	// ErrPeriodRequired indicates a game action without a period; the caller
	// should send the user back to period selection instead of fetching.
	ErrPeriodRequired = errors.New("period is required")
	// ErrDilemmaNotFound indicates no dilemma content exists for the period.
	ErrDilemmaNotFound = errors.New("dilemma not found for period")
	// ErrUserExists is returned on signup when the username or email is taken.
	ErrUserExists = errors.New("username or email already exists")
	// ErrUserNotFound is returned when a user lookup misses.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when a bearer token fails validation.
	ErrInvalidToken = errors.New("invalid token")
)
