package domain

import "errors"

var (
	// ErrSessionExpired is returned when the upstream API rejects the bearer
	// token. Stored credentials are cleared before it is surfaced.
	ErrSessionExpired = errors.New("session expired")
	// ErrServer covers upstream failures: 5xx, non-JSON responses, or an
	// envelope the client cannot interpret.
	ErrServer = errors.New("server error")
	// ErrNetwork covers transport-level failures.
	ErrNetwork = errors.New("network error")
	// ErrValidation marks a locally rejected submission; nothing is sent.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates missing upstream data (unknown quiz, no result).
	ErrNotFound = errors.New("not found")
	// ErrSessionNotActive is returned when an answer or navigation event
	// arrives outside the active phase.
	ErrSessionNotActive = errors.New("session not active")
	// ErrQuestionNotFound indicates an answer for a question that is not part
	// of the loaded question list.
	ErrQuestionNotFound = errors.New("question not found")
)
