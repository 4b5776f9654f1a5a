package domain

import (
	"errors"
	"fmt"
)

// Error kinds the conversation engine distinguishes when deciding how a turn
// ends. Input problems (bad time, bad duration, unknown keyword) never become
// errors at all; the engine re-prompts instead.
var (
	// ErrNotAuthorized means a delegated-auth platform has no usable token.
	// The dialog stays alive and the user is sent a login link.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrPersistence means the session or credential store is unreachable.
	// Fatal for the turn, not for the process.
	ErrPersistence = errors.New("persistence unavailable")
)

// ProviderError carries the remote rejection from a meeting-creation call.
// The detail is forwarded to the user verbatim; the dialog is cleared.
type ProviderError struct {
	Platform Platform
	Status   int
	Detail   string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s rejected the request (%d): %s", e.Platform.DisplayName(), e.Status, e.Detail)
	}
	return fmt.Sprintf("%s request failed: %s", e.Platform.DisplayName(), e.Detail)
}

// IsProviderError reports whether err is a remote provider rejection.
func IsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
