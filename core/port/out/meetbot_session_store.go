package out

import (
	"context"

	"meetbot_server/core/domain"
)

// SessionStore is the outbound port for dialog state. Keys are normalized
// user ids. Put and Delete must each be a single atomic operation so that
// concurrent duplicate deliveries resolve last-writer-wins instead of
// corrupting partial state.
type SessionStore interface {
	// Get returns the session for a user, or nil when no dialog is running.
	Get(ctx context.Context, userID string) (*domain.Session, error)

	// Put upserts the session keyed by its user id.
	Put(ctx context.Context, session *domain.Session) error

	// Delete removes the session. Deleting an absent session is not an error.
	Delete(ctx context.Context, userID string) error
}
