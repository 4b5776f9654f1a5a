package out

import (
	"context"
	"time"
)

// CredentialRepository defines the outbound port for token persistence.
type CredentialRepository interface {
	// Get returns the record for (user, platform), or nil when absent.
	Get(ctx context.Context, userID, platform string) (*CredentialEntity, error)

	// Upsert creates or replaces the record keyed by (user, platform).
	Upsert(ctx context.Context, entity *CredentialEntity) error
}

// CredentialEntity represents a stored token set in persistence.
type CredentialEntity struct {
	ID           int64     `db:"id"`
	UserID       string    `db:"user_id"`
	Platform     string    `db:"platform"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
