// Package persistence provides database adapters.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"meetbot_server/core/port/out"
	"meetbot_server/pkg/crypto"
	"meetbot_server/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// CredentialAdapter implements out.CredentialRepository using PostgreSQL.
// Tokens are encrypted at rest when an encryption key is configured.
type CredentialAdapter struct {
	db                *sqlx.DB
	encryptionEnabled bool
}

// NewCredentialAdapter creates a new CredentialAdapter.
func NewCredentialAdapter(db *sqlx.DB) *CredentialAdapter {
	err := crypto.Init()
	encryptionEnabled := err == nil
	if !encryptionEnabled {
		logger.Warn("Token encryption disabled: %v", err)
	}

	return &CredentialAdapter{
		db:                db,
		encryptionEnabled: encryptionEnabled,
	}
}

func (a *CredentialAdapter) encryptToken(token string) string {
	if !a.encryptionEnabled || token == "" {
		return token
	}
	encrypted, err := crypto.EncryptToken(token)
	if err != nil {
		logger.Warn("Failed to encrypt token: %v", err)
		return token
	}
	return encrypted
}

func (a *CredentialAdapter) decryptToken(token string) string {
	if token == "" || !crypto.IsEncrypted(token) {
		return token
	}
	decrypted, err := crypto.DecryptToken(token)
	if err != nil {
		// Might be a legacy plaintext token, return as-is.
		return token
	}
	return decrypted
}

// Get returns the record for (user, platform), or nil when absent.
func (a *CredentialAdapter) Get(ctx context.Context, userID, platform string) (*out.CredentialEntity, error) {
	var entity out.CredentialEntity
	query := `
		SELECT id, user_id, platform, access_token, refresh_token,
		       expires_at, created_at, updated_at
		FROM provider_credentials
		WHERE user_id = $1 AND platform = $2`

	if err := a.db.GetContext(ctx, &entity, query, userID, platform); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	entity.AccessToken = a.decryptToken(entity.AccessToken)
	entity.RefreshToken = a.decryptToken(entity.RefreshToken)
	return &entity, nil
}

// Upsert creates or replaces the record keyed by (user, platform).
func (a *CredentialAdapter) Upsert(ctx context.Context, entity *out.CredentialEntity) error {
	query := `
		INSERT INTO provider_credentials (user_id, platform, access_token, refresh_token,
		                                  expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, platform) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
		RETURNING id`

	return a.db.QueryRowContext(ctx, query,
		entity.UserID,
		entity.Platform,
		a.encryptToken(entity.AccessToken),
		a.encryptToken(entity.RefreshToken),
		entity.ExpiresAt,
		entity.CreatedAt,
		time.Now(),
	).Scan(&entity.ID)
}

var _ out.CredentialRepository = (*CredentialAdapter)(nil)
