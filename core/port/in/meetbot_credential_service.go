package in

import (
	"context"

	"meetbot_server/core/domain"
)

// CredentialService is the inbound port for the token lifecycle.
type CredentialService interface {
	// GetValidToken returns a currently valid access token for the pair, or
	// domain.ErrNotAuthorized when none exists and none can be refreshed.
	// An expired record triggers exactly one silent refresh attempt; a failed
	// refresh leaves the stale record in place.
	GetValidToken(ctx context.Context, userID string, platform domain.Platform) (string, error)

	// StoreToken upserts the token set for (user, platform) after a
	// successful authorization-code exchange.
	StoreToken(ctx context.Context, userID string, platform domain.Platform, tokens *domain.TokenSet) error

	// GetAuthURL builds the delegated-authorization URL carrying state.
	GetAuthURL(platform domain.Platform, state string) (string, error)

	// HandleCallback exchanges an authorization code and persists the result.
	HandleCallback(ctx context.Context, userID string, platform domain.Platform, code string) error
}
