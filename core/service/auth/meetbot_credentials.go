// Package auth manages delegated OAuth credentials per (user, platform).
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/out"
	"meetbot_server/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

// refreshSkew treats a token as expired slightly early so a meeting call
// never races the real expiry.
const refreshSkew = 5 * time.Minute

// graphScopes are the delegated permissions Teams meeting creation needs.
// offline_access makes Microsoft return a refresh token.
var graphScopes = []string{"offline_access", "User.Read", "OnlineMeetings.ReadWrite"}

// CredentialService is the single entry point for the token lifecycle:
// store-after-exchange and get-valid-with-silent-refresh. Refresh logic lives
// only here, never at call sites.
type CredentialService struct {
	repo     out.CredentialRepository
	msConfig *oauth2.Config

	// refresh is swappable for tests; defaults to the oauth2 token source.
	refresh func(ctx context.Context, platform domain.Platform, stale *oauth2.Token) (*oauth2.Token, error)
}

// MicrosoftConfig holds the Azure app registration for delegated Teams auth.
type MicrosoftConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TenantID     string
}

// NewCredentialService creates the credential manager.
func NewCredentialService(repo out.CredentialRepository, ms *MicrosoftConfig) *CredentialService {
	var msConfig *oauth2.Config
	if ms != nil && ms.ClientID != "" {
		tenant := ms.TenantID
		if tenant == "" {
			tenant = "common"
		}
		msConfig = &oauth2.Config{
			ClientID:     ms.ClientID,
			ClientSecret: ms.ClientSecret,
			RedirectURL:  ms.RedirectURL,
			Scopes:       graphScopes,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		}
	}

	s := &CredentialService{
		repo:     repo,
		msConfig: msConfig,
	}
	s.refresh = s.refreshViaTokenSource
	return s
}

// GetValidToken returns a usable access token for (user, platform).
// Absent record: domain.ErrNotAuthorized. Expired record: exactly one silent
// refresh attempt; on success the rotated set is persisted and returned, on
// failure the stale record stays untouched and domain.ErrNotAuthorized is
// reported so a later authorization overwrites it cleanly.
func (s *CredentialService) GetValidToken(ctx context.Context, userID string, platform domain.Platform) (string, error) {
	if s.repo == nil {
		return "", fmt.Errorf("%w: credential store not configured", domain.ErrPersistence)
	}
	entity, err := s.repo.Get(ctx, userID, string(platform))
	if err != nil {
		return "", fmt.Errorf("%w: load credential: %v", domain.ErrPersistence, err)
	}
	if entity == nil {
		return "", domain.ErrNotAuthorized
	}

	cred := toDomainCredential(entity)
	if !cred.Expired(time.Now(), refreshSkew) {
		return cred.AccessToken, nil
	}

	if cred.RefreshToken == "" {
		return "", domain.ErrNotAuthorized
	}

	newToken, err := s.refresh(ctx, platform, &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		Expiry:       cred.ExpiresAt,
	})
	if err != nil {
		// Stale record is kept for diagnostics; the caller only learns
		// that re-authorization is needed.
		logger.WithField("user_id", userID).WithError(err).
			Warn("Token refresh failed for %s", platform)
		return "", domain.ErrNotAuthorized
	}

	entity.AccessToken = newToken.AccessToken
	if newToken.RefreshToken != "" {
		entity.RefreshToken = newToken.RefreshToken
	}
	entity.ExpiresAt = newToken.Expiry
	entity.UpdatedAt = time.Now()

	if err := s.repo.Upsert(ctx, entity); err != nil {
		return "", fmt.Errorf("%w: persist refreshed token: %v", domain.ErrPersistence, err)
	}

	logger.WithField("user_id", userID).Debug("Token refreshed for %s", platform)
	return newToken.AccessToken, nil
}

// StoreToken upserts the token set after a successful code exchange.
func (s *CredentialService) StoreToken(ctx context.Context, userID string, platform domain.Platform, tokens *domain.TokenSet) error {
	if s.repo == nil {
		return fmt.Errorf("%w: credential store not configured", domain.ErrPersistence)
	}
	now := time.Now()
	entity := &out.CredentialEntity{
		UserID:       userID,
		Platform:     string(platform),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Upsert(ctx, entity); err != nil {
		return fmt.Errorf("%w: store token: %v", domain.ErrPersistence, err)
	}
	return nil
}

// GetAuthURL builds the delegated-authorization URL with the given state.
func (s *CredentialService) GetAuthURL(platform domain.Platform, state string) (string, error) {
	switch platform {
	case domain.PlatformTeams:
		if s.msConfig == nil {
			return "", fmt.Errorf("microsoft oauth not configured")
		}
		return s.msConfig.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
	default:
		return "", fmt.Errorf("platform %s does not use delegated authorization", platform)
	}
}

// HandleCallback exchanges an authorization code and persists the result.
func (s *CredentialService) HandleCallback(ctx context.Context, userID string, platform domain.Platform, code string) error {
	if platform != domain.PlatformTeams {
		return fmt.Errorf("platform %s does not use delegated authorization", platform)
	}
	if s.msConfig == nil {
		return fmt.Errorf("microsoft oauth not configured")
	}

	token, err := s.msConfig.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	logger.WithField("user_id", userID).Info("Authorization completed for %s", platform)
	return s.StoreToken(ctx, userID, platform, &domain.TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	})
}

func (s *CredentialService) refreshViaTokenSource(ctx context.Context, platform domain.Platform, stale *oauth2.Token) (*oauth2.Token, error) {
	var config *oauth2.Config
	switch platform {
	case domain.PlatformTeams:
		config = s.msConfig
	}
	if config == nil {
		return nil, fmt.Errorf("oauth config not initialized for platform: %s", platform)
	}

	// Force the expiry into the past so the token source always refreshes.
	stale.Expiry = time.Now().Add(-time.Minute)
	newToken, err := config.TokenSource(ctx, stale).Token()
	if err != nil {
		if isPermanentTokenError(err) {
			return nil, fmt.Errorf("refresh token revoked: %w", err)
		}
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return newToken, nil
}

// isPermanentTokenError checks whether the error means the grant itself is
// dead rather than a transient failure.
func isPermanentTokenError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "invalid_client") ||
		strings.Contains(errStr, "consent_required")
}

func toDomainCredential(entity *out.CredentialEntity) *domain.Credential {
	return &domain.Credential{
		ID:           entity.ID,
		UserID:       entity.UserID,
		Platform:     domain.Platform(entity.Platform),
		AccessToken:  entity.AccessToken,
		RefreshToken: entity.RefreshToken,
		ExpiresAt:    entity.ExpiresAt,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}
}
