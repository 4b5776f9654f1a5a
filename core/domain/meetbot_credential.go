package domain

import "time"

// Credential is a stored delegated-authorization token set for one
// (user, platform) pair. Records are created at first successful
// authorization, rewritten on every refresh, and never auto-deleted; a stale
// record is kept so a later authorization overwrites it in place.
type Credential struct {
	ID           int64     `json:"id"`
	UserID       string    `json:"user_id"`
	Platform     Platform  `json:"platform"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenSet is the result of an authorization-code exchange or a refresh.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is past (or within skew of) its
// expiry and must not be handed out without a refresh attempt.
func (c *Credential) Expired(now time.Time, skew time.Duration) bool {
	return !c.ExpiresAt.After(now.Add(skew))
}
