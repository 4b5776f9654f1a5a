package out

import (
	"context"

	"meetbot_server/core/domain"
)

// MeetingProvider is the uniform capability each platform adapter implements.
// CreateMeeting returns the join URL on success. A delegated-auth variant must
// fail with domain.ErrNotAuthorized before touching the network when no valid
// token exists; remote rejections surface as *domain.ProviderError.
type MeetingProvider interface {
	Platform() domain.Platform
	CreateMeeting(ctx context.Context, userID string, req *domain.MeetingRequest) (string, error)
}
