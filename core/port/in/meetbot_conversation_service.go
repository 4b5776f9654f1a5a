package in

import "context"

// ConversationService is the inbound port the message transport drives.
type ConversationService interface {
	// HandleMessage processes one inbound message against the user's current
	// session and returns the plain-text reply. The user id must already be
	// normalized.
	HandleMessage(ctx context.Context, userID, body string) (string, error)

	// Resume re-invokes the dialog with a synthetic continuation turn after
	// an authorization callback stored a token for the user.
	Resume(ctx context.Context, userID string) (string, error)
}
