package out

import "context"

// Messenger is the outbound port for proactive message delivery (used by the
// reminder scheduler; webhook replies are returned synchronously instead).
type Messenger interface {
	// SendWhatsApp delivers a plain-text message to a normalized user id.
	SendWhatsApp(ctx context.Context, to, body string) error
}
