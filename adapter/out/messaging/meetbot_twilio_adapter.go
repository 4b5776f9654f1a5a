// Package messaging implements outbound WhatsApp delivery through Twilio.
package messaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"meetbot_server/core/port/out"
	"meetbot_server/pkg/httputil"
)

const twilioBaseURL = "https://api.twilio.com/2010-04-01"

// TwilioAdapter sends WhatsApp messages through the Twilio Messages API.
type TwilioAdapter struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

// NewTwilioAdapter creates a Twilio messenger. from is the WhatsApp-enabled
// sender number in E.164 form.
func NewTwilioAdapter(accountSID, authToken, from string) *TwilioAdapter {
	return &TwilioAdapter{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    twilioBaseURL,
		client:     httputil.NewPooledClient(nil),
	}
}

// SetBaseURL overrides the API endpoint (tests).
func (a *TwilioAdapter) SetBaseURL(u string) {
	a.baseURL = u
}

// SendWhatsApp delivers a plain-text message to a normalized user id.
func (a *TwilioAdapter) SendWhatsApp(ctx context.Context, to, body string) error {
	form := url.Values{}
	form.Set("To", "whatsapp:+"+strings.TrimPrefix(to, "+"))
	form.Set("From", "whatsapp:"+a.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", a.baseURL, a.accountSID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(a.accountSID, a.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("twilio API error: %d - %s", resp.StatusCode, string(detail))
	}
	return nil
}

var _ out.Messenger = (*TwilioAdapter)(nil)
