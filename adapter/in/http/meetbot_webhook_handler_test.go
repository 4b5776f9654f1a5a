package http

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"meetbot_server/core/domain"

	"github.com/gofiber/fiber/v2"
)

// scriptedConversation returns canned replies and records the ids it saw.
type scriptedConversation struct {
	reply   string
	err     error
	userIDs []string
	bodies  []string
}

func (s *scriptedConversation) HandleMessage(_ context.Context, userID, body string) (string, error) {
	s.userIDs = append(s.userIDs, userID)
	s.bodies = append(s.bodies, body)
	return s.reply, s.err
}

func (s *scriptedConversation) Resume(context.Context, string) (string, error) {
	return "", nil
}

func postWebhook(t *testing.T, app *fiber.App, form url.Values) (int, string) {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestInboundWebhook(t *testing.T) {
	conv := &scriptedConversation{reply: "Starting a Zoom meeting. What's the topic?"}
	app := fiber.New()
	NewWebhookHandler(conv).Register(app)

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("Body", "zoom")

	status, body := postWebhook(t, app, form)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, "<Response><Message>") || !strings.Contains(body, "What&#39;s the topic?") {
		t.Errorf("unexpected TwiML: %q", body)
	}

	// The transport address must reach the engine in normalized form.
	if len(conv.userIDs) != 1 || conv.userIDs[0] != "919876543210" {
		t.Errorf("userIDs = %v", conv.userIDs)
	}
	if conv.bodies[0] != "zoom" {
		t.Errorf("bodies = %v", conv.bodies)
	}
}

func TestInboundWebhookMissingFrom(t *testing.T) {
	app := fiber.New()
	NewWebhookHandler(&scriptedConversation{}).Register(app)

	status, _ := postWebhook(t, app, url.Values{"Body": []string{"zoom"}})
	if status != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestInboundWebhookPersistenceFailure(t *testing.T) {
	conv := &scriptedConversation{err: fmt.Errorf("%w: redis gone", domain.ErrPersistence)}
	app := fiber.New()
	NewWebhookHandler(conv).Register(app)

	form := url.Values{}
	form.Set("From", "whatsapp:+919876543210")
	form.Set("Body", "zoom")

	status, body := postWebhook(t, app, form)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d, Twilio still needs a TwiML reply", status)
	}
	if !strings.Contains(body, "trouble saving") {
		t.Errorf("expected the persistence apology, got %q", body)
	}
}
