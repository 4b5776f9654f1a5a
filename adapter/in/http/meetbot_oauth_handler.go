package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/in"
	"meetbot_server/core/port/out"
	"meetbot_server/pkg/cache"
	"meetbot_server/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// OAuthStateKey is the Redis key prefix for pending authorization states.
const OAuthStateKey = "oauth:state:"

// OAuthStateTTL bounds how long a login link stays valid.
const OAuthStateTTL = 10 * time.Minute

// OAuthHandler drives the delegated-authorization redirect flow for Teams.
// State is a one-shot random value bound to the normalized user id in Redis.
type OAuthHandler struct {
	creds        in.CredentialService
	conversation in.ConversationService
	messenger    out.Messenger
	stateStore   *cache.RedisCache
}

// NewOAuthHandler creates a new OAuthHandler.
func NewOAuthHandler(
	creds in.CredentialService,
	conversation in.ConversationService,
	messenger out.Messenger,
	stateStore *cache.RedisCache,
) *OAuthHandler {
	return &OAuthHandler{
		creds:        creds,
		conversation: conversation,
		messenger:    messenger,
		stateStore:   stateStore,
	}
}

func (h *OAuthHandler) Register(app fiber.Router) {
	oauth := app.Group("/oauth")
	oauth.Get("/connect/:platform", h.Connect)
	oauth.Get("/callback/:platform", h.Callback)
}

func generateSecureState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure state: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// Connect redirects the user to the platform's consent screen.
func (h *OAuthHandler) Connect(c *fiber.Ctx) error {
	platform := domain.Platform(c.Params("platform"))
	userID := domain.NormalizeUserID(c.Query("user"))
	if userID == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "missing user")
	}

	state, err := generateSecureState()
	if err != nil {
		logger.WithError(err).Error("[OAuth Connect] state generation failed")
		return ErrorResponse(c, fiber.StatusInternalServerError, "failed to generate state")
	}

	if err := h.stateStore.Set(c.Context(), OAuthStateKey+state, userID, OAuthStateTTL); err != nil {
		logger.WithError(err).Error("[OAuth Connect] state store failed")
		return ErrorResponse(c, fiber.StatusInternalServerError, "failed to store state")
	}

	authURL, err := h.creds.GetAuthURL(platform, state)
	if err != nil {
		logger.WithError(err).Error("[OAuth Connect] auth URL failed")
		return ErrorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	logger.WithField("user_id", userID).Info("[OAuth Connect] redirecting to %s consent", platform)
	return c.Redirect(authURL, fiber.StatusFound)
}

// Callback exchanges the authorization code, stores the token set, and nudges
// a waiting dialog forward over the messaging channel.
func (h *OAuthHandler) Callback(c *fiber.Ctx) error {
	platform := domain.Platform(c.Params("platform"))
	code := c.Query("code")
	state := c.Query("state")

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("[OAuth Callback] provider error: %s - %s", errParam, c.Query("error_description"))
		return loginPage(c, fiber.StatusBadRequest, "❌ Authorization failed. Please try again.", "")
	}
	if code == "" || state == "" {
		logger.Warn("[OAuth Callback] missing code or state")
		return loginPage(c, fiber.StatusBadRequest, "❌ Missing authorization code. Please try again.", "")
	}

	// One-shot state validation; the GETDEL makes replays fail.
	userID, err := h.stateStore.GetDel(c.Context(), OAuthStateKey+state)
	if err != nil || userID == "" {
		if err != nil && err != redis.Nil {
			logger.WithError(err).Error("[OAuth Callback] state lookup failed")
		} else {
			logger.Warn("[OAuth Callback] unknown or expired state")
		}
		return loginPage(c, fiber.StatusBadRequest, "❌ This login link expired. Ask the bot for a new one.", "")
	}

	if err := h.creds.HandleCallback(c.Context(), userID, platform, code); err != nil {
		logger.WithField("user_id", userID).WithError(err).Error("[OAuth Callback] exchange failed")
		return loginPage(c, fiber.StatusBadRequest, "❌ Authentication failed. Please try again.", "")
	}

	// Resume a dialog parked at the topic step, delivering the prompt over
	// WhatsApp since the user is currently in a browser.
	go h.resumeDialog(userID)

	waLink := "https://wa.me/" + userID
	return loginPage(c, fiber.StatusOK,
		"✅ Login successful! Head back to WhatsApp and we'll pick up where we left off.", waLink)
}

func (h *OAuthHandler) resumeDialog(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	reply, err := h.conversation.Resume(ctx, userID)
	if err != nil {
		logger.WithField("user_id", userID).WithError(err).Warn("Dialog resume failed")
		return
	}
	if reply == "" || h.messenger == nil {
		return
	}
	if err := h.messenger.SendWhatsApp(ctx, userID, reply); err != nil {
		logger.WithField("user_id", userID).WithError(err).Warn("Resume delivery failed")
	}
}

func loginPage(c *fiber.Ctx, status int, message, redirect string) error {
	meta := ""
	link := ""
	if redirect != "" {
		meta = fmt.Sprintf(`<meta http-equiv="refresh" content="3;url=%s" />`, redirect)
		link = fmt.Sprintf(`<p><a href="%s">Back to WhatsApp</a></p>`, redirect)
	}
	html := fmt.Sprintf(`<html><head>%s</head>
<body style="font-family: sans-serif; text-align: center; margin-top: 50px;">
<h2>%s</h2>%s</body></html>`, meta, message, link)

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Status(status).SendString(html)
}
