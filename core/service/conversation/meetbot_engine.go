// Package conversation implements the per-user meeting-creation dialog.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/in"
	"meetbot_server/core/port/out"
	"meetbot_server/pkg/logger"
)

const helpReply = "Hi! I can set up a video meeting for you. " +
	"Say \"zoom\", \"meet\", or \"teams\" to get started, or \"cancel\" to stop an in-progress request."

// Engine drives the dialog state machine: one inbound message in, one reply
// out, at most one session-store mutation per turn. Provider and credential
// calls happen between the session read and the final store write so no store
// operation is held across network I/O.
type Engine struct {
	sessions  out.SessionStore
	providers map[domain.Platform]out.MeetingProvider
	creds     in.CredentialService
	resolver  TimeResolver
	loginURL  func(userID string) string
	now       func() time.Time
}

// NewEngine wires the dialog engine. loginURL builds the delegated-auth link
// surfaced when a Teams dialog starts without a stored token.
func NewEngine(
	sessions out.SessionStore,
	providers map[domain.Platform]out.MeetingProvider,
	creds in.CredentialService,
	resolver TimeResolver,
	loginURL func(userID string) string,
) *Engine {
	return &Engine{
		sessions:  sessions,
		providers: providers,
		creds:     creds,
		resolver:  resolver,
		loginURL:  loginURL,
		now:       time.Now,
	}
}

// SetClock overrides the engine clock (tests).
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// HandleMessage processes one turn for a normalized user id.
func (e *Engine) HandleMessage(ctx context.Context, userID, body string) (string, error) {
	body = strings.TrimSpace(body)

	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: load session: %v", domain.ErrPersistence, err)
	}

	if session == nil {
		return e.startDialog(ctx, userID, body)
	}

	if strings.EqualFold(body, "cancel") {
		if err := e.sessions.Delete(ctx, userID); err != nil {
			return "", fmt.Errorf("%w: delete session: %v", domain.ErrPersistence, err)
		}
		return "Cancelled. Say \"zoom\", \"meet\", or \"teams\" whenever you need a meeting.", nil
	}

	switch session.Step {
	case domain.StepTopic:
		return e.collectTopic(ctx, session, body)
	case domain.StepTime:
		return e.collectTime(ctx, session, body)
	case domain.StepDuration:
		return e.collectDuration(ctx, session, body)
	case domain.StepConfirm:
		return e.confirm(ctx, session, body)
	default:
		// Unknown step means a corrupt record; clear it so the user can restart.
		if err := e.sessions.Delete(ctx, userID); err != nil {
			return "", fmt.Errorf("%w: delete session: %v", domain.ErrPersistence, err)
		}
		return helpReply, nil
	}
}

// Resume replays the topic prompt after an authorization callback stored a
// token for a dialog parked at the topic step. No session mutation.
func (e *Engine) Resume(ctx context.Context, userID string) (string, error) {
	session, err := e.sessions.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%w: load session: %v", domain.ErrPersistence, err)
	}
	if session == nil || session.Step != domain.StepTopic {
		return "", nil
	}
	return fmt.Sprintf("✅ You're signed in. What should the %s meeting be about?",
		session.Platform.DisplayName()), nil
}

func (e *Engine) startDialog(ctx context.Context, userID, body string) (string, error) {
	platform, ok := domain.DetectPlatform(body)
	if !ok {
		return helpReply, nil
	}

	// A platform without a registered adapter never starts a dialog.
	if _, ok := e.providers[platform]; !ok {
		return fmt.Sprintf("❌ %s is not available right now.", platform.DisplayName()), nil
	}

	session := domain.NewSession(userID, platform)

	reply := fmt.Sprintf("Starting a %s meeting. What's the topic?", platform.DisplayName())

	if platform.RequiresDelegatedAuth() {
		_, err := e.creds.GetValidToken(ctx, userID, platform)
		switch {
		case errors.Is(err, domain.ErrNotAuthorized):
			// The dialog still starts; it resumes once the callback stores a token.
			reply = fmt.Sprintf("%s needs you to sign in first: %s\nOnce that's done I'll ask for the topic.",
				platform.DisplayName(), e.loginURL(userID))
		case err != nil:
			return "", err
		}
	}

	if err := e.sessions.Put(ctx, session); err != nil {
		return "", fmt.Errorf("%w: save session: %v", domain.ErrPersistence, err)
	}

	logger.WithField("user_id", userID).Info("Dialog started for %s", platform)
	return reply, nil
}

func (e *Engine) collectTopic(ctx context.Context, session *domain.Session, body string) (string, error) {
	if body == "" {
		return "What should the meeting be about?", nil
	}

	session.Topic = body
	session.Step = domain.StepTime
	session.UpdatedAt = e.now().UTC()

	if err := e.sessions.Put(ctx, session); err != nil {
		return "", fmt.Errorf("%w: save session: %v", domain.ErrPersistence, err)
	}
	return "Got it. When should it start? (e.g. \"tomorrow 3pm\" or \"2025-09-06T15:00:00Z\")", nil
}

func (e *Engine) collectTime(ctx context.Context, session *domain.Session, body string) (string, error) {
	start, err := e.resolver.Resolve(ctx, body, e.now())
	if err != nil {
		// Re-prompt without touching the session.
		return "Sorry, I couldn't read that time. Try \"today 4pm\", \"tomorrow 10:30am\", or an exact timestamp like 2025-09-06T15:00:00Z.", nil
	}

	session.StartTime = start.UTC()
	session.Step = domain.StepDuration
	session.UpdatedAt = e.now().UTC()

	if err := e.sessions.Put(ctx, session); err != nil {
		return "", fmt.Errorf("%w: save session: %v", domain.ErrPersistence, err)
	}
	return "How long should it be, in minutes?", nil
}

func (e *Engine) collectDuration(ctx context.Context, session *domain.Session, body string) (string, error) {
	minutes, err := strconv.Atoi(strings.TrimSpace(body))
	if err != nil || minutes <= 0 {
		return "Please send the duration as a whole number of minutes, e.g. 30.", nil
	}

	session.DurationMinutes = minutes
	session.Step = domain.StepConfirm
	session.UpdatedAt = e.now().UTC()

	if err := e.sessions.Put(ctx, session); err != nil {
		return "", fmt.Errorf("%w: save session: %v", domain.ErrPersistence, err)
	}

	return fmt.Sprintf("Here's what I have:\n"+
		"• Platform: %s\n"+
		"• Topic: %s\n"+
		"• Start: %s\n"+
		"• Duration: %d minutes\n"+
		"Reply \"yes\" to create it, anything else to cancel.",
		session.Platform.DisplayName(),
		session.Topic,
		session.StartTime.Format("Mon, 02 Jan 2006 15:04 MST"),
		session.DurationMinutes), nil
}

func (e *Engine) confirm(ctx context.Context, session *domain.Session, body string) (string, error) {
	if !strings.EqualFold(body, "yes") {
		if err := e.sessions.Delete(ctx, session.UserID); err != nil {
			return "", fmt.Errorf("%w: delete session: %v", domain.ErrPersistence, err)
		}
		return "Cancelled. Nothing was created.", nil
	}

	provider, ok := e.providers[session.Platform]
	if !ok {
		if err := e.sessions.Delete(ctx, session.UserID); err != nil {
			return "", fmt.Errorf("%w: delete session: %v", domain.ErrPersistence, err)
		}
		return fmt.Sprintf("❌ %s is not available right now.", session.Platform.DisplayName()), nil
	}

	joinURL, callErr := provider.CreateMeeting(ctx, session.UserID, session.ToMeetingRequest())

	if errors.Is(callErr, domain.ErrNotAuthorized) {
		// Keep the session so the dialog resumes after authorization.
		return fmt.Sprintf("%s needs you to sign in first: %s\nThen reply \"yes\" again.",
			session.Platform.DisplayName(), e.loginURL(session.UserID)), nil
	}

	// Every other confirm outcome is terminal: the session goes away.
	if err := e.sessions.Delete(ctx, session.UserID); err != nil {
		return "", fmt.Errorf("%w: delete session: %v", domain.ErrPersistence, err)
	}

	if callErr != nil {
		logger.WithField("user_id", session.UserID).WithError(callErr).
			Warn("Meeting creation failed on %s", session.Platform)
		return fmt.Sprintf("❌ Couldn't create the meeting: %v\nSay \"%s\" to start over.",
			callErr, session.Platform), nil
	}

	logger.WithField("user_id", session.UserID).Info("Meeting created on %s", session.Platform)
	return fmt.Sprintf("✅ %s meeting created!\nJoin here: %s", session.Platform.DisplayName(), joinURL), nil
}
