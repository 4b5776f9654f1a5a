package domain

import (
	"strings"
	"time"
)

// Platform identifies the meeting provider a dialog targets.
type Platform string

const (
	PlatformZoom  Platform = "zoom"
	PlatformMeet  Platform = "meet"
	PlatformTeams Platform = "teams"
)

// platformKeywords maps inbound keywords to platforms. "google" is accepted
// as an alias for Meet because that is what most users type.
var platformKeywords = []struct {
	keyword  string
	platform Platform
}{
	{"zoom", PlatformZoom},
	{"meet", PlatformMeet},
	{"google", PlatformMeet},
	{"teams", PlatformTeams},
}

// DetectPlatform scans a message for a platform keyword (case-insensitive
// substring match). Returns false when no keyword is present.
func DetectPlatform(message string) (Platform, bool) {
	lower := strings.ToLower(message)
	for _, pk := range platformKeywords {
		if strings.Contains(lower, pk.keyword) {
			return pk.platform, true
		}
	}
	return "", false
}

// DisplayName returns the user-facing platform name.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformZoom:
		return "Zoom"
	case PlatformMeet:
		return "Google Meet"
	case PlatformTeams:
		return "Microsoft Teams"
	default:
		return string(p)
	}
}

// RequiresDelegatedAuth reports whether the platform needs a per-user token.
func (p Platform) RequiresDelegatedAuth() bool {
	return p == PlatformTeams
}

// Step is the position of a dialog inside the meeting-creation flow.
type Step string

const (
	StepTopic    Step = "topic"
	StepTime     Step = "time"
	StepDuration Step = "duration"
	StepConfirm  Step = "confirm"
)

// Session is the per-user in-progress dialog state. It exists only while a
// dialog is running: created on the first recognized platform keyword and
// deleted on confirmation, cancellation, or unrecoverable error.
type Session struct {
	UserID          string    `json:"user_id"`
	Platform        Platform  `json:"platform"`
	Step            Step      `json:"step"`
	Topic           string    `json:"topic,omitempty"`
	StartTime       time.Time `json:"start_time,omitempty"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewSession starts a dialog for a user at the topic step.
func NewSession(userID string, platform Platform) *Session {
	now := time.Now().UTC()
	return &Session{
		UserID:    userID,
		Platform:  platform,
		Step:      StepTopic,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// MeetingRequest is the ephemeral payload handed to a provider once a dialog
// reaches confirmation. It is consumed exactly once and never persisted.
type MeetingRequest struct {
	Platform        Platform
	Topic           string
	StartTime       time.Time
	DurationMinutes int
}

// ToMeetingRequest builds the provider payload from a completed session.
func (s *Session) ToMeetingRequest() *MeetingRequest {
	return &MeetingRequest{
		Platform:        s.Platform,
		Topic:           s.Topic,
		StartTime:       s.StartTime.UTC(),
		DurationMinutes: s.DurationMinutes,
	}
}

// EndTime returns the meeting end derived from start plus duration.
func (r *MeetingRequest) EndTime() time.Time {
	return r.StartTime.Add(time.Duration(r.DurationMinutes) * time.Minute)
}
