package provider

import (
	"context"
	"fmt"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/out"

	"github.com/google/uuid"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// MeetAdapter creates Google Meet links by inserting a calendar event with a
// conference request, authenticated as a service account. Like Zoom, this is
// service-level auth; no per-user token.
type MeetAdapter struct {
	credentialsFile string
	calendarID      string
	breaker         *meetingBreaker

	// newService is swappable for tests.
	newService func(ctx context.Context) (*calendar.Service, error)
}

// MeetConfig holds the service-account setup for calendar access.
type MeetConfig struct {
	CredentialsFile string
	CalendarID      string
}

// NewMeetAdapter creates a new Google Meet adapter.
func NewMeetAdapter(cfg *MeetConfig) *MeetAdapter {
	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	a := &MeetAdapter{
		credentialsFile: cfg.CredentialsFile,
		calendarID:      calendarID,
		breaker:         newMeetingBreaker("meet-api"),
	}
	a.newService = func(ctx context.Context) (*calendar.Service, error) {
		return calendar.NewService(ctx,
			option.WithCredentialsFile(a.credentialsFile),
			option.WithScopes(calendar.CalendarScope),
		)
	}
	return a
}

func (a *MeetAdapter) Platform() domain.Platform {
	return domain.PlatformMeet
}

// CreateMeeting inserts a calendar event with a Meet conference and returns
// the hangout link.
func (a *MeetAdapter) CreateMeeting(ctx context.Context, _ string, req *domain.MeetingRequest) (string, error) {
	return a.breaker.execute(func() (string, error) {
		svc, err := a.newService(ctx)
		if err != nil {
			return "", fmt.Errorf("create calendar service: %w", err)
		}

		event := &calendar.Event{
			Summary: req.Topic,
			Start: &calendar.EventDateTime{
				DateTime: req.StartTime.UTC().Format(time.RFC3339),
				TimeZone: "UTC",
			},
			End: &calendar.EventDateTime{
				DateTime: req.EndTime().UTC().Format(time.RFC3339),
				TimeZone: "UTC",
			},
			ConferenceData: &calendar.ConferenceData{
				CreateRequest: &calendar.CreateConferenceRequest{
					RequestId: uuid.NewString(),
					ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
						Type: "hangoutsMeet",
					},
				},
			},
		}

		created, err := svc.Events.Insert(a.calendarID, event).
			ConferenceDataVersion(1).
			Context(ctx).
			Do()
		if err != nil {
			if apiErr, ok := err.(*googleapi.Error); ok {
				return "", &domain.ProviderError{
					Platform: domain.PlatformMeet,
					Status:   apiErr.Code,
					Detail:   apiErr.Message,
				}
			}
			return "", &domain.ProviderError{
				Platform: domain.PlatformMeet,
				Detail:   err.Error(),
			}
		}

		if created.HangoutLink == "" {
			return "", &domain.ProviderError{
				Platform: domain.PlatformMeet,
				Detail:   "event created without a conference link",
			}
		}
		return created.HangoutLink, nil
	})
}

var _ out.MeetingProvider = (*MeetAdapter)(nil)
