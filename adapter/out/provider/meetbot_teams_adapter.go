package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/in"
	"meetbot_server/core/port/out"
	"meetbot_server/pkg/httputil"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// TeamsAdapter creates online meetings through Microsoft Graph with the
// user's delegated token. When the credential manager reports no valid token
// the adapter fails before any network call so the engine can surface a login
// prompt instead of a generic provider failure.
type TeamsAdapter struct {
	creds   in.CredentialService
	baseURL string
	client  *http.Client
	breaker *meetingBreaker
}

// NewTeamsAdapter creates a new Teams adapter.
func NewTeamsAdapter(creds in.CredentialService) *TeamsAdapter {
	return &TeamsAdapter{
		creds:   creds,
		baseURL: graphBaseURL,
		client:  httputil.NewPooledClient(nil),
		breaker: newMeetingBreaker("graph-api"),
	}
}

// SetBaseURL overrides the Graph endpoint (tests).
func (a *TeamsAdapter) SetBaseURL(u string) {
	a.baseURL = u
}

func (a *TeamsAdapter) Platform() domain.Platform {
	return domain.PlatformTeams
}

// CreateMeeting creates a Teams online meeting and returns its join URL.
func (a *TeamsAdapter) CreateMeeting(ctx context.Context, userID string, req *domain.MeetingRequest) (string, error) {
	return a.breaker.execute(func() (string, error) {
		token, err := a.creds.GetValidToken(ctx, userID, domain.PlatformTeams)
		if err != nil {
			// ErrNotAuthorized and persistence failures both short-circuit
			// here; neither reaches Graph.
			return "", err
		}

		body := map[string]string{
			"subject":       req.Topic,
			"startDateTime": req.StartTime.UTC().Format(time.RFC3339),
			"endDateTime":   req.EndTime().UTC().Format(time.RFC3339),
		}
		data, err := json.Marshal(body)
		if err != nil {
			return "", err
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/me/onlineMeetings", strings.NewReader(string(data)))
		if err != nil {
			return "", err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := a.client.Do(httpReq)
		if err != nil {
			return "", fmt.Errorf("graph request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			detail, _ := io.ReadAll(resp.Body)
			return "", &domain.ProviderError{
				Platform: domain.PlatformTeams,
				Status:   resp.StatusCode,
				Detail:   string(detail),
			}
		}

		var meeting struct {
			JoinWebURL string `json:"joinWebUrl"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
			return "", fmt.Errorf("decode graph meeting: %w", err)
		}
		return meeting.JoinWebURL, nil
	})
}

var _ out.MeetingProvider = (*TeamsAdapter)(nil)
