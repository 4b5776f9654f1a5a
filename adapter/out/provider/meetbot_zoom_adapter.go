// Package provider implements the meeting-creation adapters behind the
// uniform MeetingProvider port.
package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/out"
	"meetbot_server/pkg/httputil"
)

const (
	zoomTokenURL = "https://zoom.us/oauth/token"
	zoomAPIURL   = "https://api.zoom.us/v2"
)

// ZoomAdapter creates meetings with Zoom's server-to-server OAuth app. The
// account-level token is service-wide, cached, and re-fetched on expiry; no
// per-user authorization is involved.
type ZoomAdapter struct {
	clientID     string
	clientSecret string
	accountID    string
	tokenURL     string
	apiURL       string
	client       *http.Client
	breaker      *meetingBreaker

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// ZoomConfig holds the server-to-server OAuth app credentials.
type ZoomConfig struct {
	ClientID     string
	ClientSecret string
	AccountID    string
}

// NewZoomAdapter creates a new Zoom adapter.
func NewZoomAdapter(cfg *ZoomConfig) *ZoomAdapter {
	return &ZoomAdapter{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		accountID:    cfg.AccountID,
		tokenURL:     zoomTokenURL,
		apiURL:       zoomAPIURL,
		client:       httputil.NewPooledClient(nil),
		breaker:      newMeetingBreaker("zoom-api"),
	}
}

// SetEndpoints overrides the token and API URLs (tests).
func (a *ZoomAdapter) SetEndpoints(tokenURL, apiURL string) {
	a.tokenURL = tokenURL
	a.apiURL = apiURL
}

func (a *ZoomAdapter) Platform() domain.Platform {
	return domain.PlatformZoom
}

// CreateMeeting creates a scheduled Zoom meeting and returns its join URL.
func (a *ZoomAdapter) CreateMeeting(ctx context.Context, _ string, req *domain.MeetingRequest) (string, error) {
	return a.breaker.execute(func() (string, error) {
		token, err := a.accountToken(ctx)
		if err != nil {
			return "", err
		}
		return a.createMeeting(ctx, token, req)
	})
}

// accountToken returns the cached account-credentials token, fetching a new
// one when missing or within a minute of expiry.
func (a *ZoomAdapter) accountToken(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Until(a.tokenExpiry) > time.Minute {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "account_credentials")
	form.Set("account_id", a.accountID)

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(a.clientID + ":" + a.clientSecret))
	httpReq.Header.Set("Authorization", "Basic "+basic)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("zoom token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		return "", &domain.ProviderError{
			Platform: domain.PlatformZoom,
			Status:   resp.StatusCode,
			Detail:   string(detail),
		}
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decode zoom token: %w", err)
	}

	a.accessToken = tokenResp.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return a.accessToken, nil
}

func (a *ZoomAdapter) createMeeting(ctx context.Context, token string, req *domain.MeetingRequest) (string, error) {
	body := map[string]interface{}{
		"topic":      req.Topic,
		"type":       2, // scheduled meeting
		"start_time": req.StartTime.UTC().Format("2006-01-02T15:04:05Z"),
		"duration":   req.DurationMinutes,
		"timezone":   "UTC",
		"settings": map[string]bool{
			"host_video":        true,
			"participant_video": true,
		},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.apiURL+"/users/me/meetings", strings.NewReader(string(data)))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("zoom meeting request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(resp.Body)
		return "", &domain.ProviderError{
			Platform: domain.PlatformZoom,
			Status:   resp.StatusCode,
			Detail:   string(detail),
		}
	}

	var meeting struct {
		JoinURL string `json:"join_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meeting); err != nil {
		return "", fmt.Errorf("decode zoom meeting: %w", err)
	}
	return meeting.JoinURL, nil
}

var _ out.MeetingProvider = (*ZoomAdapter)(nil)
