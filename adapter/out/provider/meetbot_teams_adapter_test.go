package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"meetbot_server/core/domain"
)

// stubCreds answers GetValidToken with a fixed result.
type stubCreds struct {
	token string
	err   error
}

func (s *stubCreds) GetValidToken(context.Context, string, domain.Platform) (string, error) {
	return s.token, s.err
}

func (s *stubCreds) StoreToken(context.Context, string, domain.Platform, *domain.TokenSet) error {
	return nil
}

func (s *stubCreds) GetAuthURL(domain.Platform, string) (string, error) { return "", nil }

func (s *stubCreds) HandleCallback(context.Context, string, domain.Platform, string) error {
	return nil
}

func TestTeamsShortCircuitsWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("graph must not be called without a valid token")
	}))
	defer srv.Close()

	adapter := NewTeamsAdapter(&stubCreds{err: domain.ErrNotAuthorized})
	adapter.SetBaseURL(srv.URL)

	_, err := adapter.CreateMeeting(context.Background(), "919876543210", testMeetingRequest())
	if !errors.Is(err, domain.ErrNotAuthorized) {
		t.Errorf("error = %v, want ErrNotAuthorized", err)
	}
}

func TestTeamsCreateMeeting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/onlineMeetings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer graph-token" {
			t.Errorf("authorization = %q", got)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["subject"] != "Sprint Planning" {
			t.Errorf("subject = %q", body["subject"])
		}
		if body["startDateTime"] != "2025-09-07T15:00:00Z" || body["endDateTime"] != "2025-09-07T15:30:00Z" {
			t.Errorf("times = %q .. %q", body["startDateTime"], body["endDateTime"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"joinWebUrl": "https://teams.microsoft.com/l/m/1"})
	}))
	defer srv.Close()

	adapter := NewTeamsAdapter(&stubCreds{token: "graph-token"})
	adapter.SetBaseURL(srv.URL)

	joinURL, err := adapter.CreateMeeting(context.Background(), "919876543210", testMeetingRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if joinURL != "https://teams.microsoft.com/l/m/1" {
		t.Errorf("joinURL = %q", joinURL)
	}
}

func TestTeamsRejectionBecomesProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("missing OnlineMeetings.ReadWrite"))
	}))
	defer srv.Close()

	adapter := NewTeamsAdapter(&stubCreds{token: "graph-token"})
	adapter.SetBaseURL(srv.URL)

	_, err := adapter.CreateMeeting(context.Background(), "919876543210", testMeetingRequest())
	pe, ok := domain.IsProviderError(err)
	if !ok {
		t.Fatalf("error = %v, want *domain.ProviderError", err)
	}
	if pe.Status != http.StatusForbidden {
		t.Errorf("status = %d", pe.Status)
	}
}
