package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/out"
)

// fakeSessionStore is an in-memory session store with error injection.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
	putErr   error
	puts     int
	deletes  int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*domain.Session)}
}

func (f *fakeSessionStore) Get(_ context.Context, userID string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[userID]
	if !ok {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSessionStore) Put(_ context.Context, session *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	copied := *session
	f.sessions[session.UserID] = &copied
	f.puts++
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, userID)
	f.deletes++
	return nil
}

func (f *fakeSessionStore) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// fakeProvider records calls and returns a canned result.
type fakeProvider struct {
	platform domain.Platform
	joinURL  string
	err      error
	calls    int
	lastReq  *domain.MeetingRequest
}

func (f *fakeProvider) Platform() domain.Platform { return f.platform }

func (f *fakeProvider) CreateMeeting(_ context.Context, _ string, req *domain.MeetingRequest) (string, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	return f.joinURL, nil
}

// fakeCreds answers GetValidToken from a canned map.
type fakeCreds struct {
	tokens map[string]string
	gets   int
}

func (f *fakeCreds) GetValidToken(_ context.Context, userID string, platform domain.Platform) (string, error) {
	f.gets++
	if tok, ok := f.tokens[userID+"/"+string(platform)]; ok {
		return tok, nil
	}
	return "", domain.ErrNotAuthorized
}

func (f *fakeCreds) StoreToken(context.Context, string, domain.Platform, *domain.TokenSet) error {
	return nil
}

func (f *fakeCreds) GetAuthURL(domain.Platform, string) (string, error) { return "", nil }

func (f *fakeCreds) HandleCallback(context.Context, string, domain.Platform, string) error {
	return nil
}

const testUser = "919876543210"

func fixedClock() time.Time {
	return time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
}

func newTestEngine(store *fakeSessionStore, providers map[domain.Platform]*fakeProvider, creds *fakeCreds) *Engine {
	registry := make(map[domain.Platform]out.MeetingProvider)
	for p, fp := range providers {
		registry[p] = fp
	}
	e := NewEngine(store, registry, creds, NewRuleResolver(), func(userID string) string {
		return "https://example.test/oauth/connect/teams?user=" + userID
	})
	e.SetClock(fixedClock)
	return e
}

func TestFullZoomDialog(t *testing.T) {
	store := newFakeSessionStore()
	zoom := &fakeProvider{platform: domain.PlatformZoom, joinURL: "https://zoom.us/j/123"}
	engine := newTestEngine(store, map[domain.Platform]*fakeProvider{domain.PlatformZoom: zoom}, &fakeCreds{})

	ctx := context.Background()

	turns := []struct {
		body      string
		wantParts []string
	}{
		{"zoom", []string{"Zoom", "topic"}},
		{"Sprint Planning", []string{"When"}},
		{"tomorrow 3pm", []string{"minutes"}},
		{"30", []string{"Sprint Planning", "30 minutes", "yes"}},
		{"yes", []string{"✅", "https://zoom.us/j/123"}},
	}

	for i, turn := range turns {
		reply, err := engine.HandleMessage(ctx, testUser, turn.body)
		if err != nil {
			t.Fatalf("turn %d (%q): unexpected error: %v", i, turn.body, err)
		}
		for _, part := range turn.wantParts {
			if !strings.Contains(reply, part) {
				t.Errorf("turn %d (%q): reply %q missing %q", i, turn.body, reply, part)
			}
		}
	}

	if zoom.calls != 1 {
		t.Errorf("provider calls = %d, want exactly 1", zoom.calls)
	}
	if store.len() != 0 {
		t.Errorf("sessions remaining = %d, want 0", store.len())
	}

	req := zoom.lastReq
	wantStart := time.Date(2025, 9, 7, 15, 0, 0, 0, time.UTC)
	if !req.StartTime.Equal(wantStart) {
		t.Errorf("meeting start = %s, want %s", req.StartTime, wantStart)
	}
	if req.Topic != "Sprint Planning" || req.DurationMinutes != 30 {
		t.Errorf("meeting request = %+v", req)
	}
}

func TestUnrecognizedMessageWithoutSession(t *testing.T) {
	store := newFakeSessionStore()
	engine := newTestEngine(store, nil, &fakeCreds{})

	reply, err := engine.HandleMessage(context.Background(), testUser, "banana")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "zoom") {
		t.Errorf("expected help reply, got %q", reply)
	}
	if store.len() != 0 {
		t.Error("help turn must not create a session")
	}
}

func TestUnparseableTimeKeepsSession(t *testing.T) {
	store := newFakeSessionStore()
	zoom := &fakeProvider{platform: domain.PlatformZoom}
	engine := newTestEngine(store, map[domain.Platform]*fakeProvider{domain.PlatformZoom: zoom}, &fakeCreds{})
	ctx := context.Background()

	engine.HandleMessage(ctx, testUser, "zoom")
	engine.HandleMessage(ctx, testUser, "Standup")

	before, _ := store.Get(ctx, testUser)
	putsBefore := store.puts

	reply, err := engine.HandleMessage(ctx, testUser, "whenever works")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "couldn't read that time") {
		t.Errorf("expected re-prompt, got %q", reply)
	}

	after, _ := store.Get(ctx, testUser)
	if store.puts != putsBefore {
		t.Error("failed time turn must not write the session")
	}
	if after.Step != before.Step || after.Topic != before.Topic {
		t.Errorf("session changed: before %+v, after %+v", before, after)
	}
}

func TestCancelMidDialog(t *testing.T) {
	store := newFakeSessionStore()
	meet := &fakeProvider{platform: domain.PlatformMeet}
	engine := newTestEngine(store, map[domain.Platform]*fakeProvider{domain.PlatformMeet: meet}, &fakeCreds{})
	ctx := context.Background()

	engine.HandleMessage(ctx, testUser, "meet")
	reply, err := engine.HandleMessage(ctx, testUser, "cancel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "Cancelled") {
		t.Errorf("expected cancellation, got %q", reply)
	}
	if store.len() != 0 {
		t.Error("cancel must delete the session")
	}
}

func TestDeclineAtConfirm(t *testing.T) {
	store := newFakeSessionStore()
	zoom := &fakeProvider{platform: domain.PlatformZoom, joinURL: "https://zoom.us/j/123"}
	engine := newTestEngine(store, map[domain.Platform]*fakeProvider{domain.PlatformZoom: zoom}, &fakeCreds{})
	ctx := context.Background()

	engine.HandleMessage(ctx, testUser, "zoom")
	engine.HandleMessage(ctx, testUser, "Retro")
	engine.HandleMessage(ctx, testUser, "tomorrow 3pm")
	engine.HandleMessage(ctx, testUser, "45")

	reply, err := engine.HandleMessage(ctx, testUser, "no")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "Nothing was created") {
		t.Errorf("expected decline reply, got %q", reply)
	}
	if zoom.calls != 0 {
		t.Error("declined confirm must not call the provider")
	}
	if store.len() != 0 {
		t.Error("declined confirm must delete the session")
	}
}

func TestProviderErrorReportedVerbatim(t *testing.T) {
	store := newFakeSessionStore()
	zoom := &fakeProvider{
		platform: domain.PlatformZoom,
		err:      &domain.ProviderError{Platform: domain.PlatformZoom, Status: 429, Detail: "rate limited"},
	}
	engine := newTestEngine(store, map[domain.Platform]*fakeProvider{domain.PlatformZoom: zoom}, &fakeCreds{})
	ctx := context.Background()

	engine.HandleMessage(ctx, testUser, "zoom")
	engine.HandleMessage(ctx, testUser, "Retro")
	engine.HandleMessage(ctx, testUser, "tomorrow 3pm")
	engine.HandleMessage(ctx, testUser, "30")

	reply, err := engine.HandleMessage(ctx, testUser, "yes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "rate limited") {
		t.Errorf("provider detail should reach the user, got %q", reply)
	}
	if store.len() != 0 {
		t.Error("provider failure is terminal, session must be deleted")
	}
}

func TestTeamsStartWithoutTokenPromptsLogin(t *testing.T) {
	store := newFakeSessionStore()
	teams := &fakeProvider{platform: domain.PlatformTeams}
	engine := newTestEngine(store, map[domain.Platform]*fakeProvider{domain.PlatformTeams: teams}, &fakeCreds{})

	reply, err := engine.HandleMessage(context.Background(), testUser, "teams")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "sign in") || !strings.Contains(reply, testUser) {
		t.Errorf("expected login prompt with connect link, got %q", reply)
	}
	// The dialog still starts so the callback can resume it.
	if store.len() != 1 {
		t.Error("unauthorized teams start must still create the session")
	}
}

func TestUnregisteredPlatformNeverStartsDialog(t *testing.T) {
	store := newFakeSessionStore()
	creds := &fakeCreds{}
	engine := newTestEngine(store, nil, creds)

	reply, err := engine.HandleMessage(context.Background(), testUser, "teams")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "not available") {
		t.Errorf("expected unavailable reply, got %q", reply)
	}
	if strings.Contains(reply, "sign in") {
		t.Errorf("must not hand out a login link for an unregistered platform, got %q", reply)
	}
	if creds.gets != 0 {
		t.Errorf("credential lookups = %d, want 0", creds.gets)
	}
	if store.len() != 0 {
		t.Error("unregistered platform must not create a session")
	}
}

func TestNotAuthorizedAtConfirmKeepsSession(t *testing.T) {
	store := newFakeSessionStore()
	teams := &fakeProvider{platform: domain.PlatformTeams, err: domain.ErrNotAuthorized}
	creds := &fakeCreds{tokens: map[string]string{testUser + "/teams": "tok"}}
	engine := newTestEngine(store, map[domain.Platform]*fakeProvider{domain.PlatformTeams: teams}, creds)
	ctx := context.Background()

	engine.HandleMessage(ctx, testUser, "teams")
	engine.HandleMessage(ctx, testUser, "Quarterly Review")
	engine.HandleMessage(ctx, testUser, "tomorrow 3pm")
	engine.HandleMessage(ctx, testUser, "60")

	reply, err := engine.HandleMessage(ctx, testUser, "yes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "sign in") {
		t.Errorf("expected login prompt, got %q", reply)
	}
	if store.len() != 1 {
		t.Error("not-authorized confirm must keep the session for a retry")
	}
}

func TestResumeAfterAuthorization(t *testing.T) {
	store := newFakeSessionStore()
	teams := &fakeProvider{platform: domain.PlatformTeams}
	engine := newTestEngine(store, map[domain.Platform]*fakeProvider{domain.PlatformTeams: teams}, &fakeCreds{})
	ctx := context.Background()

	engine.HandleMessage(ctx, testUser, "teams")

	reply, err := engine.Resume(ctx, testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(reply, "Microsoft Teams") {
		t.Errorf("expected topic re-prompt, got %q", reply)
	}

	// Resume is a no-op when no dialog is parked at the topic step.
	engine.HandleMessage(ctx, testUser, "Budget sync")
	reply, err = engine.Resume(ctx, testUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "" {
		t.Errorf("resume past the topic step should be silent, got %q", reply)
	}
}

func TestPersistenceFailureSurfacesTypedError(t *testing.T) {
	store := newFakeSessionStore()
	store.putErr = fmt.Errorf("redis down")
	zoom := &fakeProvider{platform: domain.PlatformZoom}
	engine := newTestEngine(store, map[domain.Platform]*fakeProvider{domain.PlatformZoom: zoom}, &fakeCreds{})

	_, err := engine.HandleMessage(context.Background(), testUser, "zoom")
	if !errors.Is(err, domain.ErrPersistence) {
		t.Errorf("error = %v, want ErrPersistence", err)
	}
}
