package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendWhatsApp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Accounts/AC123/Messages.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "AC123" || pass != "token" {
			t.Errorf("basic auth = %q/%q ok=%v", user, pass, ok)
		}
		r.ParseForm()
		if got := r.FormValue("To"); got != "whatsapp:+919876543210" {
			t.Errorf("To = %q", got)
		}
		if got := r.FormValue("From"); got != "whatsapp:+14155550100" {
			t.Errorf("From = %q", got)
		}
		if got := r.FormValue("Body"); got != "hello there" {
			t.Errorf("Body = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	adapter := NewTwilioAdapter("AC123", "token", "+14155550100")
	adapter.SetBaseURL(srv.URL)

	if err := adapter.SendWhatsApp(context.Background(), "919876543210", "hello there"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSendWhatsAppAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code": 20003}`))
	}))
	defer srv.Close()

	adapter := NewTwilioAdapter("AC123", "bad-token", "+14155550100")
	adapter.SetBaseURL(srv.URL)

	if err := adapter.SendWhatsApp(context.Background(), "919876543210", "hello"); err == nil {
		t.Error("expected error on 401")
	}
}
