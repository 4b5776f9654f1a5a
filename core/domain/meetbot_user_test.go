package domain

import "testing"

func TestNormalizeUserID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "whatsapp prefix with plus", raw: "whatsapp:+919876543210", want: "919876543210"},
		{name: "bare international number", raw: "+91-98765-43210", want: "919876543210"},
		{name: "spaces and parens", raw: "+1 (415) 555 0100", want: "14155550100"},
		{name: "tel prefix", raw: "tel:+14155550100", want: "14155550100"},
		{name: "uppercase transport prefix", raw: "WHATSAPP:+919876543210", want: "919876543210"},
		{name: "jid style suffix dropped", raw: "919876543210@s.whatsapp.net", want: "919876543210"},
		{name: "non-phone handle kept", raw: "alice.smith", want: "alice.smith"},
		{name: "already normalized", raw: "919876543210", want: "919876543210"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeUserID(tt.raw)
			if got != tt.want {
				t.Errorf("NormalizeUserID(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			// The rule must be idempotent: re-normalizing never changes the key.
			if again := NormalizeUserID(got); again != got {
				t.Errorf("NormalizeUserID not idempotent: %q -> %q -> %q", tt.raw, got, again)
			}
		})
	}
}
