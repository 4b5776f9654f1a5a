package conversation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRuleResolver(t *testing.T) {
	now := time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)
	resolver := NewRuleResolver()

	tests := []struct {
		name    string
		phrase  string
		want    time.Time
		wantErr bool
	}{
		{
			name:   "rfc3339 timestamp",
			phrase: "2025-09-06T15:00:00Z",
			want:   time.Date(2025, 9, 6, 15, 0, 0, 0, time.UTC),
		},
		{
			name:   "date with minutes",
			phrase: "2025-09-06 15:00",
			want:   time.Date(2025, 9, 6, 15, 0, 0, 0, time.UTC),
		},
		{
			name:   "tomorrow with pm clock",
			phrase: "tomorrow 3pm",
			want:   time.Date(2025, 9, 7, 15, 0, 0, 0, time.UTC),
		},
		{
			name:   "today with pm clock",
			phrase: "today 4pm",
			want:   time.Date(2025, 9, 6, 16, 0, 0, 0, time.UTC),
		},
		{
			name:   "tomorrow with minutes",
			phrase: "tomorrow 10:30am",
			want:   time.Date(2025, 9, 7, 10, 30, 0, 0, time.UTC),
		},
		{
			name:   "day word alone defaults to morning",
			phrase: "tomorrow",
			want:   time.Date(2025, 9, 7, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "bare future clock stays today",
			phrase: "3pm",
			want:   time.Date(2025, 9, 6, 15, 0, 0, 0, time.UTC),
		},
		{
			name:   "bare past clock rolls to next day",
			phrase: "9am",
			want:   time.Date(2025, 9, 7, 9, 0, 0, 0, time.UTC),
		},
		{
			name:   "24h clock with minutes",
			phrase: "15:30",
			want:   time.Date(2025, 9, 6, 15, 30, 0, 0, time.UTC),
		},
		{
			name:   "noon is 12pm",
			phrase: "today 12pm",
			want:   time.Date(2025, 9, 6, 12, 0, 0, 0, time.UTC),
		},
		{
			name:   "midnight is 12am",
			phrase: "tomorrow 12am",
			want:   time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC),
		},
		{name: "bare hour without meridiem", phrase: "3", wantErr: true},
		{name: "nonsense", phrase: "whenever works", wantErr: true},
		{name: "empty", phrase: "", wantErr: true},
		{name: "out of range minutes", phrase: "today 3:75pm", wantErr: true},
		{name: "out of range hour", phrase: "today 25:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.Resolve(context.Background(), tt.phrase, now)
			if tt.wantErr {
				if !errors.Is(err, ErrUnparseableTime) {
					t.Fatalf("Resolve(%q) error = %v, want ErrUnparseableTime", tt.phrase, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q) unexpected error: %v", tt.phrase, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %s, want %s", tt.phrase, got, tt.want)
			}
		})
	}
}
