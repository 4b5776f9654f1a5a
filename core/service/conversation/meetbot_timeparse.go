package conversation

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnparseableTime marks a phrase the resolver could not turn into an
// instant. The engine re-prompts the same step; this is never a hard failure.
var ErrUnparseableTime = errors.New("unparseable time phrase")

// TimeResolver converts a free-text time phrase into an absolute UTC instant,
// resolved against the supplied reference time.
type TimeResolver interface {
	Resolve(ctx context.Context, phrase string, now time.Time) (time.Time, error)
}

// RuleResolver handles ISO-8601 timestamps, relative-day words, and clock
// times with am/pm, without any network dependency.
type RuleResolver struct{}

func NewRuleResolver() *RuleResolver {
	return &RuleResolver{}
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04Z",
	"2006-01-02 15:04",
	"2006-01-02",
}

// clockRe matches "3pm", "3:30 pm", "15:04".
var clockRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)

func (r *RuleResolver) Resolve(_ context.Context, phrase string, now time.Time) (time.Time, error) {
	text := strings.ToLower(strings.TrimSpace(phrase))
	if text == "" {
		return time.Time{}, ErrUnparseableTime
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(text)); err == nil {
			return t.UTC(), nil
		}
	}

	now = now.UTC()
	day := now.Truncate(24 * time.Hour)
	rest := text
	explicitDay := false

	switch {
	case strings.HasPrefix(text, "today"):
		rest = strings.TrimSpace(strings.TrimPrefix(text, "today"))
		explicitDay = true
	case strings.HasPrefix(text, "tomorrow"):
		day = day.AddDate(0, 0, 1)
		rest = strings.TrimSpace(strings.TrimPrefix(text, "tomorrow"))
		explicitDay = true
	}

	if rest == "" {
		if !explicitDay {
			return time.Time{}, ErrUnparseableTime
		}
		// Day word alone: default to 09:00.
		return day.Add(9 * time.Hour), nil
	}

	hour, minute, ok := parseClock(rest)
	if !ok {
		return time.Time{}, ErrUnparseableTime
	}

	resolved := day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)

	// A bare clock time that already passed means the next occurrence.
	if !explicitDay && !resolved.After(now) {
		resolved = resolved.AddDate(0, 0, 1)
	}

	return resolved, nil
}

func parseClock(text string) (hour, minute int, ok bool) {
	m := clockRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, 0, false
	}

	hour, _ = strconv.Atoi(m[1])
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, false
	}

	switch m[3] {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, false
		}
		if hour != 12 {
			hour += 12
		}
	default:
		// 24h clock; a bare "3" without am/pm is too ambiguous to accept
		// unless minutes were given ("15:04" style).
		if m[2] == "" {
			return 0, 0, false
		}
		if hour > 23 {
			return 0, 0, false
		}
	}

	return hour, minute, true
}
