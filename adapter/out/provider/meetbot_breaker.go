package provider

import (
	"errors"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/pkg/logger"

	"github.com/sony/gobreaker"
)

// meetingBreaker shields each provider API behind a circuit breaker so a
// flapping remote fails fast instead of stalling every dialog turn.
type meetingBreaker struct {
	cb *gobreaker.CircuitBreaker
}

func newMeetingBreaker(name string) *meetingBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    60 * time.Second, // counter reset while closed
		Timeout:     30 * time.Second, // open duration before half-open
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		IsSuccessful: func(err error) bool {
			// Missing authorization is the user's state, not remote health.
			return err == nil || errors.Is(err, domain.ErrNotAuthorized)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("[CircuitBreaker] %s: state changed from %s to %s", name, from.String(), to.String())
		},
	}

	return &meetingBreaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *meetingBreaker) execute(fn func() (string, error)) (string, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
