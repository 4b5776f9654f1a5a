// Package reminder runs the daily birthday broadcast. It shares nothing with
// the conversation engine except the record store it reads.
package reminder

import (
	"context"
	"fmt"
	"os"
	"time"

	"meetbot_server/core/domain"
	"meetbot_server/core/port/out"

	"github.com/rs/zerolog"
)

// Service queries the birthday store once a day and greets everyone whose
// day-month matches today in the configured timezone.
type Service struct {
	birthdays out.BirthdayRepository
	messenger out.Messenger
	hour      int
	location  *time.Location
	log       zerolog.Logger
}

// NewService creates the scheduler. An unknown timezone falls back to UTC.
func NewService(birthdays out.BirthdayRepository, messenger out.Messenger, hour int, timezone string) *Service {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	return &Service{
		birthdays: birthdays,
		messenger: messenger,
		hour:      hour,
		location:  loc,
		log:       zerolog.New(os.Stdout).With().Timestamp().Str("component", "reminder").Logger(),
	}
}

// Run blocks until ctx is cancelled, firing once per day at the configured
// hour.
func (s *Service) Run(ctx context.Context) {
	s.log.Info().Int("hour", s.hour).Str("tz", s.location.String()).Msg("birthday scheduler started")

	for {
		next := s.nextRun(time.Now().In(s.location))
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("birthday scheduler stopped")
			return
		case now := <-timer.C:
			if sent, err := s.SendDue(ctx, now.In(s.location)); err != nil {
				s.log.Error().Err(err).Msg("birthday broadcast failed")
			} else if sent > 0 {
				s.log.Info().Int("sent", sent).Msg("birthday reminders delivered")
			}
		}
	}
}

// SendDue delivers greetings for every record due on the given day and
// returns how many went out. Individual send failures are logged and skipped
// so one bad number never blocks the rest.
func (s *Service) SendDue(ctx context.Context, day time.Time) (int, error) {
	records, err := s.birthdays.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list birthdays: %w", err)
	}

	sent := 0
	for _, b := range records {
		if !b.DueOn(day) {
			continue
		}

		to := domain.NormalizeUserID(b.Phone)
		body := fmt.Sprintf("🎉 Happy Birthday %s! 🥳 Wishing you a fantastic year ahead!", b.Name)
		if err := s.messenger.SendWhatsApp(ctx, to, body); err != nil {
			s.log.Warn().Err(err).Str("name", b.Name).Msg("reminder send failed")
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Service) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, s.location)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
