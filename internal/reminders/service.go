// Package reminders schedules recurring wellness check-ins.
package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

// NotifyFunc delivers one check-in message. Wired to the orchestrator's text
// turn in the server; the message is silently dropped when no session is live.
type NotifyFunc func(ctx context.Context, message string) error

// Service fires a configured message on a cron schedule.
type Service struct {
	schedule string
	message  string
	notify   NotifyFunc

	cron *robfigcron.Cron
}

// NewService creates a reminder service. schedule is a standard 5-field cron
// expression.
func NewService(schedule, message string, notify NotifyFunc) *Service {
	return &Service{
		schedule: schedule,
		message:  message,
		notify:   notify,
		cron:     robfigcron.New(),
	}
}

// Start validates the schedule and arms it, then blocks until ctx is
// cancelled.
func (s *Service) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.schedule, func() { s.fire(ctx) })
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	slog.Info("reminder service started", "schedule", s.schedule)

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		slog.Warn("reminder job still running at shutdown")
	}
	return ctx.Err()
}

func (s *Service) fire(ctx context.Context) {
	slog.Info("reminder fired", "message", s.message)
	if err := s.notify(ctx, s.message); err != nil {
		slog.Warn("reminder delivery failed", "err", err)
	}
}

// NextRun returns when the schedule would next fire after now. Used by the
// status command; returns a zero time if the service is not started.
func (s *Service) NextRun(now time.Time) (time.Time, error) {
	sched, err := robfigcron.ParseStandard(s.schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reminder schedule %q: %w", s.schedule, err)
	}
	return sched.Next(now), nil
}
