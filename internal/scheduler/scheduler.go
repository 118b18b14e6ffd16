// Package scheduler runs the periodic party hall reminder job.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ReminderSender sends the reminders due now and reports how many went out.
type ReminderSender interface {
	SendDueReminders(ctx context.Context) (int, error)
}

type Scheduler struct {
	c       *cron.Cron
	sender  ReminderSender
	timeout time.Duration
}

var parser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New registers the reminder job on spec, evaluated in the named timezone.
// An unknown timezone falls back to UTC.
func New(spec, timezone string, sender ReminderSender) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", timezone).Msg("unknown timezone, using UTC")
		loc = time.UTC
	}

	logger := cronLogger{l: log.With().Str("component", "scheduler").Logger()}
	s := &Scheduler{
		c: cron.New(
			cron.WithParser(parser),
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		sender:  sender,
		timeout: 10 * time.Minute,
	}
	if _, err := s.c.AddFunc(spec, s.runReminders); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) runReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.sender.SendDueReminders(ctx)
	if err != nil {
		log.Error().Err(err).Int("sent", n).Msg("party hall reminders failed")
		return
	}
	log.Info().Int("sent", n).Dur("took", time.Since(start)).Msg("party hall reminders sent")
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	l zerolog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
