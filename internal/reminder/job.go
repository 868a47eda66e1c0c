// Package reminder wires the daily "collection today" announcement onto
// fixed wall-clock triggers.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"waste-collection-backend/internal/recurrence"
)

// Notifier is the orchestration entry point the job invokes. It never
// returns an error; see the schedule package.
type Notifier interface {
	NotifyTodaysSchedules(ctx context.Context) int
}

// Job runs one reminder pass under a time budget. It is safe to fire more
// than once a day; residents just get the reminder again.
type Job struct {
	notifier Notifier
	budget   time.Duration
	log      zerolog.Logger
}

// NewJob creates a reminder job with the given per-run time budget.
func NewJob(notifier Notifier, budget time.Duration, log zerolog.Logger) *Job {
	if budget <= 0 {
		budget = 2 * time.Minute
	}
	return &Job{
		notifier: notifier,
		budget:   budget,
		log:      log.With().Str("component", "reminder").Logger(),
	}
}

// Run satisfies cron.Job. A cron trigger must never take down its host, so
// the pass is wrapped in a recover and a deadline: on timeout the remaining
// zones are abandoned until the next trigger.
func (j *Job) Run() {
	defer func() {
		if r := recover(); r != nil {
			j.log.Error().Interface("panic", r).Msg("reminder run panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), j.budget)
	defer cancel()

	start := time.Now()
	announced := j.notifier.NotifyTodaysSchedules(ctx)

	if ctx.Err() != nil {
		j.log.Warn().Dur("budget", j.budget).Int("announced", announced).Msg("reminder run aborted on time budget")
		return
	}
	j.log.Info().Int("announced", announced).Dur("took", time.Since(start)).Msg("reminder run complete")
}

// CronSpec converts an "HH:MM" trigger time to a 5-field cron spec.
func CronSpec(clock string) (string, error) {
	hour, minute, err := recurrence.ParseClock(clock)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// Register adds one cron entry per configured trigger time.
func Register(c *cron.Cron, times []string, job *Job) error {
	for _, clock := range times {
		spec, err := CronSpec(clock)
		if err != nil {
			return fmt.Errorf("reminder time %q: %w", clock, err)
		}
		if _, err := c.AddJob(spec, job); err != nil {
			return fmt.Errorf("register reminder at %q: %w", clock, err)
		}
	}
	return nil
}
