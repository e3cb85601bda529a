package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"teleconsult/shared/timezone"
)

// Runner triggers a sweep on every tick until its context is cancelled.
type Runner struct {
	reminder Reminder
	interval time.Duration
	now      func() time.Time
}

func NewRunner(reminder Reminder, interval time.Duration) *Runner {
	return &Runner{reminder: reminder, interval: interval, now: timezone.Now}
}

func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", r.interval).Msg("reminder runner started")

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("reminder runner stopped")

			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if _, err := r.reminder.Sweep(ctx, r.now()); err != nil {
		log.Error().Err(err).Msg("reminder sweep failed")
	}
}
