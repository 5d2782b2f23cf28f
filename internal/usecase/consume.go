package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"queuectl/internal/domain"
	"queuectl/internal/metrics"
	"queuectl/internal/ports"
	"queuectl/pkg/backoff"
)

// Consumer is one worker's claim-execute-transition loop. Concurrency across
// consumers is coordinated entirely by the store's claim transaction; the
// loop itself holds no locks and shares nothing with its siblings.
type Consumer struct {
	Store        ports.Store
	Runner       ports.Runner
	Settings     Settings
	PollInterval time.Duration
	Log          zerolog.Logger
}

// Run polls for jobs until ctx is cancelled. Cancellation is observed at
// the top of the loop and inside every sleep; an in-flight
// claim-execute-transition cycle always finishes first, so the shutdown
// path never leaves a job in processing.
func (c Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		job, err := c.Store.ClaimNext(ctx)
		if err != nil {
			if !errors.Is(err, domain.ErrContention) {
				c.Log.Error().Err(err).Msg("claim failed")
			}
			// contended or broken, either way: no job this round
			if err := backoff.Wait(ctx, c.PollInterval); err != nil {
				return err
			}
			continue
		}
		if job == nil {
			if err := backoff.Wait(ctx, c.PollInterval); err != nil {
				return err
			}
			continue
		}

		metrics.JobsClaimed.Inc()
		c.Log.Info().Str("job_id", job.ID).Int("priority", job.Priority).Msg("picked job")

		ok, exitCode := c.Runner.Run(job)
		if ok {
			metrics.JobsCompleted.Inc()
			c.Log.Info().Str("job_id", job.ID).Msg("job completed")
			// the transition must land even when shutdown began mid-execution
			if err := c.Store.SetState(context.WithoutCancel(ctx), job.ID, domain.StateCompleted, job.Attempts); err != nil {
				c.Log.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist completion")
			}
			continue
		}

		if err := c.fail(ctx, job, exitCode); err != nil {
			return err
		}
	}
}

// fail applies the retry policy to a failed attempt: requeue with the
// worker self-delaying base^attempts seconds, or move the job to the DLQ
// once the ceiling is reached. The state write must land even when shutdown
// has begun, so it runs on a detached context; only the backoff sleep
// observes cancellation. The returned error is non-nil only when that sleep
// was interrupted.
func (c Consumer) fail(ctx context.Context, job *domain.Job, exitCode int) error {
	store := context.WithoutCancel(ctx)
	newAttempts := job.Attempts + 1
	ceiling := job.MaxRetries
	if ceiling == 0 {
		ceiling = c.Settings.MaxRetries
	}
	if ceiling == 0 {
		ceiling = domain.DefaultMaxRetries
	}

	if newAttempts >= ceiling {
		metrics.JobsDead.Inc()
		c.Log.Warn().Str("job_id", job.ID).Int("attempts", newAttempts).Int("exit_code", exitCode).
			Msg("job permanently failed, moved to DLQ")
		if err := c.Store.SetState(store, job.ID, domain.StateDead, newAttempts); err != nil {
			c.Log.Error().Err(err).Str("job_id", job.ID).Msg("failed to persist dead state")
		}
		return nil
	}

	metrics.JobsRetried.Inc()
	delay := backoff.Delay(c.Settings.BackoffBase, newAttempts)
	c.Log.Warn().Str("job_id", job.ID).Int("attempts", newAttempts).Int("exit_code", exitCode).
		Dur("delay", delay).Msg("job failed, retrying")
	if err := c.Store.SetState(store, job.ID, domain.StatePending, newAttempts); err != nil {
		c.Log.Error().Err(err).Str("job_id", job.ID).Msg("failed to requeue job")
	}
	// delay this worker only; other workers remain free to claim the job
	return backoff.Wait(ctx, delay)
}
