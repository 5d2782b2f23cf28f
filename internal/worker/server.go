package worker

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"queuectl/internal/metrics"
	"queuectl/internal/ports"
	"queuectl/internal/usecase"
)

type Config struct {
	Count        int
	PollInterval time.Duration
}

// Run starts cfg.Count consumer loops against store and blocks until every
// one has exited after SIGINT/SIGTERM. The signal is translated into a
// cancelled context here, once; the consumers only ever see the context.
// Queue settings are snapshotted before the first consumer starts, so a
// config change made while workers run does not affect them.
func Run(ctx context.Context, cfg Config, store ports.Store, runner ports.Runner) error {
	if cfg.Count < 1 {
		cfg.Count = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := usecase.LoadSettings(ctx, store)
	if err != nil {
		return err
	}
	log.Info().Int("count", cfg.Count).Int("max_retries", settings.MaxRetries).
		Int("backoff_base", settings.BackoffBase).Msg("starting workers")

	var wg sync.WaitGroup
	for i := 1; i <= cfg.Count; i++ {
		consumer := usecase.Consumer{
			Store:        store,
			Runner:       runner,
			Settings:     settings,
			PollInterval: cfg.PollInterval,
			Log:          log.With().Int("worker", i).Logger(),
		}
		wg.Add(1)
		metrics.WorkersRunning.Inc()
		go func() {
			defer wg.Done()
			defer metrics.WorkersRunning.Dec()
			consumer.Log.Info().Msg("worker started")
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				consumer.Log.Error().Err(err).Msg("worker stopped with error")
				return
			}
			consumer.Log.Info().Msg("worker stopped gracefully")
		}()
	}

	wg.Wait()
	return nil
}
