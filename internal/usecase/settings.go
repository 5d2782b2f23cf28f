package usecase

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"queuectl/internal/domain"
	"queuectl/internal/ports"
)

// Settings is a worker's snapshot of the durable queue configuration. It is
// taken once at startup; later config changes only reach workers started
// after them.
type Settings struct {
	// MaxRetries is the attempt ceiling for jobs that do not carry their own.
	MaxRetries int
	// BackoffBase is the base of the exponential retry delay, in seconds.
	BackoffBase int
}

// LoadSettings reads the queue configuration, falling back to the defaults
// for missing or non-integer values.
func LoadSettings(ctx context.Context, store ports.Store) (Settings, error) {
	maxRetries, err := intSetting(ctx, store, domain.ConfigMaxRetries, domain.DefaultMaxRetries)
	if err != nil {
		return Settings{}, err
	}
	backoffBase, err := intSetting(ctx, store, domain.ConfigBackoffBase, domain.DefaultBackoffBase)
	if err != nil {
		return Settings{}, err
	}
	return Settings{MaxRetries: maxRetries, BackoffBase: backoffBase}, nil
}

func intSetting(ctx context.Context, store ports.Store, key string, def int) (int, error) {
	raw, ok, err := store.GetConfig(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("key", key).Str("value", raw).Int("default", def).
			Msg("config value is not an integer, using default")
		return def, nil
	}
	return n, nil
}
