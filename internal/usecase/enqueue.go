package usecase

import (
	"context"
	"fmt"
	"time"

	"queuectl/internal/domain"
	"queuectl/internal/ports"
)

// Descriptor is the caller-supplied shape of a new job, shared by the CLI's
// JSON argument and the HTTP enqueue body.
type Descriptor struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	// MaxRetries nil means "use the default of 3"; an explicit 0 defers to
	// the global max_retries config at execution time.
	MaxRetries *int   `json:"max_retries,omitempty"`
	Priority   int    `json:"priority,omitempty"`
	RunAt      string `json:"run_at,omitempty"`
}

type Enqueuer struct {
	Store ports.Store
}

// Enqueue validates d, builds the job, and durably creates it in pending.
// Validation failures reject the descriptor before any mutation.
func (e Enqueuer) Enqueue(ctx context.Context, d Descriptor) (*domain.Job, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("job must include an id: %w", domain.ErrValidation)
	}
	if d.Command == "" {
		return nil, fmt.Errorf("job must include a command: %w", domain.ErrValidation)
	}

	var runAt *time.Time
	if d.RunAt != "" {
		t, err := time.Parse(time.RFC3339, d.RunAt)
		if err != nil {
			return nil, fmt.Errorf("run_at %q is not an RFC3339 timestamp: %w", d.RunAt, domain.ErrValidation)
		}
		runAt = &t
	}

	maxRetries := domain.DefaultMaxRetries
	if d.MaxRetries != nil {
		if *d.MaxRetries < 0 {
			return nil, fmt.Errorf("max_retries must not be negative: %w", domain.ErrValidation)
		}
		maxRetries = *d.MaxRetries
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:         d.ID,
		Command:    d.Command,
		State:      domain.StatePending,
		Attempts:   0,
		MaxRetries: maxRetries,
		Priority:   d.Priority,
		RunAt:      runAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.Store.Enqueue(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}
