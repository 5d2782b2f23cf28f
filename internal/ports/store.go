package ports

import (
	"context"
	"time"

	"queuectl/internal/domain"
)

// Store is the durable job table plus the named-settings table. All
// mutations are row-atomic and visible to other connections on commit.
type Store interface {
	// Enqueue durably creates job. Returns domain.ErrDuplicateJob when a job
	// with the same id already exists; nothing is written in that case.
	Enqueue(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	// List returns jobs in creation order, filtered to state when state is
	// non-empty.
	List(ctx context.Context, state domain.State) ([]domain.Job, error)
	CountByState(ctx context.Context) (map[domain.State]int, error)

	// ClaimNext atomically marks the next eligible pending job as processing
	// and returns its pre-claim snapshot. Returns (nil, nil) when no job is
	// eligible, and domain.ErrContention when the write transaction could not
	// be acquired within the busy timeout.
	ClaimNext(ctx context.Context) (*domain.Job, error)
	// SetState persists the post-execution transition for id, refreshing
	// updated_at. Updating a row that no longer exists is not an error: the
	// job may have been cancelled while it ran.
	SetState(ctx context.Context, id string, state domain.State, attempts int) error

	// ListDead returns dead jobs, newest updated_at first.
	ListDead(ctx context.Context) ([]domain.Job, error)
	// RetryDead moves a dead job back to pending with attempts reset to 0.
	// Returns domain.ErrNotFound when id is absent or not dead.
	RetryDead(ctx context.Context, id string) error
	// PurgeDead deletes every dead job and returns how many were removed.
	PurgeDead(ctx context.Context) (int64, error)
	// Pause sets state=paused regardless of the current state.
	Pause(ctx context.Context, id string) error
	// Resume sets state=pending only when the job is paused; otherwise it
	// returns domain.ErrNotFound.
	Resume(ctx context.Context, id string) error
	// Cancel deletes the job row regardless of state.
	Cancel(ctx context.Context, id string) error

	GetConfig(ctx context.Context, key string) (string, bool, error)
	SetConfig(ctx context.Context, key, value string) error
	AllConfig(ctx context.Context) (map[string]string, error)
}

// LogSink durably records execution output addressable by job id,
// append-only, one record per execution attempt.
type LogSink interface {
	Append(jobID string, stdout, stderr []byte, at time.Time) error
}

// Runner executes a job's command and reports the outcome. Run never
// returns an error: a failure to launch the command is reported as
// ok=false with exit code -1. Implementations do not take a context on
// purpose — shutdown waits for the in-flight command, it never kills it.
type Runner interface {
	Run(job *domain.Job) (ok bool, exitCode int)
}
