package sqliteq

import (
	"context"
	"fmt"
	"time"

	"queuectl/internal/domain"
)

// RetryDead moves a dead job back to pending with attempts reset, making it
// claimable again. Returns domain.ErrNotFound when id is absent or the job
// is not dead.
func (s *Store) RetryDead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, attempts = 0, updated_at = ? WHERE id = ? AND state = ?`,
		string(domain.StatePending), time.Now().UnixNano(), id, string(domain.StateDead),
	)
	if err != nil {
		return fmt.Errorf("retry dead %s: %w", id, err)
	}
	return requireRow(res, id)
}

// PurgeDead deletes every dead job and returns how many were removed.
func (s *Store) PurgeDead(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE state = ?`, string(domain.StateDead))
	if err != nil {
		return 0, fmt.Errorf("purge dead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge dead: %w", err)
	}
	return n, nil
}

// Pause sets state=paused regardless of the current state, even processing.
// An in-flight execution finishing later overwrites the pause; last writer
// wins on updated_at.
func (s *Store) Pause(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, updated_at = ? WHERE id = ?`,
		string(domain.StatePaused), time.Now().UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("pause %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Resume sets state=pending only when the job is currently paused.
func (s *Store) Resume(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET state = ?, updated_at = ? WHERE id = ? AND state = ?`,
		string(domain.StatePending), time.Now().UnixNano(), id, string(domain.StatePaused),
	)
	if err != nil {
		return fmt.Errorf("resume %s: %w", id, err)
	}
	return requireRow(res, id)
}

// Cancel deletes the job row regardless of state.
func (s *Store) Cancel(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("cancel %s: %w", id, err)
	}
	return requireRow(res, id)
}

func requireRow(res interface{ RowsAffected() (int64, error) }, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("job %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
