package sqliteq

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"queuectl/internal/domain"
)

const nextEligibleSQL = `
SELECT ` + jobColumns + `
FROM jobs
WHERE state = 'pending'
  AND (run_at IS NULL OR run_at <= ?)
ORDER BY priority DESC, created_at ASC
LIMIT 1`

// ClaimNext atomically picks the next eligible pending job and marks it
// processing. The transaction opens in immediate mode, so the database lock
// is held for the whole select-then-update: two concurrent claims can never
// pick the same row. Returns (nil, nil) when the queue has no eligible job,
// and domain.ErrContention when the lock could not be acquired within the
// busy timeout. The returned snapshot is the job as it was before the claim,
// so Attempts still counts only finished executions.
func (s *Store) ClaimNext(ctx context.Context) (*domain.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		if isBusyErr(err) {
			return nil, fmt.Errorf("claim: %w", domain.ErrContention)
		}
		return nil, fmt.Errorf("claim: begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, nextEligibleSQL, time.Now().UnixNano())
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if isBusyErr(err) {
			return nil, fmt.Errorf("claim: %w", domain.ErrContention)
		}
		return nil, fmt.Errorf("claim: select: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE jobs SET state = ?, updated_at = ? WHERE id = ?`,
		string(domain.StateProcessing), time.Now().UnixNano(), job.ID,
	)
	if err != nil {
		if isBusyErr(err) {
			return nil, fmt.Errorf("claim: %w", domain.ErrContention)
		}
		return nil, fmt.Errorf("claim %s: %w", job.ID, err)
	}
	if err := tx.Commit(); err != nil {
		if isBusyErr(err) {
			return nil, fmt.Errorf("claim: %w", domain.ErrContention)
		}
		return nil, fmt.Errorf("claim %s: commit: %w", job.ID, err)
	}
	return job, nil
}
