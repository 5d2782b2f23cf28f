package sqliteq_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"queuectl/internal/domain"
	"queuectl/internal/infra/sqliteq"
	"queuectl/internal/testutil"
)

type jobOpt func(*domain.Job)

func withPriority(p int) jobOpt {
	return func(j *domain.Job) { j.Priority = p }
}

func withRunAt(t time.Time) jobOpt {
	return func(j *domain.Job) { j.RunAt = &t }
}

func withCreatedAt(t time.Time) jobOpt {
	return func(j *domain.Job) { j.CreatedAt = t }
}

func withState(s domain.State) jobOpt {
	return func(j *domain.Job) { j.State = s }
}

func newJob(id string, opts ...jobOpt) *domain.Job {
	now := time.Now().UTC()
	j := &domain.Job{
		ID:         id,
		Command:    "echo " + id,
		State:      domain.StatePending,
		MaxRetries: 3,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func mustEnqueue(t *testing.T, store *sqliteq.Store, job *domain.Job) {
	t.Helper()
	if err := store.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue %s: %v", job.ID, err)
	}
}

func TestEnqueueAndList(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("j1"))

	jobs, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	got := jobs[0]
	if got.ID != "j1" || got.State != domain.StatePending || got.Attempts != 0 {
		t.Errorf("got %+v, want pending j1 with attempts=0", got)
	}
}

func TestEnqueueDuplicateLeavesFirstIntact(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	first := newJob("j1")
	first.Command = "echo original"
	mustEnqueue(t, store, first)

	dup := newJob("j1")
	dup.Command = "echo impostor"
	err := store.Enqueue(ctx, dup)
	if !errors.Is(err, domain.ErrDuplicateJob) {
		t.Fatalf("duplicate enqueue: got %v, want ErrDuplicateJob", err)
	}

	got, err := store.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Command != "echo original" {
		t.Errorf("command changed to %q after failed duplicate", got.Command)
	}
}

func TestListFiltersByState(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("p1"))
	mustEnqueue(t, store, newJob("d1", withState(domain.StateDead)))

	pending, err := store.List(ctx, domain.StatePending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "p1" {
		t.Errorf("pending filter returned %+v, want only p1", pending)
	}

	all, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("got %d jobs unfiltered, want 2", len(all))
	}
}

func TestClaimNextReturnsPreClaimSnapshot(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("j1"))

	claimed, err := store.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil || claimed.ID != "j1" {
		t.Fatalf("claimed %+v, want j1", claimed)
	}
	if claimed.State != domain.StatePending {
		t.Errorf("snapshot state = %s, want the pre-claim pending", claimed.State)
	}

	stored, err := store.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.State != domain.StateProcessing {
		t.Errorf("stored state = %s, want processing", stored.State)
	}
}

func TestClaimNextEmptyQueue(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)

	job, err := store.ClaimNext(context.Background())
	if err != nil {
		t.Fatalf("claim on empty queue: %v", err)
	}
	if job != nil {
		t.Errorf("claimed %+v from an empty queue", job)
	}
}

func TestClaimNextOrdersByPriorityThenAge(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	mustEnqueue(t, store, newJob("low", withPriority(1), withCreatedAt(base)))
	mustEnqueue(t, store, newJob("high", withPriority(5), withCreatedAt(base.Add(time.Second))))
	mustEnqueue(t, store, newJob("high-late", withPriority(5), withCreatedAt(base.Add(2*time.Second))))

	var order []string
	for i := 0; i < 3; i++ {
		job, err := store.ClaimNext(ctx)
		if err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
		if job == nil {
			t.Fatalf("claim %d returned nothing", i)
		}
		order = append(order, job.ID)
	}
	want := []string{"high", "high-late", "low"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("claim order = %v, want %v", order, want)
		}
	}
}

func TestClaimNextSkipsFutureRunAt(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("later", withRunAt(time.Now().Add(time.Hour))))
	mustEnqueue(t, store, newJob("due", withRunAt(time.Now().Add(-time.Hour))))

	job, err := store.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if job == nil || job.ID != "due" {
		t.Fatalf("claimed %+v, want the due job", job)
	}

	job, err = store.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if job != nil {
		t.Errorf("claimed %s whose run_at is an hour away", job.ID)
	}
}

func TestClaimNextSkipsPaused(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("j1"))
	if err := store.Pause(ctx, "j1"); err != nil {
		t.Fatalf("pause: %v", err)
	}

	job, err := store.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if job != nil {
		t.Fatalf("claimed paused job %s", job.ID)
	}

	if err := store.Resume(ctx, "j1"); err != nil {
		t.Fatalf("resume: %v", err)
	}
	job, err = store.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim after resume: %v", err)
	}
	if job == nil || job.ID != "j1" {
		t.Fatalf("claimed %+v after resume, want j1", job)
	}
}

// Each pending job must be claimed exactly once no matter how many workers
// race for it.
func TestClaimNextConcurrentClaimersNeverShareAJob(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	const jobs = 20
	const claimers = 8
	for i := 0; i < jobs; i++ {
		mustEnqueue(t, store, newJob(string(rune('a'+i))))
	}

	var (
		mu      sync.Mutex
		claimed = make(map[string]int)
		wg      sync.WaitGroup
	)
	for w := 0; w < claimers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				job, err := store.ClaimNext(ctx)
				if errors.Is(err, domain.ErrContention) {
					continue
				}
				if err != nil {
					t.Errorf("claim: %v", err)
					return
				}
				if job == nil {
					return
				}
				mu.Lock()
				claimed[job.ID]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(claimed) != jobs {
		t.Fatalf("claimed %d distinct jobs, want %d", len(claimed), jobs)
	}
	for id, n := range claimed {
		if n != 1 {
			t.Errorf("job %s claimed %d times", id, n)
		}
	}
}

func TestSetStateOnMissingJobIsNotAnError(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)

	// cancelled mid-flight: the delete won, the worker's write is a no-op
	if err := store.SetState(context.Background(), "gone", domain.StateCompleted, 0); err != nil {
		t.Fatalf("set state on missing job: %v", err)
	}
}

func TestCountByState(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("p1"))
	mustEnqueue(t, store, newJob("p2"))
	mustEnqueue(t, store, newJob("d1", withState(domain.StateDead)))

	counts, err := store.CountByState(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, counts[domain.StatePending])
	require.Equal(t, 1, counts[domain.StateDead])
	require.Zero(t, counts[domain.StateProcessing])
}

func TestRetryDeadResetsAttempts(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	dead := newJob("d1", withState(domain.StateDead))
	dead.Attempts = 3
	mustEnqueue(t, store, dead)

	if err := store.RetryDead(ctx, "d1"); err != nil {
		t.Fatalf("retry dead: %v", err)
	}

	job, err := store.Get(ctx, "d1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.State != domain.StatePending || job.Attempts != 0 {
		t.Errorf("got state=%s attempts=%d, want pending with attempts=0", job.State, job.Attempts)
	}

	claimed, err := store.ClaimNext(ctx)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil || claimed.ID != "d1" {
		t.Errorf("retried job not claimable, got %+v", claimed)
	}
}

func TestRetryDeadRequiresDeadState(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("p1"))

	if err := store.RetryDead(ctx, "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("retry on pending job: got %v, want ErrNotFound", err)
	}
	if err := store.RetryDead(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("retry on missing job: got %v, want ErrNotFound", err)
	}
}

func TestPurgeDead(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("d1", withState(domain.StateDead)))
	mustEnqueue(t, store, newJob("d2", withState(domain.StateDead)))
	mustEnqueue(t, store, newJob("p1"))

	n, err := store.PurgeDead(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 2 {
		t.Errorf("purged %d, want 2", n)
	}

	jobs, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != "p1" {
		t.Errorf("survivors = %+v, want only p1", jobs)
	}
}

func TestListDeadNewestFirst(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("old", withState(domain.StateDead)))
	time.Sleep(5 * time.Millisecond)
	mustEnqueue(t, store, newJob("fresh", withState(domain.StateDead)))

	jobs, err := store.ListDead(ctx)
	if err != nil {
		t.Fatalf("list dead: %v", err)
	}
	require.Len(t, jobs, 2)
	require.Equal(t, "fresh", jobs[0].ID)
	require.Equal(t, "old", jobs[1].ID)
}

func TestPauseOverridesProcessing(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("j1"))
	if _, err := store.ClaimNext(ctx); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := store.Pause(ctx, "j1"); err != nil {
		t.Fatalf("pause processing job: %v", err)
	}
	job, err := store.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.State != domain.StatePaused {
		t.Errorf("state = %s, want paused", job.State)
	}
}

func TestResumeRequiresPaused(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("p1"))

	if err := store.Resume(ctx, "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("resume on pending job: got %v, want ErrNotFound", err)
	}
}

func TestCancelRemovesAllTrace(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	mustEnqueue(t, store, newJob("j1"))
	if err := store.Cancel(ctx, "j1"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := store.Get(ctx, "j1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after cancel: got %v, want ErrNotFound", err)
	}
	jobs, err := store.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("list after cancel = %+v, want empty", jobs)
	}
	counts, err := store.CountByState(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("counts after cancel = %v, want empty", counts)
	}

	if err := store.Cancel(ctx, "j1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second cancel: got %v, want ErrNotFound", err)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	t.Parallel()
	store := testutil.NewStore(t)
	ctx := context.Background()

	_, ok, err := store.GetConfig(ctx, "max_retries")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetConfig(ctx, "max_retries", "5"))
	require.NoError(t, store.SetConfig(ctx, "max_retries", "7")) // upsert overwrites

	v, ok, err := store.GetConfig(ctx, "max_retries")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "7", v)

	require.NoError(t, store.SetConfig(ctx, "backoff_base", "3"))
	all, err := store.AllConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"max_retries": "7", "backoff_base": "3"}, all)
}
