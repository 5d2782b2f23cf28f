package domain

import "time"

type State string

const (
	StatePending    State = "pending"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateDead       State = "dead"
	StatePaused     State = "paused"
)

// States lists every state a status summary reports, in display order.
var States = []State{StatePending, StateProcessing, StateCompleted, StateFailed, StateDead, StatePaused}

const (
	DefaultMaxRetries  = 3
	DefaultBackoffBase = 2
)

// Config table keys read by workers at startup.
const (
	ConfigMaxRetries  = "max_retries"
	ConfigBackoffBase = "backoff_base"
)

type Job struct {
	ID         string     `json:"id"`
	Command    string     `json:"command"`
	State      State      `json:"state"`
	Attempts   int        `json:"attempts"`
	MaxRetries int        `json:"max_retries"`
	Priority   int        `json:"priority"`
	RunAt      *time.Time `json:"run_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Eligible reports whether the job could be returned by a claim at time now.
func (j *Job) Eligible(now time.Time) bool {
	if j.State != StatePending {
		return false
	}
	return j.RunAt == nil || !j.RunAt.After(now)
}
