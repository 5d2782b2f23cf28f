package domain_test

import (
	"testing"
	"time"

	"queuectl/internal/domain"
)

func TestEligible(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name  string
		state domain.State
		runAt *time.Time
		want  bool
	}{
		{"pending no run_at", domain.StatePending, nil, true},
		{"pending run_at passed", domain.StatePending, &past, true},
		{"pending run_at future", domain.StatePending, &future, false},
		{"pending run_at exactly now", domain.StatePending, &now, true},
		{"paused", domain.StatePaused, nil, false},
		{"processing", domain.StateProcessing, nil, false},
		{"completed", domain.StateCompleted, nil, false},
		{"dead", domain.StateDead, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := &domain.Job{State: tt.state, RunAt: tt.runAt}
			if got := j.Eligible(now); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
