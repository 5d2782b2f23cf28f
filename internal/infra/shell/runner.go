// Package shell runs job commands through a command interpreter. Commands
// are opaque shell strings executed with full shell semantics on purpose;
// arbitrary command execution is the queue's documented capability, and the
// interpreter is the single knob controlling it.
package shell

import (
	"bytes"
	"errors"
	"os/exec"
	"time"

	"github.com/rs/zerolog/log"

	"queuectl/internal/domain"
	"queuectl/internal/ports"
)

// launchFailure is the exit code reported when the command could not be
// started at all, as opposed to running and exiting non-zero.
const launchFailure = -1

type Runner struct {
	interpreter string
	logs        ports.LogSink
}

// NewRunner builds a runner that executes commands as `interpreter -c cmd`
// and appends every attempt's output to logs. interpreter defaults to sh.
func NewRunner(interpreter string, logs ports.LogSink) *Runner {
	if interpreter == "" {
		interpreter = "sh"
	}
	return &Runner{interpreter: interpreter, logs: logs}
}

// Run executes job.Command synchronously, capturing stdout and stderr in
// full. The outcome is always a value: a command that cannot launch reports
// (false, -1) with the reason in the job's log. Run takes no context by
// design — shutdown waits for an in-flight command rather than killing it.
func (r *Runner) Run(job *domain.Job) (bool, int) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(r.interpreter, "-c", job.Command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		r.append(job.ID, stdout.Bytes(), stderr.Bytes())
		return true, 0
	case errors.As(err, &exitErr):
		r.append(job.ID, stdout.Bytes(), stderr.Bytes())
		return false, exitErr.ExitCode()
	default:
		// never started; the captured streams are empty, so record the
		// launch error where the command's stderr would have gone
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to launch command")
		r.append(job.ID, nil, []byte(err.Error()))
		return false, launchFailure
	}
}

func (r *Runner) append(jobID string, stdout, stderr []byte) {
	if err := r.logs.Append(jobID, stdout, stderr, time.Now().UTC()); err != nil {
		log.Error().Err(err).Str("job_id", jobID).Msg("failed to write job log")
	}
}
