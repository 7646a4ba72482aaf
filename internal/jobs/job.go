package jobs

import (
	"maps"
	"time"
)

// Status is the lifecycle state of a Job. It advances monotonically from
// StatusPending and never regresses; the three terminal states have no
// outgoing transitions.
type Status int

const (
	// StatusPending indicates the Job record has been created but the
	// external process has not started yet. It is the only initial state.
	StatusPending Status = iota

	// StatusRunning indicates the external process was started successfully
	// and has not yet reached a terminal outcome.
	StatusRunning

	// StatusSucceeded indicates the external process exited with code 0.
	StatusSucceeded

	// StatusFailed indicates the external process exited non-zero, or the
	// launch itself failed before the process ever ran.
	StatusFailed

	// StatusTimedOut indicates the process exceeded its timeout and was
	// terminated by the supervisor.
	StatusTimedOut
)

// NOTE: This slice needs to be kept in sync with any changes to the Status
// values. The string forms are the wire representation used at the API
// boundary and in the client; internal transition logic only ever compares
// the typed values.
var statusNames = []string{
	"PENDING",
	"RUNNING",
	"SUCCEEDED",
	"FAILED",
	"TIMED_OUT",
}

// String implements the Stringer interface for Status.
func (s Status) String() string {
	if int(s) < 0 || int(s) >= len(statusNames) {
		return "UNKNOWN"
	}

	return statusNames[s]
}

// Terminal reports whether no further transitions can occur from s.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusTimedOut
}

// Job is the record kept in the Registry for one submitted execution.
//
// ID is generated at submission and never changes; LogFile and ResultFile
// are derived from it (see paths.go) at creation time and never change
// afterward. StartedAt is set when the process is launched, FinishedAt
// exactly once when the job reaches a terminal status, and ExitCode only on
// terminal statuses (0 for success, the real code for failure, a synthetic
// code for timeouts and launch errors where no process exit code exists).
type Job struct {
	ID             string
	Name           string
	Type           string
	TimeoutSeconds int

	Status     Status
	StartedAt  *time.Time
	FinishedAt *time.Time
	ExitCode   *int

	Inputs     map[string]string
	OutputPath string
	LogFile    string
	ResultFile string
}

// clone returns a deep copy of the Job so callers outside the Registry lock
// never observe partial mutations.
func (j *Job) clone() Job {
	c := *j
	c.Inputs = maps.Clone(j.Inputs)

	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}

	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}

	if j.ExitCode != nil {
		code := *j.ExitCode
		c.ExitCode = &code
	}

	return c
}
