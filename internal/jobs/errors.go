package jobs

import (
	"errors"
	"fmt"
)

var (
	// ErrJobNotFound is returned when the Registry has no record for the
	// given job ID. Expected for IDs that were never submitted; not an
	// exceptional failure.
	ErrJobNotFound = errors.New("job not found")

	// ErrScriptNotFound is returned when the script for a job name does not
	// exist on disk.
	ErrScriptNotFound = errors.New("job script not found")

	// ErrResultMissing is returned when a job reports SUCCEEDED but the
	// expected result file is absent. This is an orchestrator-level
	// inconsistency, distinct from "not completed": the external job claimed
	// success but produced no artifact.
	ErrResultMissing = errors.New("job succeeded but result file not found")

	// ErrInvalidTimeout is returned when a submission carries a negative
	// timeout. A zero timeout means "use the default".
	ErrInvalidTimeout = errors.New("timeout_seconds must be positive")
)

// UnsupportedJobTypeError is returned when a submission names a job type
// other than "prebuilt".
type UnsupportedJobTypeError struct {
	Type string
}

func (e UnsupportedJobTypeError) Error() string {
	return fmt.Sprintf("only prebuilt jobs are supported, got job type %q", e.Type)
}

// UnknownJobError is returned when a submission names a prebuilt job that is
// not on the allow-list.
type UnknownJobError struct {
	Name string
}

func (e UnknownJobError) Error() string {
	return fmt.Sprintf("unknown prebuilt job: %q", e.Name)
}

// NotCompletedError is returned when the result of a non-SUCCEEDED job is
// requested. It carries the job's current status so callers can distinguish
// "still running" from "failed".
type NotCompletedError struct {
	Status Status
}

func (e NotCompletedError) Error() string {
	return fmt.Sprintf("job not completed, status: %s", e.Status)
}

// LaunchError is returned by Submit when the external process could not be
// started. The job record already exists and has been finalized as FAILED by
// the time the caller sees this error.
type LaunchError struct {
	JobID string
	Err   error
}

func (e LaunchError) Error() string {
	return fmt.Sprintf("failed to start job process for %s: %v", e.JobID, e.Err)
}

func (e LaunchError) Unwrap() error {
	return e.Err
}
