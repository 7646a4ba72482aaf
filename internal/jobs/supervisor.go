package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// syntheticFailureExitCode is recorded for orchestrator-detected failures
// (timeout, launch error) where no real process exit code exists.
const syntheticFailureExitCode = 1

// Supervisor reconciles every actively-tracked process handle with the
// Registry on a fixed interval, applying the lifecycle transition rules and
// retiring handles once their job reaches a terminal status.
//
// A handle is tracked if and only if its job is RUNNING: submission tracks a
// handle right after marking the job RUNNING, and the reconciliation pass
// untracks it in the same step that finalizes the record.
type Supervisor struct {
	registry *Registry
	logger   *zap.Logger
	interval time.Duration
	grace    time.Duration

	mu      sync.Mutex
	handles map[string]Handle
}

// NewSupervisor creates a Supervisor polling at the given interval and
// allowing terminated processes the given grace period before a forceful
// kill.
func NewSupervisor(
	registry *Registry,
	logger *zap.Logger,
	interval time.Duration,
	grace time.Duration,
) *Supervisor {
	return &Supervisor{
		registry: registry,
		logger:   logger,
		interval: interval,
		grace:    grace,
		handles:  make(map[string]Handle),
	}
}

// Track registers the process handle for a RUNNING job so the next
// reconciliation pass picks it up.
func (s *Supervisor) Track(id string, h Handle) {
	s.mu.Lock()
	s.handles[id] = h
	s.mu.Unlock()
}

// Tracked returns the number of handles currently under supervision, i.e.
// the number of RUNNING jobs.
func (s *Supervisor) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.handles)
}

// Run executes reconciliation passes until ctx is cancelled. It never
// returns an error from an individual job: per-job failures are absorbed
// into that job's terminal state so one bad job cannot crash the loop or
// block the others.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.reconcile(time.Now())
		}
	}
}

// reconcile performs one pass over a snapshot of the tracked job IDs. The
// snapshot tolerates concurrent Track calls from submissions; new handles
// are simply picked up on the next tick.
func (s *Supervisor) reconcile(now time.Time) {
	for _, id := range s.trackedIDs() {
		h, tracked := s.handle(id)
		job, found := s.registry.Get(id)

		// Defensive cleanup: a tracking entry with no handle or no record
		// cannot be reconciled and is dropped.
		if !tracked || !found {
			s.untrack(id)
			continue
		}

		out, terminal := s.evaluate(h, job, now)
		if !terminal {
			continue
		}

		s.registry.Update(id, func(j *Job) {
			if j.Status.Terminal() {
				return
			}

			code := out.exitCode
			finished := time.Now()

			j.Status = out.status
			j.ExitCode = &code
			j.FinishedAt = &finished
		})

		s.untrack(id)

		s.logger.Info("job finished",
			zap.String("job_id", id),
			zap.Stringer("status", out.status),
			zap.Int("exit_code", out.exitCode),
		)
	}
}

// outcome is a terminal transition decision for one running job.
type outcome struct {
	status   Status
	exitCode int
}

// evaluate applies the transition rules for a RUNNING job, in precedence
// order: a completed exit wins over an elapsed timeout in the same tick, so
// a process that finishes just as its deadline passes is recorded by its
// real exit code. It returns terminal=false when the job should simply keep
// running.
func (s *Supervisor) evaluate(h Handle, job Job, now time.Time) (out outcome, terminal bool) {
	if code, exited := h.Poll(); exited {
		if code == 0 {
			return outcome{status: StatusSucceeded, exitCode: 0}, true
		}

		return outcome{status: StatusFailed, exitCode: code}, true
	}

	timeout := time.Duration(job.TimeoutSeconds) * time.Second
	if job.StartedAt != nil && now.Sub(*job.StartedAt) > timeout {
		s.terminate(h, job.ID)

		return outcome{status: StatusTimedOut, exitCode: syntheticFailureExitCode}, true
	}

	return outcome{}, false
}

// terminate requests a graceful stop and escalates to SIGKILL if the process
// is still alive after the grace period. The wait is on the handle's done
// channel only; no Registry lock is held here.
func (s *Supervisor) terminate(h Handle, id string) {
	if err := h.Terminate(); err != nil {
		s.logger.Warn("terminate job process",
			zap.String("job_id", id),
			zap.Error(err),
		)
	}

	select {
	case <-h.Done():
	case <-time.After(s.grace):
		if err := h.Kill(); err != nil {
			s.logger.Warn("kill job process",
				zap.String("job_id", id),
				zap.Error(err),
			)
		}
	}
}

func (s *Supervisor) trackedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.handles))
	for id := range s.handles {
		ids = append(ids, id)
	}

	return ids
}

func (s *Supervisor) handle(id string) (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, exists := s.handles[id]

	return h, exists
}

func (s *Supervisor) untrack(id string) {
	s.mu.Lock()
	delete(s.handles, id)
	s.mu.Unlock()
}
