package jobs_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/sparkops/sparkjobd/internal/jobs"
)

const testJobName = "top_customers_revenue"

// fixture wires a Registry, Launcher, Supervisor and Orchestrator against
// temporary directories, with sh standing in for the real interpreter.
type fixture struct {
	registry   *jobs.Registry
	launcher   *jobs.Launcher
	supervisor *jobs.Supervisor
	orch       *jobs.Orchestrator

	scriptsDir string
	outputsDir string
	logsDir    string
}

func newFixture(t *testing.T, interval, grace time.Duration) *fixture {
	t.Helper()

	f := &fixture{
		scriptsDir: t.TempDir(),
		outputsDir: t.TempDir(),
		logsDir:    t.TempDir(),
	}

	f.registry = jobs.NewRegistry()
	f.launcher = jobs.NewLauncher("sh", f.scriptsDir, f.outputsDir)
	f.supervisor = jobs.NewSupervisor(f.registry, zap.NewNop(), interval, grace)
	f.orch = jobs.NewOrchestrator(
		f.registry,
		f.launcher,
		f.supervisor,
		zap.NewNop(),
		f.logsDir,
		f.outputsDir,
		1024,
		jobs.DefaultTimeoutSeconds,
	)

	return f
}

func (f *fixture) writeScript(t *testing.T, body string) {
	t.Helper()

	require.NoError(t, os.WriteFile(
		jobs.ScriptPath(f.scriptsDir, testJobName),
		[]byte("#!/bin/sh\n"+body),
		0o755,
	))
}

// startSupervisor runs the reconciliation loop in the background and makes
// sure it has fully stopped before the test finishes.
func (f *fixture) startSupervisor(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		_ = f.supervisor.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-stopped
	})
}

func (f *fixture) waitForTerminal(t *testing.T, id string, within time.Duration) jobs.Job {
	t.Helper()

	deadline := time.Now().Add(within)

	for time.Now().Before(deadline) {
		job, found := f.registry.Get(id)
		require.True(t, found)

		if job.Status.Terminal() {
			return job
		}

		time.Sleep(20 * time.Millisecond)
	}

	t.Fatalf("job %s did not reach a terminal status within %s", id, within)

	return jobs.Job{}
}

func TestSupervisorMarksCleanExitSucceeded(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	f := newFixture(t, 50*time.Millisecond, 200*time.Millisecond)
	f.writeScript(t, "echo done\nexit 0\n")
	f.startSupervisor(t)

	job, err := f.orch.Submit(jobs.SubmitRequest{Name: testJobName, Type: jobs.JobTypePrebuilt})
	require.NoError(t, err)
	require.Equal(t, jobs.StatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)

	final := f.waitForTerminal(t, job.ID, 5*time.Second)

	assert.Equal(t, jobs.StatusSucceeded, final.Status)
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 0, *final.ExitCode)
	require.NotNil(t, final.FinishedAt)
	assert.Zero(t, f.supervisor.Tracked())
}

func TestSupervisorMarksNonZeroExitFailed(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	f := newFixture(t, 50*time.Millisecond, 200*time.Millisecond)
	f.writeScript(t, "exit 3\n")
	f.startSupervisor(t)

	job, err := f.orch.Submit(jobs.SubmitRequest{Name: testJobName, Type: jobs.JobTypePrebuilt})
	require.NoError(t, err)

	final := f.waitForTerminal(t, job.ID, 5*time.Second)

	assert.Equal(t, jobs.StatusFailed, final.Status)
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 3, *final.ExitCode)
	assert.Zero(t, f.supervisor.Tracked())
}

func TestSupervisorTimesOutLongRunningJob(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	f := newFixture(t, 50*time.Millisecond, 200*time.Millisecond)
	f.writeScript(t, "sleep 30\n")

	// Wired by hand instead of through Submit so the test keeps the process
	// handle and can verify the process itself, not just the record.
	started := time.Now()
	job := &jobs.Job{
		ID:             "timeout-job",
		Name:           testJobName,
		Type:           jobs.JobTypePrebuilt,
		TimeoutSeconds: 1,
		Status:         jobs.StatusRunning,
		StartedAt:      &started,
		LogFile:        jobs.LogPath(f.logsDir, "timeout-job"),
	}
	require.NoError(t, f.registry.Insert(job))

	h, err := f.launcher.Launch(*job)
	require.NoError(t, err)

	f.supervisor.Track(job.ID, h)
	f.startSupervisor(t)

	final := f.waitForTerminal(t, job.ID, 10*time.Second)

	assert.Equal(t, jobs.StatusTimedOut, final.Status)
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 1, *final.ExitCode)
	require.NotNil(t, final.FinishedAt)
	assert.Zero(t, f.supervisor.Tracked())

	// The process is gone, not merely recorded as timed out: it has been
	// reaped and polls as exited.
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatal("process still alive after TIMED_OUT")
	}

	_, exited := h.Poll()
	assert.True(t, exited)
}

// A process that has already exited when its deadline passes is recorded by
// its real exit code, not as a timeout: with a poll interval longer than the
// timeout, the first reconciliation pass sees both conditions at once.
func TestSupervisorCompletedExitWinsOverElapsedTimeout(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	f := newFixture(t, 1500*time.Millisecond, 200*time.Millisecond)
	f.writeScript(t, "exit 0\n")
	f.startSupervisor(t)

	job, err := f.orch.Submit(jobs.SubmitRequest{
		Name:           testJobName,
		Type:           jobs.JobTypePrebuilt,
		TimeoutSeconds: 1,
	})
	require.NoError(t, err)

	final := f.waitForTerminal(t, job.ID, 10*time.Second)

	assert.Equal(t, jobs.StatusSucceeded, final.Status)
	require.NotNil(t, final.ExitCode)
	assert.Equal(t, 0, *final.ExitCode)
}

// A tracked handle with no matching registry record cannot be reconciled and
// is dropped on the next pass.
func TestSupervisorDropsOrphanedHandle(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	f := newFixture(t, 50*time.Millisecond, 200*time.Millisecond)
	f.writeScript(t, "exit 0\n")

	h, err := f.launcher.Launch(jobs.Job{
		ID:      "ghost",
		Name:    testJobName,
		LogFile: jobs.LogPath(f.logsDir, "ghost"),
	})
	require.NoError(t, err)

	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit in time")
	}

	f.supervisor.Track("ghost", h)
	require.Equal(t, 1, f.supervisor.Tracked())

	f.startSupervisor(t)

	assert.Eventually(t, func() bool {
		return f.supervisor.Tracked() == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestSupervisorRunStopsOnContextCancel(t *testing.T) {
	t.Cleanup(func() { goleak.VerifyNone(t) })

	f := newFixture(t, 50*time.Millisecond, 200*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan error, 1)

	go func() {
		stopped <- f.supervisor.Run(ctx)
	}()

	cancel()

	select {
	case err := <-stopped:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("supervisor did not stop after cancellation")
	}
}
