package jobs

import (
	"maps"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobTypePrebuilt is the only job type currently accepted by Submit.
const JobTypePrebuilt = "prebuilt"

// DefaultTimeoutSeconds bounds a job's running time when neither the
// submission nor the configuration specify one.
const DefaultTimeoutSeconds = 600

// prebuiltJobs is the allow-list of job names Submit accepts.
var prebuiltJobs = map[string]struct{}{
	"top_customers_revenue": {},
}

// Orchestrator composes the Registry, Launcher and Supervisor into the
// operations a transport layer invokes.
type Orchestrator struct {
	registry       *Registry
	launcher       *Launcher
	supervisor     *Supervisor
	logger         *zap.Logger
	logsDir        string
	outputsDir     string
	previewBytes   int
	defaultTimeout int
}

// NewOrchestrator creates the orchestration facade. logsDir and outputsDir
// must be the same base directories the Launcher was built with so path
// derivations agree. defaultTimeoutSeconds applies to submissions that carry
// no timeout; a non-positive value falls back to DefaultTimeoutSeconds.
func NewOrchestrator(
	registry *Registry,
	launcher *Launcher,
	supervisor *Supervisor,
	logger *zap.Logger,
	logsDir string,
	outputsDir string,
	previewBytes int,
	defaultTimeoutSeconds int,
) *Orchestrator {
	if defaultTimeoutSeconds <= 0 {
		defaultTimeoutSeconds = DefaultTimeoutSeconds
	}

	return &Orchestrator{
		registry:       registry,
		launcher:       launcher,
		supervisor:     supervisor,
		logger:         logger,
		logsDir:        logsDir,
		outputsDir:     outputsDir,
		previewBytes:   previewBytes,
		defaultTimeout: defaultTimeoutSeconds,
	}
}

// SubmitRequest carries the caller-supplied parameters for one job
// execution. A zero TimeoutSeconds means the configured default.
type SubmitRequest struct {
	Name           string
	Type           string
	Inputs         map[string]string
	OutputPath     string
	TimeoutSeconds int
}

// StatusView is the read model returned by Status: the job record plus a
// bounded preview of its log.
type StatusView struct {
	Job        Job
	LogPreview string
}

// Submit validates the request against the allow-list, creates a PENDING
// record with paths derived from the freshly generated ID, launches the
// external process and hands the handle to the Supervisor.
//
// On launch failure the job is finalized as FAILED synchronously, never
// left PENDING, and both the failed record and a LaunchError are returned,
// so the caller learns the outcome immediately rather than through polling.
func (o *Orchestrator) Submit(req SubmitRequest) (Job, error) {
	if req.Type != JobTypePrebuilt {
		return Job{}, UnsupportedJobTypeError{Type: req.Type}
	}

	if _, allowed := prebuiltJobs[req.Name]; !allowed {
		return Job{}, UnknownJobError{Name: req.Name}
	}

	timeout := req.TimeoutSeconds
	if timeout == 0 {
		timeout = o.defaultTimeout
	}
	if timeout < 0 {
		return Job{}, ErrInvalidTimeout
	}

	id := uuid.NewString()

	job := &Job{
		ID:             id,
		Name:           req.Name,
		Type:           req.Type,
		TimeoutSeconds: timeout,
		Status:         StatusPending,
		Inputs:         maps.Clone(req.Inputs),
		OutputPath:     req.OutputPath,
		LogFile:        LogPath(o.logsDir, id),
		ResultFile:     ResultPath(o.outputsDir, id),
	}

	if err := o.registry.Insert(job); err != nil {
		return Job{}, err
	}

	h, err := o.launcher.Launch(job.clone())
	if err != nil {
		code := syntheticFailureExitCode

		o.registry.Update(id, func(j *Job) {
			finished := time.Now()

			j.Status = StatusFailed
			j.ExitCode = &code
			j.FinishedAt = &finished
		})

		o.logger.Error("job launch failed",
			zap.String("job_id", id),
			zap.String("job_name", req.Name),
			zap.Error(err),
		)

		failed, _ := o.registry.Get(id)

		return failed, LaunchError{JobID: id, Err: err}
	}

	o.registry.Update(id, func(j *Job) {
		started := time.Now()

		j.Status = StatusRunning
		j.StartedAt = &started
	})

	o.supervisor.Track(id, h)

	o.logger.Info("job started",
		zap.String("job_id", id),
		zap.String("job_name", req.Name),
		zap.Int("timeout_seconds", timeout),
	)

	running, _ := o.registry.Get(id)

	return running, nil
}

// Status returns the job's current view plus a bounded log preview, or
// ErrJobNotFound.
func (o *Orchestrator) Status(id string) (StatusView, error) {
	job, found := o.registry.Get(id)
	if !found {
		return StatusView{}, ErrJobNotFound
	}

	return StatusView{
		Job:        job,
		LogPreview: ReadLogPreview(job.LogFile, o.previewBytes),
	}, nil
}

// Result returns the location of the job's result artifact, subject to the
// availability rules of LocateResult.
func (o *Orchestrator) Result(id string) (string, error) {
	job, found := o.registry.Get(id)
	if !found {
		return "", ErrJobNotFound
	}

	return LocateResult(job)
}

// Logs returns the full log content for the job, or ErrJobNotFound.
func (o *Orchestrator) Logs(id string) (string, error) {
	job, found := o.registry.Get(id)
	if !found {
		return "", ErrJobNotFound
	}

	return ReadFullLog(job.LogFile), nil
}

// RunningJobs reports how many jobs are currently under supervision.
func (o *Orchestrator) RunningJobs() int {
	return o.supervisor.Tracked()
}
