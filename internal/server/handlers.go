package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sparkops/sparkjobd/internal/jobs"
)

type submitRequest struct {
	JobName        string            `json:"job_name"`
	JobType        string            `json:"job_type"`
	InputPaths     map[string]string `json:"input_paths"`
	OutputPath     string            `json:"output_path"`
	TimeoutSeconds int               `json:"timeout_seconds"`
}

type submitResponse struct {
	JobID     string `json:"job_id"`
	StatusURL string `json:"status_url"`
}

type statusResponse struct {
	JobID      string     `json:"job_id"`
	Status     string     `json:"status"`
	StartedAt  *time.Time `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	ExitCode   *int       `json:"exit_code"`
	ResultURL  *string    `json:"result_url"`
	LogPreview string     `json:"log_preview"`
}

type logsResponse struct {
	JobID string `json:"job_id"`
	Logs  string `json:"logs"`
}

type healthResponse struct {
	Status      string `json:"status"`
	RunningJobs int    `json:"running_jobs"`
}

func statusURL(id string) string {
	return "/api/jobs/" + id
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		RunningJobs: s.orchestrator.RunningJobs(),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(
			w,
			http.StatusBadRequest,
			codeBadRequest,
			fmt.Sprintf("invalid request body: %v", err),
		)

		return
	}

	job, err := s.orchestrator.Submit(jobs.SubmitRequest{
		Name:           req.JobName,
		Type:           req.JobType,
		Inputs:         req.InputPaths,
		OutputPath:     req.OutputPath,
		TimeoutSeconds: req.TimeoutSeconds,
	})
	if err != nil {
		s.mapSubmitError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, submitResponse{
		JobID:     job.ID,
		StatusURL: statusURL(job.ID),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	view, err := s.orchestrator.Status(id)
	if err != nil {
		s.mapLookupError(w, id, err)
		return
	}

	var resultURL *string
	if view.Job.Status == jobs.StatusSucceeded {
		u := statusURL(id) + "/result"
		resultURL = &u
	}

	respondJSON(w, http.StatusOK, statusResponse{
		JobID:      view.Job.ID,
		Status:     view.Job.Status.String(),
		StartedAt:  view.Job.StartedAt,
		FinishedAt: view.Job.FinishedAt,
		ExitCode:   view.Job.ExitCode,
		ResultURL:  resultURL,
		LogPreview: view.LogPreview,
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	resultPath, err := s.orchestrator.Result(id)
	if err != nil {
		var notCompleted jobs.NotCompletedError

		switch {
		case errors.Is(err, jobs.ErrJobNotFound):
			s.mapLookupError(w, id, err)

		case errors.As(err, &notCompleted):
			respondError(
				w,
				http.StatusConflict,
				codeConflict,
				fmt.Sprintf("Job not completed. Status: %s", notCompleted.Status),
			)

		case errors.Is(err, jobs.ErrResultMissing):
			s.logger.Error("result file missing for succeeded job", zap.String("job_id", id))
			respondError(
				w,
				http.StatusInternalServerError,
				codeInternalError,
				"Job succeeded but result file not found.",
			)

		default:
			s.logger.Error("locate result", zap.String("job_id", id), zap.Error(err))
			respondError(w, http.StatusInternalServerError, codeInternalError, "internal server error")
		}

		return
	}

	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", id+".json"),
	)
	w.Header().Set("Content-Type", "application/json")

	http.ServeFile(w, r, resultPath)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")

	logs, err := s.orchestrator.Logs(id)
	if err != nil {
		s.mapLookupError(w, id, err)
		return
	}

	respondJSON(w, http.StatusOK, logsResponse{JobID: id, Logs: logs})
}

// mapSubmitError translates facade submission errors to HTTP responses.
func (s *Server) mapSubmitError(w http.ResponseWriter, err error) {
	var (
		unsupportedType jobs.UnsupportedJobTypeError
		unknownJob      jobs.UnknownJobError
		launchErr       jobs.LaunchError
	)

	switch {
	case errors.As(err, &unsupportedType):
		respondError(
			w,
			http.StatusNotImplemented,
			codeNotImplemented,
			"Only prebuilt jobs are supported in this version.",
		)

	case errors.As(err, &unknownJob):
		respondError(w, http.StatusBadRequest, codeBadRequest, unknownJob.Error())

	case errors.Is(err, jobs.ErrInvalidTimeout):
		respondError(w, http.StatusBadRequest, codeBadRequest, err.Error())

	case errors.As(err, &launchErr):
		// The job record already exists as FAILED; report the launch failure
		// and let the caller inspect the record.
		s.logger.Error("job launch failed", zap.String("job_id", launchErr.JobID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeInternalError, launchErr.Error())

	default:
		s.logger.Error("submit job", zap.Error(err))
		respondError(w, http.StatusInternalServerError, codeInternalError, "internal server error")
	}
}

// mapLookupError translates job lookup errors to HTTP responses.
func (s *Server) mapLookupError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, jobs.ErrJobNotFound) {
		respondError(
			w,
			http.StatusNotFound,
			codeNotFound,
			fmt.Sprintf("Job not found: %s", id),
		)

		return
	}

	s.logger.Error("job lookup", zap.String("job_id", id), zap.Error(err))
	respondError(w, http.StatusInternalServerError, codeInternalError, "internal server error")
}
