// Package jobs provides the job lifecycle and process-supervision core of
// the orchestrator.
//
// A Job represents one request to execute a prebuilt batch-processing script,
// tracked from submission to a terminal outcome. The Registry is the single
// source of truth for job state, the Launcher spawns the external process
// with its output captured to a per-job log file, and the Supervisor
// reconciles running processes against the Registry on a fixed interval,
// enforcing per-job timeouts.
//
// The Orchestrator facade composes these pieces and exposes the operations
// (Submit, Status, Result, Logs) that a transport layer calls.
package jobs
