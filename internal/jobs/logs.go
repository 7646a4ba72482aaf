package jobs

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// LogNotFoundSentinel is returned in place of log content when the log file
// does not exist yet. A missing log is an expected transient state for a job
// that has just been submitted, so it is reported as content rather than as
// an error.
const LogNotFoundSentinel = "Log file not found."

// ReadLogPreview returns up to maxBytes from the start of the log file,
// trimmed of surrounding whitespace.
func ReadLogPreview(path string, maxBytes int) string {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LogNotFoundSentinel
		}

		return fmt.Sprintf("Error reading log file: %v", err)
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)))
	if err != nil {
		return fmt.Sprintf("Error reading log file: %v", err)
	}

	return strings.TrimSpace(string(b))
}

// ReadFullLog returns the entire log file content, with the same not-found
// sentinel policy as ReadLogPreview.
func ReadFullLog(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LogNotFoundSentinel
		}

		return fmt.Sprintf("Error reading log file: %v", err)
	}

	return string(b)
}

// LocateResult returns the path of the job's result artifact. The result is
// available only once the job has SUCCEEDED; any other status yields a
// NotCompletedError carrying the current status. A SUCCEEDED job whose
// result file is absent yields ErrResultMissing.
func LocateResult(job Job) (string, error) {
	if job.Status != StatusSucceeded {
		return "", NotCompletedError{Status: job.Status}
	}

	if _, err := os.Stat(job.ResultFile); err != nil {
		if os.IsNotExist(err) {
			return "", ErrResultMissing
		}

		return "", fmt.Errorf("stat result file: %w", err)
	}

	return job.ResultFile, nil
}
