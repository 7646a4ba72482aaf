package jobs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sparkops/sparkjobd/internal/jobs"
)

func TestStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status jobs.Status
		want   string
	}{
		{jobs.StatusPending, "PENDING"},
		{jobs.StatusRunning, "RUNNING"},
		{jobs.StatusSucceeded, "SUCCEEDED"},
		{jobs.StatusFailed, "FAILED"},
		{jobs.StatusTimedOut, "TIMED_OUT"},
		{jobs.Status(99), "UNKNOWN"},
		{jobs.Status(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.String())
	}
}

func TestStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, jobs.StatusPending.Terminal())
	assert.False(t, jobs.StatusRunning.Terminal())
	assert.True(t, jobs.StatusSucceeded.Terminal())
	assert.True(t, jobs.StatusFailed.Terminal())
	assert.True(t, jobs.StatusTimedOut.Terminal())
}
