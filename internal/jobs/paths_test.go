package jobs_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sparkops/sparkjobd/internal/jobs"
)

// The external job script derives the same result path from the ID and the
// output base directory it receives as arguments, so these derivations are a
// contract, not an implementation detail.
func TestPathDerivations(t *testing.T) {
	t.Parallel()

	assert.Equal(
		t,
		filepath.Join("/opt/jobs", "top_customers_revenue.py"),
		jobs.ScriptPath("/opt/jobs", "top_customers_revenue"),
	)

	assert.Equal(
		t,
		filepath.Join("/var/log/sparkjobd", "abc-123.log"),
		jobs.LogPath("/var/log/sparkjobd", "abc-123"),
	)

	assert.Equal(
		t,
		filepath.Join("/data/outputs", "abc-123_result.json"),
		jobs.ResultPath("/data/outputs", "abc-123"),
	)
}

func TestPathDerivationsAreDeterministic(t *testing.T) {
	t.Parallel()

	a := jobs.ResultPath("/data/outputs", "abc-123")
	b := jobs.ResultPath("/data/outputs", "abc-123")

	assert.Equal(t, a, b)
}
