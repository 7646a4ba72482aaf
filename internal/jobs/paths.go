package jobs

import "path/filepath"

// Path derivation is part of the contract with the external job script: the
// script receives the job ID and the output base directory as arguments and
// must write its result to exactly ResultPath(outputsDir, id). Keeping every
// derivation in these functions guarantees the orchestrator and the script
// agree byte-for-byte, and deriving strictly from the generated ID avoids
// computing paths before the ID exists.

// ScriptPath returns the location of the script implementing the named
// prebuilt job.
func ScriptPath(scriptsDir, name string) string {
	return filepath.Join(scriptsDir, name+".py")
}

// LogPath returns the location of the combined stdout/stderr log for a job.
func LogPath(logsDir, id string) string {
	return filepath.Join(logsDir, id+".log")
}

// ResultPath returns the location the external script writes its result
// document to on success.
func ResultPath(outputsDir, id string) string {
	return filepath.Join(outputsDir, id+"_result.json")
}
