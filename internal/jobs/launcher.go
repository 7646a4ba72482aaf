package jobs

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Launcher starts external job processes.
//
// The external contract: a script at ScriptPath(scriptsDir, name), invoked
// with three positional arguments (the job ID, the encoded input descriptor
// and the output base directory), which exits 0 on success and
// writes its result to ResultPath(outputsDir, id). All diagnostic output
// goes to stdout/stderr, which the Launcher captures into the job's log
// file.
type Launcher struct {
	interpreter string
	scriptsDir  string
	outputsDir  string
}

// NewLauncher creates a Launcher that runs scripts from scriptsDir with the
// given interpreter and points them at outputsDir for their result files.
func NewLauncher(interpreter, scriptsDir, outputsDir string) *Launcher {
	return &Launcher{
		interpreter: interpreter,
		scriptsDir:  scriptsDir,
		outputsDir:  outputsDir,
	}
}

// encodeInputs serializes the input-location mapping into a single
// argv-safe string. Base64 over canonical JSON is reversible and contains no
// characters that need shell escaping, so the structured descriptor survives
// the trip through one command-line argument.
func encodeInputs(inputs map[string]string) (string, error) {
	b, err := json.Marshal(inputs)
	if err != nil {
		return "", fmt.Errorf("marshal inputs: %w", err)
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

// Launch resolves the script for job.Name, opens the job's log file and
// starts the process with stdout and stderr redirected into it. The log file
// is created before the spawn attempt so a later log read has something to
// find even if the process never started.
func (l *Launcher) Launch(job Job) (Handle, error) {
	scriptPath := ScriptPath(l.scriptsDir, job.Name)
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, scriptPath)
	}

	encoded, err := encodeInputs(job.Inputs)
	if err != nil {
		return nil, err
	}

	logFile, err := os.Create(job.LogFile)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(l.interpreter, scriptPath, job.ID, encoded, l.outputsDir)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Env = os.Environ()

	h, err := startProcess(cmd)
	if err != nil {
		return nil, fmt.Errorf("start job process: %w", err)
	}

	return h, nil
}
