// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"errors"
	"io"
	"os/exec"

	"mvdan.cc/sh/v3/interp"
)

// Type definitions (grouped for decorder compliance)
type (
	// executeOutput configures where command output is directed during execution.
	// It abstracts the difference between streaming (to ctx.IO) and
	// capturing (to bytes.Buffer) execution modes.
	executeOutput struct {
		stdout io.Writer
		stderr io.Writer
		// capture indicates whether output is being captured to buffers
		capture bool
	}

	// capturedOutput holds the captured stdout and stderr buffers when capture mode is used.
	// This type is used only when executeOutput.capture is true.
	capturedOutput struct {
		stdout bytes.Buffer
		stderr bytes.Buffer
	}
)

// newStreamingOutput creates an output configuration that streams to the provided writers.
// This is used for Execute() where output goes directly to ctx.IO.
func newStreamingOutput(stdout, stderr io.Writer) *executeOutput {
	return &executeOutput{
		stdout:  stdout,
		stderr:  stderr,
		capture: false,
	}
}

// newCapturingOutput creates an output configuration that captures to internal buffers.
// This is used for ExecuteCapture() where output needs to be returned as strings.
// Returns the output configuration and the buffer holder to retrieve results from.
func newCapturingOutput() (*executeOutput, *capturedOutput) {
	captured := &capturedOutput{}
	return &executeOutput{
		stdout:  &captured.stdout,
		stderr:  &captured.stderr,
		capture: true,
	}, captured
}

// extractExitCode determines the exit code from an execution error of either
// runtime. Captured output is filled in by the caller.
func extractExitCode(err error) *Result {
	result := &Result{}
	if err == nil {
		result.ExitCode = 0
		return result
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Process ran and returned non-zero; -1 means it was killed by a signal
		exitCode := ExitCode(exitErr.ExitCode())
		if valid, errs := exitCode.IsValid(); !valid {
			result.ExitCode = 1
			result.Error = errs[0]
			return result
		}
		result.ExitCode = exitCode
		return result
	}

	var status interp.ExitStatus
	if errors.As(err, &status) {
		result.ExitCode = ExitCode(status)
		return result
	}

	// Some other error (shell not startable, parse failure, canceled context)
	result.ExitCode = 1
	result.Error = err
	return result
}
