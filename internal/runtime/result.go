// SPDX-License-Identifier: MPL-2.0

package runtime

// Result contains the result of a script execution
type Result struct {
	// ExitCode is the exit code of the script
	ExitCode ExitCode
	// Error contains any infrastructure error (parse failure, missing shell)
	Error error
	// Output contains captured stdout (if captured)
	Output string
	// ErrOutput contains captured stderr (if captured)
	ErrOutput string
}

// NewErrorResult creates a Result with the given exit code and error.
func NewErrorResult(code ExitCode, err error) *Result {
	return &Result{ExitCode: code, Error: err}
}

// NewSuccessResult creates a Result with exit code 0 and no error.
func NewSuccessResult() *Result {
	return &Result{}
}

// NewExitCodeResult creates a Result with the given exit code and no error.
// Use this for non-zero exits that represent normal process termination
// rather than infrastructure failures.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// Success returns true if the script executed successfully
func (r *Result) Success() bool {
	return r.ExitCode == 0 && r.Error == nil
}
