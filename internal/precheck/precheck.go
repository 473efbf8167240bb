// SPDX-License-Identifier: MPL-2.0

// Package precheck holds the checks that must pass before a run starts.
package precheck

import (
	"errors"
	"fmt"
)

// TermProgramEnv is the variable terminal emulators set to identify themselves.
const TermProgramEnv = "TERM_PROGRAM"

// ErrWrongTerminal is the sentinel error wrapped by TerminalMismatchError.
var ErrWrongTerminal = errors.New("wrong terminal")

// TerminalMismatchError is returned when the run was started from a terminal
// other than the one the playbook requires.
type TerminalMismatchError struct {
	Required string
	// Actual is the TERM_PROGRAM value found; empty when unset.
	Actual string
}

// Error implements the error interface.
func (e *TerminalMismatchError) Error() string {
	if e.Actual == "" {
		return fmt.Sprintf("this playbook must be run from %s (%s is not set)", e.Required, TermProgramEnv)
	}
	return fmt.Sprintf("this playbook must be run from %s, not %s", e.Required, e.Actual)
}

// Unwrap returns ErrWrongTerminal so callers can use errors.Is for programmatic detection.
func (e *TerminalMismatchError) Unwrap() error { return ErrWrongTerminal }

// Terminal checks the terminal identity. An empty required value disables the
// check; otherwise TERM_PROGRAM must match it exactly.
func Terminal(required string, getenv func(string) string) error {
	if required == "" {
		return nil
	}
	actual := getenv(TermProgramEnv)
	if actual != required {
		return &TerminalMismatchError{Required: required, Actual: actual}
	}
	return nil
}
