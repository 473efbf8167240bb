// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rigup/rigup/internal/runtime"
)

// scriptRunner runs a step's scripts on its runtime with the playbook env.
type scriptRunner struct {
	registry *runtime.Registry
	typ      runtime.RuntimeType
	env      []string
	workDir  string
	io       runtime.IOContext
}

func (s scriptRunner) context(ctx context.Context, script string) *runtime.ExecutionContext {
	return &runtime.ExecutionContext{
		Context: ctx,
		Script:  script,
		Env:     s.env,
		WorkDir: s.workDir,
		IO:      s.io,
	}
}

// check runs a probe script and reports whether it exited 0.
func (s scriptRunner) check(ctx context.Context, script string) (bool, runtime.ExitCode, error) {
	result := s.registry.ExecuteCapture(s.typ, s.context(ctx, script))
	if result.Error != nil {
		return false, result.ExitCode, result.Error
	}
	return result.ExitCode.IsSuccess(), result.ExitCode, nil
}

// run executes an action script with output streamed to the run's writers.
func (s scriptRunner) run(ctx context.Context, script string) error {
	result := s.registry.Execute(s.typ, s.context(ctx, script))
	if result.Error != nil {
		return result.Error
	}
	if result.ExitCode.IsCommandNotFound() {
		return fmt.Errorf("%s exited with status %s: %w", firstWord(script), result.ExitCode, runtime.ErrCommandNotFound)
	}
	if !result.ExitCode.IsSuccess() {
		return fmt.Errorf("%s exited with status %s", firstWord(script), result.ExitCode)
	}
	return nil
}

// withArg appends one shell-quoted argument to a command prefix.
func withArg(prefix, arg string) (string, error) {
	quoted, err := runtime.QuoteArgs(arg)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(prefix, " \t") + " " + quoted, nil
}

func firstWord(script string) string {
	fields := strings.Fields(script)
	if len(fields) == 0 {
		return "script"
	}
	return fields[0]
}
