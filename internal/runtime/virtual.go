// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// VirtualRuntime executes scripts with the embedded mvdan/sh interpreter.
// External commands still run as host processes; only the shell is virtual.
type VirtualRuntime struct{}

// NewVirtualRuntime creates a new virtual runtime
func NewVirtualRuntime() *VirtualRuntime {
	return &VirtualRuntime{}
}

// Name returns the runtime name
func (r *VirtualRuntime) Name() string {
	return string(RuntimeTypeVirtual)
}

// Available returns whether this runtime is available
func (r *VirtualRuntime) Available() bool {
	// built in, always available
	return true
}

// Validate checks that the script is non-empty and parses
func (r *VirtualRuntime) Validate(ctx *ExecutionContext) error {
	if strings.TrimSpace(ctx.Script) == "" {
		return ErrEmptyScript
	}
	if _, err := parseScript(ctx.Script); err != nil {
		return err
	}
	return nil
}

// Execute runs a script using the virtual shell
func (r *VirtualRuntime) Execute(ctx *ExecutionContext) *Result {
	return r.execute(ctx, newStreamingOutput(ctx.IO.Stdout, ctx.IO.Stderr), ctx.IO.Stdin)
}

// ExecuteCapture runs a script and captures its output
func (r *VirtualRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	out, captured := newCapturingOutput()
	result := r.execute(ctx, out, nil)
	result.Output = captured.stdout.String()
	result.ErrOutput = captured.stderr.String()
	return result
}

func (r *VirtualRuntime) execute(ctx *ExecutionContext, out *executeOutput, stdin io.Reader) *Result {
	if strings.TrimSpace(ctx.Script) == "" {
		return NewErrorResult(1, ErrEmptyScript)
	}
	prog, err := parseScript(ctx.Script)
	if err != nil {
		return NewErrorResult(1, err)
	}
	if err := ctx.context().Err(); err != nil {
		return NewErrorResult(1, err)
	}

	opts := []interp.RunnerOption{
		interp.Dir(ctx.WorkDir),
		interp.Env(expand.ListEnviron(append(os.Environ(), ctx.Env...)...)),
		interp.StdIO(stdin, out.stdout, out.stderr),
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create interpreter: %w", err))
	}

	err = runner.Run(ctx.context(), prog)
	if ctxErr := ctx.context().Err(); err != nil && ctxErr != nil {
		return NewErrorResult(1, ctxErr)
	}
	result := extractExitCode(err)
	if result.Error != nil {
		result.Error = fmt.Errorf("script execution failed: %w", result.Error)
	}
	return result
}

func parseScript(script string) (*syntax.File, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "script")
	if err != nil {
		return nil, fmt.Errorf("script syntax error: %w", err)
	}
	return prog, nil
}
