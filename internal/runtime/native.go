// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
)

// NativeRuntime executes scripts using the system's default shell
type NativeRuntime struct {
	// Shell overrides the default shell
	Shell string
	// ShellArgs are arguments passed to the shell before the script
	ShellArgs []string
	// Getenv reads the process environment; nil means os.Getenv
	Getenv func(string) string
}

// NewNativeRuntime creates a new native runtime
func NewNativeRuntime() *NativeRuntime {
	return &NativeRuntime{}
}

// Name returns the runtime name
func (r *NativeRuntime) Name() string {
	return string(RuntimeTypeNative)
}

// Available returns whether a shell can be found
func (r *NativeRuntime) Available() bool {
	_, err := r.getShell()
	return err == nil
}

// Validate checks if a script can be executed
func (r *NativeRuntime) Validate(ctx *ExecutionContext) error {
	if strings.TrimSpace(ctx.Script) == "" {
		return ErrEmptyScript
	}
	return nil
}

// Execute runs a script using the system shell, streaming its output
func (r *NativeRuntime) Execute(ctx *ExecutionContext) *Result {
	return r.execute(ctx, newStreamingOutput(ctx.IO.Stdout, ctx.IO.Stderr))
}

// ExecuteCapture runs a script and captures its output
func (r *NativeRuntime) ExecuteCapture(ctx *ExecutionContext) *Result {
	out, captured := newCapturingOutput()
	result := r.execute(ctx, out)
	result.Output = captured.stdout.String()
	result.ErrOutput = captured.stderr.String()
	return result
}

func (r *NativeRuntime) execute(ctx *ExecutionContext, out *executeOutput) *Result {
	if err := r.Validate(ctx); err != nil {
		return NewErrorResult(1, err)
	}
	shell, err := r.getShell()
	if err != nil {
		return NewErrorResult(1, err)
	}
	if err := ctx.context().Err(); err != nil {
		return NewErrorResult(1, err)
	}

	args := append(r.getShellArgs(shell), ctx.Script)
	cmd := exec.CommandContext(ctx.context(), shell, args...)
	if ctx.WorkDir != "" {
		cmd.Dir = ctx.WorkDir
	}
	cmd.Env = append(os.Environ(), ctx.Env...)
	cmd.Stdout = out.stdout
	cmd.Stderr = out.stderr
	if !out.capture {
		cmd.Stdin = ctx.IO.Stdin
	}

	err = cmd.Run()
	if ctxErr := ctx.context().Err(); err != nil && ctxErr != nil {
		return NewErrorResult(1, ctxErr)
	}
	return extractExitCode(err)
}

func (r *NativeRuntime) getenv(key string) string {
	if r.Getenv != nil {
		return r.Getenv(key)
	}
	return os.Getenv(key)
}

// getShell determines which shell to use
func (r *NativeRuntime) getShell() (string, error) {
	if r.Shell != "" {
		return r.Shell, nil
	}

	switch goruntime.GOOS {
	case "windows":
		if pwsh, err := exec.LookPath("pwsh"); err == nil {
			return pwsh, nil
		}
		if ps, err := exec.LookPath("powershell"); err == nil {
			return ps, nil
		}
		if cmd, err := exec.LookPath("cmd"); err == nil {
			return cmd, nil
		}
	default:
		if shell := r.getenv("SHELL"); shell != "" {
			return shell, nil
		}
		if bash, err := exec.LookPath("bash"); err == nil {
			return bash, nil
		}
		if sh, err := exec.LookPath("sh"); err == nil {
			return sh, nil
		}
	}
	return "", ErrShellNotFound
}

// getShellArgs returns the arguments to pass to the shell
func (r *NativeRuntime) getShellArgs(shell string) []string {
	if len(r.ShellArgs) > 0 {
		return append([]string(nil), r.ShellArgs...)
	}

	base := filepath.Base(shell)
	if i := strings.LastIndex(base, "\\"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".exe")

	switch base {
	case "cmd":
		return []string{"/C"}
	case "powershell", "pwsh":
		return []string{"-NoProfile", "-Command"}
	default:
		return []string{"-c"}
	}
}

// String describes the shell this runtime would use.
func (r *NativeRuntime) String() string {
	shell, err := r.getShell()
	if err != nil {
		return fmt.Sprintf("native (%v)", err)
	}
	return "native (" + shell + ")"
}
