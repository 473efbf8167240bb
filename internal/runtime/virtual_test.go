// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVirtualRuntime_Execute(t *testing.T) {
	t.Parallel()

	var stdout bytes.Buffer
	result := NewVirtualRuntime().Execute(&ExecutionContext{
		Context: context.Background(),
		Script: `GREETING="hello"
for name in $NAMES; do
	echo "$GREETING $name"
done`,
		Env: []string{"NAMES=ada grace"},
		IO:  IOContext{Stdout: &stdout, Stderr: &bytes.Buffer{}},
	})

	if !result.Success() {
		t.Fatalf("Execute() = %d, %v", result.ExitCode, result.Error)
	}
	want := "hello ada\nhello grace"
	if got := strings.TrimSpace(stdout.String()); got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}
}

func TestVirtualRuntime_ExecuteCapture(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		script     string
		wantCode   ExitCode
		wantOutput string
		wantErr    bool
	}{
		{name: "success", script: "echo ok", wantOutput: "ok"},
		{name: "exit status", script: "echo partial; exit 4", wantCode: 4, wantOutput: "partial"},
		{name: "false builtin", script: "false", wantCode: 1},
		{name: "test builtin", script: `[ -z "" ]`},
		{name: "syntax error", script: "if then fi", wantCode: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := NewVirtualRuntime().ExecuteCapture(&ExecutionContext{
				Context: context.Background(),
				Script:  tt.script,
			})
			if result.ExitCode != tt.wantCode {
				t.Errorf("ExitCode = %d, want %d", result.ExitCode, tt.wantCode)
			}
			if (result.Error != nil) != tt.wantErr {
				t.Errorf("Error = %v, wantErr %v", result.Error, tt.wantErr)
			}
			if got := strings.TrimSpace(result.Output); got != tt.wantOutput {
				t.Errorf("Output = %q, want %q", got, tt.wantOutput)
			}
		})
	}
}

func TestVirtualRuntime_WorkDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	result := NewVirtualRuntime().ExecuteCapture(&ExecutionContext{
		Context: context.Background(),
		Script:  "echo hi > marker.txt",
		WorkDir: dir,
	})
	if !result.Success() {
		t.Fatalf("ExecuteCapture() = %d, %v", result.ExitCode, result.Error)
	}
	data, err := os.ReadFile(filepath.Join(dir, "marker.txt"))
	if err != nil {
		t.Fatalf("marker not written in WorkDir: %v", err)
	}
	if strings.TrimSpace(string(data)) != "hi" {
		t.Errorf("marker = %q", data)
	}
}

func TestVirtualRuntime_Validate(t *testing.T) {
	t.Parallel()

	rt := NewVirtualRuntime()
	if err := rt.Validate(&ExecutionContext{Script: "echo ok"}); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}
	if err := rt.Validate(&ExecutionContext{Script: ""}); !errors.Is(err, ErrEmptyScript) {
		t.Errorf("Validate(empty) = %v, want ErrEmptyScript", err)
	}
	if err := rt.Validate(&ExecutionContext{Script: "echo 'unterminated"}); err == nil {
		t.Error("Validate(unterminated quote) = nil, want syntax error")
	}
}

func TestVirtualRuntime_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewVirtualRuntime().ExecuteCapture(&ExecutionContext{Context: ctx, Script: "echo never"})
	if !errors.Is(result.Error, context.Canceled) {
		t.Errorf("Error = %v, want context.Canceled", result.Error)
	}
}
