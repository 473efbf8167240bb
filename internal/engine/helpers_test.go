// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"strings"

	"github.com/rigup/rigup/internal/runtime"
	"github.com/rigup/rigup/pkg/platform"
	"github.com/rigup/rigup/pkg/playbook"
)

const fakeRuntime runtime.RuntimeType = "fake"

// scriptedRuntime answers scripts from a table; unknown scripts exit 0.
type scriptedRuntime struct {
	exits   map[string]int
	onRun   func(script string)
	scripts []string
}

func (r *scriptedRuntime) Name() string { return string(fakeRuntime) }

func (r *scriptedRuntime) Available() bool { return true }

func (r *scriptedRuntime) Validate(*runtime.ExecutionContext) error { return nil }

func (r *scriptedRuntime) Execute(ctx *runtime.ExecutionContext) *runtime.Result {
	return r.ExecuteCapture(ctx)
}

func (r *scriptedRuntime) ExecuteCapture(ctx *runtime.ExecutionContext) *runtime.Result {
	r.scripts = append(r.scripts, ctx.Script)
	if err := ctx.Context.Err(); err != nil {
		return runtime.NewErrorResult(1, err)
	}
	if r.onRun != nil {
		r.onRun(ctx.Script)
	}
	if code, ok := r.exits[ctx.Script]; ok {
		return runtime.NewExitCodeResult(runtime.ExitCode(code))
	}
	return runtime.NewSuccessResult()
}

// ran returns the recorded scripts starting with prefix.
func (r *scriptedRuntime) ran(prefix string) []string {
	var out []string
	for _, s := range r.scripts {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}

func newTestEngine(rt *scriptedRuntime, mutate func(*Config)) *Engine {
	reg := runtime.NewRegistry()
	reg.Register(fakeRuntime, rt)
	cfg := Config{
		Runtimes:       reg,
		DefaultRuntime: fakeRuntime,
		Host:           platform.HostLinux,
		Verify:         true,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg)
}

func steps(s ...playbook.Step) []*playbook.Step {
	out := make([]*playbook.Step, len(s))
	for i := range s {
		out[i] = &s[i]
	}
	return out
}
