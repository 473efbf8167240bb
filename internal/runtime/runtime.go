// SPDX-License-Identifier: MPL-2.0

package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Runtime type constants for different execution environments.
const (
	RuntimeTypeNative  RuntimeType = "native"
	RuntimeTypeVirtual RuntimeType = "virtual"
)

var (
	// ErrInvalidRuntimeType is the sentinel error wrapped by InvalidRuntimeTypeError.
	ErrInvalidRuntimeType = errors.New("invalid runtime type")
	// ErrRuntimeNotRegistered is returned when no runtime is registered for a type.
	ErrRuntimeNotRegistered = errors.New("runtime not registered")
	// ErrShellNotFound is returned when the native runtime finds no usable shell.
	ErrShellNotFound = errors.New("no shell found")
	// ErrEmptyScript is returned when a script has no content.
	ErrEmptyScript = errors.New("script has no content to execute")
	// ErrCommandNotFound marks a script whose shell reported a missing or
	// non-executable command (status 126 or 127).
	ErrCommandNotFound = errors.New("command not found")
)

type (
	// IOContext groups the standard streams of an execution.
	IOContext struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// ExecutionContext contains all information needed to execute a script
	ExecutionContext struct {
		// Context is the Go context for cancellation
		Context context.Context
		// Script is the shell source to run
		Script string
		// Env holds KEY=VALUE pairs added on top of the process environment
		Env []string
		// WorkDir overrides the working directory
		WorkDir string
		// IO holds the streams used by Execute; ExecuteCapture ignores Stdout and Stderr
		IO IOContext
	}

	// Runtime defines the interface for script execution
	Runtime interface {
		// Name returns the runtime name
		Name() string
		// Available returns whether this runtime is available on the current system
		Available() bool
		// Validate checks if a script can be executed with this runtime
		Validate(ctx *ExecutionContext) error
		// Execute runs a script, streaming its output to ctx.IO
		Execute(ctx *ExecutionContext) *Result
		// ExecuteCapture runs a script and captures stdout/stderr
		ExecuteCapture(ctx *ExecutionContext) *Result
	}

	// RuntimeType identifies the type of runtime.
	//
	//nolint:revive // RuntimeType is more descriptive than Type for external callers
	RuntimeType string

	// InvalidRuntimeTypeError is returned when a RuntimeType is not native or virtual.
	InvalidRuntimeTypeError struct {
		Value RuntimeType
	}

	// Registry holds all available runtimes
	Registry struct {
		runtimes map[RuntimeType]Runtime
	}
)

// Error implements the error interface.
func (e *InvalidRuntimeTypeError) Error() string {
	return fmt.Sprintf("invalid runtime %q (valid: %s, %s)", e.Value, RuntimeTypeNative, RuntimeTypeVirtual)
}

// Unwrap returns ErrInvalidRuntimeType so callers can use errors.Is for programmatic detection.
func (e *InvalidRuntimeTypeError) Unwrap() error { return ErrInvalidRuntimeType }

// IsValid returns whether the RuntimeType names a known runtime.
func (t RuntimeType) IsValid() (bool, []error) {
	switch t {
	case RuntimeTypeNative, RuntimeTypeVirtual:
		return true, nil
	default:
		return false, []error{&InvalidRuntimeTypeError{Value: t}}
	}
}

// String returns the string representation of the RuntimeType.
func (t RuntimeType) String() string { return string(t) }

func (ctx *ExecutionContext) context() context.Context {
	if ctx.Context == nil {
		return context.Background()
	}
	return ctx.Context
}

// NewRegistry creates a new runtime registry
func NewRegistry() *Registry {
	return &Registry{
		runtimes: make(map[RuntimeType]Runtime),
	}
}

// NewDefaultRegistry returns a registry with the native and virtual runtimes.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(RuntimeTypeNative, NewNativeRuntime())
	r.Register(RuntimeTypeVirtual, NewVirtualRuntime())
	return r
}

// Register adds a runtime to the registry
func (r *Registry) Register(typ RuntimeType, rt Runtime) {
	r.runtimes[typ] = rt
}

// Get returns a runtime by type
func (r *Registry) Get(typ RuntimeType) (Runtime, error) {
	rt, ok := r.runtimes[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRuntimeNotRegistered, typ)
	}
	return rt, nil
}

// Available returns all available runtimes, sorted by name
func (r *Registry) Available() []RuntimeType {
	var types []RuntimeType
	for typ, rt := range r.runtimes {
		if rt.Available() {
			types = append(types, typ)
		}
	}
	slices.Sort(types)
	return types
}

// Execute runs a script using the runtime registered for typ
func (r *Registry) Execute(typ RuntimeType, ctx *ExecutionContext) *Result {
	rt, err := r.ready(typ, ctx)
	if err != nil {
		return NewErrorResult(1, err)
	}
	return rt.Execute(ctx)
}

// ExecuteCapture runs a script using the runtime registered for typ and captures its output
func (r *Registry) ExecuteCapture(typ RuntimeType, ctx *ExecutionContext) *Result {
	rt, err := r.ready(typ, ctx)
	if err != nil {
		return NewErrorResult(1, err)
	}
	return rt.ExecuteCapture(ctx)
}

func (r *Registry) ready(typ RuntimeType, ctx *ExecutionContext) (Runtime, error) {
	rt, err := r.Get(typ)
	if err != nil {
		return nil, err
	}
	if !rt.Available() {
		return nil, fmt.Errorf("runtime '%s' is not available on this system", rt.Name())
	}
	if err := rt.Validate(ctx); err != nil {
		return nil, err
	}
	return rt, nil
}

// QuoteArgs joins args into a single shell word list, quoting each one so
// package names and paths reach the command unchanged.
func QuoteArgs(args ...string) (string, error) {
	quoted := make([]string, len(args))
	for i, a := range args {
		q, err := syntax.Quote(a, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", a, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}
