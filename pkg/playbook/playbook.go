// SPDX-License-Identifier: MPL-2.0

package playbook

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rigup/rigup/pkg/platform"
)

const (
	// KindEnsureDir creates a directory when it is missing.
	KindEnsureDir Kind = "ensure_dir"
	// KindEnsureFile renders a file from a template when it is missing.
	KindEnsureFile Kind = "ensure_file"
	// KindEnsureTool runs an installer when a command is not on PATH.
	KindEnsureTool Kind = "ensure_tool"
	// KindPackages installs a list of packages, one at a time.
	KindPackages Kind = "packages"
	// KindRemove deletes a list of paths, one at a time.
	KindRemove Kind = "remove"
	// KindPreferences writes a table of preference keys on every run.
	KindPreferences Kind = "preferences"
	// KindShell runs an arbitrary probe/action pair.
	KindShell Kind = "shell"

	// RuntimeNative runs scripts in the host shell.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs scripts in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// PrefString is an opaque string value.
	PrefString PrefType = "string"
	// PrefBool accepts true/false/yes/no/1/0.
	PrefBool PrefType = "bool"
	// PrefInt is a base-10 integer.
	PrefInt PrefType = "int"
	// PrefFloat is a decimal number.
	PrefFloat PrefType = "float"

	// DefaultDirMode is used by ensure_dir when no mode is given.
	DefaultDirMode = "0755"
	// DefaultFileMode is used by ensure_file when no mode is given.
	DefaultFileMode = "0644"
)

var (
	// ErrInvalidRuntimeMode is returned when a RuntimeMode value is not one of the defined modes.
	ErrInvalidRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidPrefType is returned when a PrefType value is not one of the defined types.
	ErrInvalidPrefType = errors.New("invalid preference type")
	// ErrInvalidPrefValue is returned when a preference value does not parse as its type.
	ErrInvalidPrefValue = errors.New("invalid preference value")
	// ErrInvalidMode is returned when a file mode is not an octal permission string.
	ErrInvalidMode = errors.New("invalid file mode")
)

type (
	// Kind names the action block a step carries.
	Kind string

	// RuntimeMode selects the shell that runs step scripts.
	RuntimeMode string

	// InvalidRuntimeModeError is returned when a RuntimeMode value is not recognized.
	// It wraps ErrInvalidRuntimeMode for errors.Is() compatibility.
	InvalidRuntimeModeError struct {
		Value RuntimeMode
	}

	// PrefType is the declared type of a preference value.
	PrefType string

	// InvalidPrefTypeError is returned when a PrefType value is not recognized.
	InvalidPrefTypeError struct {
		Value PrefType
	}

	// InvalidPrefValueError is returned when a value does not parse as its declared type.
	InvalidPrefValueError struct {
		Type  PrefType
		Value string
	}

	// InvalidModeError is returned when a mode string is not octal.
	InvalidModeError struct {
		Value string
	}

	// StepName identifies a step within a playbook.
	StepName string

	// Playbook is a parsed playbook file.
	Playbook struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		// RequiresTerminal is the TERM_PROGRAM value the run must be started from.
		// Empty disables the check.
		RequiresTerminal string `json:"requires_terminal,omitempty"`
		// Privileged starts the credential keep-alive loop for the run.
		Privileged bool `json:"privileged,omitempty"`
		// Env is exported to every step script. Values may reference $VARS and ~.
		Env     map[string]string `json:"env,omitempty"`
		Prompts []Prompt          `json:"prompts,omitempty"`
		Steps   []Step            `json:"steps"`

		// FilePath is where the playbook was read from (not part of the document).
		FilePath string `json:"-"`
		// Warnings holds the warning-level findings of Validate from parsing.
		Warnings ValidationErrors `json:"-"`
	}

	// Prompt asks the user for a free-text value once per run.
	Prompt struct {
		Name        string `json:"name"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		Placeholder string `json:"placeholder,omitempty"`
		Default     string `json:"default,omitempty"`
	}

	// Step is one idempotent unit of provisioning. Exactly one action block is set.
	Step struct {
		Name        StepName        `json:"name"`
		Description string          `json:"description,omitempty"`
		After       []StepName      `json:"after,omitempty"`
		Platforms   []platform.Host `json:"platforms,omitempty"`
		Runtime     RuntimeMode     `json:"runtime,omitempty"`
		EnsureDir   *EnsureDir      `json:"ensure_dir,omitempty"`
		EnsureFile  *EnsureFile     `json:"ensure_file,omitempty"`
		EnsureTool  *EnsureTool     `json:"ensure_tool,omitempty"`
		Packages    *Packages       `json:"packages,omitempty"`
		Remove      *Remove         `json:"remove,omitempty"`
		Preferences []Preference    `json:"preferences,omitempty"`
		Shell       *Shell          `json:"shell,omitempty"`
	}

	// EnsureDir creates Path when it does not exist.
	EnsureDir struct {
		Path string `json:"path"`
		Mode string `json:"mode,omitempty"`
	}

	// EnsureFile renders Template into Path when Path does not exist.
	// An existing file is never rewritten.
	EnsureFile struct {
		Path     string `json:"path"`
		Template string `json:"template"`
		Mode     string `json:"mode,omitempty"`
	}

	// EnsureTool runs Install when Command cannot be found on PATH.
	EnsureTool struct {
		Command string `json:"command"`
		Install string `json:"install"`
	}

	// Packages runs "<Install> <item>" for every item not already present.
	// When Check is set, "<Check> <item>" exiting 0 means present.
	Packages struct {
		Install string   `json:"install"`
		Check   string   `json:"check,omitempty"`
		Items   []string `json:"items"`
	}

	// Remove deletes each path that exists.
	Remove struct {
		Paths []string `json:"paths"`
	}

	// Preference is a single key in a preference domain.
	Preference struct {
		Domain string   `json:"domain"`
		Key    string   `json:"key"`
		Type   PrefType `json:"type"`
		Value  string   `json:"value"`
	}

	// Shell is a generic probe/action pair. Without a probe the action runs every time.
	Shell struct {
		Probe  string `json:"probe,omitempty"`
		Action string `json:"action"`
	}
)

// Step looks up a step by name.
func (p *Playbook) Step(name StepName) (*Step, bool) {
	for i := range p.Steps {
		if p.Steps[i].Name == name {
			return &p.Steps[i], true
		}
	}
	return nil, false
}

// StepNames returns the step names in declared order.
func (p *Playbook) StepNames() []StepName {
	names := make([]StepName, len(p.Steps))
	for i := range p.Steps {
		names[i] = p.Steps[i].Name
	}
	return names
}

// Kind reports which action block the step carries. A step with no block
// (or more than one, which Validate rejects) reports the first one set.
func (s *Step) Kind() Kind {
	kinds := s.kinds()
	if len(kinds) == 0 {
		return ""
	}
	return kinds[0]
}

func (s *Step) kinds() []Kind {
	var kinds []Kind
	if s.EnsureDir != nil {
		kinds = append(kinds, KindEnsureDir)
	}
	if s.EnsureFile != nil {
		kinds = append(kinds, KindEnsureFile)
	}
	if s.EnsureTool != nil {
		kinds = append(kinds, KindEnsureTool)
	}
	if s.Packages != nil {
		kinds = append(kinds, KindPackages)
	}
	if s.Remove != nil {
		kinds = append(kinds, KindRemove)
	}
	if len(s.Preferences) > 0 {
		kinds = append(kinds, KindPreferences)
	}
	if s.Shell != nil {
		kinds = append(kinds, KindShell)
	}
	return kinds
}

// RunsOn reports whether the step applies to host. No platforms means all.
func (s *Step) RunsOn(host platform.Host) bool {
	if len(s.Platforms) == 0 {
		return true
	}
	for _, p := range s.Platforms {
		if p == host {
			return true
		}
	}
	return false
}

// String returns the string representation of the StepName.
func (n StepName) String() string { return string(n) }

// String returns the string representation of the Kind.
func (k Kind) String() string { return string(k) }

// String returns the string representation of the RuntimeMode.
func (m RuntimeMode) String() string { return string(m) }

// IsValid returns whether the RuntimeMode is one of the defined modes.
// The zero value means "use the configured default" and is valid.
func (m RuntimeMode) IsValid() (bool, []error) {
	switch m {
	case "", RuntimeNative, RuntimeVirtual:
		return true, nil
	default:
		return false, []error{&InvalidRuntimeModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidRuntimeModeError.
func (e *InvalidRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidRuntimeModeError) Unwrap() error { return ErrInvalidRuntimeMode }

// String returns the string representation of the PrefType.
func (t PrefType) String() string { return string(t) }

// IsValid returns whether the PrefType is one of the defined types.
func (t PrefType) IsValid() (bool, []error) {
	switch t {
	case PrefString, PrefBool, PrefInt, PrefFloat:
		return true, nil
	default:
		return false, []error{&InvalidPrefTypeError{Value: t}}
	}
}

// Error implements the error interface for InvalidPrefTypeError.
func (e *InvalidPrefTypeError) Error() string {
	return fmt.Sprintf("invalid preference type %q (valid: string, bool, int, float)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidPrefTypeError) Unwrap() error { return ErrInvalidPrefType }

// Error implements the error interface for InvalidPrefValueError.
func (e *InvalidPrefValueError) Error() string {
	return fmt.Sprintf("value %q is not a valid %s", e.Value, e.Type)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidPrefValueError) Unwrap() error { return ErrInvalidPrefValue }

// Parse converts value into its typed form: string, bool, int64 or float64.
func (t PrefType) Parse(value string) (any, error) {
	switch t {
	case PrefString, "":
		return value, nil
	case PrefBool:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
	case PrefInt:
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return n, nil
		}
	case PrefFloat:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f, nil
		}
	default:
		return nil, &InvalidPrefTypeError{Value: t}
	}
	return nil, &InvalidPrefValueError{Type: t, Value: value}
}

// ID returns "domain/key".
func (p Preference) ID() string { return p.Domain + "/" + p.Key }

// Typed parses Value according to Type.
func (p Preference) Typed() (any, error) { return p.Type.Parse(p.Value) }

// ParseMode parses an octal permission string such as "0755" or "644".
func ParseMode(mode string) (uint32, error) {
	n, err := strconv.ParseUint(mode, 8, 32)
	if err != nil || n > 0o7777 {
		return 0, &InvalidModeError{Value: mode}
	}
	return uint32(n), nil
}

// Error implements the error interface for InvalidModeError.
func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid file mode %q: must be octal, e.g. \"0755\"", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidModeError) Unwrap() error { return ErrInvalidMode }

// DirMode returns the parsed mode or DefaultDirMode.
func (d *EnsureDir) DirMode() (uint32, error) {
	if d.Mode == "" {
		return ParseMode(DefaultDirMode)
	}
	return ParseMode(d.Mode)
}

// FileMode returns the parsed mode or DefaultFileMode.
func (f *EnsureFile) FileMode() (uint32, error) {
	if f.Mode == "" {
		return ParseMode(DefaultFileMode)
	}
	return ParseMode(f.Mode)
}
