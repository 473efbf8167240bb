// SPDX-License-Identifier: MPL-2.0

package playbook

import (
	"strconv"
	"strings"
)

const (
	// SeverityError indicates a validation failure that prevents execution.
	SeverityError Severity = iota
	// SeverityWarning indicates a potential issue that doesn't prevent execution.
	SeverityWarning
)

type (
	// Severity indicates the severity level of a validation error.
	Severity int

	// ValidationError represents a single validation issue found in a playbook.
	ValidationError struct {
		// Field is the location of the issue (e.g., "step 'brew' preference #2").
		Field string
		// Message is the human-readable error message.
		Message string
		// Severity indicates whether this is an error or warning.
		Severity Severity
	}

	// ValidationErrors is a collection of validation errors that implements the error interface.
	ValidationErrors []ValidationError

	// FieldPath is a builder for locations like "step 'dotfiles' item #3".
	FieldPath struct {
		parts []string
	}
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// IsError returns true if this is an error-level validation issue.
func (e ValidationError) IsError() bool {
	return e.Severity == SeverityError
}

// Error implements the error interface by joining all error messages.
func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Error()
	}

	var b strings.Builder
	b.WriteString("validation failed with ")
	b.WriteString(strconv.Itoa(len(errs)))
	b.WriteString(" issues:\n")
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// HasErrors returns true if there are any error-level validation issues.
func (errs ValidationErrors) HasErrors() bool {
	for _, e := range errs {
		if e.IsError() {
			return true
		}
	}
	return false
}

// Errors returns only the error-level validation issues.
func (errs ValidationErrors) Errors() ValidationErrors {
	var result ValidationErrors
	for _, e := range errs {
		if e.IsError() {
			result = append(result, e)
		}
	}
	return result
}

// Warnings returns only the warning-level validation issues.
func (errs ValidationErrors) Warnings() ValidationErrors {
	var result ValidationErrors
	for _, e := range errs {
		if !e.IsError() {
			result = append(result, e)
		}
	}
	return result
}

// NewFieldPath creates a new empty FieldPath builder.
func NewFieldPath() *FieldPath {
	return &FieldPath{}
}

// String returns the complete field path as a string.
func (p *FieldPath) String() string {
	return strings.Join(p.parts, " ")
}

// Step adds a step context to the path.
func (p *FieldPath) Step(name StepName) *FieldPath {
	p.parts = append(p.parts, "step '"+string(name)+"'")
	return p
}

// StepIndex adds a step context by index (1-indexed for user display).
func (p *FieldPath) StepIndex(index int) *FieldPath {
	p.parts = append(p.parts, "step #"+strconv.Itoa(index+1))
	return p
}

// Prompt adds a prompt context to the path.
func (p *FieldPath) Prompt(name string) *FieldPath {
	p.parts = append(p.parts, "prompt '"+name+"'")
	return p
}

// Field adds a plain field name.
func (p *FieldPath) Field(name string) *FieldPath {
	p.parts = append(p.parts, name)
	return p
}

// Index adds "<what> #n" (1-indexed for user display).
func (p *FieldPath) Index(what string, index int) *FieldPath {
	p.parts = append(p.parts, what+" #"+strconv.Itoa(index+1))
	return p
}

// Validate runs the checks the CUE schema cannot express and returns every
// issue found. Cycles in "after" edges are detected when the step graph is built.
func (p *Playbook) Validate() ValidationErrors {
	var errs ValidationErrors
	add := func(path *FieldPath, sev Severity, msg string) {
		errs = append(errs, ValidationError{Field: path.String(), Message: msg, Severity: sev})
	}

	seenPrompts := make(map[string]bool, len(p.Prompts))
	for _, pr := range p.Prompts {
		if seenPrompts[pr.Name] {
			add(NewFieldPath().Prompt(pr.Name), SeverityError, "duplicate prompt name")
		}
		seenPrompts[pr.Name] = true
	}

	names := make(map[StepName]int, len(p.Steps))
	for i := range p.Steps {
		s := &p.Steps[i]
		if first, dup := names[s.Name]; dup {
			add(NewFieldPath().StepIndex(i), SeverityError,
				"duplicate step name '"+string(s.Name)+"' (first defined as step #"+strconv.Itoa(first+1)+")")
			continue
		}
		names[s.Name] = i
	}

	for i := range p.Steps {
		errs = append(errs, p.Steps[i].validate(names)...)
	}

	return errs
}

func (s *Step) validate(names map[StepName]int) ValidationErrors {
	var errs ValidationErrors
	add := func(path *FieldPath, sev Severity, msg string) {
		errs = append(errs, ValidationError{Field: path.String(), Message: msg, Severity: sev})
	}
	at := func() *FieldPath { return NewFieldPath().Step(s.Name) }

	switch kinds := s.kinds(); len(kinds) {
	case 0:
		add(at(), SeverityError, "no action block (one of ensure_dir, ensure_file, ensure_tool, packages, remove, preferences, shell)")
	case 1:
	default:
		parts := make([]string, len(kinds))
		for i, k := range kinds {
			parts[i] = string(k)
		}
		add(at(), SeverityError, "more than one action block: "+strings.Join(parts, ", "))
	}

	if valid, fieldErrs := s.Runtime.IsValid(); !valid {
		add(at().Field("runtime"), SeverityError, fieldErrs[0].Error())
	}
	for _, h := range s.Platforms {
		if valid, fieldErrs := h.IsValid(); !valid {
			add(at().Field("platforms"), SeverityError, fieldErrs[0].Error())
		}
	}

	seenAfter := make(map[StepName]bool, len(s.After))
	for _, dep := range s.After {
		switch {
		case dep == s.Name:
			add(at().Field("after"), SeverityError, "step cannot run after itself")
		case seenAfter[dep]:
			add(at().Field("after"), SeverityWarning, "'"+string(dep)+"' listed more than once")
		default:
			if _, ok := names[dep]; !ok {
				add(at().Field("after"), SeverityError, "unknown step '"+string(dep)+"'")
			}
		}
		seenAfter[dep] = true
	}

	checkTemplate := func(path *FieldPath, text string) {
		if err := CheckTemplate(text); err != nil {
			add(path, SeverityError, err.Error())
		}
	}

	if d := s.EnsureDir; d != nil {
		if _, err := d.DirMode(); err != nil {
			add(at().Field("ensure_dir.mode"), SeverityError, err.Error())
		}
		checkTemplate(at().Field("ensure_dir.path"), d.Path)
	}
	if f := s.EnsureFile; f != nil {
		if _, err := f.FileMode(); err != nil {
			add(at().Field("ensure_file.mode"), SeverityError, err.Error())
		}
		checkTemplate(at().Field("ensure_file.path"), f.Path)
		checkTemplate(at().Field("ensure_file.template"), f.Template)
	}
	if t := s.EnsureTool; t != nil {
		checkTemplate(at().Field("ensure_tool.install"), t.Install)
	}
	if pk := s.Packages; pk != nil {
		checkTemplate(at().Field("packages.install"), pk.Install)
		checkTemplate(at().Field("packages.check"), pk.Check)
		seen := make(map[string]bool, len(pk.Items))
		for i, item := range pk.Items {
			if seen[item] {
				add(at().Index("item", i), SeverityWarning, "duplicate package '"+item+"'")
			}
			seen[item] = true
		}
	}
	if r := s.Remove; r != nil {
		for i, path := range r.Paths {
			checkTemplate(at().Index("path", i), path)
		}
	}
	seenPrefs := make(map[string]bool, len(s.Preferences))
	for i, pref := range s.Preferences {
		path := at().Index("preference", i)
		if valid, fieldErrs := pref.Type.IsValid(); !valid {
			add(path, SeverityError, fieldErrs[0].Error())
		} else if !hasTemplateAction(pref.Value) {
			if _, err := pref.Typed(); err != nil {
				add(path, SeverityError, err.Error())
			}
		}
		checkTemplate(path, pref.Value)
		if seenPrefs[pref.ID()] {
			add(path, SeverityWarning, "'"+pref.ID()+"' is set more than once; the last value wins")
		}
		seenPrefs[pref.ID()] = true
	}
	if sh := s.Shell; sh != nil {
		checkTemplate(at().Field("shell.probe"), sh.Probe)
		checkTemplate(at().Field("shell.action"), sh.Action)
	}

	return errs
}
