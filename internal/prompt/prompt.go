// SPDX-License-Identifier: MPL-2.0

// Package prompt collects the free-text answers a playbook asks for, such as
// the user's name and email, once per run.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/rigup/rigup/pkg/playbook"
)

var (
	// ErrNoAnswer is returned when a prompt has no preset value, no default,
	// and cannot be asked interactively.
	ErrNoAnswer = errors.New("no answer")
	// ErrAborted is returned when the user cancels a prompt.
	ErrAborted = errors.New("prompt aborted")
)

type (
	// Asker asks the user a single question.
	Asker interface {
		Ask(ctx context.Context, p playbook.Prompt) (string, error)
	}

	// MissingAnswerError names the prompt that could not be answered.
	MissingAnswerError struct {
		Name string
	}

	// TranscriptAsker forwards to Next and writes every question with its
	// answer to Log.
	TranscriptAsker struct {
		Next Asker
		Log  io.Writer
	}

	// FormAsker asks with a huh input field.
	FormAsker struct {
		// Accessible renders plain prompts instead of the full-screen form.
		Accessible bool
		Input      io.Reader
		Output     io.Writer
		Theme      *huh.Theme
	}
)

// Error implements the error interface.
func (e *MissingAnswerError) Error() string {
	return fmt.Sprintf("prompt %q has no answer; pass --answer %s=<value> or set answers.%s in the config", e.Name, e.Name, e.Name)
}

// Unwrap returns ErrNoAnswer so callers can use errors.Is for programmatic detection.
func (e *MissingAnswerError) Unwrap() error { return ErrNoAnswer }

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Resolve returns an answer for every prompt. Preset values win; the rest are
// asked once each, in order. A nil asker means the session is not
// interactive, in which case defaults are used and a prompt without one fails.
func Resolve(ctx context.Context, prompts []playbook.Prompt, preset map[string]string, asker Asker) (map[string]string, error) {
	answers := make(map[string]string, len(prompts)+len(preset))
	for k, v := range preset {
		answers[k] = v
	}

	for _, p := range prompts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if v, ok := preset[p.Name]; ok && strings.TrimSpace(v) != "" {
			continue
		}
		if asker == nil {
			if p.Default == "" {
				return nil, &MissingAnswerError{Name: p.Name}
			}
			answers[p.Name] = p.Default
			continue
		}

		v, err := asker.Ask(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", p.Name, err)
		}
		v = strings.TrimSpace(v)
		if v == "" {
			v = p.Default
		}
		if v == "" {
			return nil, &MissingAnswerError{Name: p.Name}
		}
		answers[p.Name] = v
	}
	return answers, nil
}

// Ask implements Asker.
func (a *FormAsker) Ask(ctx context.Context, p playbook.Prompt) (string, error) {
	var value string
	title := p.Title
	if title == "" {
		title = p.Name
	}
	placeholder := p.Placeholder
	if placeholder == "" {
		placeholder = p.Default
	}

	input := huh.NewInput().
		Title(title).
		Description(p.Description).
		Placeholder(placeholder).
		Value(&value).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" && p.Default == "" {
				return errors.New("a value is required")
			}
			return nil
		})

	form := huh.NewForm(huh.NewGroup(input)).WithAccessible(a.Accessible)
	if a.Theme != nil {
		form = form.WithTheme(a.Theme)
	}
	if a.Input != nil {
		form = form.WithInput(a.Input)
	}
	if a.Output != nil {
		form = form.WithOutput(a.Output)
	}

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", ErrAborted
		}
		return "", err
	}
	return value, nil
}

// Ask implements Asker.
func (a *TranscriptAsker) Ask(ctx context.Context, p playbook.Prompt) (string, error) {
	title := p.Title
	if title == "" {
		title = p.Name
	}
	value, err := a.Next.Ask(ctx, p)
	if err != nil {
		fmt.Fprintf(a.Log, "? %s: (no answer: %v)\n", title, err)
		return value, err
	}
	fmt.Fprintf(a.Log, "? %s: %s\n", title, value)
	return value, nil
}
