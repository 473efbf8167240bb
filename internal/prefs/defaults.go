// SPDX-License-Identifier: MPL-2.0

package prefs

import (
	"context"
	"fmt"
	"strings"

	"github.com/rigup/rigup/internal/runtime"
	"github.com/rigup/rigup/pkg/playbook"
)

// DefaultsStore reads and writes keys with the macOS defaults command.
type DefaultsStore struct {
	rt runtime.Runtime
}

// NewDefaultsStore returns a store that runs defaults through rt.
func NewDefaultsStore(rt runtime.Runtime) *DefaultsStore {
	return &DefaultsStore{rt: rt}
}

// Name returns "defaults".
func (s *DefaultsStore) Name() string { return "defaults" }

// Read runs `defaults read <domain> <key>`. A missing domain or key is not an error.
func (s *DefaultsStore) Read(ctx context.Context, p playbook.Preference) (string, bool, error) {
	args, err := runtime.QuoteArgs(p.Domain, p.Key)
	if err != nil {
		return "", false, err
	}
	result := s.rt.ExecuteCapture(&runtime.ExecutionContext{Context: ctx, Script: "defaults read " + args})
	if result.Error != nil {
		return "", false, fmt.Errorf("read %s: %w", p.ID(), result.Error)
	}
	if !result.ExitCode.IsSuccess() {
		if strings.Contains(result.ErrOutput, "does not exist") {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read %s: defaults exited %s: %s",
			p.ID(), result.ExitCode, strings.TrimSpace(result.ErrOutput))
	}
	return strings.TrimRight(result.Output, "\n"), true, nil
}

// Write runs `defaults write <domain> <key> -<type> <value>`.
func (s *DefaultsStore) Write(ctx context.Context, p playbook.Preference) error {
	typed, err := p.Typed()
	if err != nil {
		return err
	}
	typ := p.Type
	if typ == "" {
		typ = playbook.PrefString
	}
	args, err := runtime.QuoteArgs(p.Domain, p.Key, "-"+string(typ), formatValue(typed))
	if err != nil {
		return err
	}
	result := s.rt.ExecuteCapture(&runtime.ExecutionContext{Context: ctx, Script: "defaults write " + args})
	if result.Error != nil {
		return fmt.Errorf("write %s: %w", p.ID(), result.Error)
	}
	if !result.ExitCode.IsSuccess() {
		return fmt.Errorf("write %s: defaults exited %s: %s",
			p.ID(), result.ExitCode, strings.TrimSpace(result.ErrOutput))
	}
	return nil
}
