// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"errors"
)

const (
	// ExistenceGated actions are skipped when the probe reports the effect in place.
	ExistenceGated Policy = iota
	// Reassert actions run on every apply; the probe only reports prior state.
	Reassert
)

// ErrVerificationFailed is wrapped by errors reported when the re-probe
// after an action still finds the state divergent.
var ErrVerificationFailed = errors.New("verification failed")

// ErrNoPrefStore is returned by preference steps when no store could be opened.
var ErrNoPrefStore = errors.New("no preference store configured")

type (
	// Policy decides whether a probe result can skip the action.
	Policy int

	// State is what a probe found.
	State struct {
		// Satisfied is true when the declared effect is already in place.
		Satisfied bool
		// Unknown is true when the action has no way to probe; such actions
		// are never skipped and never verified.
		Unknown bool
		// Detail is a short human-readable description of the state.
		Detail string
	}

	// Action is a step with a single effect.
	Action interface {
		Policy() Policy
		Probe(ctx context.Context) (State, error)
		Apply(ctx context.Context) error
	}

	// ItemAction is a step with one effect per item. Items are addressed by
	// index so the same label may appear twice.
	ItemAction interface {
		Policy() Policy
		Items() []string
		ProbeItem(ctx context.Context, i int) (State, error)
		ApplyItem(ctx context.Context, i int) error
	}
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case ExistenceGated:
		return "existence-gated"
	case Reassert:
		return "reassert"
	default:
		return "unknown"
	}
}

// unknownState is the probe result of actions that cannot probe.
func unknownState(detail string) State {
	return State{Unknown: true, Detail: detail}
}
