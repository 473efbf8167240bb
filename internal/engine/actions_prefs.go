// SPDX-License-Identifier: MPL-2.0

package engine

import (
	"context"
	"fmt"

	"github.com/rigup/rigup/internal/prefs"
	"github.com/rigup/rigup/pkg/playbook"
)

// preferences writes every key of the table on every apply. The probe reads
// the previous value for the report; verification re-reads the store and
// compares with the table.
type preferences struct {
	store prefs.Store
	table []playbook.Preference
}

func (a *preferences) Policy() Policy { return Reassert }

func (a *preferences) Items() []string {
	ids := make([]string, len(a.table))
	for i, p := range a.table {
		ids[i] = p.ID()
	}
	return ids
}

func (a *preferences) ProbeItem(ctx context.Context, i int) (State, error) {
	p := a.table[i]
	current, found, err := a.store.Read(ctx, p)
	if err != nil {
		return State{}, err
	}
	switch {
	case !found:
		return State{Detail: "was unset"}, nil
	case prefs.Equal(p, current):
		return State{Satisfied: true, Detail: fmt.Sprintf("already %q", current)}, nil
	default:
		return State{Detail: fmt.Sprintf("was %q", current)}, nil
	}
}

func (a *preferences) ApplyItem(ctx context.Context, i int) error {
	return a.store.Write(ctx, a.table[i])
}
