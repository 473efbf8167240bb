// SPDX-License-Identifier: MPL-2.0

package privilege

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rigup/rigup/internal/testutil"
)

type sudoCall struct {
	interactive bool
	args        []string
}

type fakeSudo struct {
	mu    sync.Mutex
	calls []sudoCall
	err   error
}

func (f *fakeSudo) run(_ context.Context, interactive bool, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sudoCall{interactive: interactive, args: args})
	return f.err
}

func (f *fakeSudo) snapshot() []sudoCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestKeepAlive_Prime(t *testing.T) {
	t.Parallel()

	sudo := &fakeSudo{}
	k := &KeepAlive{Sudo: sudo.run, Logger: quietLogger()}
	if err := k.Prime(context.Background()); err != nil {
		t.Fatalf("Prime() error: %v", err)
	}
	calls := sudo.snapshot()
	if len(calls) != 1 || !calls[0].interactive || !slices.Equal(calls[0].args, []string{"-v"}) {
		t.Errorf("calls = %+v, want one interactive sudo -v", calls)
	}
}

func TestKeepAlive_PrimeFailure(t *testing.T) {
	t.Parallel()

	denied := errors.New("incorrect password")
	k := &KeepAlive{Sudo: (&fakeSudo{err: denied}).run, Logger: quietLogger()}
	if err := k.Prime(context.Background()); !errors.Is(err, denied) {
		t.Errorf("Prime() = %v, want wrapped %v", err, denied)
	}
}

func TestKeepAlive_RunRefreshesEachInterval(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(time.Time{})
	sudo := &fakeSudo{}
	k := &KeepAlive{Interval: time.Minute, Sudo: sudo.run, Clock: clock, Logger: quietLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	for i := 1; i <= 3; i++ {
		clock.BlockUntilWaiters(1)
		clock.Advance(time.Minute)
		waitFor(t, func() bool { return k.Refreshes() == int64(i) })
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil on cancellation", err)
	}

	for _, c := range sudo.snapshot() {
		if c.interactive || !slices.Equal(c.args, []string{"-n", "-v"}) {
			t.Errorf("refresh call = %+v, want non-interactive sudo -n -v", c)
		}
	}
}

func TestKeepAlive_RunSurvivesFailures(t *testing.T) {
	t.Parallel()

	clock := testutil.NewFakeClock(time.Time{})
	k := &KeepAlive{
		Interval: time.Second,
		Sudo:     (&fakeSudo{err: errors.New("a password is required")}).run,
		Clock:    clock,
		Logger:   quietLogger(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- k.Run(ctx) }()

	for i := 1; i <= 2; i++ {
		clock.BlockUntilWaiters(1)
		clock.Advance(time.Second)
		waitFor(t, func() bool { return k.Failures() == int64(i) })
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil", err)
	}
	if k.Refreshes() != 0 {
		t.Errorf("Refreshes() = %d, want 0", k.Refreshes())
	}
}

func TestKeepAlive_RunStopsWhenCanceledBeforeFirstTick(t *testing.T) {
	t.Parallel()

	sudo := &fakeSudo{}
	k := &KeepAlive{Interval: time.Hour, Sudo: sudo.run, Clock: testutil.NewFakeClock(time.Time{}), Logger: quietLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := k.Run(ctx); err != nil {
		t.Errorf("Run() = %v", err)
	}
	if len(sudo.snapshot()) != 0 {
		t.Error("Run() refreshed after cancellation")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 5s")
		}
		time.Sleep(time.Millisecond)
	}
}
