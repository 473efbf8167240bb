// SPDX-License-Identifier: MPL-2.0

// Package privilege keeps elevated credentials fresh while a run is in progress.
package privilege

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	goruntime "runtime"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultInterval is how often credentials are refreshed when Interval is unset.
const DefaultInterval = 60 * time.Second

// ErrUnsupported is returned by Prime on hosts without sudo.
var ErrUnsupported = errors.New("privilege keep-alive is not supported on this host")

type (
	// Clock is the part of time the loop depends on.
	Clock interface {
		After(d time.Duration) <-chan time.Time
	}

	// SudoFunc runs sudo with args. interactive is true when the user may be prompted.
	SudoFunc func(ctx context.Context, interactive bool, args ...string) error

	// KeepAlive refreshes sudo credentials on a fixed interval. It shares no
	// state with the run it accompanies.
	KeepAlive struct {
		Interval time.Duration
		Sudo     SudoFunc
		Clock    Clock
		Logger   *log.Logger

		refreshes atomic.Int64
		failures  atomic.Int64
	}

	realClock struct{}
)

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// New returns a KeepAlive that runs the system sudo.
func New(interval time.Duration, logger *log.Logger) *KeepAlive {
	return &KeepAlive{Interval: interval, Logger: logger}
}

// Supported reports whether the host has a sudo to keep alive.
func Supported() bool {
	if goruntime.GOOS == "windows" {
		return false
	}
	_, err := exec.LookPath("sudo")
	return err == nil
}

// Prime asks for the password once, up front, so the run itself never blocks
// on a prompt.
func (k *KeepAlive) Prime(ctx context.Context) error {
	if k.Sudo == nil && !Supported() {
		return ErrUnsupported
	}
	if err := k.sudo()(ctx, true, "-v"); err != nil {
		return fmt.Errorf("acquire privileges: %w", err)
	}
	return nil
}

// Run refreshes credentials every Interval until ctx is done. A failed
// refresh is logged and the loop keeps going; Run returns nil on cancellation.
func (k *KeepAlive) Run(ctx context.Context) error {
	interval := k.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	clock := k.Clock
	if clock == nil {
		clock = realClock{}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-clock.After(interval):
		}

		err := k.sudo()(ctx, false, "-n", "-v")
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			k.failures.Add(1)
			k.logger().Warn("privilege refresh failed", "error", err)
			continue
		}
		k.refreshes.Add(1)
		k.logger().Debug("privileges refreshed")
	}
}

// Refreshes returns the number of successful refreshes so far.
func (k *KeepAlive) Refreshes() int64 { return k.refreshes.Load() }

// Failures returns the number of failed refreshes so far.
func (k *KeepAlive) Failures() int64 { return k.failures.Load() }

func (k *KeepAlive) sudo() SudoFunc {
	if k.Sudo != nil {
		return k.Sudo
	}
	return runSudo
}

func (k *KeepAlive) logger() *log.Logger {
	if k.Logger != nil {
		return k.Logger
	}
	return log.Default()
}

func runSudo(ctx context.Context, interactive bool, args ...string) error {
	cmd := exec.CommandContext(ctx, "sudo", args...)
	if interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}
