// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
)

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

const (
	// HostLinux is the playbook name for Linux hosts.
	HostLinux Host = "linux"
	// HostMacOS is the playbook name for macOS hosts.
	HostMacOS Host = "macos"
	// HostWindows is the playbook name for Windows hosts.
	HostWindows Host = "windows"
)

// ErrInvalidHost is the sentinel error wrapped by InvalidHostError.
var ErrInvalidHost = errors.New("invalid host")

type (
	// Host is an operating system name as written in a playbook.
	Host string

	// InvalidHostError is returned when a Host value is not recognized.
	InvalidHostError struct {
		Value Host
	}
)

// Error implements the error interface.
func (e *InvalidHostError) Error() string {
	return fmt.Sprintf("invalid host %q (valid: linux, macos, windows)", e.Value)
}

// Unwrap returns ErrInvalidHost for errors.Is.
func (e *InvalidHostError) Unwrap() error { return ErrInvalidHost }

// IsValid returns whether the Host is one of the defined hosts.
func (h Host) IsValid() (bool, []error) {
	switch h {
	case HostLinux, HostMacOS, HostWindows:
		return true, nil
	default:
		return false, []error{&InvalidHostError{Value: h}}
	}
}

// String returns the playbook spelling of the host.
func (h Host) String() string { return string(h) }

// Current returns the host the process is running on.
func Current() Host {
	return FromGOOS(runtime.GOOS)
}

// FromGOOS converts a runtime.GOOS value to a Host. Unknown Unix flavours
// are treated as Linux.
func FromGOOS(goos string) Host {
	switch goos {
	case Darwin:
		return HostMacOS
	case Windows:
		return HostWindows
	default:
		return HostLinux
	}
}
