// SPDX-License-Identifier: MPL-2.0

package prefs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rigup/rigup/internal/config"
	"github.com/rigup/rigup/internal/runtime"
	"github.com/rigup/rigup/pkg/platform"
	"github.com/rigup/rigup/pkg/playbook"
)

// ErrUnsupportedStore is returned when a store backend cannot run on the current host.
var ErrUnsupportedStore = errors.New("preference store not supported on this host")

// Store reads and writes single preference keys.
type Store interface {
	// Name identifies the backend in reports and logs.
	Name() string
	// Read returns the current value of the key. found is false when the key is unset.
	Read(ctx context.Context, p playbook.Preference) (value string, found bool, err error)
	// Write sets the key to p.Value, interpreted as p.Type.
	Write(ctx context.Context, p playbook.Preference) error
}

// Options configures Open.
type Options struct {
	// Kind selects the backend; auto picks defaults on macOS and the file store elsewhere.
	Kind config.PrefStoreKind
	// File is the TOML document used by the file store.
	File string
	// Host is the platform the run targets.
	Host platform.Host
	// Runtime runs the defaults command.
	Runtime runtime.Runtime
}

// Open returns the store selected by opts.
func Open(opts Options) (Store, error) {
	kind := opts.Kind
	if kind == "" || kind == config.PrefStoreAuto {
		kind = config.PrefStoreFile
		if opts.Host == platform.HostMacOS {
			kind = config.PrefStoreDefaults
		}
	}

	switch kind {
	case config.PrefStoreDefaults:
		if opts.Host != platform.HostMacOS {
			return nil, fmt.Errorf("%w: defaults requires macOS, host is %s", ErrUnsupportedStore, opts.Host)
		}
		if opts.Runtime == nil {
			return nil, errors.New("defaults store needs a runtime")
		}
		return NewDefaultsStore(opts.Runtime), nil
	case config.PrefStoreFile:
		if opts.File == "" {
			return nil, errors.New("file store needs a path")
		}
		return NewFileStore(opts.File), nil
	default:
		return nil, &config.InvalidPrefStoreError{Value: kind}
	}
}

// Equal reports whether current holds the same value as p once both are
// read as p.Type. For bools "1" equals "true"; numbers compare numerically.
func Equal(p playbook.Preference, current string) bool {
	want, err := p.Typed()
	if err != nil {
		return false
	}
	got, err := p.Type.Parse(current)
	if err != nil {
		return false
	}
	if wf, ok := want.(float64); ok {
		gf := got.(float64)
		return wf == gf || (math.IsNaN(wf) && math.IsNaN(gf))
	}
	return want == got
}

// formatValue renders a typed value the way Read reports it.
func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
