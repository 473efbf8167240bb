// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// RuntimeNative runs step scripts in the host system shell.
	// Defined locally to avoid coupling config to internal/runtime.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs step scripts in the embedded mvdan/sh interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// PrefStoreAuto selects the defaults store on macOS and the file store elsewhere.
	PrefStoreAuto PrefStoreKind = "auto"
	// PrefStoreDefaults writes preferences through the macOS defaults command.
	PrefStoreDefaults PrefStoreKind = "defaults"
	// PrefStoreFile writes preferences into a TOML document.
	PrefStoreFile PrefStoreKind = "file"

	// DefaultKeepAliveInterval is how often elevated credentials are refreshed.
	DefaultKeepAliveInterval = 60 * time.Second
)

var (
	// ErrInvalidConfigRuntimeMode is returned when a config RuntimeMode value is not recognized.
	ErrInvalidConfigRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPrefStore is returned when a PrefStoreKind value is not recognized.
	ErrInvalidPrefStore = errors.New("invalid preference store")
	// ErrInvalidKeepAliveInterval is returned when the keep-alive interval is not positive.
	ErrInvalidKeepAliveInterval = errors.New("invalid keep-alive interval")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode specifies the default execution runtime for step scripts.
	RuntimeMode string

	// InvalidConfigRuntimeModeError is returned when a config RuntimeMode value is not recognized.
	// It wraps ErrInvalidConfigRuntimeMode for errors.Is() compatibility.
	InvalidConfigRuntimeModeError struct {
		Value RuntimeMode
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// PrefStoreKind selects the preference store backend.
	PrefStoreKind string

	// InvalidPrefStoreError is returned when a PrefStoreKind value is not recognized.
	InvalidPrefStoreError struct {
		Value PrefStoreKind
	}

	// InvalidKeepAliveIntervalError is returned when PrivilegeConfig.Interval <= 0.
	InvalidKeepAliveIntervalError struct {
		Value time.Duration
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// DefaultRuntime is used by steps that do not name a runtime.
		DefaultRuntime RuntimeMode `json:"default_runtime" mapstructure:"default_runtime"`
		// LogDir is where run logs are written. Empty means the state directory.
		LogDir string `json:"log_dir" mapstructure:"log_dir"`
		// Engine tunes step execution.
		Engine EngineConfig `json:"engine" mapstructure:"engine"`
		// Privilege configures the credential keep-alive loop.
		Privilege PrivilegeConfig `json:"privilege" mapstructure:"privilege"`
		// Preferences selects the preference store.
		Preferences PreferencesConfig `json:"preferences" mapstructure:"preferences"`
		// History configures the run history database.
		History HistoryConfig `json:"history" mapstructure:"history"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
		// Answers pre-answers playbook prompts by name.
		Answers map[string]string `json:"answers" mapstructure:"answers"`
	}

	// EngineConfig tunes the provisioning engine.
	EngineConfig struct {
		// StopOnFailure aborts the run at the first failed step.
		StopOnFailure bool `json:"stop_on_failure" mapstructure:"stop_on_failure"`
		// Verify re-probes each step after its action ran (default: true).
		Verify bool `json:"verify" mapstructure:"verify"`
	}

	// PrivilegeConfig configures the credential keep-alive loop.
	PrivilegeConfig struct {
		// KeepAlive enables the loop for playbooks marked privileged (default: true).
		KeepAlive bool `json:"keepalive" mapstructure:"keepalive"`
		// Interval between refreshes.
		Interval time.Duration `json:"interval" mapstructure:"interval"`
	}

	// PreferencesConfig selects the preference store backend.
	PreferencesConfig struct {
		Store PrefStoreKind `json:"store" mapstructure:"store"`
		// File is the TOML document used by the file store. Empty means the config directory.
		File string `json:"file" mapstructure:"file"`
	}

	// HistoryConfig configures the run history database.
	HistoryConfig struct {
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Path to the SQLite database. Empty means the state directory.
		Path string `json:"path" mapstructure:"path"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables verbose output
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.DefaultRuntime.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Preferences.Store.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Privilege.Interval <= 0 {
		errs = append(errs, &InvalidKeepAliveIntervalError{Value: c.Privilege.Interval})
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface for InvalidConfigRuntimeModeError.
func (e *InvalidConfigRuntimeModeError) Error() string {
	return fmt.Sprintf("invalid runtime mode %q (valid: native, virtual)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidConfigRuntimeModeError) Unwrap() error {
	return ErrInvalidConfigRuntimeMode
}

// String returns the string representation of the config RuntimeMode.
func (m RuntimeMode) String() string { return string(m) }

// IsValid returns whether the config RuntimeMode is one of the defined runtime modes,
// and a list of validation errors if it is not.
func (m RuntimeMode) IsValid() (bool, []error) {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return true, nil
	default:
		return false, []error{&InvalidConfigRuntimeModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidColorSchemeError.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error {
	return ErrInvalidColorScheme
}

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined color schemes,
// and a list of validation errors if it is not.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

func (e *InvalidPrefStoreError) Error() string {
	return fmt.Sprintf("invalid preference store %q (valid: auto, defaults, file)", e.Value)
}

func (e *InvalidPrefStoreError) Unwrap() error { return ErrInvalidPrefStore }

func (k PrefStoreKind) String() string { return string(k) }

// IsValid returns whether the PrefStoreKind names a known backend.
func (k PrefStoreKind) IsValid() (bool, []error) {
	switch k {
	case PrefStoreAuto, PrefStoreDefaults, PrefStoreFile:
		return true, nil
	default:
		return false, []error{&InvalidPrefStoreError{Value: k}}
	}
}

func (e *InvalidKeepAliveIntervalError) Error() string {
	return fmt.Sprintf("invalid keep-alive interval %s: must be positive", e.Value)
}

func (e *InvalidKeepAliveIntervalError) Unwrap() error { return ErrInvalidKeepAliveInterval }

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultRuntime: RuntimeNative,
		LogDir:         "", // resolved by LogDirectory
		Engine: EngineConfig{
			StopOnFailure: false,
			Verify:        true,
		},
		Privilege: PrivilegeConfig{
			KeepAlive: true,
			Interval:  DefaultKeepAliveInterval,
		},
		Preferences: PreferencesConfig{
			Store: PrefStoreAuto,
			File:  "",
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    "",
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
			Verbose:     false,
		},
		Answers: map[string]string{},
	}
}
