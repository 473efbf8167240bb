// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestRuntimeMode_IsValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value RuntimeMode
		want  bool
	}{
		{RuntimeNative, true},
		{RuntimeVirtual, true},
		{"container", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			t.Parallel()
			valid, errs := tt.value.IsValid()
			if valid != tt.want {
				t.Fatalf("IsValid() = %v, want %v", valid, tt.want)
			}
			if !tt.want && !errors.Is(errs[0], ErrInvalidConfigRuntimeMode) {
				t.Errorf("error should wrap ErrInvalidConfigRuntimeMode, got %v", errs[0])
			}
		})
	}
}

func TestColorScheme_IsValid(t *testing.T) {
	t.Parallel()

	for _, cs := range []ColorScheme{ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight} {
		if valid, errs := cs.IsValid(); !valid {
			t.Errorf("%q should be valid, got %v", cs, errs)
		}
	}
	valid, errs := ColorScheme("neon").IsValid()
	if valid {
		t.Fatal("neon should be invalid")
	}
	var csErr *InvalidColorSchemeError
	if !errors.As(errs[0], &csErr) || csErr.Value != "neon" {
		t.Errorf("expected *InvalidColorSchemeError{neon}, got %v", errs[0])
	}
}

func TestPrefStoreKind_IsValid(t *testing.T) {
	t.Parallel()

	for _, k := range []PrefStoreKind{PrefStoreAuto, PrefStoreDefaults, PrefStoreFile} {
		if valid, _ := k.IsValid(); !valid {
			t.Errorf("%q should be valid", k)
		}
	}
	if valid, errs := PrefStoreKind("plist").IsValid(); valid || !errors.Is(errs[0], ErrInvalidPrefStore) {
		t.Errorf("plist should be rejected with ErrInvalidPrefStore, got %v", errs)
	}
}

func TestConfig_IsValid_CollectsFieldErrors(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.DefaultRuntime = "container"
	cfg.Privilege.Interval = 0

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("config should be invalid")
	}
	var cfgErr *InvalidConfigError
	if !errors.As(errs[0], &cfgErr) {
		t.Fatalf("expected *InvalidConfigError, got %T", errs[0])
	}
	if len(cfgErr.FieldErrors) != 2 {
		t.Errorf("FieldErrors = %d, want 2", len(cfgErr.FieldErrors))
	}
	if !errors.Is(errs[0], ErrInvalidConfig) {
		t.Error("error should wrap ErrInvalidConfig")
	}
	if !errors.Is(cfgErr.FieldErrors[1], ErrInvalidKeepAliveInterval) {
		t.Errorf("second field error = %v, want keep-alive interval error", cfgErr.FieldErrors[1])
	}
}
