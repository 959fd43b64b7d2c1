package config

import (
	"os"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				if err := os.Setenv(tt.key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() {
					if err := os.Unsetenv(tt.key); err != nil {
						t.Errorf("failed to unset env var: %v", err)
					}
				}()
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestGetenv(t *testing.T) {
	if err := os.Setenv("TEST_GETENV", "set"); err != nil {
		t.Fatalf("failed to set env var: %v", err)
	}
	defer func() { _ = os.Unsetenv("TEST_GETENV") }()

	if got := getenv("TEST_GETENV", "default"); got != "set" {
		t.Errorf("getenv() = %v, want set", got)
	}
	if got := getenv("TEST_GETENV_MISSING", "default"); got != "default" {
		t.Errorf("getenv() = %v, want default", got)
	}
}

func TestGetenvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		set      bool
		def      int
		expected int
	}{
		{name: "valid integer", value: "42", set: true, def: 7, expected: 42},
		{name: "invalid integer falls back", value: "not_a_number", set: true, def: 7, expected: 7},
		{name: "unset falls back", set: false, def: 7, expected: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_GETENV_INT"
			if tt.set {
				if err := os.Setenv(key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() { _ = os.Unsetenv(key) }()
			}
			if got := getenvInt(key, tt.def); got != tt.expected {
				t.Errorf("getenvInt() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		set      bool
		def      bool
		expected bool
	}{
		{name: "true", value: "true", set: true, def: false, expected: true},
		{name: "false", value: "false", set: true, def: true, expected: false},
		{name: "invalid falls back", value: "yep", set: true, def: true, expected: true},
		{name: "unset falls back", set: false, def: true, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_MUST_BOOL"
			if tt.set {
				if err := os.Setenv(key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() { _ = os.Unsetenv(key) }()
			}
			if got := mustBool(key, tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		set      bool
		def      time.Duration
		expected time.Duration
	}{
		{name: "valid duration", value: "30s", set: true, def: time.Minute, expected: 30 * time.Second},
		{name: "invalid falls back", value: "soon", set: true, def: time.Minute, expected: time.Minute},
		{name: "unset falls back", set: false, def: time.Minute, expected: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_MUST_DURATION"
			if tt.set {
				if err := os.Setenv(key, tt.value); err != nil {
					t.Fatalf("failed to set env var: %v", err)
				}
				defer func() { _ = os.Unsetenv(key) }()
			}
			if got := mustDuration(key, tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}
