package common

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"
)

func TestLeafKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"A.B.Key", "Key"},
		{"B.Key", "Key"},
		{"Key", "Key"},
		{"", ""},
		{"A.B.", ""},
		{".Key", "Key"},
	}
	for _, tt := range tests {
		if got := LeafKey(tt.key); got != tt.want {
			t.Errorf("LeafKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestNotFoundError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &NotFoundError{ID: "Key"})
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = false")
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.ID != "Key" {
		t.Errorf("errors.As() = %v, ID = %v", nf, nf)
	}
	if errors.Is(err, ErrConfiguration) {
		t.Error("NotFoundError must not match ErrConfiguration")
	}
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{What: "base locale table", Err: fs.ErrNotExist}
	if !errors.Is(err, ErrConfiguration) {
		t.Error("errors.Is(err, ErrConfiguration) = false")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Error("cause is not unwrapped")
	}
	if got := (&ConfigurationError{What: "placeholder image"}).Error(); got != "broken resource bundle: placeholder image" {
		t.Errorf("Error() = %q", got)
	}
}

func TestResolutionMode(t *testing.T) {
	if ResolutionModeDefault.Resolve() != ResolutionModeLenient {
		t.Error("default must resolve to lenient")
	}
	if !ResolutionModeStrict.Strict() || ResolutionModeLenient.Strict() || ResolutionModeDefault.Strict() {
		t.Error("Strict() reports wrong value")
	}
	m, err := ParseResolutionMode("strict")
	if err != nil || m != ResolutionModeStrict {
		t.Errorf("ParseResolutionMode() = %v, %v", m, err)
	}
	if _, err := ParseResolutionMode("loud"); !errors.Is(err, ErrInvalidResolutionMode) {
		t.Errorf("ParseResolutionMode(loud) error = %v", err)
	}
}
