package common

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("resource not found")
	// ErrConfiguration matches every ConfigurationError.
	ErrConfiguration = errors.New("broken resource bundle")
)

// NotFoundError is returned in strict mode when a string key or an image
// could not be resolved. ID is the leaf segment for string keys and the
// full logical name for images.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return ErrNotFound.Error() + ": " + e.ID
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConfigurationError reports a bundle which cannot be used at all: missing
// base locale table or missing placeholder image.
type ConfigurationError struct {
	What string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return ErrConfiguration.Error() + ": " + e.What + ": " + e.Err.Error()
	}
	return ErrConfiguration.Error() + ": " + e.What
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// LeafKey returns the last dot separated segment of hierarchical key.
func LeafKey(key string) string {
	if i := strings.LastIndexByte(key, '.'); i >= 0 {
		return key[i+1:]
	}
	return key
}
