package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrClientInput marks a malformed or incomplete inbound event.
	ErrClientInput = errors.New("invalid client input")
	// ErrNotConnected is returned when the target connection is gone.
	ErrNotConnected = errors.New("connection not registered")
	// ErrUnknownVoice is returned for a voice outside the supported set.
	ErrUnknownVoice = errors.New("unknown voice")
)

// ProviderErrorKind separates "the provider said no" from "we never got an
// answer".
type ProviderErrorKind string

const (
	ProviderRejected ProviderErrorKind = "rejected"
	ProviderNetwork  ProviderErrorKind = "network"
)

// ProviderError wraps any failure of an external provider call. Its message
// carries provider detail and must only ever be logged.
type ProviderError struct {
	Provider string
	Op       string
	Kind     ProviderErrorKind
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: %s (status %d): %v", e.Provider, e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %v", e.Provider, e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
