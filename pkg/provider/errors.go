package provider

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable indicates the data source does not exist for this
// user/device. Non-retryable; surfaced to the user as "not available".
var ErrProviderUnavailable = errors.New("health data provider is not available")

// ErrNoPermissionsGranted indicates the user declined every requested
// category. Non-retryable without new consent.
var ErrNoPermissionsGranted = errors.New("no health data permissions were granted")

// FetchError indicates a transient I/O failure while querying samples.
// Retryable by re-invoking the sync.
type FetchError struct {
	Provider string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("provider %s: sample fetch failed: %v", e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError wraps an underlying I/O error with the provider tag.
func NewFetchError(provider string, err error) *FetchError {
	return &FetchError{Provider: provider, Err: err}
}
