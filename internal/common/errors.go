// Package common defines sentinel errors and the typed error kinds shared by
// the discovery, scheduling and storage layers. Callers should use errors.Is
// and errors.As to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// Command-line errors.
	ErrUsage          = errors.New("usage error")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidPath    = errors.New("path is neither a regular file nor a directory")

	// Configuration errors.
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DiscoveryError reports an entry that could not be walked or stat'ed.
// It aborts the run before any upload starts.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery error at %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// SessionError reports that no upload endpoint could be obtained.
type SessionError struct {
	Backend string
	Err     error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s session error: %v", e.Backend, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// UploadError reports a failed transfer of a single file.
type UploadError struct {
	ID   string
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload error for %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// IsUsage reports whether err should be treated as a usage or
// configuration problem rather than an operational failure.
func IsUsage(err error) bool {
	return errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrUnknownBackend) ||
		errors.Is(err, ErrInvalidConfig)
}
