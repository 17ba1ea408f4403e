// Package storage defines the contract every upload backend implements and
// the helpers they share for progress reporting and size verification.
//
// A backend hands out a Session once per run (server selection, client
// construction, credential checks) and then serves many concurrent Upload
// calls against it. Upload must report cumulative byte counts tagged with the
// identifier it was given and return a user-facing reference on success.
package storage

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gofileup/internal/models"
)

var (
	ErrSizeMismatch     = errors.New("size mismatch")
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrInvalidSession   = errors.New("session does not belong to this backend")
)

// Session is an acquired upload endpoint. It must be safe for concurrent
// use by independent uploads.
type Session interface {
	// Endpoint describes where uploads go, for logs.
	Endpoint() string

	Close() error
}

// Client is an upload backend.
type Client interface {
	// Name identifies the backend ("gofile", "s3", "gcs").
	Name() string

	// AcquireSession obtains an upload endpoint.
	AcquireSession(ctx context.Context) (Session, error)

	// Upload transfers the file at path and returns its remote reference.
	// Progress messages carry id and cumulative byte counts.
	Upload(ctx context.Context, session Session, id, path string, progress chan<- models.Progress) (string, error)
}
