// Package archive implements the update-session call as an append to the
// Lode draft archive.
package archive

import (
	"context"
	"errors"
	"time"

	"github.com/omakasem/draftstream/adapter"
	"github.com/omakasem/draftstream/lode"
	"github.com/omakasem/draftstream/types"
)

// Adapter appends every session update to a Lode archive.
type Adapter struct {
	archive *lode.Archive
	now     func() time.Time
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithClock overrides the write timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// New wraps an archive as an updater.
func New(archive *lode.Archive, opts ...Option) (*Adapter, error) {
	if archive == nil {
		return nil, errors.New("archive adapter requires an archive")
	}
	a := &Adapter{archive: archive, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// UpdateSession writes the update as a draft record.
func (a *Adapter) UpdateSession(ctx context.Context, update *types.SessionUpdate) error {
	return a.archive.WriteDraft(ctx, update, a.now())
}

// Close releases the archive.
func (a *Adapter) Close() error {
	return a.archive.Close()
}

var _ adapter.Updater = (*Adapter)(nil)
