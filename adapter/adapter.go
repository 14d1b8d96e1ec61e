// Package adapter defines the "update session" persistence boundary.
//
// An Updater receives the finalized draft of a session exactly when the
// session completes. Implementations must upsert keyed by session id so a
// duplicate delivery leaves the store unchanged.
package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/omakasem/draftstream/types"
)

// Updater persists a finalized session draft.
type Updater interface {
	// UpdateSession writes the update and returns only after the write is
	// durable. Must respect context cancellation and deadlines.
	UpdateSession(ctx context.Context, update *types.SessionUpdate) error

	// Close releases updater resources.
	Close() error
}

// Nop accepts every update without persisting it.
type Nop struct{}

// UpdateSession implements Updater.
func (Nop) UpdateSession(context.Context, *types.SessionUpdate) error { return nil }

// Close implements Updater.
func (Nop) Close() error { return nil }

// Fanout delivers each update to several updaters in order. Every updater
// is attempted; the call fails if any of them fails.
type Fanout struct {
	names    []string
	updaters []Updater
}

// NewFanout creates a fan-out over named updaters. Names label errors.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add appends an updater.
func (f *Fanout) Add(name string, u Updater) *Fanout {
	f.names = append(f.names, name)
	f.updaters = append(f.updaters, u)
	return f
}

// Len returns the number of updaters.
func (f *Fanout) Len() int {
	return len(f.updaters)
}

// UpdateSession implements Updater.
func (f *Fanout) UpdateSession(ctx context.Context, update *types.SessionUpdate) error {
	var errs []error
	for i, u := range f.updaters {
		if err := u.UpdateSession(ctx, update); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.names[i], err))
		}
	}
	return errors.Join(errs...)
}

// Close implements Updater.
func (f *Fanout) Close() error {
	var errs []error
	for i, u := range f.updaters {
		if err := u.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.names[i], err))
		}
	}
	return errors.Join(errs...)
}

// Verify implementations.
var (
	_ Updater = Nop{}
	_ Updater = (*Fanout)(nil)
)
