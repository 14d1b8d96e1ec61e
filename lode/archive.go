// Package lode archives finalized drafts and session metrics in a Lode
// dataset.
//
// Records are JSONL, Hive-partitioned by source/day/session_id/record_kind.
// The archive is append-only: a session that completes twice (draft, then
// enrichment) leaves two draft records, and readers pick the latest.
package lode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/omakasem/draftstream/metrics"
	"github.com/omakasem/draftstream/types"
)

// DefaultDataset is the dataset ID used when Config.Dataset is empty.
const DefaultDataset = "draftstream"

// DefaultSource is the source partition used when Config.Source is empty.
const DefaultSource = "planner"

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"source", "day", "session_id", "record_kind"}

// ErrInvalidFilename is returned by PutFile for names that could escape the
// session's files/ prefix.
var ErrInvalidFilename = errors.New("invalid sidecar filename")

// DeriveDay computes the partition day for a write time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Config holds archive configuration.
type Config struct {
	// Dataset is the Lode dataset ID (default "draftstream").
	Dataset string
	// Source is the partition key naming the upstream planner.
	Source string
}

func (c Config) withDefaults() Config {
	if c.Dataset == "" {
		c.Dataset = DefaultDataset
	}
	if c.Source == "" {
		c.Source = DefaultSource
	}
	return c
}

// Archive writes draft and metrics records to a Lode dataset.
type Archive struct {
	dataset   lode.Dataset
	config    Config
	collector *metrics.Collector

	storeFactory lode.StoreFactory
	storeOnce    sync.Once
	store        lode.Store
	storeErr     error
}

// NewArchive creates an archive with filesystem storage rooted at root.
func NewArchive(cfg Config, root string) (*Archive, error) {
	return NewArchiveWithFactory(cfg, lode.NewFSFactory(root))
}

// NewArchiveWithFactory creates an archive with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewArchiveWithFactory(cfg Config, factory lode.StoreFactory) (*Archive, error) {
	cfg = cfg.withDefaults()
	ds, err := newDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}
	return &Archive{
		dataset:      ds,
		config:       cfg,
		storeFactory: factory,
	}, nil
}

func newDataset(id string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(id),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// WithCollector makes the archive record write outcomes into c.
// Counters are per call, not per record.
func (a *Archive) WithCollector(c *metrics.Collector) *Archive {
	a.collector = c
	return a
}

// Dataset exposes the underlying dataset for read queries.
func (a *Archive) Dataset() lode.Dataset {
	return a.dataset
}

// WriteDraft appends one draft record for a persisted session update.
func (a *Archive) WriteDraft(ctx context.Context, update *types.SessionUpdate, writtenAt time.Time) error {
	if update == nil || update.Draft == nil {
		return errors.New("archive: session update carries no draft")
	}
	if update.SessionID == "" {
		return errors.New("archive: session update has no session id")
	}
	record := toDraftRecordMap(update, a.config, writtenAt)
	return a.write(ctx, record, update.SessionID)
}

// WriteMetrics appends the session's metrics snapshot.
func (a *Archive) WriteMetrics(ctx context.Context, snap metrics.Snapshot, outcome types.OutcomeStatus, completedAt time.Time) error {
	record := toMetricsRecordMap(snap, outcome, a.config, completedAt)
	return a.write(ctx, record, snap.SessionID)
}

func (a *Archive) write(ctx context.Context, record map[string]any, sessionID string) error {
	_, err := a.dataset.Write(ctx, []any{record}, lode.Metadata{})
	if err != nil {
		a.collector.IncLodeWriteFailure()
		return WrapWriteError(err, fmt.Sprintf("%s/session_id=%s", a.config.Dataset, sessionID))
	}
	a.collector.IncLodeWriteSuccess()
	return nil
}

// PutFile writes a sidecar file (e.g. the raw streamed content) under the
// session's files/ prefix, bypassing dataset segments and manifests.
func (a *Archive) PutFile(ctx context.Context, sessionID, filename string, data []byte, writtenAt time.Time) error {
	if filename == "" || strings.ContainsAny(filename, `/\`) || strings.Contains(filename, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	store, err := a.getOrCreateStore()
	if err != nil {
		return fmt.Errorf("file write store init failed: %w", err)
	}
	path := a.FilePath(sessionID, filename, writtenAt)
	if err := store.Put(ctx, path, bytes.NewReader(data)); err != nil {
		a.collector.IncLodeWriteFailure()
		return WrapWriteError(err, path)
	}
	a.collector.IncLodeWriteSuccess()
	return nil
}

func (a *Archive) getOrCreateStore() (lode.Store, error) {
	a.storeOnce.Do(func() {
		a.store, a.storeErr = a.storeFactory()
	})
	return a.store, a.storeErr
}

// FilePath computes the Hive-partitioned path of a sidecar file.
// Format: datasets/<dataset>/partitions/source=<s>/day=<d>/session_id=<id>/files/<filename>
func (a *Archive) FilePath(sessionID, filename string, writtenAt time.Time) string {
	return fmt.Sprintf("datasets/%s/partitions/source=%s/day=%s/session_id=%s/files/%s",
		a.config.Dataset,
		a.config.Source,
		DeriveDay(writtenAt),
		sessionID,
		filename,
	)
}

// Close releases archive resources.
func (a *Archive) Close() error {
	return nil
}
