// Package reader provides read-only access to the draft archive for CLI
// commands.
package reader

import (
	"context"
	"errors"
	"fmt"

	lodelib "github.com/justapithecus/lode/lode"

	"github.com/omakasem/draftstream/lode"
)

// Backends.
const (
	BackendFS = "fs"
	BackendS3 = "s3"
)

// Source locates an archive dataset.
type Source struct {
	Dataset  string
	Backend  string
	Path     string
	Region   string
	Endpoint string
	// PathStyle forces S3 path-style addressing.
	PathStyle bool
}

// ErrNoSource is returned when neither a backend path nor a dataset was given.
var ErrNoSource = errors.New("archive path is required (--archive-path or archive.path)")

// Reader answers list, inspect and stats queries against one dataset.
type Reader struct {
	ds lodelib.Dataset
}

// Open builds a read dataset for src.
func Open(ctx context.Context, src Source) (*Reader, error) {
	if src.Path == "" {
		return nil, ErrNoSource
	}
	var (
		ds  lodelib.Dataset
		err error
	)
	switch src.Backend {
	case BackendFS, "":
		ds, err = lode.NewReadDatasetFS(src.Dataset, src.Path)
	case BackendS3:
		bucket, prefix := lode.ParseS3Path(src.Path)
		ds, err = lode.NewReadDatasetS3(ctx, src.Dataset, lode.S3Config{
			Bucket:       bucket,
			Prefix:       prefix,
			Region:       src.Region,
			Endpoint:     src.Endpoint,
			UsePathStyle: src.PathStyle,
		})
	default:
		return nil, fmt.Errorf("unsupported archive backend: %s (must be fs or s3)", src.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize archive reader: %w", err)
	}
	return New(ds), nil
}

// New wraps an existing dataset.
func New(ds lodelib.Dataset) *Reader {
	return &Reader{ds: ds}
}

// ListOptions filters ListDrafts.
type ListOptions struct {
	Status string
	Day    string
	Source string
	// Limit caps the result count; zero means no limit.
	Limit int
}

// ListDrafts returns thin summaries of archived drafts, newest first.
func (r *Reader) ListDrafts(ctx context.Context, opts ListOptions) ([]lode.DraftSummary, error) {
	records, err := lode.ListDrafts(ctx, r.ds, lode.DraftFilter{
		Status: opts.Status,
		Day:    opts.Day,
		Source: opts.Source,
	})
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}
	out := make([]lode.DraftSummary, len(records))
	for i, rec := range records {
		out[i] = rec.DraftSummary
	}
	return out, nil
}

// InspectDraft returns the latest archived draft of a session.
func (r *Reader) InspectDraft(ctx context.Context, sessionID string) (*lode.DraftRecord, error) {
	rec, err := lode.LatestDraft(ctx, r.ds, sessionID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SessionStats returns the latest metrics record, for one session when
// sessionID is set.
func (r *Reader) SessionStats(ctx context.Context, sessionID string) (*SessionMetrics, error) {
	record, err := lode.QueryLatestMetrics(ctx, r.ds, sessionID)
	if err != nil {
		return nil, err
	}
	return ParseMetricsRecord(record)
}
