package lode

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/justapithecus/lode/lode"
)

var (
	// ErrNoMetricsFound is returned when no matching metrics record exists.
	ErrNoMetricsFound = errors.New("no metrics records found")
	// ErrNoDraftFound is returned when no matching draft record exists.
	ErrNoDraftFound = errors.New("no draft records found")
)

// NewReadDataset creates a dataset for reading.
// Uses the same codec and layout as the write path.
func NewReadDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	if dataset == "" {
		dataset = DefaultDataset
	}
	return newDataset(dataset, factory)
}

// NewReadDatasetFS creates a read dataset with filesystem storage.
func NewReadDatasetFS(dataset, rootPath string) (lode.Dataset, error) {
	return NewReadDataset(dataset, lode.NewFSFactory(rootPath))
}

// DraftFilter narrows ListDrafts. Empty fields match everything.
type DraftFilter struct {
	SessionID string
	Source    string
	Day       string
	Status    string
}

func (f DraftFilter) matchesSnapshot(snap *lode.DatasetSnapshot) bool {
	return snapshotMatchesFilter(snap, "record_kind", RecordKindDraft) &&
		snapshotMatchesFilter(snap, "session_id", f.SessionID) &&
		snapshotMatchesFilter(snap, "source", f.Source) &&
		snapshotMatchesFilter(snap, "day", f.Day)
}

// Manifest paths are a coarse pre-filter; record fields are authoritative.
func (f DraftFilter) matchesRecord(r map[string]any) bool {
	if r["record_kind"] != RecordKindDraft {
		return false
	}
	for key, want := range map[string]string{
		"session_id": f.SessionID,
		"source":     f.Source,
		"day":        f.Day,
		"status":     f.Status,
	} {
		if want != "" && toString(r[key]) != want {
			return false
		}
	}
	return true
}

// ListDrafts returns archived drafts matching filter, newest first.
// Each distinct record appears once even if snapshots overlap.
func ListDrafts(ctx context.Context, ds lode.Dataset, filter DraftFilter) ([]DraftRecord, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, string(ds.ID())+"/snapshots")
	}

	seen := make(map[string]struct{})
	var out []DraftRecord
	for _, snap := range snapshots {
		if !filter.matchesSnapshot(snap) {
			continue
		}
		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || !filter.matchesRecord(record) {
				continue
			}
			key := toString(record["session_id"]) + "|" + toString(record["status"]) + "|" + toString(record["written_at"])
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, draftFromRecord(record))
		}
	}

	slices.SortStableFunc(out, func(a, b DraftRecord) int {
		return b.WrittenAt.Compare(a.WrittenAt)
	})
	return out, nil
}

// LatestDraft returns the most recent archived draft of a session.
func LatestDraft(ctx context.Context, ds lode.Dataset, sessionID string) (DraftRecord, error) {
	drafts, err := ListDrafts(ctx, ds, DraftFilter{SessionID: sessionID})
	if err != nil {
		return DraftRecord{}, err
	}
	if len(drafts) == 0 {
		return DraftRecord{}, ErrNoDraftFound
	}
	return drafts[0], nil
}

// QueryLatestMetrics finds the most recent metrics record, optionally for
// one session. Returns the raw record map or ErrNoMetricsFound.
func QueryLatestMetrics(ctx context.Context, ds lode.Dataset, sessionID string) (map[string]any, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, string(ds.ID())+"/snapshots")
	}

	// Snapshots are ordered by creation time
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !snapshotMatchesFilter(snap, "record_kind", RecordKindMetrics) ||
			!snapshotMatchesFilter(snap, "session_id", sessionID) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}
		for j := len(data) - 1; j >= 0; j-- {
			record, ok := data[j].(map[string]any)
			if !ok || record["record_kind"] != RecordKindMetrics {
				continue
			}
			if sessionID != "" && toString(record["session_id"]) != sessionID {
				continue
			}
			return record, nil
		}
	}
	return nil, ErrNoMetricsFound
}

// snapshotMatchesFilter checks whether any file of a snapshot lies in the
// key=value partition.
func snapshotMatchesFilter(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue matches an exact key=value path segment, so
// session_id=s-1 never matches session_id=s-10.
func matchesPartitionValue(path, key, value string) bool {
	segment := key + "=" + value
	for _, part := range strings.Split(path, "/") {
		if part == segment {
			return true
		}
	}
	return false
}
