package types

// Version is the canonical project version.
// The CLI, the archive record schema and the progress snapshot schema share
// this version.
const Version = "0.3.0"

// RecordVersion is the schema version stamped on archived draft records and
// progress snapshots.
const RecordVersion = "1"
