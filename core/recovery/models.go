package recovery

import "time"

// SnapshotVersion is stamped on every entry so that snapshots written before
// a schema migration remain well-defined; Restore refuses entries written by
// a newer version than it understands.
const SnapshotVersion = 1

// Restoration statuses
const (
	StatusActiveDeleted = "active-deleted"
	StatusRestored      = "restored"
)

// Entry records a soft-deleted document with enough metadata to restore it
// verbatim to its original collection. The snapshot is never altered after
// creation; only the restoration status transitions.
type Entry struct {
	ID              string                 `json:"id"`
	Collection      string                 `json:"collection"`
	DocumentID      string                 `json:"document_id"`
	Snapshot        map[string]interface{} `json:"snapshot"`
	SnapshotVersion int                    `json:"snapshot_version"`
	DeletedBy       string                 `json:"deleted_by"`
	DeletedByEmail  string                 `json:"deleted_by_email"`
	DeletedAt       time.Time              `json:"deleted_at"` // UTC
	Status          string                 `json:"status"`
	RestoredBy      string                 `json:"restored_by,omitempty"`
	RestoredByEmail string                 `json:"restored_by_email,omitempty"`
	RestoredAt      time.Time              `json:"restored_at,omitempty"`
}

// Filter narrows Query results.
type Filter struct {
	Collection      string `query:"collection"`
	Limit           int    `query:"limit"`
	Offset          int    `query:"offset"`
	IncludeRestored bool   `query:"include_restored"`
}

const defaultQueryLimit = 50

func (f *Filter) Clean() {
	if f.Limit <= 0 {
		f.Limit = defaultQueryLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
