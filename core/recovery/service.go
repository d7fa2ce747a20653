package recovery

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core"
	"github.com/kazimoto/shule/core/profile"
)

var nowFunc = time.Now // mockable

var (
	// errors
	ErrNotFound        = core.NewError(core.KindNotFound, "recovery/not-found", "recovery entry not found")
	ErrAlreadyRestored = core.NewError(core.KindConflict, "recovery/already-restored", "entry has already been restored")
	ErrSnapshotTooNew  = core.NewError(core.KindConflict, "recovery/snapshot-version", "entry snapshot was written by a newer version")

	ErrAlreadySuspended        = core.NewError(core.KindConflict, "recovery/already-suspended", "profile is already suspended")
	ErrNotSuspended            = core.NewError(core.KindConflict, "recovery/not-suspended", "profile is not suspended")
	ErrCannotSuspendSuperAdmin = core.NewError(core.KindConflict, "recovery/suspend-super-admin", "a super admin cannot be suspended")
)

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		GetEntryByID(ctx context.Context, id string) (Entry, error)
		// FilterEntries returns one page of entries plus the total match count.
		FilterEntries(ctx context.Context, f Filter) ([]Entry, int, error)
		// MarkRestored flips active-deleted→restored as a conditional update:
		// it fails with ErrAlreadyRestored unless the entry is still
		// active-deleted.
		MarkRestored(ctx context.Context, id, by, byEmail string, at time.Time) (Entry, error)
	}

	// DocumentWriter is the document store's atomic write-back primitive.
	DocumentWriter interface {
		PutDocument(ctx context.Context, collection, id string, doc map[string]interface{}) error
	}

	Service struct {
		repo     Repository
		docs     DocumentWriter
		profiles *profile.Service
	}
)

func NewService(repo Repository, docs DocumentWriter, profiles *profile.Service) *Service {
	return &Service{repo: repo, docs: docs, profiles: profiles}
}

// Record snapshots a document at the moment of deletion. It is called by the
// delete operation of every governed collection.
func (svc *Service) Record(ctx context.Context, collection, docID string, snapshot map[string]interface{}, actorID, actorEmail string) (Entry, error) {
	e := Entry{
		ID:              uuid.New().String(),
		Collection:      collection,
		DocumentID:      docID,
		Snapshot:        snapshot,
		SnapshotVersion: SnapshotVersion,
		DeletedBy:       actorID,
		DeletedByEmail:  actorEmail,
		DeletedAt:       nowFunc().UTC(),
		Status:          StatusActiveDeleted,
	}
	e, err := svc.repo.CreateEntry(ctx, e)
	if err != nil {
		return Entry{}, errors.Wrap(err, "recording deleted document")
	}
	return e, nil
}

// Restore writes the entry's snapshot back to its original collection under
// its original id, then marks the entry restored. The write-back comes first:
// if it fails, the status is left untouched so the restore can be retried.
// If a document with the same id now exists it is overwritten unconditionally;
// the administrator is expected to inspect the snapshot via Query first.
func (svc *Service) Restore(ctx context.Context, entryID, actorID, actorEmail string) (Entry, error) {
	e, err := svc.repo.GetEntryByID(ctx, entryID)
	if err != nil {
		return Entry{}, err
	}
	if e.Status == StatusRestored {
		return Entry{}, ErrAlreadyRestored
	}
	if e.SnapshotVersion > SnapshotVersion {
		return Entry{}, ErrSnapshotTooNew
	}

	if err = svc.docs.PutDocument(ctx, e.Collection, e.DocumentID, e.Snapshot); err != nil {
		return Entry{}, errors.Wrapf(err, "writing snapshot back to %s", e.Collection)
	}

	// conditional transition; a concurrent restore loses here, after the
	// write-back, which re-applied an identical snapshot
	e, err = svc.repo.MarkRestored(ctx, e.ID, actorID, actorEmail, nowFunc().UTC())
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Query pages through recovery entries; restored entries are excluded unless
// asked for, so the recovery inbox shrinks as items are handled.
func (svc *Service) Query(ctx context.Context, f Filter) ([]Entry, int, error) {
	f.Clean()
	return svc.repo.FilterEntries(ctx, f)
}

// ListActiveSuspensions returns the profiles whose access is currently
// revoked via status, for the same administrative recovery surface.
func (svc *Service) ListActiveSuspensions(ctx context.Context) ([]profile.Profile, error) {
	return svc.profiles.ListSuspended(ctx)
}

// Suspend revokes a profile's access without deleting it. Unlike a delete
// there is no snapshot to keep: the profile stays in place and Reinstate
// undoes the suspension.
func (svc *Service) Suspend(ctx context.Context, profileID string) (profile.Profile, error) {
	p, err := svc.profiles.GetByID(ctx, profileID)
	if err != nil {
		return profile.Profile{}, err
	}
	if p.IsSuperAdmin() {
		return profile.Profile{}, ErrCannotSuspendSuperAdmin
	}
	if p.Status == profile.StatusSuspended {
		return profile.Profile{}, ErrAlreadySuspended
	}
	return svc.profiles.SetStatus(ctx, profileID, profile.StatusSuspended)
}

// Reinstate restores access for a suspended profile.
func (svc *Service) Reinstate(ctx context.Context, profileID string) (profile.Profile, error) {
	p, err := svc.profiles.GetByID(ctx, profileID)
	if err != nil {
		return profile.Profile{}, err
	}
	if p.Status != profile.StatusSuspended {
		return profile.Profile{}, ErrNotSuspended
	}
	return svc.profiles.SetStatus(ctx, profileID, profile.StatusActive)
}
