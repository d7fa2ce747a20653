package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/kazimoto/shule/core/recovery"
)

type recoveryRepository struct {
	db *DB
}

func NewRecoveryRepository(db *DB) recovery.Repository {
	return &recoveryRepository{db: db}
}

func (repo *recoveryRepository) CreateEntry(_ context.Context, e recovery.Entry) (recovery.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.deleted[e.ID] = &e
	return e, nil
}

func (repo *recoveryRepository) GetEntryByID(_ context.Context, id string) (recovery.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.deleted[id]; ok {
		return *e, nil
	}
	return recovery.Entry{}, recovery.ErrNotFound
}

func (repo *recoveryRepository) FilterEntries(_ context.Context, f recovery.Filter) ([]recovery.Entry, int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := make([]recovery.Entry, 0)
	for _, e := range repo.db.deleted {
		if f.Collection != "" && e.Collection != f.Collection {
			continue
		}
		if !f.IncludeRestored && e.Status == recovery.StatusRestored {
			continue
		}
		matches = append(matches, *e)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].DeletedAt.After(matches[j].DeletedAt) })

	total := len(matches)
	if f.Offset >= total {
		return []recovery.Entry{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return matches[f.Offset:end], total, nil
}

func (repo *recoveryRepository) MarkRestored(_ context.Context, id, by, byEmail string, at time.Time) (recovery.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e, ok := repo.db.deleted[id]
	if !ok {
		return recovery.Entry{}, recovery.ErrNotFound
	}
	if e.Status != recovery.StatusActiveDeleted {
		return recovery.Entry{}, recovery.ErrAlreadyRestored
	}
	e.Status = recovery.StatusRestored
	e.RestoredBy = by
	e.RestoredByEmail = byEmail
	e.RestoredAt = at
	return *e, nil
}
