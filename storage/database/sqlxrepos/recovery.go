package sqlxrepos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core/recovery"
)

type recoveryRepository struct {
	db *sqlx.DB
}

func NewRecoveryRepository(db *sqlx.DB) recovery.Repository {
	return &recoveryRepository{db: db}
}

func (repo *recoveryRepository) CreateEntry(ctx context.Context, e recovery.Entry) (recovery.Entry, error) {
	if err := insertDoc(ctx, repo.db, deletedTable, e.ID, e); err != nil {
		return recovery.Entry{}, errors.Wrap(err, "inserting recovery entry")
	}
	return e, nil
}

func (repo *recoveryRepository) GetEntryByID(ctx context.Context, id string) (recovery.Entry, error) {
	var e recovery.Entry
	if err := getDoc(ctx, repo.db, deletedTable, id, &e, recovery.ErrNotFound); err != nil {
		return recovery.Entry{}, err
	}
	return e, nil
}

func (repo *recoveryRepository) FilterEntries(ctx context.Context, f recovery.Filter) ([]recovery.Entry, int, error) {
	where := "WHERE 1 = 1"
	args := make([]interface{}, 0, 2)
	if f.Collection != "" {
		args = append(args, f.Collection)
		where += fmt.Sprintf(" AND doc ->> 'collection' = $%d", len(args))
	}
	if !f.IncludeRestored {
		args = append(args, recovery.StatusRestored)
		where += fmt.Sprintf(" AND doc ->> 'status' <> $%d", len(args))
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM "+deletedTable+" "+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting recovery entries")
	}

	query := fmt.Sprintf(
		"SELECT doc FROM %s %s ORDER BY doc ->> 'deleted_at' DESC LIMIT $%d OFFSET $%d",
		deletedTable, where, len(args)+1, len(args)+2,
	)
	args = append(args, f.Limit, f.Offset)

	entries := make([]recovery.Entry, 0)
	err := selectDocs(ctx, repo.db, query, func(raw []byte) error {
		var e recovery.Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return errors.Wrap(err, "decoding recovery entry")
		}
		entries = append(entries, e)
		return nil
	}, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

func (repo *recoveryRepository) MarkRestored(ctx context.Context, id, by, byEmail string, at time.Time) (recovery.Entry, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE "+deletedTable+
			" SET doc = doc || jsonb_build_object("+
			"'status', $2::text, 'restored_by', $3::text, 'restored_by_email', $4::text, 'restored_at', $5::text)"+
			" WHERE id = $1 AND doc ->> 'status' = $6",
		id, recovery.StatusRestored, by, byEmail, at.Format(time.RFC3339Nano), recovery.StatusActiveDeleted,
	)
	if err != nil {
		return recovery.Entry{}, errors.Wrap(err, "marking entry restored")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// distinguish a lost race from a bogus id
		if _, err = repo.GetEntryByID(ctx, id); err != nil {
			return recovery.Entry{}, err
		}
		return recovery.Entry{}, recovery.ErrAlreadyRestored
	}
	return repo.GetEntryByID(ctx, id)
}
