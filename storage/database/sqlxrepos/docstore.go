package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core/recovery"
	"github.com/kazimoto/shule/core/student"
)

// governedTables maps recovery collection names to their backing tables.
// A restore can only ever write into one of these.
var governedTables = map[string]string{
	student.Collection: studentsTable,
}

type documentStore struct {
	db *sqlx.DB
}

// NewDocumentStore returns the write-back primitive the recovery service uses
// to restore snapshots into their original collections.
func NewDocumentStore(db *sqlx.DB) recovery.DocumentWriter {
	return &documentStore{db: db}
}

func (store *documentStore) PutDocument(ctx context.Context, collection, id string, doc map[string]interface{}) error {
	table, ok := governedTables[collection]
	if !ok {
		return errors.Errorf("unknown collection %q", collection)
	}
	return errors.Wrapf(upsertDoc(ctx, store.db, table, id, doc), "writing document to %s", table)
}
