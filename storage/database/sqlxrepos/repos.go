// Package sqlxrepos implements the domain repositories on Postgres. Each
// collection is a table of (id, doc JSONB) rows; the single-document atomic
// transitions the core relies on (invite acceptance, restore, role updates)
// are conditional UPDATEs guarded by JSONB status predicates.
package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// table names
const (
	profilesTable   = "profiles"
	invitesTable    = "invites"
	promotionsTable = "promotion_records"
	deletedTable    = "deleted_data"
	studentsTable   = "students"
)

const uniqueViolation = pq.ErrorCode("23505")

func isUniqueViolation(err error) bool {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}

func insertDoc(ctx context.Context, db *sqlx.DB, table, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	_, err = db.ExecContext(ctx, "INSERT INTO "+table+" (id, doc) VALUES ($1, $2)", id, data)
	return err
}

func upsertDoc(ctx context.Context, db *sqlx.DB, table, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}
	_, err = db.ExecContext(ctx,
		"INSERT INTO "+table+" (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc",
		id, data,
	)
	return err
}

func getDoc(ctx context.Context, db *sqlx.DB, table, id string, dst interface{}, notFound error) error {
	var raw []byte
	err := db.GetContext(ctx, &raw, "SELECT doc FROM "+table+" WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return notFound
	}
	if err != nil {
		return errors.Wrap(err, "querying "+table)
	}
	return errors.Wrap(json.Unmarshal(raw, dst), "decoding document")
}

func getDocBy(ctx context.Context, db *sqlx.DB, table, field, value string, dst interface{}, notFound error) error {
	var raw []byte
	err := db.GetContext(ctx, &raw, "SELECT doc FROM "+table+" WHERE doc ->> '"+field+"' = $1", value)
	if err == sql.ErrNoRows {
		return notFound
	}
	if err != nil {
		return errors.Wrap(err, "querying "+table)
	}
	return errors.Wrap(json.Unmarshal(raw, dst), "decoding document")
}

func selectDocs(ctx context.Context, db *sqlx.DB, query string, scan func(raw []byte) error, args ...interface{}) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var raw []byte
		if err = rows.Scan(&raw); err != nil {
			return errors.Wrap(err, "scanning document")
		}
		if err = scan(raw); err != nil {
			return err
		}
	}
	return errors.Wrap(rows.Err(), "iterating documents")
}
