package inmemdb

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/kazimoto/shule/core/recovery"
	"github.com/kazimoto/shule/core/student"
)

type documentStore struct {
	db *DB
}

// NewDocumentStore returns the atomic write-back primitive the recovery store
// uses to put restored snapshots back into their original collection.
func NewDocumentStore(db *DB) recovery.DocumentWriter {
	return &documentStore{db: db}
}

func (ds *documentStore) PutDocument(_ context.Context, collection, id string, doc map[string]interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "encoding document")
	}

	ds.db.mutex.Lock()
	defer ds.db.mutex.Unlock()

	switch collection {
	case student.Collection:
		s := new(student.Student)
		if err = json.Unmarshal(data, s); err != nil {
			return errors.Wrap(err, "decoding student document")
		}
		s.ID = id
		ds.db.students[id] = s
		return nil
	default:
		return errors.Errorf("unknown collection %q", collection)
	}
}
