package inmemdb

import (
	"sync"

	"github.com/kazimoto/shule/core/invite"
	"github.com/kazimoto/shule/core/profile"
	"github.com/kazimoto/shule/core/promotion"
	"github.com/kazimoto/shule/core/recovery"
	"github.com/kazimoto/shule/core/student"
)

// DB is an in-memory document store used by tests and dev mode. One RWMutex
// guards all tables; every repository read-modify-write holds the write lock,
// which gives the same single-document atomicity the real store provides.
type DB struct {
	mutex sync.RWMutex

	profiles   map[string]*profile.Profile
	invites    map[string]*invite.Invite
	promotions []promotion.Record
	deleted    map[string]*recovery.Entry
	students   map[string]*student.Student
}

func Open() *DB {
	db := new(DB)
	db.reset()
	return db
}

// Reset empties every table; test fixtures use it between cases.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.reset()
}

func (db *DB) reset() {
	db.profiles = make(map[string]*profile.Profile)
	db.invites = make(map[string]*invite.Invite)
	db.promotions = make([]promotion.Record, 0)
	db.deleted = make(map[string]*recovery.Entry)
	db.students = make(map[string]*student.Student)
}
