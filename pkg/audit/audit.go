// Package audit records every account mutation in a local, append-only
// key-value log, independent of the account tables themselves. It
// supplements SPEC_FULL.md's engine design with a forensic trail the
// original daemon's syslog calls only partially provided — grounded on
// the teacher's use of dgraph-io/badger as an embedded KV store for
// metadata it owns outright.
package audit

import (
	"encoding/json"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Entry is one recorded mutation.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Subject   string    `json:"subject"` // username or group name
	CallerID  string    `json:"caller_id"`
	Outcome   string    `json:"outcome"` // "ok", an errs.Kind string, or "error"
}

// Log is a badger-backed append-only audit trail, keyed by a fixed-width
// UTC timestamp with nanosecond precision so Scan naturally returns
// entries in time order.
type Log struct {
	db *badger.DB
}

// Open opens (creating if absent) the audit database at dir.
func Open(dir string) (*Log, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Log{db: db}, nil
}

// Close flushes and closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record appends e to the log.
func (l *Log) Record(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	key := []byte(e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z07:00"))
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	})
}

// Scan visits every entry in key (timestamp) order. visitor returning
// false stops the scan early.
func (l *Log) Scan(visitor func(Entry) bool) error {
	return l.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			var e Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			}); err != nil {
				return err
			}
			if !visitor(e) {
				return nil
			}
		}
		return nil
	})
}
