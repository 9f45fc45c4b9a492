// Package store implements the account-store transaction engine: locked,
// atomic reads and rewrites of the four colon-delimited account tables,
// preserving comments, blank lines and unknown trailing fields exactly as
// spec.md §4.1 requires.
package store

import (
	"os"
	"time"

	"github.com/o1-security/gumd/pkg/errs"
	"github.com/o1-security/gumd/pkg/metrics"
)

// Table is one locked, atomically-rewritten account table file (one of
// passwd, shadow, group, gshadow). Width is the table's schema field
// count; records may carry more fields (preserved as unknown/future
// columns) but never fewer.
type Table struct {
	Name     string
	Path     string
	Width    int
	lockPath string
	metrics  *metrics.StoreMetrics
}

// NewTable opens a table rooted at path. It performs no I/O — the file
// need not exist yet; the first Append creates it.
func NewTable(name, path string, width int, m *metrics.StoreMetrics) *Table {
	return &Table{
		Name:     name,
		Path:     path,
		Width:    width,
		lockPath: lockPathFor(path),
		metrics:  m,
	}
}

// Lock acquires the table's exclusive lock file. Every exported operation
// below acquires it internally for its own duration. The lock is not
// reentrant: while a caller holds it through Lock, those operations fail
// with errs.FileLockBusy until Unlock is called.
func (t *Table) Lock() error {
	start := time.Now()
	err := acquireLock(t.lockPath)
	if t.metrics != nil {
		t.metrics.ObserveLockWait(t.Name, time.Since(start))
		if err != nil {
			t.metrics.IncLockBusy(t.Name)
		}
	}
	return err
}

// Unlock releases the table's lock file.
func (t *Table) Unlock() error {
	return releaseLock(t.lockPath)
}

// withLock runs fn while holding the table lock, always releasing it
// afterward regardless of fn's outcome.
func (t *Table) withLock(fn func() error) error {
	if err := t.Lock(); err != nil {
		return err
	}
	defer t.Unlock()
	return fn()
}

// read parses the current file content. Must be called with the lock held.
func (t *Table) read() (*parsedFile, error) {
	return parseFile(t.Path, t.Width)
}

// write atomically rewrites the file: write-to-temp, fsync, rename over the
// live path, preserving the live file's mode. Must be called with the lock
// held.
func (t *Table) write(pf *parsedFile) error {
	tmp := t.Path + ".new"
	mode := pf.mode
	if mode == 0 {
		mode = 0644
	}
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errs.FileIO("create", tmp, err)
	}
	data := serialize(pf.lines, pf.trailingNewline)
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.FileIO("write", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errs.FileIO("fsync", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errs.FileIO("close", tmp, err)
	}
	if err := os.Chmod(tmp, mode); err != nil {
		os.Remove(tmp)
		return errs.FileIO("chmod", tmp, err)
	}
	if err := os.Rename(tmp, t.Path); err != nil {
		os.Remove(tmp)
		return errs.FileIO("rename", tmp, err)
	}
	if t.metrics != nil {
		t.metrics.IncRewrite(t.Name)
	}
	return nil
}

// Scan visits every record line in original order. visitor returns
// (false, nil) to stop early, or a non-nil error to abort. Scan holds the
// lock for the full read, matching "the daemon holds each table lock for
// the shortest possible span of a single operation" — a scan is one
// operation.
func (t *Table) Scan(visitor func(Record) (bool, error)) error {
	return t.withLock(func() error {
		pf, err := t.read()
		if err != nil {
			return err
		}
		for _, l := range pf.lines {
			if l.Kind != LineRecord {
				continue
			}
			cont, err := visitor(l.Record)
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		return nil
	})
}

// Append adds a new record line at the end of the file and rewrites it
// atomically.
func (t *Table) Append(fields []string) error {
	return t.withLock(func() error {
		pf, err := t.read()
		if err != nil {
			return err
		}
		pf.lines = append(pf.lines, Line{Kind: LineRecord, Record: Record{Fields: fields}})
		return t.write(pf)
	})
}

// GetByField returns the first record whose field at index matches value.
func (t *Table) GetByField(index int, value string) (Record, bool, error) {
	var found Record
	ok := false
	err := t.Scan(func(r Record) (bool, error) {
		if r.Field(index) == value {
			found = r
			ok = true
			return false, nil
		}
		return true, nil
	})
	return found, ok, err
}

// UpdateByField locates the first record whose field at index matches
// value and replaces it with mutate's result, preserving any trailing
// fields mutate doesn't touch (mutate receives and should return the full
// Fields slice). Returns false if no record matched.
func (t *Table) UpdateByField(index int, value string, mutate func(Record) (Record, error)) (bool, error) {
	found := false
	err := t.withLock(func() error {
		pf, err := t.read()
		if err != nil {
			return err
		}
		for i, l := range pf.lines {
			if l.Kind != LineRecord || l.Record.Field(index) != value {
				continue
			}
			updated, err := mutate(l.Record)
			if err != nil {
				return err
			}
			pf.lines[i].Record = updated
			found = true
			break
		}
		if !found {
			return nil
		}
		return t.write(pf)
	})
	return found, err
}

// DeleteByField removes the first record whose field at index matches
// value. Returns false if no record matched.
func (t *Table) DeleteByField(index int, value string) (bool, error) {
	found := false
	err := t.withLock(func() error {
		pf, err := t.read()
		if err != nil {
			return err
		}
		for i, l := range pf.lines {
			if l.Kind != LineRecord || l.Record.Field(index) != value {
				continue
			}
			pf.lines = append(pf.lines[:i], pf.lines[i+1:]...)
			found = true
			break
		}
		if !found {
			return nil
		}
		return t.write(pf)
	})
	return found, err
}

// Snapshot returns the raw file bytes, used by the backup archiver and by
// tests asserting byte-for-byte equality (P2, P4 in spec.md §8).
func (t *Table) Snapshot() ([]byte, error) {
	var data []byte
	err := t.withLock(func() error {
		b, err := os.ReadFile(t.Path)
		if os.IsNotExist(err) {
			data = nil
			return nil
		}
		if err != nil {
			return errs.FileIO("read", t.Path, err)
		}
		data = b
		return nil
	})
	return data, err
}
