package store

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/o1-security/gumd/pkg/errs"
)

// lockRetries and lockBackoffMin/lockBackoffMax bound how long Lock will spin against a
// contended lock file before giving up with errs.FileLockBusy.
const (
	lockRetries    = 20
	lockBackoffMin = 5 * time.Millisecond
	lockBackoffMax = 200 * time.Millisecond
)

// acquireLock implements the classic passwd-style lock-file protocol:
// create <path>.lock exclusively with our PID as content; on EEXIST, read
// the holder's PID and reclaim the lock if that process is gone, otherwise
// back off and retry. Locks are advisory across cooperating processes —
// nothing stops a process that ignores the protocol from writing the live
// file directly.
func acquireLock(lockPath string) error {
	pid := os.Getpid()
	content := []byte(strconv.Itoa(pid))

	backoff := lockBackoffMin
	for attempt := 0; attempt < lockRetries; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			_, werr := f.Write(content)
			cerr := f.Close()
			if werr != nil {
				os.Remove(lockPath)
				return errs.FileIO("write", lockPath, werr)
			}
			if cerr != nil {
				os.Remove(lockPath)
				return errs.FileIO("close", lockPath, cerr)
			}
			return nil
		}
		if !os.IsExist(err) {
			return errs.FileIO("create", lockPath, err)
		}

		if reclaimed := tryReclaimStaleLock(lockPath); reclaimed {
			continue // retry immediately; we just removed the stale lock
		}

		time.Sleep(backoff)
		backoff *= 2
		if backoff > lockBackoffMax {
			backoff = lockBackoffMax
		}
	}
	return errs.FileLockBusy(lockPath)
}

// tryReclaimStaleLock removes lockPath if the PID it names no longer
// exists. Returns true if it removed the file (the caller should retry the
// acquire immediately).
func tryReclaimStaleLock(lockPath string) bool {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		// Lock file vanished between our failed create and this read —
		// treat as transient, let the caller's normal retry loop proceed.
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		// Unparseable content: not a lock file we understand, leave it.
		return false
	}
	if processAlive(pid) {
		return false
	}
	// Best-effort: if Remove races with another reclaimer, that's fine —
	// the next create attempt will simply fail and retry.
	_ = os.Remove(lockPath)
	return true
}

// processAlive reports whether pid names a live process, using the
// kill(pid, 0) idiom: no signal is sent, only existence/permission is
// checked.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	if err == nil {
		return true
	}
	if err == unix.ESRCH {
		return false
	}
	// EPERM means the process exists but we can't signal it — still alive.
	return err == unix.EPERM
}

// releaseLock removes our lock file. It does not verify ownership beyond
// what acquireLock already established; by the time Unlock is called we
// are the only writer holding an exclusive per-operation window.
func releaseLock(lockPath string) error {
	if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
		return errs.FileIO("remove", lockPath, err)
	}
	return nil
}

func lockPathFor(tablePath string) string {
	return fmt.Sprintf("%s.lock", tablePath)
}
