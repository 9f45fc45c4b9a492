// Package homedir materializes and tears down a user's home directory
// from a skeleton tree, per SPEC_FULL.md §4.6. Recursive delete refuses
// to descend outside the configured home prefix, resolving symlinks
// before each comparison so a crafted skeleton or a post-creation symlink
// swap can't be used to escape the prefix.
package homedir

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/o1-security/gumd/pkg/errs"
)

// Provision copies skelDir into home, applies umask to every created
// entry, then chowns the whole tree to uid:gid. On any error, the
// partially created tree is removed before returning.
func Provision(skelDir, home string, uid, gid int, umask os.FileMode) error {
	if err := copyTree(skelDir, home, umask); err != nil {
		_ = os.RemoveAll(home)
		return errs.HomeCopyFailed(home, err)
	}
	if err := chownTree(home, uid, gid); err != nil {
		_ = os.RemoveAll(home)
		return errs.HomeCopyFailed(home, err)
	}
	return nil
}

func copyTree(src, dst string, umask os.FileMode) error {
	if _, err := os.Lstat(src); err != nil {
		if os.IsNotExist(err) {
			return os.MkdirAll(dst, 0755&^umask)
		}
		return err
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.IsDir():
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, fi.Mode().Perm()&^umask)
		default:
			return copyFile(path, target, umask)
		}
	})
}

func copyFile(src, dst string, umask os.FileMode) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()&^umask)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func chownTree(root string, uid, gid int) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		return os.Lchown(path, uid, gid)
	})
}

// Remove recursively deletes home, refusing to descend into any path that
// resolves (after symlink evaluation) outside prefix.
func Remove(home, prefix string) error {
	realPrefix, err := filepath.EvalSymlinks(prefix)
	if err != nil {
		return errs.InvalidPath(prefix, "home prefix does not exist")
	}
	realHome, err := filepath.EvalSymlinks(home)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errs.InvalidPath(home, "cannot resolve home directory")
	}
	if realHome != realPrefix && !hasPathPrefix(realHome, realPrefix) {
		return errs.InvalidPath(home, "does not resolve under the configured home prefix")
	}
	return removeVerified(home, realPrefix)
}

// removeVerified walks home bottom-up, re-checking every directory's
// resolved path against prefix before descending, so a symlink swapped in
// mid-delete can't redirect the walk outside the prefix.
func removeVerified(path, prefix string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() && info.Mode()&os.ModeSymlink == 0 {
		real, err := filepath.EvalSymlinks(path)
		if err != nil {
			return err
		}
		if real != prefix && !hasPathPrefix(real, prefix) {
			return errs.InvalidPath(path, "escaped the home prefix during delete")
		}
		entries, err := os.ReadDir(path)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := removeVerified(filepath.Join(path, e.Name()), prefix); err != nil {
				return err
			}
		}
	}
	return os.Remove(path)
}

func hasPathPrefix(path, prefix string) bool {
	rel, err := filepath.Rel(prefix, path)
	if err != nil {
		return false
	}
	return rel != ".." && !hasDotDotPrefix(rel)
}

func hasDotDotPrefix(rel string) bool {
	return len(rel) >= 2 && rel[:2] == ".."
}
