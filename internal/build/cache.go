package build

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

// DependencyDir is the directory a toolchain installs into.
const DependencyDir = "node_modules"

var unsafeKey = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Cache keeps installed dependency trees keyed by template version so
// workspaces built from the same template skip installation. It is shared by
// concurrent builds: entries are published with a rename and the last writer wins.
type Cache struct {
	dir string
}

// NewCache creates a cache under dir. An empty dir disables caching and
// returns nil, which is a valid receiver for every method.
func NewCache(dir string) *Cache {
	if dir == "" {
		return nil
	}
	return &Cache{dir: dir}
}

// Key derives the cache key for a workspace. A declared template version wins;
// otherwise the lockfile (or package.json) content is hashed. An empty key
// means the workspace cannot be cached.
func (c *Cache) Key(wsPath string, tc Toolchain, version string) string {
	if c == nil {
		return ""
	}
	if version != "" {
		return tc.Name() + "-v" + unsafeKey.ReplaceAllString(version, "_")
	}
	for _, name := range []string{tc.Lockfile(), "package.json"} {
		data, err := os.ReadFile(filepath.Join(wsPath, name))
		if err != nil {
			continue
		}
		sum := sha256.Sum256(data)
		return tc.Name() + "-" + hex.EncodeToString(sum[:8])
	}
	return ""
}

// Restore copies a cached dependency tree into the workspace. It reports
// false when there is no entry for key.
func (c *Cache) Restore(key, wsPath string) (bool, error) {
	if c == nil || key == "" {
		return false, nil
	}
	src := filepath.Join(c.dir, key)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return false, nil
	}
	dst := filepath.Join(wsPath, DependencyDir)
	if err := os.RemoveAll(dst); err != nil {
		return false, err
	}
	if err := copyDir(src, dst); err != nil {
		os.RemoveAll(dst)
		return false, fmt.Errorf("restore dependency cache %s: %w", key, err)
	}
	return true, nil
}

// Store publishes the workspace's dependency tree under key.
func (c *Cache) Store(key, wsPath string) error {
	if c == nil || key == "" {
		return nil
	}
	src := filepath.Join(wsPath, DependencyDir)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("nothing to cache: %w", err)
	}
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return err
	}

	tmp := filepath.Join(c.dir, ".tmp-"+uuid.New().String())
	defer os.RemoveAll(tmp)
	if err := copyDir(src, tmp); err != nil {
		return fmt.Errorf("copy dependencies: %w", err)
	}

	final := filepath.Join(c.dir, key)
	if err := os.RemoveAll(final); err != nil {
		return err
	}
	if err := os.Rename(tmp, final); err != nil {
		// A concurrent writer published the same key first.
		if errors.Is(err, fs.ErrExist) || isDirNotEmpty(final) {
			return nil
		}
		return err
	}
	return nil
}

func isDirNotEmpty(p string) bool {
	entries, err := os.ReadDir(p)
	return err == nil && len(entries) > 0
}

// copyDir copies a tree, recreating symlinks as links so package manager
// bin shims keep working.
func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0755)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		default:
			info, err := d.Info()
			if err != nil {
				return err
			}
			return copyFile(p, target, info.Mode().Perm())
		}
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
