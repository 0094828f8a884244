package cas

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"syscall"
	"time"

	slimfs "go.trai.ch/slim/internal/adapters/fs"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/sys/unix"
)

const (
	stagingDirName = ".staging"
	lockPollPeriod = 50 * time.Millisecond
)

var keyDirRegex = regexp.MustCompile("^[0-9a-f]{64}$")

// DependencyStore implements ports.DependencyStore on a local directory.
//
// Layout:
//
//	<dir>/<key>/<subset>/entry.json
//	<dir>/<key>/<subset>/tree/...
//	<dir>/<key>.lock
//	<dir>/.staging/
//
// An entry directory is published with a single rename, so readers never see a partial tree.
type DependencyStore struct {
	dir string
}

// NewDependencyStore creates a store rooted at dir.
func NewDependencyStore(dir string) *DependencyStore {
	return &DependencyStore{dir: filepath.Clean(dir)}
}

// Dir returns the store root.
func (s *DependencyStore) Dir() string {
	return s.dir
}

// Get returns the entry for key and subset, or nil, nil when absent.
func (s *DependencyStore) Get(key domain.CacheKey, subset domain.Subset) (*domain.CacheEntry, error) {
	entryDir := s.entryDir(key, subset)

	//nolint:gosec // Path is constructed from the store root and a hex key
	data, err := os.ReadFile(filepath.Join(entryDir, domain.EntryFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheReadFailed.Error()), "key", key.Short())
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheEntryCorrupt.Error()), "key", key.Short())
	}
	if entry.Key != key || entry.Subset != subset {
		return nil, zerr.With(zerr.With(domain.ErrCacheEntryCorrupt, "key", key.Short()), "subset", string(subset))
	}

	entry.TreePath = filepath.Join(entryDir, domain.TreeDirName)
	if _, err := os.Stat(entry.TreePath); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheEntryCorrupt.Error()), "key", key.Short())
	}

	return &entry, nil
}

// Stage creates an empty directory on the store's filesystem to install into.
func (s *DependencyStore) Stage(key domain.CacheKey, subset domain.Subset) (string, error) {
	staging := filepath.Join(s.dir, stagingDirName)
	if err := os.MkdirAll(staging, domain.DirPerm); err != nil {
		return "", zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
	}

	dir, err := os.MkdirTemp(staging, key.Short()+"-"+string(subset)+"-*")
	if err != nil {
		return "", zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
	}
	return dir, nil
}

// Put publishes the tree in dir as the entry for entry.Key and entry.Subset.
// The tree digest and size are recorded from dir before it is moved.
// If another writer published the same entry first, its entry is returned and dir is discarded.
func (s *DependencyStore) Put(entry domain.CacheEntry, dir string) (*domain.CacheEntry, error) {
	summary, err := slimfs.TreeDigest(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "dir", dir)
	}
	entry.TreeDigest = summary.Digest
	entry.Size = summary.Size

	publish, err := os.MkdirTemp(filepath.Join(s.dir, stagingDirName), "publish-*")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	defer func() { _ = os.RemoveAll(publish) }()

	if err := os.Rename(dir, filepath.Join(publish, domain.TreeDirName)); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "dir", dir)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	if err := os.WriteFile(filepath.Join(publish, domain.EntryFileName), data, domain.FilePerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}

	target := s.entryDir(entry.Key, entry.Subset)
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}

	if err := os.Rename(publish, target); err != nil {
		if errors.Is(err, fs.ErrExist) || errors.Is(err, syscall.ENOTEMPTY) {
			return s.Get(entry.Key, entry.Subset)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", entry.Key.Short())
	}

	entry.TreePath = filepath.Join(target, domain.TreeDirName)
	return &entry, nil
}

// Lock takes an exclusive flock on <dir>/<key>.lock, polling until ctx is done.
func (s *DependencyStore) Lock(ctx context.Context, key domain.CacheKey) (func(), error) {
	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheLockFailed.Error())
	}

	path := filepath.Join(s.dir, key.String()+".lock")
	//nolint:gosec // Path is constructed from the store root and a hex key
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, domain.PrivateFilePerm)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheLockFailed.Error())
	}

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			break
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			_ = f.Close()
			return nil, zerr.With(zerr.Wrap(err, domain.ErrCacheLockFailed.Error()), "key", key.Short())
		}

		select {
		case <-ctx.Done():
			_ = f.Close()
			return nil, zerr.With(zerr.Wrap(ctx.Err(), domain.ErrCacheLockFailed.Error()), "key", key.Short())
		case <-time.After(lockPollPeriod):
		}
	}

	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
	}, nil
}

// List returns every stored entry ordered by key and subset.
func (s *DependencyStore) List() ([]domain.CacheEntry, error) {
	keys, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrCacheReadFailed.Error())
	}

	var entries []domain.CacheEntry
	for _, k := range keys {
		if !k.IsDir() || !keyDirRegex.MatchString(k.Name()) {
			continue
		}
		subsets, err := os.ReadDir(filepath.Join(s.dir, k.Name()))
		if err != nil {
			return nil, zerr.Wrap(err, domain.ErrCacheReadFailed.Error())
		}
		for _, sub := range subsets {
			entry, err := s.Get(domain.CacheKey(k.Name()), domain.Subset(sub.Name()))
			if err != nil {
				return nil, err
			}
			if entry != nil {
				entries = append(entries, *entry)
			}
		}
	}

	slices.SortFunc(entries, func(a, b domain.CacheEntry) int {
		if c := strings.Compare(string(a.Key), string(b.Key)); c != 0 {
			return c
		}
		return strings.Compare(string(a.Subset), string(b.Subset))
	})
	return entries, nil
}

// Remove deletes the entry for key and subset. The entry disappears atomically
// before its files are deleted.
func (s *DependencyStore) Remove(key domain.CacheKey, subset domain.Subset) error {
	target := s.entryDir(key, subset)
	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	trash, err := s.Stage(key, subset)
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(trash) }()

	if err := os.Rename(target, filepath.Join(trash, "entry")); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheWriteFailed.Error()), "key", key.Short())
	}

	// The key directory is removed only once it holds no subset.
	_ = os.Remove(filepath.Dir(target))
	return nil
}

func (s *DependencyStore) entryDir(key domain.CacheKey, subset domain.Subset) string {
	return filepath.Join(s.dir, key.String(), string(subset))
}
