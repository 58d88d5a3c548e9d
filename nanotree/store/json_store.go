package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/nanotree/storage"
)

// Constants for file locking
const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// jsonFileStore keeps the hierarchy in a single JSON document. Every save
// rewrites the whole document through a temp file and a rename, so a reader
// sees either the old or the new snapshot.
type jsonFileStore struct {
	filePath string
	opts     *options
	fileLock FileLock

	// createdAt is carried over from the loaded document's metadata
	createdAt time.Time
}

var _ storage.Backend = (*jsonFileStore)(nil)

func newJSONFileStore(filePath string, opts *options) *jsonFileStore {
	return &jsonFileStore{
		filePath: filePath,
		opts:     opts,
		fileLock: opts.lockFactory.New(filePath + ".lock"),
	}
}

// acquireLock attempts to acquire an exclusive file lock with retry logic
func (s *jsonFileStore) acquireLock(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to acquire lock after %d attempts", lockMaxRetries)
}

// withLock runs fn while holding the file lock and always releases it
func (s *jsonFileStore) withLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer func() { _ = s.fileLock.Unlock() }()

	return fn()
}

// Load implements storage.Backend.Load. A missing, empty, unreadable or
// unparsable file yields an empty hierarchy; only failing to get the lock is
// an error.
func (s *jsonFileStore) Load(hopts ...hierarchy.Option) (*hierarchy.Store, *storage.LoadReport, error) {
	var (
		tree   *hierarchy.Store
		report *storage.LoadReport
	)
	err := s.withLock(func() error {
		tree, report = s.load(hopts)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if report.Metadata != nil {
		s.createdAt = report.Metadata.CreatedAt
	}
	report.Log(s.opts.logger, s.filePath)
	return tree, report, nil
}

// load reads the file; caller must hold the lock
func (s *jsonFileStore) load(hopts []hierarchy.Option) (*hierarchy.Store, *storage.LoadReport) {
	if _, err := s.opts.fs.Stat(s.filePath); errors.Is(err, os.ErrNotExist) {
		return hierarchy.New(hopts...), &storage.LoadReport{Empty: true}
	}

	data, err := s.opts.fs.ReadFile(s.filePath)
	if err != nil {
		return hierarchy.New(hopts...), &storage.LoadReport{
			Unreadable: true,
			Reason:     fmt.Sprintf("failed to read file: %v", err),
		}
	}

	tree, report := storage.DecodeTolerant(data, hopts...)
	return tree, report
}

// Save implements storage.Backend.Save
func (s *jsonFileStore) Save(tree *hierarchy.Store) error {
	now := s.opts.timeFunc()
	if s.createdAt.IsZero() {
		s.createdAt = now
	}
	data, err := storage.Encode(tree, &storage.Metadata{
		Version:   storage.FormatVersion,
		CreatedAt: s.createdAt,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := s.opts.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	return s.withLock(func() error {
		tmpFile := s.filePath + ".tmp"
		if err := s.opts.fs.WriteFile(tmpFile, data, 0o644); err != nil {
			_ = s.opts.fs.Remove(tmpFile)
			return fmt.Errorf("failed to write temp file: %w", err)
		}
		if err := s.opts.fs.Rename(tmpFile, s.filePath); err != nil {
			_ = s.opts.fs.Remove(tmpFile)
			return fmt.Errorf("failed to rename file: %w", err)
		}
		return nil
	})
}

// Close implements storage.Backend.Close. The lock is only held during
// Load and Save, so there is nothing to release. The lock file stays: other
// processes may be holding or waiting on it, and flock needs the same inode.
func (s *jsonFileStore) Close() error {
	return nil
}
