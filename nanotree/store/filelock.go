package store

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock is a cross-process lock guarding the document while it is read or
// replaced.
type FileLock interface {
	// TryLockContext keeps trying every retryInterval until ctx is done
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)
	Unlock() error
}

// FileLockFactory creates FileLock instances
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockFactory hands out github.com/gofrs/flock locks. *flock.Flock already
// satisfies FileLock.
type FlockFactory struct{}

// New implements FileLockFactory.New
func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}
