package storage

import (
	"sync"
)

// OperationType says whether an operation only reads the hierarchy or
// changes it, so LockManager can pick a shared or an exclusive lock.
type OperationType int

const (
	// ReadOperation may run alongside other reads
	ReadOperation OperationType = iota

	// WriteOperation excludes every other operation
	WriteOperation
)

// LockManager centralizes in-process locking around a hierarchy and its
// backend. The hierarchy itself does no locking; wrappers that share one
// across goroutines (a UI loop plus a background saver, say) go through here.
type LockManager struct {
	mu *sync.RWMutex
}

// NewLockManager creates a new lock manager instance
func NewLockManager() *LockManager {
	return &LockManager{
		mu: &sync.RWMutex{},
	}
}

// Execute runs fn under a read or write lock. The lock is released when fn
// returns, including when it panics.
//
// Example:
//
//	err := lm.Execute(WriteOperation, func() error {
//	    return store.Rename(id, "Work")
//	})
func (lm *LockManager) Execute(opType OperationType, fn func() error) error {
	switch opType {
	case ReadOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	case WriteOperation:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}

// ExecuteWithResult is Execute for functions that also produce a value
func ExecuteWithResult[T any](lm *LockManager, opType OperationType, fn func() (T, error)) (T, error) {
	var result T
	err := lm.Execute(opType, func() error {
		var err error
		result, err = fn()
		return err
	})
	return result, err
}
