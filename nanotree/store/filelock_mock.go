package store

import (
	"context"
	"sync"
	"time"
)

// MockFileLock is an in-process FileLock for tests
type MockFileLock struct {
	mu     sync.Mutex
	held   bool
	lockFn func() error

	Acquired int // successful TryLockContext calls
	Released int // Unlock calls
}

// TryLockContext implements FileLock.TryLockContext. It never waits: a held
// lock reports false so the caller's retry loop is exercised.
func (m *MockFileLock) TryLockContext(_ context.Context, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lockFn != nil {
		if err := m.lockFn(); err != nil {
			return false, err
		}
	}
	if m.held {
		return false, nil
	}
	m.held = true
	m.Acquired++
	return true, nil
}

// Unlock implements FileLock.Unlock
func (m *MockFileLock) Unlock() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = false
	m.Released++
	return nil
}

// Held reports whether the lock is currently taken
func (m *MockFileLock) Held() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.held
}

// Hold takes the lock from outside, simulating another process
func (m *MockFileLock) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.held = true
}

// FailWith makes every later lock attempt return err
func (m *MockFileLock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockFn = func() error { return err }
}

// MockFileLockFactory hands out one MockFileLock per path
type MockFileLockFactory struct {
	mu    sync.Mutex
	locks map[string]*MockFileLock
}

// NewMockFileLockFactory creates a new mock factory
func NewMockFileLockFactory() *MockFileLockFactory {
	return &MockFileLockFactory{locks: make(map[string]*MockFileLock)}
}

// New implements FileLockFactory.New
func (f *MockFileLockFactory) New(path string) FileLock {
	return f.Lock(path)
}

// Lock returns the mock for path, creating it on first use
func (f *MockFileLockFactory) Lock(path string) *MockFileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	lock, ok := f.locks[path]
	if !ok {
		lock = &MockFileLock{}
		f.locks[path] = lock
	}
	return lock
}
