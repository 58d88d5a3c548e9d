package store

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/testutil"
)

const testPath = "/data/nanotree/projects.json"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newMockJSONStore(t *testing.T) (storage.Backend, *MockFileSystem, *MockFileLock, *clock) {
	t.Helper()
	fs := NewMockFileSystem()
	locks := NewMockFileLockFactory()
	c := &clock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}

	backend, err := Open(testPath,
		WithFileSystem(fs),
		WithFileLockFactory(locks),
		WithTimeFunc(c.Now),
		WithLogger(discardLogger),
	)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return backend, fs, locks.Lock(testPath + ".lock"), c
}

func TestJSONStoreLoadMissingFile(t *testing.T) {
	backend, _, lock, _ := newMockJSONStore(t)

	s, report, err := backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 || !report.Empty {
		t.Errorf("expected an empty store, got len %d report %+v", s.Len(), report)
	}
	if lock.Held() || lock.Acquired != 1 || lock.Released != 1 {
		t.Errorf("lock not balanced: acquired %d released %d", lock.Acquired, lock.Released)
	}
}

func TestJSONStoreSaveAndLoad(t *testing.T) {
	backend, fs, lock, c := newMockJSONStore(t)
	s, _ := testutil.LoadUniverse(t)

	if err := backend.Save(s); err != nil {
		t.Fatal(err)
	}
	if !fs.FileExists(testPath) {
		t.Fatal("document was not written")
	}
	if fs.FileExists(testPath + ".tmp") {
		t.Error("temp file left behind")
	}

	loaded, report, err := backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s.Snapshot(), loaded.Snapshot()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if report.Metadata == nil || !report.Metadata.CreatedAt.Equal(c.now) {
		t.Errorf("unexpected metadata %+v", report.Metadata)
	}
	if lock.Held() {
		t.Error("lock still held")
	}

	t.Run("created time survives later saves", func(t *testing.T) {
		created := c.now
		c.now = c.now.Add(time.Hour)
		if err := backend.Save(loaded); err != nil {
			t.Fatal(err)
		}
		data, _ := fs.FileContent(testPath)
		_, report, err := storage.Decode(data)
		if err != nil {
			t.Fatal(err)
		}
		if !report.Metadata.CreatedAt.Equal(created) || !report.Metadata.UpdatedAt.Equal(c.now) {
			t.Errorf("unexpected metadata %+v", report.Metadata)
		}
	})
}

func TestJSONStoreCorruptFile(t *testing.T) {
	backend, fs, _, _ := newMockJSONStore(t)
	fs.SetFile(testPath, []byte(`{"nodes": {"a": `))

	s, report, err := backend.Load()
	if err != nil {
		t.Fatalf("corrupt file should not be an error: %v", err)
	}
	if s.Len() != 0 || !report.Unreadable || report.Reason == "" {
		t.Errorf("expected an unreadable report, got %+v", report)
	}

	// The store stays usable and the next save replaces the bad document
	if _, err := s.AddFolder("fresh", hierarchy.Root); err != nil {
		t.Fatal(err)
	}
	if err := backend.Save(s); err != nil {
		t.Fatal(err)
	}
	loaded, report, _ := backend.Load()
	if loaded.Len() != 1 || !report.Clean() {
		t.Errorf("expected the new document, got len %d report %+v", loaded.Len(), report)
	}
}

func TestJSONStoreMalformedRecord(t *testing.T) {
	backend, fs, _, _ := newMockJSONStore(t)
	fs.SetFile(testPath, []byte(`{
  "nodes": {
    "a": {"kind": "leaf", "name": "A", "location": "/a"},
    "b": {"kind": "leaf", "name": "B"}
  },
  "root_order": ["a", "b"]
}`))

	s, report, err := backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 1 || report.SkippedCount() != 1 || report.Skipped[0].ID != "b" {
		t.Errorf("expected a with b skipped, got len %d report %+v", s.Len(), report)
	}
}

func TestJSONStoreReadError(t *testing.T) {
	backend, fs, _, _ := newMockJSONStore(t)
	fs.SetFile(testPath, []byte(`{}`))
	fs.ReadFileError = errors.New("permission denied")

	s, report, err := backend.Load()
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 || !report.Unreadable {
		t.Errorf("expected an unreadable report, got %+v", report)
	}
}

func TestJSONStoreWriteFailures(t *testing.T) {
	original := []byte(`{"nodes": {}, "root_order": []}`)

	tests := []struct {
		name  string
		setup func(fs *MockFileSystem)
	}{
		{name: "write", setup: func(fs *MockFileSystem) { fs.WriteFileError = errors.New("disk full") }},
		{name: "rename", setup: func(fs *MockFileSystem) { fs.RenameError = errors.New("cross-device link") }},
		{name: "mkdir", setup: func(fs *MockFileSystem) { fs.MkdirError = errors.New("read-only file system") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, fs, lock, _ := newMockJSONStore(t)
			fs.SetFile(testPath, original)
			tt.setup(fs)

			s, _ := testutil.LoadUniverse(t)
			if err := backend.Save(s); err == nil {
				t.Fatal("expected save to fail")
			}

			content, _ := fs.FileContent(testPath)
			if string(content) != string(original) {
				t.Errorf("original document was modified: %s", content)
			}
			if fs.FileExists(testPath + ".tmp") {
				t.Error("temp file left behind")
			}
			if lock.Held() {
				t.Error("lock still held after failure")
			}
		})
	}
}

func TestJSONStoreLocking(t *testing.T) {
	t.Run("lock held elsewhere", func(t *testing.T) {
		backend, _, lock, _ := newMockJSONStore(t)
		lock.Hold()

		if _, _, err := backend.Load(); err == nil {
			t.Fatal("expected load to fail while the lock is held")
		}
		s, _ := testutil.LoadUniverse(t)
		if err := backend.Save(s); err == nil {
			t.Fatal("expected save to fail while the lock is held")
		}
	})

	t.Run("lock error", func(t *testing.T) {
		backend, _, lock, _ := newMockJSONStore(t)
		boom := errors.New("lock failed")
		lock.FailWith(boom)

		_, _, err := backend.Load()
		if !errors.Is(err, boom) {
			t.Fatalf("expected lock error, got %v", err)
		}
	})
}

func TestJSONStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "projects.json")

	backend, err := Open(path, WithLogger(discardLogger))
	if err != nil {
		t.Fatal(err)
	}
	s, u := testutil.LoadUniverse(t)
	if err := s.Move(u.Scratch, u.Work, 0); err != nil {
		t.Fatal(err)
	}
	if err := backend.Save(s); err != nil {
		t.Fatal(err)
	}
	if err := backend.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file left behind: %v", err)
	}

	reopened, err := Open(path, WithLogger(discardLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = reopened.Close() }()

	loaded, report, err := reopened.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !report.Clean() {
		t.Errorf("unexpected report %+v", report)
	}
	testutil.AssertChildren(t, loaded, u.Work, u.Scratch, u.API, u.Web, u.Infra)
}

func TestJSONStoreCloseKeepsLockFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "projects.json")
	s, _ := testutil.LoadUniverse(t)

	first, err := Open(path, WithLogger(discardLogger))
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Save(s); err != nil {
		t.Fatal(err)
	}

	other := flock.New(path + ".lock")
	locked, err := other.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not take the lock: %v", err)
	}
	defer func() { _ = other.Unlock() }()

	if err := first.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path + ".lock"); err != nil {
		t.Fatalf("lock file removed on close: %v", err)
	}

	second, err := Open(path, WithLogger(discardLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = second.Close() }()
	if err := second.Save(s); err == nil {
		t.Fatal("save succeeded while the lock is held elsewhere")
	}
}
