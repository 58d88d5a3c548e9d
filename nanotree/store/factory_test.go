package store

import (
	"path/filepath"
	"testing"
)

func TestKindForPath(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"projects.json", KindJSON},
		{"projects", KindJSON},
		{"tree.db", KindSQLite},
		{"tree.SQLITE", KindSQLite},
		{"tree.sqlite3", KindSQLite},
	}
	for _, tt := range tests {
		if got := KindForPath(tt.path); got != tt.want {
			t.Errorf("KindForPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		value   string
		want    Kind
		wantErr bool
	}{
		{"", KindAuto, false},
		{"auto", KindAuto, false},
		{"JSON", KindJSON, false},
		{" sqlite ", KindSQLite, false},
		{"sqlite3", KindSQLite, false},
		{"postgres", KindAuto, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.value)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.value, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("expected an error for an empty path")
	}
	if _, err := Open("x.json", WithKind("nope")); err == nil {
		t.Error("expected an error for an unknown kind")
	}

	backend, err := Open("tree.db", WithKind(KindJSON), WithFileSystem(NewMockFileSystem()), WithFileLockFactory(NewMockFileLockFactory()))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := backend.(*jsonFileStore); !ok {
		t.Errorf("WithKind should override the extension, got %T", backend)
	}

	sqlite, err := Open(filepath.Join(t.TempDir(), "forced.json"), WithKind(KindSQLite), WithLogger(discardLogger))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sqlite.Close() }()
	if _, ok := sqlite.(*sqliteStore); !ok {
		t.Errorf("expected sqlite backend, got %T", sqlite)
	}
}
