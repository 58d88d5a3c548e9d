package storage_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/testutil"
	"github.com/arthur-debert/nanotree/types"
)

func TestRoundTrip(t *testing.T) {
	s, u := testutil.LoadUniverse(t)

	// Mix in some edits so the order is not the fixture's
	if err := s.Move(u.Scratch, u.Infra, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddLeaf("", "", u.Empty); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddFolder("new", hierarchy.Root); err != nil {
		t.Fatal(err)
	}

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	meta := &storage.Metadata{Version: storage.FormatVersion, CreatedAt: created, UpdatedAt: created}
	data, err := storage.Encode(s, meta)
	if err != nil {
		t.Fatal(err)
	}

	decoded, report, err := storage.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Clean() {
		t.Errorf("expected a clean load, got %+v", report)
	}
	if diff := cmp.Diff(s.Snapshot(), decoded.Snapshot()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if report.Metadata == nil || !report.Metadata.CreatedAt.Equal(created) {
		t.Errorf("metadata not decoded: %+v", report.Metadata)
	}
}

func TestRoundTripEmptyStore(t *testing.T) {
	data, err := storage.Encode(hierarchy.New(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"root_order": []`) {
		t.Errorf("empty root order should encode as a list: %s", data)
	}
	s, report, err := storage.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 || report.Empty {
		t.Errorf("unexpected result: len %d, report %+v", s.Len(), report)
	}
}

func TestEncodeShape(t *testing.T) {
	s := hierarchy.New(hierarchy.WithIDGenerator(testutil.NewFixedIDs("f", "l")))
	f, _ := s.AddFolder("F", hierarchy.Root)
	if _, err := s.AddLeaf("L", "/l", f); err != nil {
		t.Fatal(err)
	}

	data, err := storage.Encode(s, nil)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Nodes    map[string]map[string]interface{} `json:"nodes"`
		Metadata json.RawMessage                   `json:"metadata"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Metadata != nil {
		t.Error("nil metadata should be omitted")
	}

	folder, leaf := doc.Nodes["f"], doc.Nodes["l"]
	if _, ok := folder["location"]; ok {
		t.Error("folder should not carry a location")
	}
	if _, ok := leaf["children"]; ok {
		t.Error("leaf should not carry children")
	}
	if leaf["kind"] != "leaf" || folder["kind"] != "folder" {
		t.Errorf("unexpected kinds: %v %v", leaf["kind"], folder["kind"])
	}
}

func TestDecodeMalformedRecords(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{name: "missing kind", record: `{"name": "x", "location": "/x"}`},
		{name: "missing name", record: `{"kind": "leaf", "location": "/x"}`},
		{name: "leaf without location", record: `{"kind": "leaf", "name": "x"}`},
		{name: "unknown kind", record: `{"kind": "shortcut", "name": "x"}`},
		{name: "not an object", record: `42`},
		{name: "children of the wrong type", record: `{"kind": "folder", "name": "x", "children": [1, 2]}`},
		{name: "name of the wrong type", record: `{"kind": "leaf", "name": 7, "location": "/x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var doc bytes.Buffer
			_ = json.Compact(&doc, testutil.UniverseDocument())
			// Splice the bad record in as an extra node listed at the root
			text := strings.Replace(doc.String(), `"nodes":{`, `"nodes":{"bad":`+tt.record+`,`, 1)
			text = strings.Replace(text, `"root_order":[`, `"root_order":["bad",`, 1)

			s, report, err := storage.Decode([]byte(text))
			if err != nil {
				t.Fatalf("decode should not fail: %v", err)
			}
			if s.Len() != testutil.UniverseNodeCount {
				t.Errorf("expected %d nodes, got %d", testutil.UniverseNodeCount, s.Len())
			}
			if report.SkippedCount() != 1 {
				t.Fatalf("expected 1 diagnostic, got %+v", report.Skipped)
			}
			d := report.Skipped[0]
			if d.ID != "bad" || !errors.Is(d.Err, types.ErrMalformedRecord) {
				t.Errorf("unexpected diagnostic %+v", d)
			}
			// The skipped id is still listed and is tolerated as dangling
			if report.Dangling != 1 {
				t.Errorf("expected 1 dangling reference, got %d", report.Dangling)
			}
		})
	}
}

func TestDecodeDocumentProblems(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		for _, data := range []string{"", "  \n"} {
			s, report, err := storage.Decode([]byte(data))
			if err != nil || !report.Empty || s.Len() != 0 {
				t.Errorf("%q: got len %d, report %+v, err %v", data, s.Len(), report, err)
			}
		}
	})

	t.Run("unparsable input", func(t *testing.T) {
		for _, data := range []string{"{not json", "[1, 2]", `"text"`} {
			if _, _, err := storage.Decode([]byte(data)); err == nil {
				t.Errorf("%q: expected an error", data)
			}
			s, report := storage.DecodeTolerant([]byte(data))
			if s == nil || s.Len() != 0 || !report.Unreadable || report.Reason == "" {
				t.Errorf("%q: expected an unreadable empty store, got %+v", data, report)
			}
		}
	})

	t.Run("missing sections", func(t *testing.T) {
		s, report, err := storage.Decode([]byte(`{}`))
		if err != nil {
			t.Fatal(err)
		}
		if s.Len() != 0 || len(s.RootOrder()) != 0 || !report.Clean() {
			t.Errorf("unexpected result %+v", report)
		}
	})

	t.Run("nodes of the wrong type", func(t *testing.T) {
		s, report, err := storage.Decode([]byte(`{"nodes": [1], "root_order": []}`))
		if err != nil {
			t.Fatal(err)
		}
		if s.Len() != 0 || report.SkippedCount() != 1 {
			t.Errorf("unexpected result %+v", report)
		}
	})

	t.Run("root order entries of the wrong type", func(t *testing.T) {
		doc := `{"nodes": {"a": {"kind": "leaf", "name": "A", "location": "/a"}}, "root_order": ["a", 3, null]}`
		s, report, err := storage.Decode([]byte(doc))
		if err != nil {
			t.Fatal(err)
		}
		testutil.AssertChildren(t, s, hierarchy.Root, "a")
		if report.SkippedCount() != 2 {
			t.Errorf("expected 2 diagnostics, got %+v", report.Skipped)
		}
	})
}

func TestDecodeKeepsDanglingAndDuplicates(t *testing.T) {
	doc := `{
  "nodes": {
    "f": {"kind": "folder", "name": "F", "children": ["x", "gone", "x"]},
    "x": {"kind": "leaf", "name": "X", "location": "/x"}
  },
  "root_order": ["f", "ghost"]
}`
	s, report, err := storage.Decode([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if report.Dangling != 2 {
		t.Errorf("expected 2 dangling references, got %d", report.Dangling)
	}
	// Nothing is repaired at load time
	testutil.AssertChildren(t, s, hierarchy.Root, "f", "ghost")
	testutil.AssertChildren(t, s, "f", "x", "gone", "x")
}

func TestDecodeLegacyDocument(t *testing.T) {
	doc := `{
  "projects": {
    "g": {"type": "folder", "name": "Group", "children": ["p"]},
    "p": {"type": "project", "name": "Proj", "path": "/src/proj"}
  },
  "root_items": ["g"]
}`
	s, report, err := storage.Decode([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if !report.Legacy || !report.Clean() {
		t.Errorf("unexpected report %+v", report)
	}
	node, ok := s.Get("p")
	if !ok || node.Kind != types.KindLeaf || node.Location != "/src/proj" {
		t.Errorf("legacy project not converted: %+v", node)
	}
	testutil.AssertChildren(t, s, hierarchy.Root, "g")
	testutil.AssertChildren(t, s, "g", "p")
}

func TestReportLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, report, err := storage.Decode([]byte(`{"nodes": {"bad": {}}, "root_order": ["bad"]}`))
	if err != nil {
		t.Fatal(err)
	}
	report.Log(logger, "test.json")

	out := buf.String()
	if !strings.Contains(out, "skipped malformed entry") || !strings.Contains(out, "dangling references") {
		t.Errorf("unexpected log output:\n%s", out)
	}

	var nilReport *storage.LoadReport
	nilReport.Log(logger, "none")
	if !nilReport.Clean() || nilReport.SkippedCount() != 0 {
		t.Error("nil report should be clean")
	}
}
