package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/nanotree/storage"
)

// Entry names inside a backup archive
const (
	ArchiveDocument = "hierarchy.json"
	ArchiveOutline  = "outline.yaml"
)

// ArchiveFilename returns the default backup name for a point in time
func ArchiveFilename(now time.Time) string {
	return fmt.Sprintf("nanotree-backup-%s.zip", now.UTC().Format("20060102-150405"))
}

// WriteArchive writes a zip holding the canonical document, which restores
// the hierarchy, and a YAML outline for people to read.
func WriteArchive(w io.Writer, s *hierarchy.Store, now time.Time) error {
	doc, err := storage.Encode(s, &storage.Metadata{
		Version:   storage.FormatVersion,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return err
	}

	var outline bytes.Buffer
	if err := Write(&outline, s, FormatYAML); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	if err := addToZip(zw, ArchiveDocument, doc, now); err != nil {
		_ = zw.Close()
		return err
	}
	if err := addToZip(zw, ArchiveOutline, outline.Bytes(), now); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finish archive: %w", err)
	}
	return nil
}

func addToZip(zw *zip.Writer, name string, content []byte, modified time.Time) error {
	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	}
	writer, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create %s in zip: %w", name, err)
	}
	if _, err := writer.Write(content); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// ReadArchive restores a hierarchy from a backup archive. The document goes
// through the same tolerant decoding as a regular load.
func ReadArchive(r io.ReaderAt, size int64, opts ...hierarchy.Option) (*hierarchy.Store, *storage.LoadReport, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}

	for _, file := range zr.File {
		if file.Name != ArchiveDocument {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", file.Name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		return storage.Decode(data, opts...)
	}
	return nil, nil, fmt.Errorf("archive has no %s", ArchiveDocument)
}
