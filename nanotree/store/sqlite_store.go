package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/arthur-debert/nanotree/nanotree/hierarchy"
	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/types"
)

//go:embed sql/schema.sql
var schemaSQL string

// insertBatchSize keeps multi-row inserts well under SQLite's variable limit
const insertBatchSize = 200

// sqliteStore keeps the hierarchy in three tables: nodes, children (one row
// per folder membership, ordered by position) and root_order. Save replaces
// all rows in a single transaction.
type sqliteStore struct {
	path string
	db   *sql.DB
	sq   sq.StatementBuilderType
	opts *options
}

var _ storage.Backend = (*sqliteStore)(nil)

func newSQLiteStore(path string, opts *options) (*sqliteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := opts.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps the pragmas in effect for every statement
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &sqliteStore{
		path: path,
		db:   db,
		sq:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
		opts: opts,
	}, nil
}

// Load implements storage.Backend.Load. Rows go through the same validation
// as JSON records; a query failure yields an empty hierarchy.
func (s *sqliteStore) Load(hopts ...hierarchy.Option) (*hierarchy.Store, *storage.LoadReport, error) {
	snap, report, err := s.readSnapshot()
	if err != nil {
		report = &storage.LoadReport{Unreadable: true, Reason: err.Error()}
		report.Log(s.opts.logger, s.path)
		return hierarchy.New(hopts...), report, nil
	}

	tree := hierarchy.FromSnapshot(snap, hopts...)
	for _, ids := range tree.Dangling() {
		report.Dangling += len(ids)
	}
	report.Loaded = len(snap.Nodes)
	report.Empty = report.Loaded == 0 && len(snap.RootOrder) == 0
	report.Log(s.opts.logger, s.path)
	return tree, report, nil
}

func (s *sqliteStore) readSnapshot() (hierarchy.Snapshot, *storage.LoadReport, error) {
	report := &storage.LoadReport{}
	snap := hierarchy.Snapshot{Nodes: make(map[string]types.Node)}

	records, err := s.readRecords()
	if err != nil {
		return snap, nil, err
	}
	memberships, err := s.readChildren()
	if err != nil {
		return snap, nil, err
	}

	for parentID, childIDs := range memberships {
		rec, ok := records[parentID]
		if !ok || rec.Kind == nil || *rec.Kind != types.KindFolder.String() {
			report.Skipped = append(report.Skipped, storage.Diagnostic{
				ID:  parentID,
				Err: fmt.Errorf("%w: children listed under a non-folder", types.ErrMalformedRecord),
			})
			continue
		}
		ids := childIDs
		rec.Children = &ids
		records[parentID] = rec
	}

	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		node, err := storage.BuildNode(id, records[id])
		if err != nil {
			report.Skipped = append(report.Skipped, storage.Diagnostic{ID: id, Err: err})
			continue
		}
		snap.Nodes[id] = node
	}

	snap.RootOrder, err = s.readRootOrder()
	if err != nil {
		return snap, nil, err
	}

	report.Metadata = s.readMetadata()
	return snap, report, nil
}

func (s *sqliteStore) readRecords() (map[string]storage.Record, error) {
	query, args, err := s.sq.Select("id", "kind", "name", "location").From("nodes").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make(map[string]storage.Record)
	for rows.Next() {
		var id string
		var kind, name, location sql.NullString
		if err := rows.Scan(&id, &kind, &name, &location); err != nil {
			return nil, fmt.Errorf("failed to scan node: %w", err)
		}
		records[id] = storage.Record{
			Kind:     nullable(kind),
			Name:     nullable(name),
			Location: nullable(location),
		}
	}
	return records, rows.Err()
}

func (s *sqliteStore) readChildren() (map[string][]string, error) {
	query, args, err := s.sq.Select("parent_id", "child_id").
		From("children").
		OrderBy("parent_id", "position").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer func() { _ = rows.Close() }()

	memberships := make(map[string][]string)
	for rows.Next() {
		var parentID, childID string
		if err := rows.Scan(&parentID, &childID); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		memberships[parentID] = append(memberships[parentID], childID)
	}
	return memberships, rows.Err()
}

func (s *sqliteStore) readRootOrder() ([]string, error) {
	query, args, err := s.sq.Select("id").From("root_order").OrderBy("position").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query root order: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan root id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// readMetadata is best effort: a missing or odd metadata table is not a
// reason to lose the hierarchy
func (s *sqliteStore) readMetadata() *storage.Metadata {
	query, args, err := s.sq.Select("key", "value").From("metadata").ToSql()
	if err != nil {
		return nil
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil
	}
	defer func() { _ = rows.Close() }()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil
		}
		values[key] = value
	}
	if len(values) == 0 {
		return nil
	}

	meta := &storage.Metadata{Version: values["version"]}
	meta.CreatedAt, _ = time.Parse(time.RFC3339Nano, values["created_at"])
	meta.UpdatedAt, _ = time.Parse(time.RFC3339Nano, values["updated_at"])
	return meta
}

// Save implements storage.Backend.Save
func (s *sqliteStore) Save(tree *hierarchy.Store) (err error) {
	snap := tree.Snapshot()
	now := s.opts.timeFunc()
	createdAt := now
	if meta := s.readMetadata(); meta != nil && !meta.CreatedAt.IsZero() {
		createdAt = meta.CreatedAt
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"nodes", "children", "root_order"} {
		query, args, qerr := s.sq.Delete(table).ToSql()
		if qerr != nil {
			return qerr
		}
		if _, err = tx.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	ids := make([]string, 0, len(snap.Nodes))
	for id := range snap.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var nodeRows, childRows, rootRows [][]interface{}
	for _, id := range ids {
		node := snap.Nodes[id]
		var location interface{}
		if node.IsLeaf() {
			location = node.Location
		}
		nodeRows = append(nodeRows, []interface{}{id, node.Kind.String(), node.Name, location})
		for pos, childID := range node.Children {
			childRows = append(childRows, []interface{}{id, pos, childID})
		}
	}
	for pos, id := range snap.RootOrder {
		rootRows = append(rootRows, []interface{}{pos, id})
	}

	if err = s.insertRows(tx, "nodes", []string{"id", "kind", "name", "location"}, nodeRows); err != nil {
		return err
	}
	if err = s.insertRows(tx, "children", []string{"parent_id", "position", "child_id"}, childRows); err != nil {
		return err
	}
	if err = s.insertRows(tx, "root_order", []string{"position", "id"}, rootRows); err != nil {
		return err
	}
	if err = s.writeMetadata(tx, createdAt, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (s *sqliteStore) insertRows(tx *sql.Tx, table string, columns []string, rows [][]interface{}) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		insert := s.sq.Insert(table).Columns(columns...)
		for _, row := range rows[start:end] {
			insert = insert.Values(row...)
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("failed to build insert for %s: %w", table, err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}
	return nil
}

func (s *sqliteStore) writeMetadata(tx *sql.Tx, createdAt, now time.Time) error {
	values := map[string]string{
		"version":    storage.FormatVersion,
		"created_at": createdAt.Format(time.RFC3339Nano),
		"updated_at": now.Format(time.RFC3339Nano),
	}
	keys := []string{"version", "created_at", "updated_at"}
	for _, key := range keys {
		query, args, err := s.sq.Insert("metadata").
			Columns("key", "value").
			Values(key, values[key]).
			Suffix("ON CONFLICT(key) DO UPDATE SET value = excluded.value").
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
	}
	return nil
}

// Close implements storage.Backend.Close
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func nullable(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	value := v.String
	return &value
}
