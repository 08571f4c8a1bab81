// Package sqlite implements service.Store on a local SQLite file. Documents
// are stored as JSON with an integer revision per document.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"fstodo/internal/logging"
	"fstodo/internal/service"
)

// dsnParams apply to every connection. Transactions begin IMMEDIATE, so an
// Update holds the write lock from its read to its write.
const dsnParams = "?_txlock=immediate&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Backend implements service.Store using SQLite.
type Backend struct {
	db   *sql.DB
	path string
	log  *log.Logger

	mu     sync.Mutex
	subs   map[int]chan struct{}
	subSeq int
	watch  *fileWatcher
}

// New opens (or creates) the database at path and initializes the schema.
// A nil logger discards output.
func New(path string, logger *log.Logger) (*Backend, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+dsnParams)
	if err != nil {
		return nil, err
	}
	// One connection serializes writers within this process
	db.SetMaxOpenConns(1)

	b := &Backend{
		db:   db,
		path: path,
		log:  logger.WithPrefix("sqlite"),
		subs: make(map[int]chan struct{}),
	}
	if err := b.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

// initSchema creates the documents table if it doesn't exist
func (b *Backend) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			fields TEXT NOT NULL,
			revision INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (collection, id)
		);
	`
	_, err := b.db.Exec(schema)
	return err
}

// Close stops file watching and closes the database.
func (b *Backend) Close() error {
	b.mu.Lock()
	w := b.watch
	b.watch = nil
	b.mu.Unlock()
	if w != nil {
		w.Stop()
	}
	return b.db.Close()
}

// Create implements service.Store.
func (b *Backend) Create(ctx context.Context, collection string, fields service.Fields) (service.DocRef, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return service.DocRef{}, fmt.Errorf("encode fields: %w", err)
	}
	ref := service.Ref(collection, uuid.NewString())
	_, err = b.db.ExecContext(ctx,
		"INSERT INTO documents (collection, id, fields, revision) VALUES (?, ?, ?, 1)",
		ref.Collection, ref.ID, string(data),
	)
	if err != nil {
		return service.DocRef{}, err
	}
	b.log.Debug("document created", "ref", ref)
	b.notify()
	return ref, nil
}

// Set implements service.Store.
func (b *Backend) Set(ctx context.Context, ref service.DocRef, fields service.Fields) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	_, err = b.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, fields, revision) VALUES (?, ?, ?, 1)
		ON CONFLICT (collection, id) DO UPDATE SET
			fields = excluded.fields,
			revision = documents.revision + 1`,
		ref.Collection, ref.ID, string(data),
	)
	if err != nil {
		return err
	}
	b.notify()
	return nil
}

// Update implements service.Store. The read, merge and conditional write run
// in one transaction.
func (b *Backend) Update(ctx context.Context, ref service.DocRef, fields service.Fields, ifRevision string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	var rev int64
	err = tx.QueryRowContext(ctx,
		"SELECT fields, revision FROM documents WHERE collection = ? AND id = ?",
		ref.Collection, ref.ID,
	).Scan(&raw, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", service.ErrNotFound, ref)
	}
	if err != nil {
		return err
	}
	if ifRevision != "" && ifRevision != strconv.FormatInt(rev, 10) {
		return fmt.Errorf("%w: %s at revision %d, expected %s", service.ErrConflict, ref, rev, ifRevision)
	}

	merged, err := decodeFields(raw)
	if err != nil {
		return err
	}
	for k, v := range fields {
		merged[k] = v
	}
	data, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE documents SET fields = ?, revision = revision + 1 WHERE collection = ? AND id = ? AND revision = ?",
		string(data), ref.Collection, ref.ID, rev,
	)
	if err != nil {
		return err
	}
	// Another process may have written between our read and write
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", service.ErrConflict, ref)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	b.notify()
	return nil
}

// Get implements service.Store.
func (b *Backend) Get(ctx context.Context, ref service.DocRef) (service.Document, error) {
	var raw string
	var rev int64
	err := b.db.QueryRowContext(ctx,
		"SELECT fields, revision FROM documents WHERE collection = ? AND id = ?",
		ref.Collection, ref.ID,
	).Scan(&raw, &rev)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Document{}, fmt.Errorf("%w: %s", service.ErrNotFound, ref)
	}
	if err != nil {
		return service.Document{}, err
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return service.Document{}, err
	}
	return service.Document{Ref: ref, Fields: fields, Revision: strconv.FormatInt(rev, 10)}, nil
}

// GetAll implements service.Store. Documents are returned in insertion order.
func (b *Backend) GetAll(ctx context.Context, collection string) ([]service.Document, error) {
	rows, err := b.db.QueryContext(ctx,
		"SELECT id, fields, revision FROM documents WHERE collection = ? ORDER BY rowid",
		collection,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var docs []service.Document
	for rows.Next() {
		var id, raw string
		var rev int64
		if err := rows.Scan(&id, &raw, &rev); err != nil {
			return nil, err
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, service.Document{
			Ref:      service.Ref(collection, id),
			Fields:   fields,
			Revision: strconv.FormatInt(rev, 10),
		})
	}
	return docs, rows.Err()
}

func (b *Backend) read(ctx context.Context, q service.Query) (service.Snapshot, error) {
	docs, err := b.GetAll(ctx, q.Collection)
	if err != nil {
		return service.Snapshot{}, err
	}
	snap := service.Snapshot{ReadAt: time.Now()}
	for _, d := range docs {
		if q.Matches(d) {
			snap.Docs = append(snap.Docs, d)
		}
	}
	return snap, nil
}

// decodeFields parses stored JSON. Whole numbers come back as int64 and the
// rest as float64 so values match what was written.
func decodeFields(raw string) (service.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("corrupt document: %w", err)
	}
	fields := make(service.Fields, len(m))
	for k, v := range m {
		fields[k] = normalize(v)
	}
	return fields, nil
}

func normalize(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		return f
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	case map[string]any:
		for k, e := range x {
			x[k] = normalize(e)
		}
		return x
	default:
		return v
	}
}
