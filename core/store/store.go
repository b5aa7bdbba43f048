// Package store keeps documents and their flat annotation sets in a SQLite
// database. It plays the part of the host annotation store: converters
// read records from it and write records back into named sets.
package store

import (
	"context"
	"database/sql"
	"slices"

	"github.com/FocuswithJustin/grafstandoff/core/errors"
	"github.com/FocuswithJustin/grafstandoff/core/spans"
	"github.com/FocuswithJustin/grafstandoff/core/sqlite"
	"github.com/FocuswithJustin/grafstandoff/core/text"
)

const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		digest TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS annotations (
		id INTEGER PRIMARY KEY,
		document TEXT NOT NULL,
		set_name TEXT NOT NULL,
		seq INTEGER NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		type TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_annotations_set ON annotations(document, set_name, seq);
	CREATE TABLE IF NOT EXISTS features (
		annotation INTEGER NOT NULL,
		ordinal INTEGER NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (annotation, ordinal),
		FOREIGN KEY (annotation) REFERENCES annotations(id) ON DELETE CASCADE
	);
	CREATE TABLE IF NOT EXISTS metadata (
		document TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (document, name)
	);
`

// Store is an annotation store backed by one SQLite file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	// One connection serialises the writers of a batch.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.NewIO("initialise", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// OpenReadOnly opens an existing store without creating or altering it.
func OpenReadOnly(path string) (*Store, error) {
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewIO("open", path, err)
	}
	return &Store{db: db, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string {
	return s.path
}

// PutText stores the text of doc, replacing earlier content.
func (s *Store) PutText(ctx context.Context, doc string, content *text.Buffer) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (name, content, digest) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET content = excluded.content, digest = excluded.digest`,
		doc, content.String(), content.Digest())
	if err != nil {
		return errors.NewIO("store text of", doc, err)
	}
	return nil
}

// Text returns the text of doc.
func (s *Store) Text(ctx context.Context, doc string) (*text.Buffer, error) {
	var content, digest string
	err := s.db.QueryRowContext(ctx, `SELECT content, digest FROM documents WHERE name = ?`, doc).Scan(&content, &digest)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("document", doc)
	}
	if err != nil {
		return nil, errors.NewIO("read text of", doc, err)
	}
	buf := text.New(content)
	if !buf.VerifyDigest(digest) {
		return nil, errors.NewValidation("digest", "stored text of "+doc+" does not match its digest")
	}
	return buf, nil
}

// Documents returns the names of stored documents, sorted.
func (s *Store) Documents(ctx context.Context) ([]string, error) {
	return s.strings(ctx, `
		SELECT name FROM documents
		UNION SELECT DISTINCT document FROM annotations
		ORDER BY 1`)
}

// Sets returns the annotation set names of doc, sorted.
func (s *Store) Sets(ctx context.Context, doc string) ([]string, error) {
	return s.strings(ctx, `SELECT DISTINCT set_name FROM annotations WHERE document = ? ORDER BY set_name`, doc)
}

func (s *Store) strings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewIO("query", s.path, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.NewIO("scan", s.path, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Save replaces the annotation set of doc with idx.
func (s *Store) Save(ctx context.Context, doc, set string, idx *spans.Index) error {
	return s.write(ctx, doc, set, idx, true)
}

// Append adds the records of idx after those already in the set.
func (s *Store) Append(ctx context.Context, doc, set string, idx *spans.Index) error {
	return s.write(ctx, doc, set, idx, false)
}

func (s *Store) write(ctx context.Context, doc, set string, idx *spans.Index, replace bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIO("begin", s.path, err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `DELETE FROM annotations WHERE document = ? AND set_name = ?`, doc, set); err != nil {
			return errors.NewIO("clear set", set, err)
		}
	}

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM annotations WHERE document = ? AND set_name = ?`,
		doc, set).Scan(&seq); err != nil {
		return errors.NewIO("query", s.path, err)
	}

	insertAnnotation, err := tx.PrepareContext(ctx,
		`INSERT INTO annotations (document, set_name, seq, start_offset, end_offset, type) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.NewIO("prepare", s.path, err)
	}
	defer insertAnnotation.Close()
	insertFeature, err := tx.PrepareContext(ctx,
		`INSERT INTO features (annotation, ordinal, name, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.NewIO("prepare", s.path, err)
	}
	defer insertFeature.Close()

	for r := range idx.All() {
		seq++
		res, err := insertAnnotation.ExecContext(ctx, doc, set, seq, r.Start, r.End, r.Type)
		if err != nil {
			return errors.NewIO("insert annotation", r.String(), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return errors.NewIO("insert annotation", r.String(), err)
		}
		ordinal := 0
		for k, v := range r.Features.All() {
			ordinal++
			if _, err := insertFeature.ExecContext(ctx, id, ordinal, k, v); err != nil {
				return errors.NewIO("insert feature", k, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewIO("commit", s.path, err)
	}
	return nil
}

// Load returns the annotation set of doc in stored order. A set that was
// never written is empty.
func (s *Store) Load(ctx context.Context, doc, set string) (*spans.Index, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.start_offset, a.end_offset, a.type, f.name, f.value
		FROM annotations a
		LEFT JOIN features f ON f.annotation = a.id
		WHERE a.document = ? AND a.set_name = ?
		ORDER BY a.seq, f.ordinal`, doc, set)
	if err != nil {
		return nil, errors.NewIO("load set", set, err)
	}
	defer rows.Close()

	idx := spans.NewIndex()
	var current *spans.Record
	lastID := int64(-1)
	for rows.Next() {
		var (
			id, start, end int64
			typ            string
			name, value    sql.NullString
		)
		if err := rows.Scan(&id, &start, &end, &typ, &name, &value); err != nil {
			return nil, errors.NewIO("scan", set, err)
		}
		if id != lastID {
			current = idx.Add(start, end, typ, nil)
			lastID = id
		}
		if name.Valid {
			current.Features.Set(name.String, value.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("load set", set, err)
	}
	return idx, nil
}

// PutMetadata merges meta into the metadata of doc. Existing keys are
// overwritten in place.
func (s *Store) PutMetadata(ctx context.Context, doc string, meta *spans.Features) error {
	current, err := s.Metadata(ctx, doc)
	if err != nil {
		return err
	}
	keys := current.Keys()
	for k, v := range meta.All() {
		current.Set(k, v)
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewIO("begin", s.path, err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM metadata WHERE document = ?`, doc); err != nil {
		return errors.NewIO("clear metadata of", doc, err)
	}
	for i, k := range keys {
		v, _ := current.Get(k)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO metadata (document, ordinal, name, value) VALUES (?, ?, ?, ?)`,
			doc, i, k, v); err != nil {
			return errors.NewIO("store metadata", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.NewIO("commit", s.path, err)
	}
	return nil
}

// Metadata returns the metadata of doc in insertion order.
func (s *Store) Metadata(ctx context.Context, doc string) (*spans.Features, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM metadata WHERE document = ? ORDER BY ordinal`, doc)
	if err != nil {
		return nil, errors.NewIO("load metadata of", doc, err)
	}
	defer rows.Close()
	meta := spans.NewFeatures()
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.NewIO("scan", doc, err)
		}
		meta.Set(k, v)
	}
	return meta, rows.Err()
}
