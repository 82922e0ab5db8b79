package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/histmap/histmap/pkg/polity"
	_ "modernc.org/sqlite"
)

// DB is an optional catalog database. It only holds catalog records and their
// import history; no runtime state is written to it.
type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS polities (
  id               TEXT PRIMARY KEY,
  position         INTEGER NOT NULL,
  name             TEXT NOT NULL,
  reference_title  TEXT NOT NULL,
  start_year       INTEGER NOT NULL,
  end_year         INTEGER NOT NULL CHECK (end_year >= start_year),
  boundary         TEXT NOT NULL,
  color            TEXT,
  import_id        INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_polities_position ON polities(position);
CREATE INDEX IF NOT EXISTS idx_polities_years ON polities(start_year, end_year);
CREATE TABLE IF NOT EXISTS catalog_imports (
  id          INTEGER PRIMARY KEY,
  imported_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  source      TEXT NOT NULL,
  count       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS catalog_changes (
  id          INTEGER PRIMARY KEY,
  import_id   INTEGER NOT NULL,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  polity_id   TEXT NOT NULL,
  name        TEXT NOT NULL,
  change_type TEXT NOT NULL CHECK (change_type IN ('added','updated','removed'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON catalog_changes(occurred_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// ReplacePolities makes ps the stored catalog, in order, inside one
// transaction, and records what changed relative to the previous import.
func (d *DB) ReplacePolities(ctx context.Context, source string, ps []polity.Polity) (changes []Change, err error) {
	now := time.Now().UTC()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `INSERT INTO catalog_imports(imported_at, source, count) VALUES(CURRENT_TIMESTAMP, ?, ?)`, source, len(ps))
	if err != nil {
		return nil, err
	}
	importID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	existing, err := loadRows(ctx, tx)
	if err != nil {
		return nil, err
	}

	record := func(id, name, kind string) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO catalog_changes(import_id, occurred_at, polity_id, name, change_type) VALUES(?, CURRENT_TIMESTAMP, ?, ?, ?)`, importID, id, name, kind)
		if err != nil {
			return err
		}
		changes = append(changes, Change{OccurredAt: now, PolityID: id, Name: name, ChangeType: kind})
		return nil
	}

	seen := make(map[string]bool, len(ps))
	for pos, p := range ps {
		if err = p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.ID] {
			err = fmt.Errorf("duplicate polity id %q", p.ID)
			return nil, err
		}
		seen[p.ID] = true
		r := toRow(p, pos)

		old, existed := existing[p.ID]
		switch {
		case !existed:
			_, err = tx.ExecContext(ctx, `INSERT INTO polities(id, position, name, reference_title, start_year, end_year, boundary, color, import_id) VALUES(?,?,?,?,?,?,?,?,?)`,
				r.ID, r.Position, r.Name, r.ReferenceTitle, r.Start, r.End, r.Boundary, nullIfEmpty(r.Color), importID)
			if err != nil {
				return nil, err
			}
			if err = record(p.ID, p.Name, "added"); err != nil {
				return nil, err
			}
		case old.sameContent(r):
			_, err = tx.ExecContext(ctx, `UPDATE polities SET position = ?, import_id = ? WHERE id = ?`, r.Position, importID, r.ID)
			if err != nil {
				return nil, err
			}
		default:
			_, err = tx.ExecContext(ctx, `UPDATE polities SET position = ?, name = ?, reference_title = ?, start_year = ?, end_year = ?, boundary = ?, color = ?, import_id = ? WHERE id = ?`,
				r.Position, r.Name, r.ReferenceTitle, r.Start, r.End, r.Boundary, nullIfEmpty(r.Color), importID, r.ID)
			if err != nil {
				return nil, err
			}
			if err = record(p.ID, p.Name, "updated"); err != nil {
				return nil, err
			}
		}
	}

	// Sweep records that are not part of this import.
	for id, old := range existing {
		if seen[id] {
			continue
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM polities WHERE id = ?`, id); err != nil {
			return nil, err
		}
		if err = record(id, old.Name, "removed"); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return changes, nil
}

// ListPolities returns the stored catalog in import order.
func (d *DB) ListPolities(ctx context.Context) ([]polity.Polity, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, position, name, reference_title, start_year, end_year, boundary, color FROM polities ORDER BY position, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []polity.Polity
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		p, err := r.polity()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRecentChanges returns the most recent catalog changes across imports.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, `SELECT occurred_at, polity_id, name, change_type FROM catalog_changes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAt string
		if err := rows.Scan(&occurredAt, &c.PolityID, &c.Name, &c.ChangeType); err != nil {
			return nil, err
		}
		c.OccurredAt = parseTimestamp(occurredAt)
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

// Stats summarizes the stored catalog.
func (d *DB) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	var first, last sql.NullInt64
	err := d.sql.QueryRowContext(ctx, `SELECT COUNT(*), MIN(start_year), MAX(end_year) FROM polities`).Scan(&s.Polities, &first, &last)
	if err != nil {
		return s, err
	}
	s.FirstYear, s.LastYear = int(first.Int64), int(last.Int64)

	var importedAt sql.NullString
	err = d.sql.QueryRowContext(ctx, `SELECT COUNT(*), MAX(imported_at) FROM catalog_imports`).Scan(&s.Imports, &importedAt)
	if err != nil {
		return s, err
	}
	if importedAt.Valid {
		s.LastImport = parseTimestamp(importedAt.String)
	}
	return s, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func loadRows(ctx context.Context, q querier) (map[string]row, error) {
	rows, err := q.QueryContext(ctx, `SELECT id, position, name, reference_title, start_year, end_year, boundary, color FROM polities`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]row)
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out[r.ID] = r
	}
	return out, rows.Err()
}

func scanRow(rows *sql.Rows) (row, error) {
	var r row
	var color sql.NullString
	if err := rows.Scan(&r.ID, &r.Position, &r.Name, &r.ReferenceTitle, &r.Start, &r.End, &r.Boundary, &color); err != nil {
		return r, err
	}
	r.Color = color.String
	return r, nil
}

// parseTimestamp accepts SQLite's CURRENT_TIMESTAMP format and RFC3339.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
