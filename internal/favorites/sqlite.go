package favorites

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS favorites (
	record_id TEXT PRIMARY KEY,
	marked_at DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_id FROM favorites ORDER BY record_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load favorites")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan favorite")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: load favorites iterate")
}

// Replace implements Store: delete everything, insert the new set, commit.
func (s *SQLiteStore) Replace(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin replace")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM favorites`); err != nil {
		return eris.Wrap(err, "sqlite: clear favorites")
	}

	if len(ids) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO favorites (record_id, marked_at) VALUES (?, ?)`)
		if err != nil {
			return eris.Wrap(err, "sqlite: prepare insert")
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, id := range ids {
			if _, err := stmt.ExecContext(ctx, id, now); err != nil {
				return eris.Wrapf(err, "sqlite: insert favorite %s", id)
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit replace")
}
