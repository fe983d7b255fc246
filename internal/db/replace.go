package db

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// ReplaceAll atomically replaces the full contents of a table:
//  1. DELETE everything
//  2. COPY the new rows in
//  3. commit, or roll the delete back on any failure
//
// Built for small wholesale-owned tables (the favorites set) where the new
// state is authoritative and diffing is not worth the complexity. Returns
// the number of rows written.
func ReplaceAll(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: replace: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, "DELETE FROM "+sanitizeTable(table)); err != nil {
		return 0, eris.Wrapf(err, "db: replace: clear %s", table)
	}

	var n int64
	if len(rows) > 0 {
		n, err = tx.CopyFrom(ctx, tableIdentifier(table), columns, pgx.CopyFromRows(rows))
		if err != nil {
			return 0, eris.Wrapf(err, "db: replace: COPY INTO %s", table)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: replace: commit tx")
	}
	return n, nil
}

// sanitizeTable handles schema-qualified table names like "app.favorites".
func sanitizeTable(table string) string {
	return tableIdentifier(table).Sanitize()
}

func tableIdentifier(table string) pgx.Identifier {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}
	}
	return pgx.Identifier{table}
}
