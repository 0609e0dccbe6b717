package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"catalogsync/internal/catalog"
	"catalogsync/internal/storage"
)

func init() {
	storage.Register("sqlite", New)
}

// Gateway implements storage.Gateway for SQLite via modernc.org/sqlite.
//
// Key design points vs Postgres:
//   - There is no JSONB type. The params column is TEXT guarded by a
//     json_valid CHECK, and the raw JSON is bound as a plain string.
//   - The pool is capped at one connection so ":memory:" databases are
//     shared by every statement of a run.
type Gateway struct {
	db *sql.DB
}

// New opens the database named by cfg.DSN (a file path or ":memory:").
func New(ctx context.Context, cfg storage.Config) (storage.Gateway, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Gateway{db: db}, nil
}

func (g *Gateway) Close() { _ = g.db.Close() }

func (g *Gateway) Dialect() catalog.Dialect { return catalog.SQLite }

func (g *Gateway) Exec(ctx context.Context, sql string) error {
	_, err := g.db.ExecContext(ctx, sql)
	return err
}

// Columns reads pragma_table_info. A missing table yields no rows.
func (g *Gateway) Columns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("sqlite: columns of %s: %w", table, err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: columns of %s: %w", table, err)
		}
		out[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: columns of %s: %w", table, err)
	}
	return out, nil
}

func (g *Gateway) Write(ctx context.Context, st catalog.Statement) (int64, error) {
	res, err := g.db.ExecContext(ctx, st.SQL, st.Args(nil)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ storage.Gateway = (*Gateway)(nil)
