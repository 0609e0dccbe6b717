package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"catalogsync/internal/catalog"
	"catalogsync/internal/storage"
)

func init() {
	storage.Register("postgres", New)
}

// columnsSQL lists the live columns of a table in the session's current
// schema, which is where an unqualified CREATE TABLE puts it.
const columnsSQL = `SELECT column_name
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`

// pgxConn is the subset of *pgxpool.Pool the gateway uses. It exists so the
// statement path can be tested without a server.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

/*
Gateway implements storage.Gateway for Postgres over a pgx pool.

Value binding:
  - catalog.BindText values are bound as Go strings.
  - catalog.BindRaw values (the params bag) are bound as []byte, which pgx
    hands to JSONB columns verbatim; Postgres performs the JSON validation.
*/
type Gateway struct {
	conn pgxConn
}

// New opens a pgx pool for cfg.DSN and verifies connectivity.
func New(ctx context.Context, cfg storage.Config) (storage.Gateway, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Gateway{conn: pool}, nil
}

// Close closes the connection pool.
func (g *Gateway) Close() {
	if g == nil || g.conn == nil {
		return
	}
	g.conn.Close()
}

// Dialect returns catalog.Postgres.
func (g *Gateway) Dialect() catalog.Dialect { return catalog.Postgres }

// Exec runs one DDL statement.
func (g *Gateway) Exec(ctx context.Context, sql string) error {
	_, err := g.conn.Exec(ctx, sql)
	return err
}

// Columns returns the live column names of table.
func (g *Gateway) Columns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := g.conn.Query(ctx, columnsSQL, table)
	if err != nil {
		return nil, fmt.Errorf("postgres: columns of %s: %w", table, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres: columns of %s: %w", table, err)
	}

	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out, nil
}

// Write executes one row statement.
func (g *Gateway) Write(ctx context.Context, st catalog.Statement) (int64, error) {
	cmd, err := g.conn.Exec(ctx, st.SQL, st.Args(rawJSON)...)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func rawJSON(v string) any { return []byte(v) }

var _ storage.Gateway = (*Gateway)(nil)
