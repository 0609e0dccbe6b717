package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"

	"catalogsync/internal/catalog"
	"catalogsync/internal/storage"
)

func init() {
	storage.Register("mssql", New)
}

const columnsSQL = `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = @p1`

// Gateway implements storage.Gateway for Microsoft SQL Server.
//
// Statements come from catalog.SQLServer:
//   - Tables are created behind an OBJECT_ID guard since SQL Server has no
//     CREATE TABLE IF NOT EXISTS.
//   - Identity rows are written with MERGE ... WITH (HOLDLOCK).
//   - Params are bound as NVARCHAR and validated by an ISJSON check.
type Gateway struct {
	db dbConn
}

// New constructs a Gateway using database/sql and the "sqlserver" driver
// registered by github.com/microsoft/go-mssqldb.
//
// This method validates connectivity via PingContext.
func New(ctx context.Context, cfg storage.Config) (storage.Gateway, error) {
	raw, err := sql.Open("sqlserver", cfg.DSN)
	if err != nil {
		return nil, err
	}

	// Writes are strictly sequential; one spare connection covers introspection.
	raw.SetMaxOpenConns(2)

	if err := raw.PingContext(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &Gateway{db: raw}, nil
}

// Close releases database resources held by this gateway.
func (g *Gateway) Close() {
	if g == nil || g.db == nil {
		return
	}
	_ = g.db.Close()
}

func (g *Gateway) Dialect() catalog.Dialect { return catalog.SQLServer }

// Exec runs one DDL batch.
func (g *Gateway) Exec(ctx context.Context, sql string) error {
	_, err := g.db.ExecContext(ctx, sql)
	return err
}

// Columns lists the table's columns in the caller's default schema.
func (g *Gateway) Columns(ctx context.Context, table string) (map[string]struct{}, error) {
	rows, err := g.db.QueryContext(ctx, columnsSQL, table)
	if err != nil {
		return nil, fmt.Errorf("mssql: columns of %s: %w", table, err)
	}
	defer rows.Close()

	out := map[string]struct{}{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("mssql: columns of %s: %w", table, err)
		}
		out[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mssql: columns of %s: %w", table, err)
	}
	return out, nil
}

// Write executes one INSERT or MERGE statement.
func (g *Gateway) Write(ctx context.Context, st catalog.Statement) (int64, error) {
	res, err := g.db.ExecContext(ctx, st.SQL, st.Args(nil)...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ---- database/sql seam ----

// dbConn is the subset of *sql.DB used by the gateway, so the write path can
// be tested without a server.
type dbConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

var _ storage.Gateway = (*Gateway)(nil)
