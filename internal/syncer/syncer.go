// Package syncer drives one catalog synchronization: for every table of the
// source it ensures the table, adds missing columns and writes the rows.
//
// Everything is sequential. One table is fully processed before the next
// begins and each row is written before the next statement is built. There
// is no transaction: a failure aborts the run and leaves earlier work in
// place. Re-running is idempotent for DDL and for upserts, not for plain
// inserts.
//
// Live columns are read twice per table (before the delta and before the
// writes) without a lock. This assumes the process is the only one changing
// table structure.
package syncer

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"catalogsync/internal/catalog"
	"catalogsync/internal/metrics"
	"catalogsync/internal/storage"
)

// Logger is the minimal logging interface used by the synchronizer.
// *log.Logger satisfies this interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Source is the document side of a sync. *xmlsource.Document implements it.
type Source interface {
	// TableNames returns distinct lowercase table names in document order.
	TableNames() []string
	// RowNodes returns the row nodes of a table in document order.
	RowNodes(table string) []catalog.Node
}

// Synchronizer writes a Source into a storage.Gateway.
type Synchronizer struct {
	src    Source
	gw     storage.Gateway
	logger Logger
	tables []string
	dryRun bool
	runID  string
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(l Logger) Option { return func(s *Synchronizer) { s.logger = l } }

// WithTables limits the run to the named tables (case-insensitive).
// An empty list means every table.
func WithTables(names ...string) Option {
	return func(s *Synchronizer) { s.tables = names }
}

// WithDryRun renders every statement and logs it instead of executing it.
// Live columns are still read, so the gateway must be reachable. Columns whose
// ALTERs were only rendered count as live when the writes are rendered.
func WithDryRun(v bool) Option { return func(s *Synchronizer) { s.dryRun = v } }

// WithRunID tags logs and the report with a run identifier.
func WithRunID(id string) Option { return func(s *Synchronizer) { s.runID = id } }

// New constructs a Synchronizer. src and gw are required.
func New(src Source, gw storage.Gateway, opts ...Option) *Synchronizer {
	s := &Synchronizer{src: src, gw: gw}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TableReport is the outcome of one table.
type TableReport struct {
	Table        string
	Columns      []string // inferred schema, in order
	ColumnsAdded []string // added by ALTER in this run
	Identity     bool     // rows were upserted on vendorcode
	RowsWritten  int
	RowsSkipped  int // rows with no columns
	Skipped      bool
	Statements   []string // populated in dry-run mode only
	Duration     time.Duration
}

// Report summarizes a run.
type Report struct {
	RunID    string
	DryRun   bool
	Tables   []TableReport
	Duration time.Duration
}

// RowsWritten sums rows written across tables.
func (r Report) RowsWritten() int {
	n := 0
	for _, t := range r.Tables {
		n += t.RowsWritten
	}
	return n
}

// Run synchronizes every selected table in source order.
//
// Errors:
//   - Returns the first *StatementError; the report covers the tables
//     finished before it plus the partial report of the failing table.
//   - Returns ctx.Err() if ctx is cancelled between statements.
func (s *Synchronizer) Run(ctx context.Context) (Report, error) {
	if s.src == nil || s.gw == nil {
		return Report{}, fmt.Errorf("syncer: source and gateway are required")
	}

	logf := s.logf()
	start := time.Now()
	rep := Report{RunID: s.runID, DryRun: s.dryRun}

	names := Select(s.src.TableNames(), s.tables)
	logf("stage=run start run_id=%s dialect=%s tables=%d dry_run=%t", s.runID, s.gw.Dialect().Name(), len(names), s.dryRun)

	for _, name := range names {
		tr, err := s.SyncTable(ctx, name)
		rep.Tables = append(rep.Tables, tr)
		if err != nil {
			rep.Duration = time.Since(start)
			logf("stage=run error run_id=%s table=%s err=%v", s.runID, name, err)
			return rep, err
		}
	}

	rep.Duration = time.Since(start)
	logf("stage=run ok run_id=%s tables=%d rows=%d duration=%s", s.runID, len(rep.Tables), rep.RowsWritten(), durMS(start))
	return rep, nil
}

// SyncTable runs ensure-table, ensure-columns and write-rows for one table.
func (s *Synchronizer) SyncTable(ctx context.Context, name string) (rep TableReport, err error) {
	start := time.Now()
	tbl := catalog.BuildTable(name, s.src.RowNodes(name))
	schema := tbl.Schema()
	rep = TableReport{Table: tbl.Name, Columns: schema.Names()}
	defer func() { rep.Duration = time.Since(start) }()

	logf := s.logf()
	if len(schema.Columns) == 0 {
		rep.Skipped = true
		logf("stage=table skip table=%s reason=no_columns rows=%d", tbl.Name, len(tbl.Rows))
		return rep, nil
	}

	d := s.gw.Dialect()

	// 1. Ensure table.
	if err := s.step(&rep, "ensure_table", func() error {
		return s.exec(ctx, &rep, "create", d.CreateTable(schema))
	}); err != nil {
		return rep, err
	}

	// 2. Ensure columns.
	if err := s.step(&rep, "ensure_columns", func() error {
		live, err := s.liveColumns(ctx, schema)
		if err != nil {
			return err
		}
		for _, stmt := range catalog.DeltaStatements(d, schema, live) {
			if err := s.exec(ctx, &rep, "alter", stmt); err != nil {
				return err
			}
		}
		for _, c := range catalog.MissingColumns(schema, live) {
			rep.ColumnsAdded = append(rep.ColumnsAdded, c.Name)
		}
		if !s.dryRun {
			metrics.RecordColumnsAdded(tbl.Name, len(rep.ColumnsAdded))
		}
		return nil
	}); err != nil {
		return rep, err
	}

	// 3. Write rows.
	err = s.step(&rep, "write_rows", func() error {
		live, err := s.liveColumns(ctx, schema)
		if err != nil {
			return err
		}
		if s.dryRun {
			// The ALTERs were only recorded.
			for _, c := range rep.ColumnsAdded {
				live[c] = struct{}{}
			}
		}
		_, rep.Identity = live[catalog.IdentityColumn]
		return s.writeRows(ctx, &rep, d, tbl)
	})
	return rep, err
}

func (s *Synchronizer) writeRows(ctx context.Context, rep *TableReport, d catalog.Dialect, tbl catalog.Table) error {
	kind := "inserted"
	if rep.Identity {
		kind = "upserted"
	}

	for _, row := range tbl.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if row.Len() == 0 {
			rep.RowsSkipped++
			continue
		}

		st := d.WriteRow(tbl.Name, row, rep.Identity)
		if s.dryRun {
			rep.Statements = append(rep.Statements, st.SQL)
			rep.RowsWritten++
			continue
		}
		if _, err := s.gw.Write(ctx, st); err != nil {
			metrics.RecordRows("failed", 1)
			return &StatementError{Table: tbl.Name, Stage: "write", SQL: st.SQL, Err: err}
		}
		rep.RowsWritten++
	}

	if !s.dryRun {
		metrics.RecordRows(kind, rep.RowsWritten)
	}
	s.logf()("stage=write table=%s identity=%t rows=%d skipped=%d", tbl.Name, rep.Identity, rep.RowsWritten, rep.RowsSkipped)
	return nil
}

// liveColumns reads the live column set. In dry-run mode a table that does
// not exist yet is treated as already created from schema, since the
// CREATE statement was not executed.
func (s *Synchronizer) liveColumns(ctx context.Context, schema catalog.Schema) (map[string]struct{}, error) {
	live, err := s.gw.Columns(ctx, schema.Table)
	if err != nil {
		return nil, &StatementError{Table: schema.Table, Stage: "columns", Err: err}
	}
	if s.dryRun && len(live) == 0 {
		live = make(map[string]struct{}, len(schema.Columns))
		for _, c := range schema.Columns {
			live[c.Name] = struct{}{}
		}
	}
	return live, nil
}

func (s *Synchronizer) exec(ctx context.Context, rep *TableReport, stage, sql string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.dryRun {
		rep.Statements = append(rep.Statements, sql)
		s.logf()("stage=%s table=%s dry_run sql=%q", stage, rep.Table, sql)
		return nil
	}
	if err := s.gw.Exec(ctx, sql); err != nil {
		return &StatementError{Table: rep.Table, Stage: stage, SQL: sql, Err: err}
	}
	return nil
}

// step times fn, logs its outcome and records step metrics.
func (s *Synchronizer) step(rep *TableReport, name string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.RecordStep(name, status, time.Since(start))

	if err != nil {
		s.logf()("stage=%s table=%s error duration=%s err=%v", name, rep.Table, durMS(start), err)
		return err
	}
	s.logf()("stage=%s table=%s ok duration=%s", name, rep.Table, durMS(start))
	return nil
}

func (s *Synchronizer) logf() func(format string, v ...any) {
	if s.logger == nil {
		return log.New(io.Discard, "", 0).Printf
	}
	return s.logger.Printf
}

func durMS(start time.Time) time.Duration { return time.Since(start).Truncate(time.Millisecond) }

// Select filters names by include (case-insensitive), keeping names order.
// An empty include keeps everything.
func Select(names, include []string) []string {
	if len(include) == 0 {
		return names
	}
	want := make(map[string]struct{}, len(include))
	for _, n := range include {
		want[strings.ToLower(strings.TrimSpace(n))] = struct{}{}
	}
	var out []string
	for _, n := range names {
		if _, ok := want[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// Plan builds the tables of src without touching a database. It is what
// Run would infer, used by the "plan" command.
func Plan(src Source, include []string) []catalog.Table {
	var out []catalog.Table
	for _, name := range Select(src.TableNames(), include) {
		out = append(out, catalog.BuildTable(name, src.RowNodes(name)))
	}
	return out
}
