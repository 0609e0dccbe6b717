package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"catalogsync/internal/catalog"
	"catalogsync/internal/config"
	"catalogsync/internal/syncer"
	"catalogsync/internal/xmlsource"
)

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "url", Usage: "fetch the feed over HTTP"},
		&cli.StringFlag{Name: "file", Usage: "read the feed from a file (stdin when neither --url nor --file is set)"},
		&cli.DurationFlag{Name: "timeout", Usage: "download timeout", Value: xmlsource.DefaultTimeout},
	}
}

// feedInput builds the loader input from --url/--file, falling back to stdin.
func feedInput(c *cli.Context) xmlsource.Input {
	return xmlsource.Input{
		URL:   strings.TrimSpace(c.String("url")),
		Path:  strings.TrimSpace(c.String("file")),
		Stdin: c.App.Reader,
	}
}

func planCommand() *cli.Command {
	flags := append([]cli.Flag{configFlag()}, sourceFlags()...)
	flags = append(flags,
		&cli.StringFlag{Name: "charset", Usage: "override the feed's declared encoding"},
		&cli.StringFlag{Name: "root", Usage: "container element path", Value: config.DefaultRootPath},
		&cli.StringSliceFlag{Name: "table", Usage: "only plan this table (repeatable)"},
		&cli.StringFlag{Name: "dialect", Usage: "DDL flavor: postgres, sqlite or mssql (default storage.kind, else postgres)"},
		&cli.StringFlag{Name: "format", Usage: "auto, table or json (auto: table on a terminal, json otherwise)", Value: "auto"},
	)

	return &cli.Command{
		Name:         "plan",
		Usage:        "Print the inferred tables and their CREATE statements without touching a database",
		Flags:        flags,
		OnUsageError: onUsageError,
		Action:       runPlan,
	}
}

type planColumn struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Unique bool   `json:"unique,omitempty"`
}

type planTable struct {
	Table     string       `json:"table"`
	Rows      int          `json:"rows"`
	HasParams bool         `json:"has_params"`
	Columns   []planColumn `json:"columns"`
	DDL       string       `json:"ddl,omitempty"`
}

func runPlan(c *cli.Context) error {
	in := feedInput(c)
	opts := xmlsource.Options{Charset: c.String("charset"), RootPath: c.String("root")}
	timeout := c.Duration("timeout")
	dialectKind := c.String("dialect")
	include := c.StringSlice("table")

	if c.String("config") != "" {
		if in.URL != "" || in.Path != "" {
			return usageErrorf("usage: use either --config or --url/--file, not both")
		}
		p, err := loadPipeline(c, c.App.ErrWriter)
		if err != nil {
			return err
		}
		in.URL, in.Path = p.Source.URL, p.Source.File
		if !c.IsSet("charset") {
			opts.Charset = p.Source.Charset
		}
		if !c.IsSet("root") {
			opts.RootPath = p.Source.Root()
		}
		if !c.IsSet("timeout") && p.Source.Timeout > 0 {
			timeout = p.Source.Timeout.D()
		}
		if dialectKind == "" {
			dialectKind = p.Storage.Kind
		}
		if !c.IsSet("table") {
			include = p.Sync.Tables
		}
	}
	if dialectKind == "" {
		dialectKind = catalog.Postgres.Name()
	}
	d, err := catalog.DialectFor(dialectKind)
	if err != nil {
		return usageErrorf("usage: %v", err)
	}

	format := c.String("format")
	switch format {
	case "auto":
		format = "json"
		if isTerminal(c.App.Writer) {
			format = "table"
		}
	case "table", "json":
	default:
		return usageErrorf("usage: unknown --format %q (auto, table or json)", format)
	}

	doc, err := xmlsource.Read(c.Context, xmlsource.NewLoader(nil, timeout), in, opts)
	if err != nil {
		return err
	}

	plan := buildPlan(d, syncer.Plan(doc, include))
	if format == "json" {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}
	printPlan(c.App.Writer, plan)
	return nil
}

func buildPlan(d catalog.Dialect, tables []catalog.Table) []planTable {
	out := make([]planTable, 0, len(tables))
	for _, t := range tables {
		s := t.Schema()
		pt := planTable{
			Table:     t.Name,
			Rows:      len(t.Rows),
			HasParams: t.HasParams,
			Columns:   make([]planColumn, 0, len(s.Columns)),
		}
		for _, col := range s.Columns {
			pt.Columns = append(pt.Columns, planColumn{Name: col.Name, Kind: col.Kind.String(), Unique: col.Unique})
		}
		if len(s.Columns) > 0 {
			pt.DDL = d.CreateTable(s)
		}
		out = append(out, pt)
	}
	return out
}

func printPlan(w io.Writer, plan []planTable) {
	if len(plan) == 0 {
		fmt.Fprintln(w, "no tables found")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Table", "Rows", "Column", "Kind", "Unique"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	for _, t := range plan {
		if len(t.Columns) == 0 {
			table.Append([]string{t.Table, strconv.Itoa(t.Rows), "-", "-", "-"})
			continue
		}
		for i, col := range t.Columns {
			name, rows := "", ""
			if i == 0 {
				name, rows = t.Table, strconv.Itoa(t.Rows)
			}
			unique := ""
			if col.Unique {
				unique = "yes"
			}
			table.Append([]string{name, rows, col.Name, col.Kind, unique})
		}
	}
	table.Render()

	fmt.Fprintln(w)
	for _, t := range plan {
		if t.DDL != "" {
			fmt.Fprintf(w, "%s;\n", strings.TrimSuffix(t.DDL, ";"))
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
