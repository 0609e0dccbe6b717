package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"catalogsync/internal/config"
	"catalogsync/internal/logging"
	"catalogsync/internal/storage"
	"catalogsync/internal/syncer"
	"catalogsync/internal/xmlsource"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "pipeline config path (.json, .yaml or .yml)",
		EnvVars: []string{"CATALOGSYNC_CONFIG"},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Create, extend and fill tables from the feed",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "print the statements instead of executing them (the database is still read)",
			},
			&cli.StringSliceFlag{
				Name:  "table",
				Usage: "only sync this table (repeatable; overrides sync.tables)",
			},
		},
		OnUsageError: onUsageError,
		Action:       runSync,
	}
}

func runSync(c *cli.Context) error {
	stdout, stderr := c.App.Writer, c.App.ErrWriter

	p, err := loadPipeline(c, stderr)
	if err != nil {
		return err
	}
	if c.Bool("dry-run") {
		p.Sync.DryRun = true
	}
	if c.IsSet("table") {
		p.Sync.Tables = c.StringSlice("table")
	}
	if p.Job == "" {
		p.Job = "catalogsync"
	}

	logger, closeLog, err := logging.Setup(stderr, logging.Options{
		Level:  p.Logging.Level,
		Format: p.Logging.Format,
		SeqURL: p.Logging.SeqURL,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	runID := logging.NewRunID()
	logger = logger.With("job", p.Job, "run_id", runID)

	ctx := c.Context
	cleanup, err := initMetrics(ctx, p.Metrics, p.Job, runID)
	if err != nil {
		return err
	}
	defer cleanup()

	loader := xmlsource.NewLoader(nil, p.Source.Timeout.D())
	doc, err := xmlsource.Read(ctx, loader, xmlsource.Input{URL: p.Source.URL, Path: p.Source.File, Stdin: c.App.Reader},
		xmlsource.Options{Charset: p.Source.Charset, RootPath: p.Source.Root()})
	if err != nil {
		return err
	}

	gw, err := storage.New(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DSN})
	if err != nil {
		return err
	}
	defer gw.Close()

	s := syncer.New(doc, gw,
		syncer.WithLogger(logging.Printf(logger)),
		syncer.WithTables(p.Sync.Tables...),
		syncer.WithDryRun(p.Sync.DryRun),
		syncer.WithRunID(runID),
	)
	rep, err := s.Run(ctx)
	printReport(stdout, rep)
	return err
}

// loadPipeline loads --config and prints its validation issues to w.
func loadPipeline(c *cli.Context, w io.Writer) (config.Pipeline, error) {
	path := strings.TrimSpace(c.String("config"))
	if path == "" {
		return config.Pipeline{}, usageErrorf("usage: catalogsync %s --config path/to/pipeline.yaml", c.Command.Name)
	}

	p, err := config.Load(path)
	if err != nil {
		return config.Pipeline{}, err
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return config.Pipeline{}, fmt.Errorf("configuration is invalid: %s", path)
	}
	return p, nil
}

func printReport(w io.Writer, rep syncer.Report) {
	if len(rep.Tables) == 0 {
		fmt.Fprintln(w, "no tables synced")
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Table", "Columns", "Added", "Identity", "Rows", "Skipped"})
	table.SetBorder(false)
	table.SetColumnSeparator(" ")
	for _, t := range rep.Tables {
		skipped := strconv.Itoa(t.RowsSkipped)
		if t.Skipped {
			skipped = "table"
		}
		table.Append([]string{
			t.Table,
			strconv.Itoa(len(t.Columns)),
			strings.Join(t.ColumnsAdded, ","),
			strconv.FormatBool(t.Identity),
			strconv.Itoa(t.RowsWritten),
			skipped,
		})
	}
	table.Render()

	if rep.DryRun {
		for _, t := range rep.Tables {
			for _, st := range t.Statements {
				fmt.Fprintf(w, "%s;\n", strings.TrimSuffix(st, ";"))
			}
		}
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:         "validate",
		Usage:        "Check a pipeline config without touching the feed or the database",
		Flags:        []cli.Flag{configFlag()},
		OnUsageError: onUsageError,
		Action: func(c *cli.Context) error {
			path := c.String("config")
			if _, err := loadPipeline(c, c.App.ErrWriter); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "configuration is valid: %s\n", path)
			return nil
		},
	}
}
