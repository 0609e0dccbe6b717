package config

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/encoding/htmlindex"

	"catalogsync/internal/catalog"
)

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding. Path uses the file's key names
// ("storage.kind", "sync.tables[2]").
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline checks p without touching the network or the database.
//
// Errors block a run; warnings describe defaults that will be applied.
func ValidatePipeline(p Pipeline) []Issue {
	var out []Issue
	errf := func(path, format string, args ...any) {
		out = append(out, Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)})
	}
	warnf := func(path, format string, args ...any) {
		out = append(out, Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(p.Job) == "" {
		warnf("job", "empty; defaulting to %q", "catalogsync")
	}

	// source
	src := p.Source
	switch {
	case src.URL == "" && src.File == "":
		errf("source", "one of source.url or source.file is required")
	case src.URL != "" && src.File != "":
		warnf("source.file", "ignored because source.url is set")
	}
	if src.URL != "" {
		u, err := url.Parse(src.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errf("source.url", "must be an absolute http(s) URL, got %q", src.URL)
		}
	}
	if src.Timeout < 0 {
		errf("source.timeout", "must not be negative")
	}
	if src.Charset != "" {
		if _, err := htmlindex.Get(src.Charset); err != nil {
			errf("source.charset", "unknown charset %q", src.Charset)
		}
	}

	// storage
	if p.Storage.Kind == "" {
		errf("storage.kind", "required (postgres, sqlite or mssql)")
	} else if _, err := catalog.DialectFor(p.Storage.Kind); err != nil {
		errf("storage.kind", "unsupported %q (postgres, sqlite or mssql)", p.Storage.Kind)
	}
	if strings.TrimSpace(p.Storage.DSN) == "" {
		errf("storage.dsn", "required")
	}

	// sync
	seen := map[string]int{}
	for i, t := range p.Sync.Tables {
		path := fmt.Sprintf("sync.tables[%d]", i)
		name := strings.ToLower(strings.TrimSpace(t))
		if name == "" {
			errf(path, "empty table name")
			continue
		}
		if j, dup := seen[name]; dup {
			warnf(path, "duplicate of sync.tables[%d]", j)
			continue
		}
		seen[name] = i
	}

	// metrics
	switch p.Metrics.Backend {
	case "", "none", "datadog":
	default:
		errf("metrics.backend", "unsupported %q (none or datadog)", p.Metrics.Backend)
	}
	if p.Metrics.FlushEvery < 0 {
		errf("metrics.flush_every", "must not be negative")
	}
	for i, tag := range p.Metrics.Tags {
		if strings.TrimSpace(tag) == "" || strings.Contains(tag, ",") {
			errf(fmt.Sprintf("metrics.tags[%d]", i), "invalid tag %q", tag)
		}
	}

	// logging
	switch strings.ToLower(p.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errf("logging.level", "unsupported %q (debug, info, warn or error)", p.Logging.Level)
	}
	switch strings.ToLower(p.Logging.Format) {
	case "", "text", "json":
	default:
		errf("logging.format", "unsupported %q (text or json)", p.Logging.Format)
	}
	if p.Logging.SeqURL != "" {
		if u, err := url.Parse(p.Logging.SeqURL); err != nil || u.Scheme == "" || u.Host == "" {
			errf("logging.seq_url", "must be an absolute URL, got %q", p.Logging.SeqURL)
		}
	}

	return out
}
