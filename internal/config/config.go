// Package config loads and validates catalogsync pipeline files.
//
// A pipeline file is JSON or YAML (chosen by extension) describing where the
// feed comes from, which database to sync into, and how to log and report
// metrics. Validation returns a list of issues rather than failing on the
// first one, so a user sees every problem at once.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultRootPath is used when source.root_path is absent.
const DefaultRootPath = "shop"

// Pipeline is the root of a pipeline file.
type Pipeline struct {
	Job     string  `json:"job" yaml:"job"`
	Source  Source  `json:"source" yaml:"source"`
	Storage Storage `json:"storage" yaml:"storage"`
	Sync    Sync    `json:"sync" yaml:"sync"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
	Logging Logging `json:"logging" yaml:"logging"`
}

// Source describes the feed. URL wins over File.
type Source struct {
	URL     string   `json:"url" yaml:"url"`
	File    string   `json:"file" yaml:"file"`
	Timeout Duration `json:"timeout" yaml:"timeout"`

	// Charset overrides the encoding declared by the feed.
	Charset string `json:"charset" yaml:"charset"`

	// RootPath locates the container element. Absent means "shop"; an
	// explicit empty string means the document element.
	RootPath *string `json:"root_path" yaml:"root_path"`
}

// Root returns the effective container path.
func (s Source) Root() string {
	if s.RootPath == nil {
		return DefaultRootPath
	}
	return *s.RootPath
}

// Storage selects a backend registered with internal/storage.
type Storage struct {
	Kind string `json:"kind" yaml:"kind"` // postgres | sqlite | mssql
	DSN  string `json:"dsn" yaml:"dsn"`
}

// Sync controls which tables are written and whether anything is executed.
type Sync struct {
	Tables []string `json:"tables" yaml:"tables"`
	DryRun bool     `json:"dry_run" yaml:"dry_run"`
}

// Metrics selects a metrics backend. Empty or "none" disables metrics.
type Metrics struct {
	Backend    string   `json:"backend" yaml:"backend"`
	Tags       []string `json:"tags" yaml:"tags"`
	FlushEvery Duration `json:"flush_every" yaml:"flush_every"`
}

// Logging configures internal/logging.
type Logging struct {
	Level  string `json:"level" yaml:"level"`   // debug | info | warn | error
	Format string `json:"format" yaml:"format"` // text | json
	SeqURL string `json:"seq_url" yaml:"seq_url"`
}

// Duration is a time.Duration written as a Go duration string ("30s") or
// as a number of seconds.
type Duration time.Duration

// D returns the value as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		return d.parse(s)
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(secs * float64(time.Second))
	return nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!int" || n.Tag == "!!float" {
		var secs float64
		if err := n.Decode(&secs); err != nil {
			return err
		}
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

func (d *Duration) parse(s string) error {
	if strings.TrimSpace(s) == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	*d = Duration(v)
	return nil
}

// Load reads a pipeline file. ".yaml" and ".yml" are decoded as YAML,
// everything else as JSON. Unknown fields are rejected in both formats.
//
// After decoding, ${VAR} references in source.url, source.file, storage.dsn
// and logging.seq_url are expanded from the environment so secrets can stay
// out of the file.
func Load(path string) (Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("read config: %w", err)
	}

	var p Pipeline
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&p); err != nil {
			return Pipeline{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	p.expandEnv()
	return p, nil
}

func (p *Pipeline) expandEnv() {
	p.Source.URL = os.ExpandEnv(p.Source.URL)
	p.Source.File = os.ExpandEnv(p.Source.File)
	p.Storage.DSN = os.ExpandEnv(p.Storage.DSN)
	p.Logging.SeqURL = os.ExpandEnv(p.Logging.SeqURL)
}
