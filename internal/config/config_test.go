package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_JSON(t *testing.T) {
	t.Setenv("CATALOG_DSN", "postgres://u:p@db/catalog")

	path := writeFile(t, "pipeline.json", `{
  "job": "nightly",
  "source": {"url": "https://example.com/feed.xml", "timeout": "45s", "charset": "windows-1251"},
  "storage": {"kind": "postgres", "dsn": "${CATALOG_DSN}"},
  "sync": {"tables": ["offers"], "dry_run": true},
  "metrics": {"backend": "datadog", "tags": ["feed:main"], "flush_every": 30},
  "logging": {"level": "debug", "format": "json"}
}`)

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "nightly", p.Job)
	require.Equal(t, 45*time.Second, p.Source.Timeout.D())
	require.Equal(t, "postgres://u:p@db/catalog", p.Storage.DSN)
	require.Equal(t, []string{"offers"}, p.Sync.Tables)
	require.True(t, p.Sync.DryRun)
	require.Equal(t, 30*time.Second, p.Metrics.FlushEvery.D())
	require.Equal(t, DefaultRootPath, p.Source.Root())
	require.Empty(t, ValidatePipeline(p))
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "pipeline.yaml", `
job: local
source:
  file: ./feed.xml
  timeout: 10
  root_path: ""
storage:
  kind: sqlite
  dsn: ./catalog.db
logging:
  seq_url: http://localhost:5341
`)

	p, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./feed.xml", p.Source.File)
	require.Equal(t, 10*time.Second, p.Source.Timeout.D())
	require.NotNil(t, p.Source.RootPath)
	require.Equal(t, "", p.Source.Root(), "explicit empty root_path selects the document element")
	require.Equal(t, "sqlite", p.Storage.Kind)
	require.Empty(t, ValidatePipeline(p))
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
		body string
	}{
		{name: "unknown json field", file: "p.json", body: `{"storage": {"kind": "sqlite", "driver": "x"}}`},
		{name: "unknown yaml field", file: "p.yml", body: "storage:\n  kind: sqlite\n  driver: x\n"},
		{name: "bad duration", file: "p.json", body: `{"source": {"timeout": "soon"}}`},
		{name: "not json", file: "p.json", body: `job = "x"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(writeFile(t, tt.file, tt.body))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.ErrorContains(t, err, "read config")
}

func TestLoad_SamplePipeline(t *testing.T) {
	t.Setenv("CATALOG_DSN", "postgres://catalog@localhost/catalog")

	p, err := Load(filepath.Join("..", "..", "configs", "pipelines", "sample.yaml"))
	require.NoError(t, err)
	require.Equal(t, "postgres", p.Storage.Kind)
	require.Equal(t, 90*time.Second, p.Source.Timeout.D())
	require.Equal(t, DefaultRootPath, p.Source.Root())
	require.False(t, HasErrors(ValidatePipeline(p)), "issues=%v", ValidatePipeline(p))
}
