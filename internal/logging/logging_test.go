package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	require.Error(t, err)
}

func TestSetup_TextRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, closeFn, err := Setup(&buf, Options{Level: "warn"})
	require.NoError(t, err)
	defer closeFn()

	l.Info("hidden")
	l.Warn("shown", "table", "offers")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "msg=shown")
	require.Contains(t, out, "table=offers")
}

func TestSetup_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, closeFn, err := Setup(&buf, Options{Format: "json"})
	require.NoError(t, err)
	defer closeFn()

	l.Info("synced", "rows", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "synced", rec["msg"])
	require.EqualValues(t, 3, rec["rows"])
}

func TestSetup_Errors(t *testing.T) {
	t.Parallel()

	_, _, err := Setup(&bytes.Buffer{}, Options{Format: "xml"})
	require.ErrorContains(t, err, "unknown format")

	_, _, err = Setup(&bytes.Buffer{}, Options{Level: "chatty"})
	require.ErrorContains(t, err, "unknown level")
}

func TestPrintf_BridgesToHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l, _, err := Setup(&buf, Options{})
	require.NoError(t, err)

	Printf(l).Printf("stage=create table=%s ok", "offers")
	require.Contains(t, buf.String(), "stage=create table=offers ok")

	// A nil logger yields a usable discard logger.
	Printf(nil).Printf("dropped")
}

type recordingHandler struct {
	level slog.Level
	msgs  *[]string
}

func (h recordingHandler) Enabled(_ context.Context, l slog.Level) bool { return l >= h.level }
func (h recordingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.msgs = append(*h.msgs, r.Message)
	return nil
}
func (h recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h recordingHandler) WithGroup(string) slog.Handler      { return h }

func TestMultiHandler_FansOutByLevel(t *testing.T) {
	t.Parallel()

	var debug, errs []string
	m := &multiHandler{handlers: []slog.Handler{
		recordingHandler{level: slog.LevelDebug, msgs: &debug},
		recordingHandler{level: slog.LevelError, msgs: &errs},
	}}
	l := slog.New(m)

	l.Debug("d")
	l.Error("e")

	require.Equal(t, []string{"d", "e"}, debug)
	require.Equal(t, []string{"e"}, errs)
	require.False(t, m.Enabled(context.Background(), slog.LevelDebug-4))
	require.NotNil(t, l.With("k", "v").WithGroup("g"))
}

func TestNewRunID(t *testing.T) {
	t.Parallel()

	a, b := NewRunID(), NewRunID()
	require.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}
