// Package metrics is a small, backend-agnostic metrics facade.
//
// Core packages record through the package-level helpers; the process picks a
// backend once at startup with SetBackend. Until then every call is a no-op.
//
// Metric names use Prometheus-style snake case. Backends map them onto their
// own naming scheme (see internal/metrics/datadog).
package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Metric names recorded by this repository.
const (
	StepTotal           = "catalog_step_total"
	StepDurationSeconds = "catalog_step_duration_seconds"
	RowsTotal           = "catalog_rows_total"
	ColumnsAddedTotal   = "catalog_columns_added_total"

	HTTPRequestsTotal           = "catalog_http_requests_total"
	HTTPErrorsTotal             = "catalog_http_errors_total"
	HTTPRequestDurationSeconds  = "catalog_http_request_duration_seconds"
	HTTPResponseDurationSeconds = "catalog_http_response_duration_seconds"
	HTTPDownloadBytes           = "catalog_http_download_bytes"
)

// Labels are metric dimensions. Backends may ignore labels they do not know.
type Labels map[string]string

// Backend receives metric events. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
	Close() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }
func (nopBackend) Close() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs b as the process-wide backend. A nil b restores the
// no-op backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		b = nopBackend{}
	}
	backend = b
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// IncCounter forwards to the installed backend.
func IncCounter(name string, delta float64, labels Labels) {
	current().IncCounter(name, delta, labels)
}

// ObserveHistogram forwards to the installed backend.
func ObserveHistogram(name string, value float64, labels Labels) {
	current().ObserveHistogram(name, value, labels)
}

// Flush asks the installed backend to submit buffered data.
func Flush() error {
	return current().Flush()
}

// RecordStep counts one synchronizer stage and observes its duration.
// status is "ok" or "error".
func RecordStep(step, status string, d time.Duration) {
	l := Labels{"step": step, "status": status}
	b := current()
	b.IncCounter(StepTotal, 1, l)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), l)
}

// RecordRows counts written rows by kind ("upserted", "inserted", "failed").
func RecordRows(kind string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(n), Labels{"kind": kind})
}

// RecordColumnsAdded counts columns added to an existing table.
func RecordColumnsAdded(table string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(ColumnsAddedTotal, float64(n), Labels{"table": table})
}

// RecordHTTP records one feed download attempt.
//
// status is the HTTP status code, or 0 when no response was received.
// err marks the attempt as failed regardless of status.
func RecordHTTP(status int, err error, request, response time.Duration, bytes int64) {
	s := "none"
	if status > 0 {
		s = strconv.Itoa(status)
	}
	l := Labels{"status": s}

	b := current()
	b.IncCounter(HTTPRequestsTotal, 1, l)
	if err != nil || status >= 400 {
		b.IncCounter(HTTPErrorsTotal, 1, l)
	}
	b.ObserveHistogram(HTTPRequestDurationSeconds, request.Seconds(), l)
	if response > 0 {
		b.ObserveHistogram(HTTPResponseDurationSeconds, response.Seconds(), l)
	}
	if bytes > 0 {
		b.ObserveHistogram(HTTPDownloadBytes, float64(bytes), l)
	}
}
