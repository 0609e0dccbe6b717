package xmlsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"catalogsync/internal/metrics"
)

// DefaultTimeout bounds one feed download when the caller sets none.
const DefaultTimeout = 60 * time.Second

// Input describes where the feed comes from. URL wins over Path; with both
// empty, Stdin is read.
type Input struct {
	// URL, if provided, is fetched via HTTP GET.
	URL string

	// Path, if provided, is read from the local filesystem.
	Path string

	// Stdin is used when URL and Path are empty. If nil, stdin reads as empty.
	Stdin io.Reader
}

// Target names the input for errors and logs.
func (in Input) Target() string {
	switch {
	case strings.TrimSpace(in.URL) != "":
		return in.URL
	case strings.TrimSpace(in.Path) != "":
		return in.Path
	default:
		return "stdin"
	}
}

// Loader fetches or reads a feed with a consistent timeout policy.
type Loader struct {
	client  *http.Client
	timeout time.Duration
}

// NewLoader creates a Loader. If client is nil, http.DefaultClient is used.
// A timeout <= 0 means DefaultTimeout.
func NewLoader(client *http.Client, timeout time.Duration) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Loader{client: client, timeout: timeout}
}

// Load returns the raw feed bytes.
//
// On non-2xx HTTP responses, Load returns a *SourceError that includes the
// status code and up to 4KB of the response body. Every HTTP attempt is
// recorded through metrics.RecordHTTP.
func (l *Loader) Load(ctx context.Context, in Input) ([]byte, error) {
	switch {
	case strings.TrimSpace(in.URL) != "":
		return l.fetch(ctx, in.URL)

	case strings.TrimSpace(in.Path) != "":
		b, err := os.ReadFile(in.Path)
		if err != nil {
			return nil, &SourceError{Op: "read", Target: in.Path, Err: err}
		}
		return b, nil

	default:
		if in.Stdin == nil {
			return nil, nil
		}
		b, err := io.ReadAll(in.Stdin)
		if err != nil {
			return nil, &SourceError{Op: "read", Target: "stdin", Err: err}
		}
		return b, nil
	}
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	fail := func(err error) ([]byte, error) {
		return nil, &SourceError{Op: "fetch", Target: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fail(fmt.Errorf("new request: %w", err))
	}
	req.Header.Set("User-Agent", "catalogsync/1.0")
	req.Header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		metrics.RecordHTTP(0, err, time.Since(start), 0, 0)
		return fail(fmt.Errorf("http get: %w", err))
	}
	defer resp.Body.Close()
	requestDur := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		metrics.RecordHTTP(resp.StatusCode, nil, requestDur, time.Since(start)-requestDur, int64(len(body)))
		return fail(fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	b, err := io.ReadAll(resp.Body)
	metrics.RecordHTTP(resp.StatusCode, err, requestDur, time.Since(start)-requestDur, int64(len(b)))
	if err != nil {
		return fail(fmt.Errorf("read body: %w", err))
	}
	return b, nil
}
