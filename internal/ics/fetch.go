package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "choliday/internal/log"
)

// FetchResult is the outcome for one configured source. Body is empty when
// the source failed; Err then says why.
type FetchResult struct {
	Source   string
	Body     []byte
	Err      error
	Duration time.Duration
}

// Fetcher retrieves calendar payloads from HTTP(S) URLs and local files.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher. A nil client means a plain http.Client with
// no timeout; callers bound the whole batch through ctx instead.
func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{client: client}
}

// FetchAll fetches every source concurrently and waits for all of them.
//
// Results are returned in source order. A failing source never cancels its
// siblings and never fails the batch: it yields an empty Body and a logged
// error.
func (f *Fetcher) FetchAll(ctx context.Context, sources []string) []FetchResult {
	results := make([]FetchResult, len(sources))

	// Plain Group rather than WithContext: a sibling failure must not
	// cancel the others.
	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			body, err := f.FetchOne(ctx, src)
			results[i] = FetchResult{
				Source:   src,
				Body:     body,
				Err:      err,
				Duration: time.Since(start),
			}
			if err != nil {
				appLog.Error("calendar fetch failed", err, "source", redactURL(src))
				results[i].Body = nil
				return nil
			}
			appLog.Debug("calendar fetch success", "source", redactURL(src), "bytes", len(body), "took", results[i].Duration)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// FetchOne retrieves a single source. Strings starting with "http" are
// fetched with a plain GET; anything else is read as a file path.
func (f *Fetcher) FetchOne(ctx context.Context, src string) ([]byte, error) {
	if strings.HasPrefix(src, "http") {
		return f.fetchHTTP(ctx, src)
	}
	return os.ReadFile(src)
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// redactURL hides sensitive parts of a calendar URL for logging purposes.
// Local paths are returned unchanged.
func redactURL(u string) string {
	// Example:
	//   https://example.com/path/to/private.ics?token=abcd
	// -> https://example.com/...(redacted)
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return u
	}
	i += 3

	// Find next slash after host.
	j := i
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}
	return u[:j] + redactedSuffix
}
