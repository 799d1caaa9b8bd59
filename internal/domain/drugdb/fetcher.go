package drugdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Fetcher retrieves raw interaction tuples from an external source. It is
// injected so tests can substitute deterministic fixtures for live HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, source *Source) ([]RawInteraction, error)
	// Ping probes reachability without transferring data.
	Ping(ctx context.Context, source *Source) error
}

// HTTPFetcher talks JSON over HTTP to provider endpoints.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher whose requests are bounded by timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, source *Source) ([]RawInteraction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.BaseURL+f.path(source, "interactions_path", "/interactions"), nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	f.authorize(req, source)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", source.Name, resp.StatusCode)
	}

	var tuples []RawInteraction
	if err := json.NewDecoder(resp.Body).Decode(&tuples); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", source.Name, err)
	}
	return tuples, nil
}

func (f *HTTPFetcher) Ping(ctx context.Context, source *Source) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.BaseURL+f.path(source, "health_path", "/health"), nil)
	if err != nil {
		return fmt.Errorf("build ping request: %w", err)
	}
	f.authorize(req, source)

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("ping %s: status %d", source.Name, resp.StatusCode)
	}
	return nil
}

func (f *HTTPFetcher) path(source *Source, key, fallback string) string {
	if p, ok := source.Configuration[key]; ok && p != "" {
		return p
	}
	return fallback
}

func (f *HTTPFetcher) authorize(req *http.Request, source *Source) {
	if source.Credential != nil && *source.Credential != "" {
		req.Header.Set("Authorization", "Bearer "+*source.Credential)
	}
}
