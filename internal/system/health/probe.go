package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// apiKeyHeader is the static header the deployed service checks.
const apiKeyHeader = "X-API-Key"

// defaultTimeout bounds a single probe request.
const defaultTimeout = 5 * time.Second

// Prober performs an advisory HTTP check against the deployed service's
// status endpoint. Results are for operator visibility only and never decide
// a run's outcome.
type Prober struct {
	client *http.Client
}

// NewProber returns a Prober with a bounded request timeout.
func NewProber() *Prober {
	return &Prober{
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// Probe issues a GET against url with the API key header and reports whether
// the service answered with a 2xx status.
func (p *Prober) Probe(ctx context.Context, url, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}

	if apiKey != "" {
		req.Header.Set(apiKeyHeader, apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("probe %s: unexpected status %s", url, resp.Status)
	}

	return nil
}
