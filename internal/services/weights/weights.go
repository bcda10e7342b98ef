// Package weights ensures the base model checkpoint exists locally,
// downloading it from the configured release URL on first use.
package weights

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"logicmate/internal/config"
	"logicmate/internal/fileutil"
	"logicmate/internal/services"
)

// Option configures the fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// Fetcher downloads base weights when they are missing from the models
// directory.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher constructs a weights fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	fetcher := &Fetcher{
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Ensure returns the path of the base weights file, downloading it first if
// absent. Partial downloads never land at the final path.
func (f *Fetcher) Ensure(ctx context.Context, cfg *config.Config) (string, error) {
	target := cfg.WeightsPath()
	if info, err := os.Stat(target); err == nil && !info.IsDir() && info.Size() > 0 {
		return target, nil
	}

	url := strings.TrimSpace(cfg.Training.WeightsURL)
	if url == "" {
		return "", services.Wrap(services.ErrConfiguration, "weights", "ensure",
			fmt.Sprintf("weights file %s missing and training.weights_url is not set", target), nil)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "weights", "ensure",
			fmt.Sprintf("create models directory %s", filepath.Dir(target)), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build weights request: %w", err)
	}

	requestStart := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "weights", "ensure",
			fmt.Sprintf("download weights (latency=%v)", time.Since(requestStart)), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExternalTool, "weights", "ensure",
			fmt.Sprintf("weights download returned %d", resp.StatusCode), nil)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".weights-*")
	if err != nil {
		return "", fmt.Errorf("create weights spool: %w", err)
	}
	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", services.Wrap(services.ErrExternalTool, "weights", "ensure",
			"stream weights body", err)
	}
	if written == 0 {
		os.Remove(tmp.Name())
		return "", services.Wrap(services.ErrExternalTool, "weights", "ensure",
			"weights download produced an empty file", nil)
	}
	if err := fileutil.AtomicRename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return target, nil
}
