package roboflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"logicmate/internal/services"
)

// Export models the provider's export-resolution response. The provider
// generates the export on first request; Link is the signed archive URL.
type Export struct {
	Link string `json:"link"`
}

type exportResponse struct {
	Export Export `json:"export"`
	Error  string `json:"error"`
}

// Fetcher defines the dataset-download operations used by the workflow.
type Fetcher interface {
	Fetch(ctx context.Context, destRoot string) (string, error)
}

// Client provides access to the dataset hosting API.
type Client struct {
	baseURL         string
	apiKey          string
	workspace       string
	project         string
	version         int
	format          string
	downloadTimeout time.Duration
	httpClient      *http.Client
}

var _ Fetcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a dataset provider client.
func New(baseURL, apiKey, workspace, project string, version int, format string, downloadTimeoutSeconds int, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("provider api key required")
	}
	workspace = strings.TrimSpace(workspace)
	project = strings.TrimSpace(project)
	if workspace == "" || project == "" {
		return nil, errors.New("provider workspace and project required")
	}
	if version <= 0 {
		return nil, errors.New("provider version must be positive")
	}
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("provider base url required")
	}
	format = strings.TrimSpace(format)
	if format == "" {
		format = "yolov8"
	}
	client := &Client{
		baseURL:         baseURL,
		apiKey:          apiKey,
		workspace:       workspace,
		project:         project,
		version:         version,
		format:          format,
		downloadTimeout: time.Duration(downloadTimeoutSeconds) * time.Second,
		httpClient:      &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// DatasetDirName is the directory the dataset lands in under the datasets
// root: "{project}-{version}".
func (c *Client) DatasetDirName() string {
	return c.project + "-" + strconv.Itoa(c.version)
}

// ResolveExport asks the provider for the archive link of the configured
// project version, triggering export generation when necessary.
func (c *Client) ResolveExport(ctx context.Context) (string, error) {
	endpoint, err := url.Parse(fmt.Sprintf("%s/%s/%s/%d/%s",
		c.baseURL, url.PathEscape(c.workspace), url.PathEscape(c.project), c.version, url.PathEscape(c.format)))
	if err != nil {
		return "", fmt.Errorf("parse provider url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "roboflow", "resolve export",
			fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", services.Wrap(services.ErrNotFound, "roboflow", "resolve export",
			fmt.Sprintf("project %s/%s version %d not found (latency=%v)", c.workspace, c.project, c.version, latency), nil)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", services.Wrap(services.ErrConfiguration, "roboflow", "resolve export",
			fmt.Sprintf("provider rejected api key (status %d, latency=%v)", resp.StatusCode, latency), nil)
	case resp.StatusCode != http.StatusOK:
		return "", services.Wrap(services.ErrExternalTool, "roboflow", "resolve export",
			fmt.Sprintf("provider returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var payload exportResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "roboflow", "resolve export",
			"decode provider response", err)
	}
	if payload.Error != "" {
		return "", services.Wrap(services.ErrExternalTool, "roboflow", "resolve export",
			fmt.Sprintf("provider error: %s", payload.Error), nil)
	}
	if strings.TrimSpace(payload.Export.Link) == "" {
		return "", services.Wrap(services.ErrExternalTool, "roboflow", "resolve export",
			"provider response carried no export link", nil)
	}
	return payload.Export.Link, nil
}

// Download streams the export archive and unpacks it under destRoot as
// "{project}-{version}". An existing dataset directory is reused untouched;
// partial downloads never land at the final path.
func (c *Client) Download(ctx context.Context, exportURL, destRoot string) (string, error) {
	destPath := filepath.Join(destRoot, c.DatasetDirName())
	if info, err := os.Stat(destPath); err == nil && info.IsDir() {
		return destPath, nil
	}
	if err := os.MkdirAll(destRoot, 0o755); err != nil {
		return "", services.Wrap(services.ErrConfiguration, "roboflow", "download",
			fmt.Sprintf("create datasets root %s", destRoot), err)
	}

	downloadCtx := ctx
	if c.downloadTimeout > 0 {
		var cancel context.CancelFunc
		downloadCtx, cancel = context.WithTimeout(ctx, c.downloadTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(downloadCtx, http.MethodGet, exportURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "roboflow", "download",
			fmt.Sprintf("execute download (latency=%v)", time.Since(requestStart)), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrExternalTool, "roboflow", "download",
			fmt.Sprintf("archive request returned %d", resp.StatusCode), nil)
	}

	archivePath, err := spoolArchive(resp.Body, destRoot)
	if err != nil {
		return "", err
	}
	defer os.Remove(archivePath)

	stagingPath := destPath + ".partial"
	if err := os.RemoveAll(stagingPath); err != nil {
		return "", fmt.Errorf("clear staging directory: %w", err)
	}
	if err := extractArchive(archivePath, stagingPath); err != nil {
		_ = os.RemoveAll(stagingPath)
		return "", err
	}
	if err := os.Rename(stagingPath, destPath); err != nil {
		_ = os.RemoveAll(stagingPath)
		return "", fmt.Errorf("finalize dataset directory: %w", err)
	}
	return destPath, nil
}

// Fetch resolves the export and downloads it in one step.
func (c *Client) Fetch(ctx context.Context, destRoot string) (string, error) {
	destPath := filepath.Join(destRoot, c.DatasetDirName())
	if info, err := os.Stat(destPath); err == nil && info.IsDir() {
		return destPath, nil
	}
	link, err := c.ResolveExport(ctx)
	if err != nil {
		return "", err
	}
	return c.Download(ctx, link, destRoot)
}

func spoolArchive(body io.Reader, dir string) (string, error) {
	tmp, err := os.CreateTemp(dir, "dataset-*.zip")
	if err != nil {
		return "", fmt.Errorf("create archive spool: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", services.Wrap(services.ErrExternalTool, "roboflow", "download",
			"stream archive body", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close archive spool: %w", err)
	}
	return tmp.Name(), nil
}
