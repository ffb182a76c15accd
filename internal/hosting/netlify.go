package hosting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/config"
	"github.com/AthlureSolutions/sitelure/internal/httpx"
)

// ErrNotConfigured means no provider token is configured.
var ErrNotConfigured = errors.New("hosting provider token not configured")

// APIError is a non-2xx response from the hosting provider.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hosting %s: provider returned %d: %s", e.Op, e.StatusCode, e.Body)
}

// HTTPStatusCode returns the response status.
func (e *APIError) HTTPStatusCode() int { return e.StatusCode }

// Destination is a provider-side site.
type Destination struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	SSLURL   string `json:"ssl_url"`
	AdminURL string `json:"admin_url"`
	DeployID string `json:"deploy_id"`
}

// Deployment is one uploaded bundle.
type Deployment struct {
	ID        string `json:"id"`
	SiteID    string `json:"site_id"`
	State     string `json:"state"`
	DeployURL string `json:"deploy_url"`
	SSLURL    string `json:"ssl_url"`
	URL       string `json:"url"`
}

// Provider is the hosting API the deployer depends on.
type Provider interface {
	CreateSite(ctx context.Context, name string) (*Destination, error)
	Deploy(ctx context.Context, siteID string, bundle []byte) (*Deployment, error)
	ListSites(ctx context.Context) ([]Destination, error)
	DeleteSite(ctx context.Context, siteID string) error
}

const listPageSize = 100

// NetlifyClient implements Provider over the Netlify REST API.
type NetlifyClient struct {
	baseURL    string
	token      string
	maxRetries int
	httpClient *http.Client
	logger     *slog.Logger

	initialInterval time.Duration
}

// Option customises a NetlifyClient.
type Option func(*NetlifyClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *NetlifyClient) { c.httpClient = hc }
}

// WithInitialInterval sets the first retry delay.
func WithInitialInterval(d time.Duration) Option {
	return func(c *NetlifyClient) { c.initialInterval = d }
}

// WithLogger sets the logger used for retry notices.
func WithLogger(l *slog.Logger) Option {
	return func(c *NetlifyClient) { c.logger = l }
}

// NewNetlify creates a client. A missing token is not an error here; every
// call returns ErrNotConfigured instead so teardown can degrade gracefully.
func NewNetlify(cfg config.HostingConfig, opts ...Option) *NetlifyClient {
	c := &NetlifyClient{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		token:           strings.TrimSpace(cfg.APIToken),
		maxRetries:      cfg.MaxRetries,
		httpClient:      &http.Client{Timeout: 5 * time.Minute},
		logger:          slog.Default(),
		initialInterval: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSite registers a new site with the given name.
func (c *NetlifyClient) CreateSite(ctx context.Context, name string) (*Destination, error) {
	body, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return nil, err
	}
	var dest Destination
	if err := c.do(ctx, "create-site", http.MethodPost, "/api/v1/sites", "application/json", body, &dest); err != nil {
		return nil, err
	}
	if dest.ID == "" {
		return nil, &APIError{Op: "create-site", StatusCode: http.StatusOK, Body: "response has no site id"}
	}
	return &dest, nil
}

// Deploy uploads a zip bundle to the site.
func (c *NetlifyClient) Deploy(ctx context.Context, siteID string, bundle []byte) (*Deployment, error) {
	var dep Deployment
	p := "/api/v1/sites/" + url.PathEscape(siteID) + "/deploys"
	if err := c.do(ctx, "deploy", http.MethodPost, p, "application/zip", bundle, &dep); err != nil {
		return nil, err
	}
	return &dep, nil
}

// ListSites returns every site visible to the token.
func (c *NetlifyClient) ListSites(ctx context.Context) ([]Destination, error) {
	var all []Destination
	for page := 1; ; page++ {
		var batch []Destination
		p := fmt.Sprintf("/api/v1/sites?page=%d&per_page=%d", page, listPageSize)
		if err := c.do(ctx, "list-sites", http.MethodGet, p, "", nil, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < listPageSize {
			return all, nil
		}
	}
}

// DeleteSite removes a site.
func (c *NetlifyClient) DeleteSite(ctx context.Context, siteID string) error {
	return c.do(ctx, "delete-site", http.MethodDelete, "/api/v1/sites/"+url.PathEscape(siteID), "", nil, nil)
}

func (c *NetlifyClient) do(ctx context.Context, op, method, path, contentType string, body []byte, out any) error {
	if c.token == "" {
		return ErrNotConfigured
	}

	return httpx.Retry(ctx, c.maxRetries, c.initialInterval, c.logger, func() (time.Duration, error) {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return 0, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return 0, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return 0, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return httpx.RetryAfter(resp), &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		}
		if out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return 0, nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return 0, fmt.Errorf("hosting %s: decode response: %w", op, err)
		}
		return 0, nil
	})
}
