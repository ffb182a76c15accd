package hosting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// ErrDestinationNotFound means no provider site matches the record.
var ErrDestinationNotFound = errors.New("hosting destination not found")

// Result describes a published site. SiteID is set as soon as the provider
// registered the destination, even when the upload later failed.
type Result struct {
	SiteID   string
	Name     string
	DeployID string
	URL      string
}

// Deployer publishes build artifacts and tears published sites down.
type Deployer struct {
	provider Provider
	logger   *slog.Logger
}

// NewDeployer creates a deployer over provider.
func NewDeployer(provider Provider, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{provider: provider, logger: logger}
}

// Deploy registers a new destination named after business, uploads the
// zipped artifact directory to it and returns the public URL.
func (d *Deployer) Deploy(ctx context.Context, artifactDir, business string, logWriter io.Writer) (*Result, error) {
	if logWriter == nil {
		logWriter = io.Discard
	}

	bundle, err := Archive(artifactDir)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(logWriter, "Packaged artifact (%d bytes)\n", len(bundle))

	name := SiteName(business)
	dest, err := d.provider.CreateSite(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("register destination: %w", err)
	}
	res := &Result{SiteID: dest.ID, Name: name}
	if dest.Name != "" {
		res.Name = dest.Name
	}
	fmt.Fprintf(logWriter, "Registered destination %s (%s)\n", res.Name, res.SiteID)

	dep, err := d.provider.Deploy(ctx, dest.ID, bundle)
	if err != nil {
		return res, fmt.Errorf("upload artifact: %w", err)
	}
	res.DeployID = dep.ID
	res.URL = firstNonEmpty(dep.DeployURL, dep.SSLURL, dep.URL)
	if res.URL == "" {
		return res, errors.New("upload artifact: provider returned no deploy URL")
	}
	fmt.Fprintf(logWriter, "Published to %s\n", res.URL)

	d.logger.Info("Site deployed", "destination", res.SiteID, "url", res.URL)
	return res, nil
}

// Teardown deletes the destination behind a published site. siteID is
// preferred; when empty the destination is located from deployURL.
func (d *Deployer) Teardown(ctx context.Context, siteID, deployURL string) error {
	if siteID == "" {
		id, err := d.locate(ctx, deployURL)
		if err != nil {
			return err
		}
		siteID = id
	}

	if err := d.provider.DeleteSite(ctx, siteID); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return ErrDestinationNotFound
		}
		return fmt.Errorf("delete destination: %w", err)
	}
	d.logger.Info("Destination deleted", "destination", siteID)
	return nil
}

func (d *Deployer) locate(ctx context.Context, deployURL string) (string, error) {
	id := DeployIDFromURL(deployURL)
	if id == "" {
		return "", ErrDestinationNotFound
	}
	sites, err := d.provider.ListSites(ctx)
	if err != nil {
		return "", fmt.Errorf("list destinations: %w", err)
	}
	for _, s := range sites {
		if s.DeployID == id || s.ID == id {
			return s.ID, nil
		}
	}
	return "", ErrDestinationNotFound
}

// DeployIDFromURL extracts the identifier prefix of a deploy URL such as
// "https://64ab12--acme-gym-1a2b3c.netlify.app". It returns "" when the host
// has no "--" separator.
func DeployIDFromURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := u.Hostname()
	i := strings.Index(host, "--")
	if i <= 0 {
		return ""
	}
	return host[:i]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
