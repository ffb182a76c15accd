package hosting

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/config"
)

type fakeNetlify struct {
	mu       sync.Mutex
	sites    map[string]Destination
	uploads  map[string][]byte
	failures map[string]int // path prefix -> remaining 503 responses
	deleted  []string
	auth     []string
}

func newFakeNetlify() *fakeNetlify {
	return &fakeNetlify{
		sites:    map[string]Destination{},
		uploads:  map[string][]byte{},
		failures: map[string]int{},
	}
}

func (f *fakeNetlify) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))

	key := r.Method + " " + r.URL.Path
	if n := f.failures[key]; n > 0 {
		f.failures[key] = n - 1
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/v1/sites":
		var body struct{ Name string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := "site-" + body.Name
		f.sites[id] = Destination{ID: id, Name: body.Name}
		_ = json.NewEncoder(w).Encode(f.sites[id])

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/deploys"):
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/sites/"), "/deploys")
		s, ok := f.sites[id]
		if !ok || r.Header.Get("Content-Type") != "application/zip" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		data, _ := io.ReadAll(r.Body)
		f.uploads[id] = data
		s.DeployID = "dep" + s.Name[len(s.Name)-6:]
		f.sites[id] = s
		_ = json.NewEncoder(w).Encode(Deployment{
			ID:        s.DeployID,
			SiteID:    id,
			DeployURL: "https://" + s.DeployID + "--" + s.Name + ".netlify.app",
		})

	case r.Method == http.MethodGet && r.URL.Path == "/api/v1/sites":
		out := []Destination{}
		for _, s := range f.sites {
			out = append(out, s)
		}
		_ = json.NewEncoder(w).Encode(out)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/api/v1/sites/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/sites/")
		if _, ok := f.sites[id]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		delete(f.sites, id)
		f.deleted = append(f.deleted, id)
		w.WriteHeader(http.StatusNoContent)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, f *fakeNetlify, token string) *NetlifyClient {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return NewNetlify(config.HostingConfig{BaseURL: srv.URL, APIToken: token, MaxRetries: 2},
		WithHTTPClient(srv.Client()), WithInitialInterval(time.Millisecond))
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":       "<h1>Acme</h1>",
		"about/index.html": "<h1>About</h1>",
		"uploads/logo.png": "png",
	}
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestSiteName(t *testing.T) {
	tests := []struct {
		business string
		base     string
	}{
		{"Acme Gym", "acme-gym"},
		{"  Café Olé!! ", "cafe-ole"},
		{"A&B -- Partners", "a-b-partners"},
		{"???", "site"},
		{strings.Repeat("long name ", 10), "long-name-long-name-long-name-long-name"},
	}
	for _, tt := range tests {
		got := SiteName(tt.business)
		re := regexp.MustCompile("^" + regexp.QuoteMeta(tt.base) + "-[0-9a-f]{6}$")
		if !re.MatchString(got) {
			t.Errorf("SiteName(%q) = %q, want %s-<hex6>", tt.business, got, tt.base)
		}
	}
	if SiteName("Acme") == SiteName("Acme") {
		t.Error("expected random suffix to differ between calls")
	}
}

func TestArchive(t *testing.T) {
	data, err := Archive(writeArtifact(t))
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{"index.html", "about/index.html", "uploads/logo.png"} {
		if !names[want] {
			t.Errorf("zip missing %s (have %v)", want, names)
		}
	}

	if _, err := Archive(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing artifact directory")
	}
}

func TestDeployerDeploy(t *testing.T) {
	f := newFakeNetlify()
	d := NewDeployer(newTestClient(t, f, "tok"), nil)

	var log bytes.Buffer
	res, err := d.Deploy(context.Background(), writeArtifact(t), "Acme Gym", &log)
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if !strings.HasPrefix(res.Name, "acme-gym-") {
		t.Errorf("unexpected site name %q", res.Name)
	}
	if res.SiteID == "" || res.DeployID == "" {
		t.Errorf("expected ids, got %+v", res)
	}
	if !strings.HasPrefix(res.URL, "https://"+res.DeployID+"--") {
		t.Errorf("unexpected url %q", res.URL)
	}
	if len(f.uploads[res.SiteID]) == 0 {
		t.Error("expected zip upload")
	}
	for _, h := range f.auth {
		if h != "Bearer tok" {
			t.Errorf("unexpected Authorization header %q", h)
		}
	}
	if !strings.Contains(log.String(), "Published to "+res.URL) {
		t.Errorf("log missing publish line: %s", log.String())
	}
}

func TestDeployerDeploy_RetriesTransientFailure(t *testing.T) {
	f := newFakeNetlify()
	f.failures["POST /api/v1/sites"] = 2
	d := NewDeployer(newTestClient(t, f, "tok"), nil)

	if _, err := d.Deploy(context.Background(), writeArtifact(t), "Acme Gym", nil); err != nil {
		t.Fatalf("expected retries to succeed, got %v", err)
	}
}

func TestDeployerDeploy_UploadFailureKeepsSiteID(t *testing.T) {
	f := newFakeNetlify()
	client := newTestClient(t, f, "tok")
	client.maxRetries = 0
	d := NewDeployer(client, nil)

	orig := client.httpClient.Transport
	client.httpClient.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if strings.HasSuffix(r.URL.Path, "/deploys") {
			return &http.Response{
				StatusCode: http.StatusBadGateway,
				Body:       io.NopCloser(strings.NewReader("bad gateway")),
				Header:     http.Header{},
				Request:    r,
			}, nil
		}
		return orig.RoundTrip(r)
	})

	res, err := d.Deploy(context.Background(), writeArtifact(t), "Acme Gym", nil)
	if err == nil {
		t.Fatal("expected upload failure")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected APIError 502, got %v", err)
	}
	if res == nil || res.SiteID == "" || res.URL != "" {
		t.Errorf("expected registered site id without url, got %+v", res)
	}
}

func TestNetlify_NotConfigured(t *testing.T) {
	f := newFakeNetlify()
	d := NewDeployer(newTestClient(t, f, ""), nil)

	if _, err := d.Deploy(context.Background(), writeArtifact(t), "Acme", nil); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Deploy: expected ErrNotConfigured, got %v", err)
	}
	if err := d.Teardown(context.Background(), "site-x", ""); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Teardown: expected ErrNotConfigured, got %v", err)
	}
	if len(f.auth) != 0 {
		t.Error("no request should reach the provider without a token")
	}
}

func TestDeployerTeardown(t *testing.T) {
	ctx := context.Background()

	t.Run("by site id", func(t *testing.T) {
		f := newFakeNetlify()
		d := NewDeployer(newTestClient(t, f, "tok"), nil)
		res, err := d.Deploy(ctx, writeArtifact(t), "Acme Gym", nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := d.Teardown(ctx, res.SiteID, res.URL); err != nil {
			t.Fatalf("Teardown: %v", err)
		}
		if len(f.deleted) != 1 || f.deleted[0] != res.SiteID {
			t.Errorf("expected %s deleted, got %v", res.SiteID, f.deleted)
		}
	})

	t.Run("by deploy url", func(t *testing.T) {
		f := newFakeNetlify()
		d := NewDeployer(newTestClient(t, f, "tok"), nil)
		res, err := d.Deploy(ctx, writeArtifact(t), "Acme Gym", nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := d.Deploy(ctx, writeArtifact(t), "Other Co", nil); err != nil {
			t.Fatal(err)
		}
		if err := d.Teardown(ctx, "", res.URL); err != nil {
			t.Fatalf("Teardown: %v", err)
		}
		if len(f.deleted) != 1 || f.deleted[0] != res.SiteID {
			t.Errorf("expected only %s deleted, got %v", res.SiteID, f.deleted)
		}
	})

	t.Run("unknown url", func(t *testing.T) {
		f := newFakeNetlify()
		d := NewDeployer(newTestClient(t, f, "tok"), nil)
		err := d.Teardown(ctx, "", "https://nope--ghost.netlify.app")
		if !errors.Is(err, ErrDestinationNotFound) {
			t.Errorf("expected ErrDestinationNotFound, got %v", err)
		}
	})

	t.Run("already deleted", func(t *testing.T) {
		f := newFakeNetlify()
		d := NewDeployer(newTestClient(t, f, "tok"), nil)
		if err := d.Teardown(ctx, "site-gone", ""); !errors.Is(err, ErrDestinationNotFound) {
			t.Errorf("expected ErrDestinationNotFound, got %v", err)
		}
	})
}

func TestDeployIDFromURL(t *testing.T) {
	tests := map[string]string{
		"https://64ab12--acme-gym-1a2b3c.netlify.app":      "64ab12",
		"https://64ab12--acme-gym-1a2b3c.netlify.app/path": "64ab12",
		"https://acme-gym.netlify.app":                     "",
		"https://--acme.netlify.app":                       "",
		"":                                                 "",
		"::bad":                                            "",
	}
	for in, want := range tests {
		if got := DeployIDFromURL(in); got != want {
			t.Errorf("DeployIDFromURL(%q) = %q, want %q", in, got, want)
		}
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
