package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/AthlureSolutions/sitelure/internal/config"
	"github.com/AthlureSolutions/sitelure/internal/content"
	"github.com/AthlureSolutions/sitelure/internal/utils"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ReadyMarker is written last; its presence means the workspace is build-ready.
const ReadyMarker = ".sitelure-ready"

// uploadsPrefix is the URL path under which uploaded assets are referenced.
const uploadsPrefix = "uploads/"

// Error is a filesystem failure while preparing or removing a workspace.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("workspace %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Materializer creates one isolated copy of the template per site.
type Materializer struct {
	templateDir string
	baseDir     string
	uploadsDir  string
	logger      *slog.Logger
}

// New creates a materializer rooted at the configured workspaces directory
func New(cfg config.StorageConfig, logger *slog.Logger) (*Materializer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dirs := []*string{&cfg.TemplateDir, &cfg.WorkspacesDir, &cfg.UploadsDir}
	for _, d := range dirs {
		// Absolute paths keep workspace locations valid from any working directory
		abs, err := filepath.Abs(*d)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory %q: %w", *d, err)
		}
		*d = abs
	}

	if err := os.MkdirAll(cfg.WorkspacesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspaces directory: %w", err)
	}

	return &Materializer{
		templateDir: cfg.TemplateDir,
		baseDir:     cfg.WorkspacesDir,
		uploadsDir:  cfg.UploadsDir,
		logger:      logger,
	}, nil
}

// Path returns {workspaces_dir}/{site-id}.
func (m *Materializer) Path(siteID uuid.UUID) string {
	return filepath.Join(m.baseDir, siteID.String())
}

// Manifest loads the template manifest.
func (m *Materializer) Manifest() (Manifest, error) {
	return LoadManifest(m.templateDir)
}

// Exists reports whether the site's workspace directory is present.
func (m *Materializer) Exists(siteID uuid.UUID) bool {
	info, err := os.Stat(m.Path(siteID))
	return err == nil && info.IsDir()
}

// Ready reports whether Prepare completed for the site's workspace.
func (m *Materializer) Ready(siteID uuid.UUID) bool {
	_, err := os.Stat(filepath.Join(m.Path(siteID), ReadyMarker))
	return err == nil
}

// Remove deletes the site's workspace. Removing a missing workspace is not an error.
func (m *Materializer) Remove(siteID uuid.UUID) error {
	p := m.Path(siteID)
	if err := os.RemoveAll(p); err != nil {
		return &Error{Op: "remove", Path: p, Err: err}
	}
	return nil
}

// Prepare copies the template into the site's workspace, copies the referenced
// upload into the public directory and writes tree to the data file. Each step
// is idempotent at the directory level, so a failed Prepare may be re-run.
// The ready marker is only present after every step succeeded.
func (m *Materializer) Prepare(ctx context.Context, siteID uuid.UUID, tree *content.Tree, assetRef string, logWriter io.Writer) (string, error) {
	if logWriter == nil {
		logWriter = io.Discard
	}
	wsPath := m.Path(siteID)
	marker := filepath.Join(wsPath, ReadyMarker)

	if err := os.Remove(marker); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", &Error{Op: "reset", Path: marker, Err: err}
	}

	manifest, err := m.Manifest()
	if err != nil {
		return "", &Error{Op: "manifest", Path: m.templateDir, Err: err}
	}

	fmt.Fprintf(logWriter, "Preparing workspace at: %s\n", wsPath)

	publicDir := filepath.Join(wsPath, filepath.FromSlash(manifest.PublicDir))
	g, _ := errgroup.WithContext(ctx)
	for _, dir := range []string{wsPath, publicDir} {
		g.Go(func() error {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return &Error{Op: "mkdir", Path: dir, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	if err := m.copyTemplate(ctx, wsPath, manifest); err != nil {
		return "", err
	}
	if files, size, err := utils.DirStats(wsPath); err == nil {
		fmt.Fprintf(logWriter, "Copied template (%d files, %s)\n", files, utils.FormatBytes(size))
	}

	if assetRef != "" {
		copied, err := m.copyAsset(assetRef, publicDir)
		if err != nil {
			return "", err
		}
		if copied != "" {
			fmt.Fprintf(logWriter, "Copied asset %s\n", copied)
		}
	}

	dataPath := filepath.Join(wsPath, filepath.FromSlash(manifest.DataFile))
	if err := writeDataFile(dataPath, tree); err != nil {
		return "", err
	}
	fmt.Fprintf(logWriter, "Wrote content to %s\n", manifest.DataFile)

	if err := os.WriteFile(marker, []byte(siteID.String()+"\n"), 0644); err != nil {
		return "", &Error{Op: "mark-ready", Path: marker, Err: err}
	}

	m.logger.Info("Workspace prepared", "site_id", siteID, "path", wsPath)
	return wsPath, nil
}

func (m *Materializer) copyTemplate(ctx context.Context, dst string, manifest Manifest) error {
	err := filepath.WalkDir(m.templateDir, func(src string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &Error{Op: "copy-template", Path: src, Err: walkErr}
		}
		if err := ctx.Err(); err != nil {
			return &Error{Op: "copy-template", Path: src, Err: err}
		}

		rel, err := filepath.Rel(m.templateDir, src)
		if err != nil {
			return &Error{Op: "copy-template", Path: src, Err: err}
		}
		if rel == "." {
			return nil
		}
		slashRel := filepath.ToSlash(rel)
		if slashRel == ReadyMarker {
			return nil
		}
		if manifest.Ignored(slashRel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return &Error{Op: "copy-template", Path: target, Err: err}
			}
			return nil
		}

		// Symlinks are materialised as real files so the build can mutate them.
		info, err := os.Stat(src)
		if err != nil {
			return &Error{Op: "copy-template", Path: src, Err: err}
		}
		if info.IsDir() {
			m.logger.Warn("Skipping symlinked directory in template", "path", slashRel)
			return nil
		}
		if err := copyFile(src, target, info.Mode().Perm()); err != nil {
			return &Error{Op: "copy-template", Path: target, Err: err}
		}
		return nil
	})
	return err
}

// copyAsset copies an upload referenced as "/uploads/<rel>" into
// {public}/uploads/<rel>. Remote URLs are left to the browser and return "".
func (m *Materializer) copyAsset(ref, publicDir string) (string, error) {
	rel, ok, err := uploadPath(ref)
	if err != nil {
		return "", &Error{Op: "copy-asset", Path: ref, Err: err}
	}
	if !ok {
		return "", nil
	}

	src := filepath.Join(m.uploadsDir, filepath.FromSlash(rel))
	info, err := os.Stat(src)
	if err != nil {
		return "", &Error{Op: "copy-asset", Path: src, Err: err}
	}

	dst := filepath.Join(publicDir, filepath.FromSlash(uploadsPrefix+rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", &Error{Op: "copy-asset", Path: dst, Err: err}
	}
	if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
		return "", &Error{Op: "copy-asset", Path: dst, Err: err}
	}
	return "/" + uploadsPrefix + rel, nil
}

// uploadPath extracts the uploads-relative path from a host-less asset
// reference such as "/uploads/logo.png" or "uploads/logo.png". ok is false for
// absolute URLs and for references outside the uploads area.
func uploadPath(ref string) (rel string, ok bool, err error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", false, err
	}
	if u.Scheme != "" || u.Host != "" {
		return "", false, nil
	}
	p := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if !strings.HasPrefix(p, uploadsPrefix) {
		return "", false, nil
	}
	rel = strings.TrimPrefix(p, uploadsPrefix)
	if rel == "" || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", false, fmt.Errorf("invalid upload reference %q", ref)
	}
	return rel, true, nil
}

func writeDataFile(p string, tree *content.Tree) error {
	data, err := content.Marshal(tree)
	if err != nil {
		return &Error{Op: "write-data", Path: p, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return &Error{Op: "write-data", Path: p, Err: err}
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		return &Error{Op: "write-data", Path: p, Err: err}
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm|0200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func matchGlob(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// PublicAssetPath returns the site-relative URL an upload reference will have
// inside a built site, e.g. "uploads/a.png" -> "/uploads/a.png". Absolute URLs
// and references outside the uploads area are returned unchanged.
func PublicAssetPath(ref string) string {
	rel, ok, err := uploadPath(ref)
	if err != nil || !ok {
		return ref
	}
	return "/" + uploadsPrefix + rel
}
