package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ManifestFile is the optional template descriptor in the template root.
const ManifestFile = "sitelure.yaml"

// Manifest describes where a template keeps its data file, public assets and
// build output. Missing fields take the defaults from DefaultManifest.
type Manifest struct {
	DataFile    string   `yaml:"data_file"`
	PublicDir   string   `yaml:"public_dir"`
	ArtifactDir string   `yaml:"artifact_dir"`
	Ignore      []string `yaml:"ignore"`
	Version     string   `yaml:"version"`
}

// DefaultManifest matches the stock Astro template.
func DefaultManifest() Manifest {
	return Manifest{
		DataFile:    "src/data/websiteData.json",
		PublicDir:   "public",
		ArtifactDir: "dist",
		Ignore:      []string{"node_modules/**", "dist/**", ".git/**", ".astro/**"},
	}
}

// LoadManifest reads the manifest from templateDir. A template without one
// uses DefaultManifest.
func LoadManifest(templateDir string) (Manifest, error) {
	m := DefaultManifest()

	data, err := os.ReadFile(filepath.Join(templateDir, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("read template manifest: %w", err)
	}

	var file Manifest
	if err := yaml.Unmarshal(data, &file); err != nil {
		return m, fmt.Errorf("parse template manifest: %w", err)
	}

	if file.DataFile != "" {
		m.DataFile = file.DataFile
	}
	if file.PublicDir != "" {
		m.PublicDir = file.PublicDir
	}
	if file.ArtifactDir != "" {
		m.ArtifactDir = file.ArtifactDir
	}
	if file.Ignore != nil {
		m.Ignore = file.Ignore
	}
	m.Version = file.Version

	for _, p := range []string{m.DataFile, m.PublicDir, m.ArtifactDir} {
		if !filepath.IsLocal(filepath.FromSlash(p)) {
			return m, fmt.Errorf("template manifest path %q must be relative to the template", p)
		}
	}
	return m, nil
}

// Ignored reports whether a template-relative, slash-separated path is
// excluded from copies.
func (m Manifest) Ignored(rel string, isDir bool) bool {
	for _, pattern := range m.Ignore {
		if matchGlob(pattern, rel) {
			return true
		}
		if isDir && strings.HasSuffix(pattern, "/**") && matchGlob(strings.TrimSuffix(pattern, "/**"), rel) {
			return true
		}
	}
	return false
}
