// Package iomanifest reads ingest manifests from YAML files.
package iomanifest

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Subaru-PFS/qadb/pkg/manifest"
	"gopkg.in/yaml.v3"
)

type iomanifest struct {
	path   string
	tables []string
}

// New returns a Loader of the manifest at path. Input tables are
// checked against tables when it is not empty.
func New(path string, tables []string) manifest.Loader {
	res := iomanifest{path: path, tables: tables}
	return &res
}

// Load reads, validates and resolves the manifest. Warnings are logged
// and kept in the result.
func (m *iomanifest) Load() (*manifest.Manifest, error) {
	res, err := loadManifest(m.path, m.tables)
	if err != nil {
		return nil, LoadError(m.path, err)
	}

	for _, w := range res.Warnings {
		slog.Warn("Manifest issue",
			"path", m.path,
			"input", w.Position,
			"field", w.Field,
			"message", w.Message,
		)
	}
	return res, nil
}

func loadManifest(path string, tables []string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var res manifest.Manifest
	if err = yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse manifest YAML: %w", err)
	}

	if err = res.Validate(tables); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	for i := range res.Inputs {
		in := &res.Inputs[i]
		if in.IsS3() || filepath.IsAbs(in.Location) {
			continue
		}
		in.Location = filepath.Join(dir, in.Location)
	}
	return &res, nil
}
