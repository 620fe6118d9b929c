// Package notebook fingerprints the script or notebook driving a training run.
package notebook

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/flowlog/internal/checksum"
)

// Script identifies one version of a notebook by content digest.
type Script struct {
	Checksum string `json:"checksum"`
	Path     string `json:"path"`
}

// Metadata is the provenance entry merged into every record.
type Metadata struct {
	Script Script `json:"script"`
}

// Map returns the metadata in record form: {"script": {"checksum", "path"}}.
func (m Metadata) Map() map[string]any {
	return map[string]any{
		"script": map[string]any{
			"checksum": m.Script.Checksum,
			"path":     m.Script.Path,
		},
	}
}

// Read digests the file at path. The recorded path is absolute.
func Read(path string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read notebook %s: %w", path, err)
	}
	if info.IsDir() {
		return Metadata{}, fmt.Errorf("notebook %s is a directory", path)
	}

	sum, err := checksum.File(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to checksum notebook %s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return Metadata{Script: Script{Checksum: sum, Path: abs}}, nil
}

// ChecksumOf extracts script.checksum from a record's metadata document.
func ChecksumOf(metadata map[string]any) (string, bool) {
	script, ok := metadata["script"].(map[string]any)
	if !ok {
		return "", false
	}
	sum, ok := script["checksum"].(string)
	return sum, ok
}
