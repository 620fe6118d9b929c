package datasvc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Records are stored as Redis hashes. Scalar fields map to hash fields and the
// metadata document and dependency list are JSON-encoded into single fields.

// RecordToHash converts a Record to a Redis hash.
func RecordToHash(r *Record) (map[string]interface{}, error) {
	metadata := r.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}

	deps := r.Dependencies
	if deps == nil {
		deps = []Dependency{}
	}
	depsJSON, err := json.Marshal(deps)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dependencies: %w", err)
	}

	return map[string]interface{}{
		"id":            r.ID,
		"title":         r.Title,
		"collection":    r.Collection,
		"metadata":      string(metadataJSON),
		"dependencies":  string(depsJSON),
		"file_name":     r.FileName,
		"file_size":     r.FileSize,
		"file_checksum": r.FileChecksum,
		"created_at_ms": r.CreatedAtMs,
		"updated_at_ms": r.UpdatedAtMs,
	}, nil
}

// HashToRecord converts a Redis hash back to a Record.
func HashToRecord(hash map[string]string) (*Record, error) {
	metadata := map[string]any{}
	if raw := hash["metadata"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	deps := []Dependency{}
	if raw := hash["dependencies"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &deps); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dependencies: %w", err)
		}
	}

	fileSize, _ := strconv.ParseInt(hash["file_size"], 10, 64)
	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	updatedAtMs, _ := strconv.ParseInt(hash["updated_at_ms"], 10, 64)

	return &Record{
		ID:           hash["id"],
		Title:        hash["title"],
		Collection:   hash["collection"],
		Metadata:     metadata,
		Dependencies: deps,
		FileName:     hash["file_name"],
		FileSize:     fileSize,
		FileChecksum: hash["file_checksum"],
		CreatedAtMs:  createdAtMs,
		UpdatedAtMs:  updatedAtMs,
	}, nil
}
