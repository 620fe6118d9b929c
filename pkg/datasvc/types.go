package datasvc

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// RecordIDPrefix marks identifiers issued by the data service.
const RecordIDPrefix = "d/"

// Record is a data-service entry: a titled metadata document in a collection,
// optionally carrying one uploaded file, linked to the records it was derived from.
type Record struct {
	ID           string         `json:"id"`                      // "d/" + UUID
	Title        string         `json:"title"`                   // Human-readable title, unique per collection for lookups
	Collection   string         `json:"collection"`              // Collection the record belongs to
	Metadata     map[string]any `json:"metadata"`                // Free-form JSON document
	Dependencies []Dependency   `json:"dependencies"`            // Upstream records
	FileName     string         `json:"file_name,omitempty"`     // Base name of the uploaded file, if any
	FileSize     int64          `json:"file_size,omitempty"`     // Size of the uploaded file in bytes
	FileChecksum string         `json:"file_checksum,omitempty"` // MD5 hex of the uploaded file
	CreatedAtMs  int64          `json:"created_at_ms"`           // Unix timestamp in milliseconds
	UpdatedAtMs  int64          `json:"updated_at_ms"`           // Unix timestamp in milliseconds
}

// DependencyType names the relation between a record and an upstream record.
type DependencyType string

const (
	// DependencyDerivedFrom means the record was produced from the upstream record.
	DependencyDerivedFrom DependencyType = "der"
)

// Dependency is a typed edge to an upstream record.
type Dependency struct {
	Type DependencyType `json:"type"`
	ID   string         `json:"id"`
}

// TaskStatus is the state of a file transfer.
type TaskStatus int

const (
	TaskStatusBlocked TaskStatus = iota
	TaskStatusReady
	TaskStatusRunning
	TaskStatusSucceeded
	TaskStatusFailed
)

func (s TaskStatus) String() string {
	switch s {
	case TaskStatusBlocked:
		return "blocked"
	case TaskStatusReady:
		return "ready"
	case TaskStatusRunning:
		return "running"
	case TaskStatusSucceeded:
		return "succeeded"
	case TaskStatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// NewRecordID issues a fresh record identifier.
func NewRecordID() string {
	return RecordIDPrefix + uuid.New().String()
}

// IsRecordID reports whether s is a data-service identifier ("d/" followed by a UUID).
func IsRecordID(s string) bool {
	rest, ok := strings.CutPrefix(s, RecordIDPrefix)
	if !ok {
		return false
	}
	_, err := uuid.Parse(rest)
	return err == nil
}

// DerivedFrom builds derived-from dependencies for ids, skipping empty ids
// and duplicates while keeping first-seen order.
func DerivedFrom(ids ...string) []Dependency {
	deps := make([]Dependency, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		deps = append(deps, Dependency{Type: DependencyDerivedFrom, ID: id})
	}
	return deps
}

// Validate checks if the Record has valid field values.
func (r *Record) Validate() error {
	if !IsRecordID(r.ID) {
		return fmt.Errorf("invalid record ID %q: expected %s<uuid>", r.ID, RecordIDPrefix)
	}

	if r.Title == "" {
		return fmt.Errorf("record title cannot be empty")
	}

	if r.Collection == "" {
		return fmt.Errorf("record collection cannot be empty")
	}

	for i, dep := range r.Dependencies {
		if err := dep.Validate(); err != nil {
			return fmt.Errorf("invalid dependency at index %d: %w", i, err)
		}
		if dep.ID == r.ID {
			return fmt.Errorf("record cannot depend on itself")
		}
	}

	return nil
}

// Validate checks the dependency type and target.
func (d Dependency) Validate() error {
	if d.Type != DependencyDerivedFrom {
		return fmt.Errorf("unknown dependency type: %q", d.Type)
	}
	if !IsRecordID(d.ID) {
		return fmt.Errorf("invalid dependency target %q", d.ID)
	}
	return nil
}

// DependencyIDs returns the upstream record ids in order.
func (r *Record) DependencyIDs() []string {
	ids := make([]string, 0, len(r.Dependencies))
	for _, d := range r.Dependencies {
		ids = append(ids, d.ID)
	}
	return ids
}
