// Package access verifies that a transfer endpoint may read and write a local directory.
package access

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Policy maps an endpoint to the local directory roots it may use.
// An endpoint without an entry may use any directory.
type Policy map[string][]string

// DeniedError reports a directory the endpoint may not use.
type DeniedError struct {
	Endpoint string
	Path     string
	Reason   string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("endpoint %q cannot access %s: %s", e.Endpoint, e.Path, e.Reason)
}

// IsDenied returns true if the error is a DeniedError.
func IsDenied(err error) bool {
	var denied *DeniedError
	return errors.As(err, &denied)
}

// Checker applies a Policy.
type Checker struct {
	policy Policy
}

// NewChecker returns a Checker for p. A nil policy allows every directory.
func NewChecker(p Policy) *Checker {
	return &Checker{policy: p}
}

// Check returns nil when localPath is an existing directory the process can
// read and write, inside one of the endpoint's allowed roots.
func (c *Checker) Check(endpoint, localPath string) error {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", localPath, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return &DeniedError{Endpoint: endpoint, Path: abs, Reason: "path does not exist"}
	}
	if !info.IsDir() {
		return &DeniedError{Endpoint: endpoint, Path: abs, Reason: "not a directory"}
	}
	if err := readWritable(abs); err != nil {
		return &DeniedError{Endpoint: endpoint, Path: abs, Reason: err.Error()}
	}

	roots, restricted := c.policy[endpoint]
	if !restricted {
		return nil
	}
	for _, root := range roots {
		if within(abs, root) {
			return nil
		}
	}
	return &DeniedError{
		Endpoint: endpoint,
		Path:     abs,
		Reason:   fmt.Sprintf("outside allowed roots %s", strings.Join(roots, ", ")),
	}
}

func within(path, root string) bool {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(rootAbs, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
