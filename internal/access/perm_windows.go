//go:build windows

package access

import (
	"fmt"
	"os"
)

func readWritable(path string) error {
	f, err := os.CreateTemp(path, ".flowlog-access-*")
	if err != nil {
		return fmt.Errorf("not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
