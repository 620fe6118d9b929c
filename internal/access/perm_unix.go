//go:build !windows

package access

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func readWritable(path string) error {
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return fmt.Errorf("not readable and writable: %w", err)
	}
	return nil
}
