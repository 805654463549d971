package utils

import (
	"fmt"
	"os"
)

// CreateFolder creates a directory (and any missing parents) if it does not
// already exist.
func CreateFolder(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("failed to create folder %s: %w", path, err)
	}
	return nil
}
