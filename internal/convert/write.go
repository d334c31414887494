package convert

import (
	"fmt"
	"os"
	"path/filepath"
)

// writeOutput writes data to path, creating missing parent directories.
func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 -- published site content
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readSource(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the scanned source directory
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
