package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer replaces files wholesale: content goes to a temp file in the same
// directory which is then renamed over the destination.
type Writer struct {
	perm os.FileMode
}

// NewWriter creates a writer producing files with mode 0644.
func NewWriter() *Writer {
	return &Writer{perm: 0644}
}

// WriteJSON writes data as indented JSON followed by a newline
func (w *Writer) WriteJSON(path string, data any) error {
	content, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON for '%s': %w", path, err)
	}

	return w.WriteBytes(path, append(content, '\n'))
}

// WriteBytes writes raw bytes to the specified path
func (w *Writer) WriteBytes(path string, data []byte) error {
	return w.WriteFile(path, data, w.perm)
}

// WriteFile writes data to path with the given permissions.
func (w *Writer) WriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for '%s': %w", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write '%s': %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file for '%s': %w", path, err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions on '%s': %w", path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace '%s': %w", path, err)
	}

	return nil
}
