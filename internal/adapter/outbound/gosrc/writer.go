package gosrc

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// FileWriter implements the usecase.OutputWriter interface, resolving
// relative paths against the project root.
type FileWriter struct {
	projectRoot string
	logger      *slog.Logger
}

// NewFileWriter creates a writer rooted at projectRoot.
func NewFileWriter(projectRoot string, logger *slog.Logger) *FileWriter {
	return &FileWriter{
		projectRoot: projectRoot,
		logger:      logger.With("component", "file_writer"),
	}
}

// Write stores data at path, creating parent directories as needed.
func (w *FileWriter) Write(path string, data []byte) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.projectRoot, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	w.logger.Debug("Wrote generated source.", slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}
