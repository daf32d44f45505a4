package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/verte-zerg/shotdrill/internal/model"
)

// WriteSessionFile writes snap as CSV into dir and returns the file path.
func WriteSessionFile(dir string, snap model.SessionSnapshot) (path string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}
	path = filepath.Join(dir, FileName(snap.Shooter))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cerr)
		}
	}()
	if err := WriteSessionCSV(f, snap); err != nil {
		return "", err
	}
	return path, nil
}
