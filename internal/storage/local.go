package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Local implements Store on a single local directory
type Local struct {
	baseDir string
}

// NewLocal creates the base directory if needed and returns a Local store
func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", baseDir, err)
	}
	return &Local{baseDir: baseDir}, nil
}

// key prefixes the filename with the upload id so reuploads of the same
// spreadsheet never collide. filepath.Base strips any path the client sent.
func (s *Local) key(uploadID int64, filename string) string {
	return fmt.Sprintf("%d_%s", uploadID, filepath.Base(filename))
}

func (s *Local) Path(uploadID int64, filename string) string {
	return filepath.Join(s.baseDir, s.key(uploadID, filename))
}

func (s *Local) Save(uploadID int64, filename string, src io.Reader) (string, error) {
	path := s.Path(uploadID, filename)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

func (s *Local) Exists(uploadID int64, filename string) bool {
	_, err := os.Stat(s.Path(uploadID, filename))
	return err == nil
}

func (s *Local) Remove(uploadID int64, filename string) error {
	err := os.Remove(s.Path(uploadID, filename))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stored file: %w", err)
	}
	return nil
}

// SweepOlderThan walks the base directory and deletes regular files whose
// modification time is before the cutoff
func (s *Local) SweepOlderThan(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err != nil {
				continue
			}
			removed++
		}
	}
	return removed, nil
}
