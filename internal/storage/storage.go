package storage

import (
	"io"
	"time"
)

// Store keeps uploaded spreadsheets on disk between the upload call and the
// processing run. Files are addressed by upload id plus original filename,
// never by a caller-supplied path.
type Store interface {
	// Save writes the spreadsheet for an upload and returns its path
	Save(uploadID int64, filename string, src io.Reader) (string, error)

	// Path is where an upload's spreadsheet lives. The file may be gone.
	Path(uploadID int64, filename string) string

	// Exists reports whether the stored file is still on disk
	Exists(uploadID int64, filename string) bool

	// Remove deletes the stored file. Removing a missing file is not an error.
	Remove(uploadID int64, filename string) error

	// SweepOlderThan deletes stored files not modified since the cutoff and
	// returns how many were removed
	SweepOlderThan(cutoff time.Time) (int, error)
}
