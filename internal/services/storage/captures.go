package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gocv.io/x/gocv"
)

// CaptureStore persists the source frame of each accepted detection under
// <root>/<year>/<species>/<HHMMSS>.jpg. The frame handed to Save must be the
// unannotated one; overlays are drawn only on the live stream.
type CaptureStore struct {
	root string
}

func NewCaptureStore(root string) *CaptureStore {
	return &CaptureStore{root: root}
}

// Root returns the capture tree root directory.
func (s *CaptureStore) Root() string {
	return s.root
}

// Save writes frame as a JPEG and returns its path relative to the capture
// root, using forward slashes. Two saves of the same species within the same
// second overwrite each other; the cooldown window makes that rare enough to
// live with.
func (s *CaptureStore) Save(frame gocv.Mat, species string, t time.Time) (string, error) {
	relPath := CapturePath(species, t)
	fullPath := filepath.Join(s.root, filepath.FromSlash(relPath))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create capture directory: %w", err)
	}

	if ok := gocv.IMWrite(fullPath, frame); !ok {
		return "", fmt.Errorf("failed to write capture %s", fullPath)
	}
	return relPath, nil
}

// CapturePath derives the relative storage path for a capture taken at t.
func CapturePath(species string, t time.Time) string {
	return fmt.Sprintf("%s/%s/%s.jpg", t.Format("2006"), species, t.Format("150405"))
}
