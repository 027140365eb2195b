// Package imagestore persists generated images as PNG files under a single
// directory and resolves safe paths for serving them back over HTTP.
package imagestore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"
)

var (
	ErrEmptyImage      = errors.New("no image data to save")
	ErrInvalidFilename = errors.New("invalid image filename")
)

// filenamePattern matches the names this store generates. Anything else is
// rejected when resolving, which also blocks path traversal.
var filenamePattern = regexp.MustCompile(`^image_[0-9]{8}_[0-9]{6}(_[0-9]+)?\.png$`)

// Store writes generated images to a directory with timestamped names.
type Store struct {
	dir string
}

// New creates the image directory if needed and returns a Store.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "generated_images"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory images are stored in.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes image bytes to a new timestamped PNG file and returns its
// filename. Same-second collisions get a numeric suffix.
func (s *Store) Save(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}

	base := fmt.Sprintf("image_%s", time.Now().Format("20060102_150405"))
	filename := base + ".png"
	for n := 1; ; n++ {
		if _, err := os.Stat(filepath.Join(s.dir, filename)); errors.Is(err, os.ErrNotExist) {
			break
		}
		filename = fmt.Sprintf("%s_%d.png", base, n)
	}

	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return filename, nil
}

// Resolve validates a filename and returns its path inside the store.
func (s *Store) Resolve(filename string) (string, error) {
	if !filenamePattern.MatchString(filename) {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	path := filepath.Join(s.dir, filename)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("image not found: %w", err)
	}
	return path, nil
}
