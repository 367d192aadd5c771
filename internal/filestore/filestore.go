package filestore

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Store writes uploaded documents under a private root directory that is not
// web-served. Relative paths are persisted in the database; absolute paths
// never leave this package.
type Store struct {
	root string
}

var ErrUnsafePath = errors.New("unsafe file path")

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func New(root string) *Store {
	return &Store{root: root}
}

// SanitizeFilename replaces anything outside [a-zA-Z0-9._-] and prefixes a
// timestamp so re-uploads never collide.
func SanitizeFilename(name string) string {
	base := filepath.Base(name)
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), unsafeChars.ReplaceAllString(base, "_"))
}

// CleanRelative strips ".." segments and leading slashes before joining to
// the private root.
func CleanRelative(rel string) (string, error) {
	rel = strings.TrimLeft(rel, "/\\")
	cleaned := path.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") {
		return "", ErrUnsafePath
	}
	return cleaned, nil
}

// SaveDocument writes data under documents/<kycID>/<filename> and returns the
// stored relative path.
func (s *Store) SaveDocument(kycID, filename string, data []byte) (string, error) {
	rel, err := CleanRelative(path.Join("documents", kycID, filename))
	if err != nil {
		return "", err
	}
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, data, 0o640); err != nil {
		return "", err
	}
	return rel, nil
}

// Open reads a previously stored relative path.
func (s *Store) Open(rel string) ([]byte, error) {
	cleaned, err := CleanRelative(rel)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(cleaned)))
}
