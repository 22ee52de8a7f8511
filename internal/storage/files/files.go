// Package files stores uploaded attachments on disk under generated
// names. The user-supplied filename is never used as a path, which rules
// out traversal and collisions; it survives only as metadata.
package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxUploadSize is the hard cap on a single attachment.
const MaxUploadSize = 10 << 20

var (
	// ErrTooLarge is returned for uploads above MaxUploadSize.
	ErrTooLarge = errors.New("file exceeds the 10 MiB limit")
	// ErrUnsupportedType is returned when neither the extension nor the
	// declared MIME type is on the allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// allowedTypes mirrors the upload allow-list: a file passes when its
// extension or its declared MIME type contains one of these.
var allowedTypes = []string{
	"jpeg", "jpg", "png", "pdf", "doc", "docx", "xls", "xlsx", "txt", "zip", "rar",
}

// Store writes and removes attachment files in one managed directory.
type Store struct {
	dir string
}

// New creates the upload directory if needed and returns the store.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty upload directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Allowed reports whether a file may be uploaded, judged by the original
// filename's extension or the declared MIME type.
func Allowed(originalName, mimeType string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(originalName)), ".")
	mime := strings.ToLower(mimeType)
	for _, t := range allowedTypes {
		if ext == t || strings.Contains(mime, t) {
			return true
		}
	}
	return false
}

// generateName builds a collision-resistant stored filename: timestamp,
// random suffix and the original extension.
func generateName(originalName string) string {
	return fmt.Sprintf("%d-%s%s",
		time.Now().UnixNano(),
		uuid.NewString()[:8],
		strings.ToLower(filepath.Ext(originalName)))
}

// Save streams r to disk under a generated name and returns that name with
// the byte count. Uploads beyond MaxUploadSize are rejected and the
// partial file is removed.
func (s *Store) Save(originalName string, r io.Reader) (string, int64, error) {
	stored := generateName(originalName)
	path := filepath.Join(s.dir, stored)

	f, err := os.Create(path)
	if err != nil {
		return "", 0, fmt.Errorf("create file: %w", err)
	}

	// Copy one byte past the cap so an oversized stream is detectable.
	n, err := io.Copy(f, io.LimitReader(r, MaxUploadSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", 0, fmt.Errorf("write file: %w", err)
	}
	if n > MaxUploadSize {
		_ = os.Remove(path)
		return "", 0, ErrTooLarge
	}
	return stored, n, nil
}

// Path resolves a stored filename inside the managed directory.
func (s *Store) Path(stored string) string {
	return filepath.Join(s.dir, filepath.Base(stored))
}

// Exists reports whether the stored file is still on disk.
func (s *Store) Exists(stored string) bool {
	_, err := os.Stat(s.Path(stored))
	return err == nil
}

// Remove deletes a stored file. A missing file is not an error; removal
// is best-effort by contract.
func (s *Store) Remove(stored string) error {
	err := os.Remove(s.Path(stored))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}
