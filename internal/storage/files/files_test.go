package files

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestAllowed(t *testing.T) {
	cases := []struct {
		name string
		mime string
		want bool
	}{
		{"report.pdf", "application/pdf", true},
		{"photo.JPG", "image/jpeg", true},
		{"notes.txt", "text/plain; charset=utf-8", true},
		{"archive.rar", "application/octet-stream", true},
		{"virus.exe", "application/octet-stream", false},
		{"script.sh", "text/x-shellscript", false},
		{"noextension", "application/zip", true},
		{"noextension", "", false},
	}
	for _, tc := range cases {
		if got := Allowed(tc.name, tc.mime); got != tc.want {
			t.Errorf("Allowed(%q, %q) = %v, want %v", tc.name, tc.mime, got, tc.want)
		}
	}
}

func TestSaveAndRemove(t *testing.T) {
	s := newTestStore(t)

	content := []byte("hello attachment")
	stored, size, err := s.Save("report.pdf", bytes.NewReader(content))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}
	if !strings.HasSuffix(stored, ".pdf") {
		t.Errorf("stored name %q should keep the original extension", stored)
	}
	if stored == "report.pdf" {
		t.Error("stored name must not be the original filename")
	}
	if !s.Exists(stored) {
		t.Fatal("saved file not found on disk")
	}

	got, err := os.ReadFile(s.Path(stored))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("file content changed on disk")
	}

	if err := s.Remove(stored); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Exists(stored) {
		t.Error("file still on disk after Remove")
	}
	// Removing again stays silent; cleanup is best-effort.
	if err := s.Remove(stored); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestSaveSizeBoundary(t *testing.T) {
	s := newTestStore(t)

	exact := bytes.Repeat([]byte("a"), MaxUploadSize)
	stored, size, err := s.Save("big.txt", bytes.NewReader(exact))
	if err != nil {
		t.Fatalf("Save at exactly the limit: %v", err)
	}
	if size != MaxUploadSize {
		t.Errorf("size = %d, want %d", size, MaxUploadSize)
	}
	if err := s.Remove(stored); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	over := bytes.Repeat([]byte("a"), MaxUploadSize+1)
	if _, _, err := s.Save("toobig.txt", bytes.NewReader(over)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Save one byte over the limit: got %v, want ErrTooLarge", err)
	}

	// The oversized partial file must not linger.
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("upload dir has %d leftover files", len(entries))
	}
}

// The original filename never becomes part of the on-disk path, so a
// traversal attempt only influences the recorded extension.
func TestSaveIgnoresOriginalPath(t *testing.T) {
	s := newTestStore(t)

	stored, _, err := s.Save("../../etc/passwd.txt", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if strings.Contains(stored, "/") || strings.Contains(stored, "..") {
		t.Errorf("stored name %q leaks path components", stored)
	}
	if filepath.Dir(s.Path(stored)) != s.dir {
		t.Errorf("file stored outside the managed directory: %s", s.Path(stored))
	}
}
