package uploads

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/AthlureSolutions/sitelure/internal/config"
)

// pngHeader is enough for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newStore(t *testing.T, maxMB int64) *Store {
	t.Helper()
	s, err := New(config.StorageConfig{UploadsDir: filepath.Join(t.TempDir(), "uploads"), MaxUploadMB: maxMB})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSavePNG(t *testing.T) {
	s := newStore(t, 1)

	ref, err := s.Save("image", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !regexp.MustCompile(`^/uploads/image-\d+-\d+\.png$`).MatchString(ref) {
		t.Errorf("unexpected reference %q", ref)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(), strings.TrimPrefix(ref, URLPrefix)))
	if err != nil {
		t.Fatalf("stored file: %v", err)
	}
	if !bytes.Equal(data, pngHeader) {
		t.Error("stored content differs")
	}
}

func TestSaveRejects(t *testing.T) {
	s := newStore(t, 1)
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"text", []byte("just some text"), ErrNotImage},
		{"svg", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`), ErrNotImage},
		{"empty", nil, ErrEmpty},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, 1<<20)...), ErrTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Save("image", bytes.NewReader(tt.data)); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 0 {
		t.Errorf("rejected uploads must not be stored, found %d files", len(entries))
	}
}

func TestFieldNameSanitised(t *testing.T) {
	s := newStore(t, 1)
	ref, err := s.Save("../logo", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(ref, "/uploads/logo-") {
		t.Errorf("unexpected reference %q", ref)
	}
}
