package uploads

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/config"
	"github.com/gabriel-vasile/mimetype"
)

// URLPrefix is the path uploads are served under.
const URLPrefix = "/uploads/"

var (
	// ErrNotImage is returned for content that does not sniff as a raster image.
	ErrNotImage = errors.New("only image files are allowed")
	// ErrTooLarge is returned when the upload exceeds the configured limit.
	ErrTooLarge = errors.New("file exceeds the upload size limit")
	// ErrEmpty is returned for zero-byte uploads.
	ErrEmpty = errors.New("file is empty")
)

var fieldPattern = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// Store keeps uploaded images in the shared uploads area the materializer
// copies assets from.
type Store struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

// New creates the uploads directory if needed.
func New(cfg config.StorageConfig) (*Store, error) {
	dir, err := filepath.Abs(cfg.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 5
	}
	return &Store{dir: dir, maxBytes: maxMB << 20, now: time.Now}, nil
}

// Dir returns the absolute uploads directory.
func (s *Store) Dir() string { return s.dir }

// MaxBytes returns the upload size limit.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Save stores an image and returns its reference, e.g.
// "/uploads/image-1718000000000-123456789.png". field names the form field
// and prefixes the file name. The content type is sniffed, never trusted.
func (s *Store) Save(field string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	// SVG is refused: it is served from the API origin and may carry script.
	if !strings.HasPrefix(mt.String(), "image/") || mt.Is("image/svg+xml") {
		return "", ErrNotImage
	}

	name, err := s.fileName(field, mt.Extension())
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.dir, name)
	f, err := os.OpenFile(p, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(p)
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(p)
		return "", fmt.Errorf("write upload: %w", err)
	}
	return URLPrefix + name, nil
}

func (s *Store) fileName(field, ext string) (string, error) {
	field = fieldPattern.ReplaceAllString(field, "")
	if field == "" {
		field = "image"
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1e9))
	if err != nil {
		return "", fmt.Errorf("random file name: %w", err)
	}
	return fmt.Sprintf("%s-%d-%d%s", field, s.now().UnixMilli(), n.Int64(), ext), nil
}
