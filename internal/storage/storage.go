package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/trafficwatch/problem-service/internal/config"
)

// UploadURLPrefix is the public path prefix under which stored images are
// addressed. Image references carrying it resolve to the local upload dir.
const UploadURLPrefix = "/uploads/"

// ErrUnsupportedReference marks image references that are neither local
// uploads nor absolute http(s) URLs.
var ErrUnsupportedReference = errors.New("unsupported image reference")

// ErrImageUnavailable marks a reference that looked valid but could not be read.
var ErrImageUnavailable = errors.New("image unavailable")

// ErrUnsupportedImageFormat marks uploads that are not an accepted image type.
var ErrUnsupportedImageFormat = errors.New("unsupported image format")

// ErrUploadTooLarge marks uploads over the configured size cap.
var ErrUploadTooLarge = errors.New("upload too large")

// allowedImageExts maps accepted upload MIME types to stored extensions.
var allowedImageExts = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Store manages the local upload directory and retrieval of problem images,
// local or remote.
type Store struct {
	dir      string
	maxBytes int64
	client   *http.Client
}

// NewStore creates the upload directory if needed and returns a store handle.
func NewStore(cfg config.StorageConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{
		dir:      cfg.UploadDir,
		maxBytes: cfg.MaxUploadBytes,
		client:   &http.Client{Timeout: cfg.ImageFetchTimeout()},
	}, nil
}

// Dir returns the upload directory for static serving.
func (s *Store) Dir() string {
	return s.dir
}

// MaxUploadBytes returns the configured upload size cap.
func (s *Store) MaxUploadBytes() int64 {
	return s.maxBytes
}

// SaveUpload persists an uploaded image and returns its public URL. The
// content type is sniffed from the data, not trusted from the request.
func (s *Store) SaveUpload(data []byte) (string, error) {
	if int64(len(data)) > s.maxBytes {
		return "", ErrUploadTooLarge
	}
	ext, ok := allowedImageExts[http.DetectContentType(data)]
	if !ok {
		return "", ErrUnsupportedImageFormat
	}

	filename := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return UploadURLPrefix + filename, nil
}

// Fetch resolves an image reference to raw bytes. Local upload paths are read
// from disk, absolute http(s) URLs are fetched with the configured timeout and
// anything else fails with ErrUnsupportedReference. Callers treat every error
// as "skip this image".
func (s *Store) Fetch(ctx context.Context, ref string) ([]byte, error) {
	switch {
	case strings.HasPrefix(ref, UploadURLPrefix):
		return s.readLocal(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return s.fetchRemote(ctx, ref)
	default:
		return nil, ErrUnsupportedReference
	}
}

func (s *Store) readLocal(ref string) ([]byte, error) {
	// filepath.Base strips any traversal the reference might smuggle in.
	name := filepath.Base(strings.TrimPrefix(ref, UploadURLPrefix))
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	return data, nil
}

func (s *Store) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrImageUnavailable, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageUnavailable, err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: remote image too large", ErrImageUnavailable)
	}
	return data, nil
}
