// Package storage persists decoded recipe images. Two backends exist: S3
// (or any S3-compatible endpoint) and a local media directory for
// development.
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store saves image bytes and returns the public URL of the stored object.
type Store interface {
	Save(ctx context.Context, data []byte, ext string) (string, error)
}

// DecodeBase64Image parses a "data:image/<ext>;base64,<payload>" data URI
// and returns the raw bytes and file extension.
func DecodeBase64Image(dataURI string) (data []byte, ext string, err error) {
	if !strings.HasPrefix(dataURI, "data:image/") {
		return nil, "", fmt.Errorf("not an image data URI")
	}
	meta, payload, found := strings.Cut(dataURI, ";base64,")
	if !found {
		return nil, "", fmt.Errorf("missing base64 payload")
	}
	ext = strings.TrimPrefix(meta, "data:image/")
	if ext == "" {
		return nil, "", fmt.Errorf("missing image format")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return data, ext, nil
}

// LocalStore writes images under a media directory. Intended for
// development and tests.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, data []byte, ext string) (string, error) {
	name := fmt.Sprintf("%s.%s", uuid.NewString(), ext)
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.baseURL + "/" + name, nil
}
