// Package media stores uploaded post images on the local filesystem or in MinIO.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"yatube/internal/config"
)

// Storage persists media files under slash-separated keys such as "posts/small.gif".
type Storage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

var errInvalidKey = errors.New("invalid media key")

// NewStorage builds the backend selected by MEDIA_BACKEND.
func NewStorage(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.MediaBackend {
	case "minio":
		return NewMinioStorage(ctx, MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	case "local", "":
		return NewLocalStorage(cfg.MediaRoot, cfg.MediaURL), nil
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.MediaBackend)
	}
}

// cleanKey rejects keys that would escape the media root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.TrimSpace(key))[1:]
	if k == "" || k != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("%w: %q", errInvalidKey, key)
	}
	return k, nil
}

// LocalStorage keeps files below a root directory and serves them under a URL prefix.
type LocalStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage returns a filesystem storage rooted at root.
func NewLocalStorage(root, baseURL string) *LocalStorage {
	if baseURL == "" {
		baseURL = "/media/"
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStorage{root: root, baseURL: baseURL}
}

// Root is the directory files are written under.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) Save(_ context.Context, key string, data []byte, _ string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	full := filepath.Join(s.root, filepath.FromSlash(k))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("create media dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o640); err != nil {
		return fmt.Errorf("write media file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(filepath.Join(s.root, filepath.FromSlash(k)))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(k)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStorage) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + strings.TrimPrefix(key, "/")
}
