package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/google/uuid"
)

const (
	// PostsDir is the key prefix of post images.
	PostsDir    = "posts/"
	previewsDir = "posts/previews/"

	DefaultImageMaxUploadSizeMB = 5
)

var invalidNameChars = regexp.MustCompile(`[^-\w.]`)

// Stored describes a saved upload.
type Stored struct {
	Key        string
	PreviewKey string
}

// Service validates uploads and writes them to a Storage.
type Service struct {
	store    Storage
	maxBytes int64
	previews bool
}

// NewService returns a media service; maxUploadMB <= 0 falls back to the default limit.
func NewService(store Storage, maxUploadMB int, previews bool) *Service {
	if maxUploadMB <= 0 {
		maxUploadMB = DefaultImageMaxUploadSizeMB
	}
	return &Service{
		store:    store,
		maxBytes: int64(maxUploadMB) * 1024 * 1024,
		previews: previews,
	}
}

// URL resolves a stored key to its public address.
func (s *Service) URL(key string) string {
	return s.store.URL(key)
}

// StorePostImage validates content and saves it as posts/<name>, picking a
// free name when the original one is taken.
func (s *Service) StorePostImage(ctx context.Context, filename string, content []byte) (Stored, error) {
	if int64(len(content)) > s.maxBytes {
		return Stored{}, models.NewFieldValidationError(map[string][]string{
			"image": {fmt.Sprintf("File too large (max %dMB).", s.maxBytes/(1024*1024))},
		})
	}
	mimeType, err := Inspect(content)
	if err != nil {
		return Stored{}, models.NewFieldValidationError(map[string][]string{"image": {formMessage(err)}})
	}

	key, err := s.availableKey(ctx, PostsDir+ValidFilename(filename))
	if err != nil {
		return Stored{}, models.NewInternalError(err)
	}
	if err := s.store.Save(ctx, key, content, mimeType); err != nil {
		return Stored{}, models.NewInternalError(err)
	}
	stored := Stored{Key: key}

	if s.previews {
		stored.PreviewKey = s.storePreview(ctx, key, content)
	}
	return stored, nil
}

// storePreview writes a WebP preview at posts/previews/<image name>.webp. Failures only cost the preview.
func (s *Service) storePreview(ctx context.Context, key string, content []byte) string {
	data, err := Preview(content)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "preview generation failed", "key", key, "error", err)
		return ""
	}
	previewKey, err := s.availableKey(ctx, previewsDir+path.Base(key)+".webp")
	if err != nil {
		middleware.Logger.WarnContext(ctx, "preview name lookup failed", "key", key, "error", err)
		return ""
	}
	if err := s.store.Save(ctx, previewKey, data, "image/webp"); err != nil {
		middleware.Logger.WarnContext(ctx, "preview upload failed", "key", previewKey, "error", err)
		return ""
	}
	return previewKey
}

// Remove deletes stored keys, ignoring empty ones.
func (s *Service) Remove(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if err := s.store.Delete(ctx, k); err != nil {
			middleware.Logger.WarnContext(ctx, "media delete failed", "key", k, "error", err)
		}
	}
}

func (s *Service) availableKey(ctx context.Context, key string) (string, error) {
	candidate := key
	for i := 0; i < 10; i++ {
		exists, err := s.store.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		ext := path.Ext(key)
		candidate = strings.TrimSuffix(key, ext) + "_" + uuid.NewString()[:8] + ext
	}
	return "", fmt.Errorf("no free name for %q", key)
}

// ValidFilename reduces an uploaded filename to a safe base name.
func ValidFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = invalidNameChars.ReplaceAllString(name, "")
	if name == "." || name == ".." {
		name = ""
	}
	if strings.TrimSuffix(name, path.Ext(name)) == "" {
		return "image" + path.Ext(name)
	}
	return name
}

func formMessage(err error) string {
	if errors.Is(err, ErrUnsupportedImage) {
		return "Unsupported image format."
	}
	return "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
}
