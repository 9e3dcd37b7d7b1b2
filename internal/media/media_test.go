package media

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	t.Parallel()

	mimeType, err := Inspect(testutil.SmallGIF)
	require.NoError(t, err)
	assert.Equal(t, "image/gif", mimeType)

	mimeType, err = Inspect(testutil.PNG(4, 4))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)

	_, err = Inspect([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = Inspect(testutil.SmallGIF[:20])
	assert.ErrorIs(t, err, ErrNotAnImage)

	_, err = Inspect(nil)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestPreview_ShrinksLargeImages(t *testing.T) {
	t.Parallel()

	data, err := Preview(testutil.PNG(1280, 320))
	require.NoError(t, err)
	mimeType, err := Inspect(data)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimeType)
}

func TestValidFilename(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"small.gif":            "small.gif",
		"my photo.png":         "my_photo.png",
		"../../etc/passwd":     "passwd",
		`C:\Users\me\cat.jpg`:  "cat.jpg",
		"фото.gif":             "image.gif",
		"":                     "image",
		"we!rd$name(1).jpeg":   "werdname1.jpeg",
	}
	for in, want := range cases {
		assert.Equalf(t, want, ValidFilename(in), "ValidFilename(%q)", in)
	}
}

func TestLocalStorage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	s := NewLocalStorage(root, "/media")

	require.NoError(t, s.Save(ctx, "posts/small.gif", testutil.SmallGIF, "image/gif"))
	exists, err := s.Exists(ctx, "posts/small.gif")
	require.NoError(t, err)
	assert.True(t, exists)
	_, err = os.Stat(filepath.Join(root, "posts", "small.gif"))
	assert.NoError(t, err)
	assert.Equal(t, "/media/posts/small.gif", s.URL("posts/small.gif"))
	assert.Equal(t, "", s.URL(""))

	require.NoError(t, s.Delete(ctx, "posts/small.gif"))
	require.NoError(t, s.Delete(ctx, "posts/small.gif"))
	exists, err = s.Exists(ctx, "posts/small.gif")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.ErrorIs(t, s.Save(ctx, "../escape.gif", nil, ""), errInvalidKey)
}

func TestMinioStorage_URL(t *testing.T) {
	t.Parallel()

	cfg := MinioConfig{Endpoint: "minio.local:9000", Bucket: "yatube-media", UseSSL: true}
	client, err := minio.New(cfg.Endpoint, &minio.Options{Secure: true})
	require.NoError(t, err)

	s := newMinioStorage(client, cfg)
	assert.Equal(t, "https://minio.local:9000/yatube-media/posts/small.gif", s.URL("posts/small.gif"))
}

func TestService_StorePostImage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewLocalStorage(t.TempDir(), "/media/")
	svc := NewService(store, 1, true)

	first, err := svc.StorePostImage(ctx, "small.gif", testutil.SmallGIF)
	require.NoError(t, err)
	assert.Equal(t, "posts/small.gif", first.Key)
	assert.Equal(t, "posts/previews/small.gif.webp", first.PreviewKey)
	assert.Equal(t, "/media/posts/small.gif", svc.URL(first.Key))

	second, err := svc.StorePostImage(ctx, "small.gif", testutil.SmallGIF)
	require.NoError(t, err)
	assert.NotEqual(t, first.Key, second.Key)
	assert.True(t, strings.HasPrefix(second.Key, "posts/small_"))
	assert.True(t, strings.HasSuffix(second.Key, ".gif"))

	_, err = svc.StorePostImage(ctx, "notes.txt", []byte("plain text"))
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	tooBig := make([]byte, 1024*1024+1)
	_, err = svc.StorePostImage(ctx, "big.gif", tooBig)
	assert.True(t, models.IsValidation(err))

	svc.Remove(ctx, first.Key, first.PreviewKey, "")
	exists, err := store.Exists(ctx, first.Key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestService_PreviewsFollowImageKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewLocalStorage(t.TempDir(), "/media/")
	svc := NewService(store, 1, true)

	gif, err := svc.StorePostImage(ctx, "a.gif", testutil.SmallGIF)
	require.NoError(t, err)
	png, err := svc.StorePostImage(ctx, "a.png", testutil.PNG(4, 4))
	require.NoError(t, err)

	assert.Equal(t, "posts/a.gif", gif.Key)
	assert.Equal(t, "posts/a.png", png.Key)
	require.NotEmpty(t, gif.PreviewKey)
	require.NotEmpty(t, png.PreviewKey)
	assert.NotEqual(t, gif.PreviewKey, png.PreviewKey)

	svc.Remove(ctx, png.Key, png.PreviewKey)
	exists, err := store.Exists(ctx, gif.PreviewKey)
	require.NoError(t, err)
	assert.True(t, exists)
}
