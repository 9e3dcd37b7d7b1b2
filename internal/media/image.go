package media

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif" // Register GIF decoder
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	// PreviewMaxSize bounds the longer side of a generated preview.
	PreviewMaxSize = 640
	WebPQuality    = 70
)

var (
	ErrNotAnImage       = errors.New("not a valid image")
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// Inspect checks that content is a complete image of a supported format and
// returns its MIME type.
func Inspect(content []byte) (string, error) {
	if len(content) == 0 {
		return "", ErrNotAnImage
	}
	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return "", ErrNotAnImage
	}
	_, format, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", ErrNotAnImage
	}
	mimeType := decodedFormatToMime(format)
	if mimeType == "" {
		return "", ErrUnsupportedImage
	}
	return mimeType, nil
}

// Preview decodes content and returns a WebP copy no larger than PreviewMaxSize.
func Preview(content []byte) ([]byte, error) {
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, ErrNotAnImage
	}
	return encodeWebP(resizeToFit(decoded, PreviewMaxSize, PreviewMaxSize), WebPQuality)
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
