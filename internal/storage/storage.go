// Package storage forwards uploaded images to object storage and returns their
// public URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 << 20

var (
	ErrTooLarge       = errors.New("file exceeds maximum size")
	ErrNotImage       = errors.New("file is not an image")
	ErrServiceAccount = errors.New("invalid service account")
)

// Uploader stores an object and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

var extensions = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/bmp":     ".bmp",
	"image/x-icon":  ".ico",
}

// ValidateImage checks both the declared content type and the sniffed one. head
// is the first bytes of the file (up to 512). The sniffed type is returned.
// SVG is refused: objects are served publicly and SVG can carry scripts.
func ValidateImage(declared string, head []byte) (string, error) {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if !strings.HasPrefix(declared, "image/") {
		return "", fmt.Errorf("%w: declared %q", ErrNotImage, declared)
	}
	if strings.HasPrefix(declared, "image/svg") {
		return "", fmt.Errorf("%w: svg is not accepted", ErrNotImage)
	}
	sniffed := http.DetectContentType(head)
	if _, ok := extensions[sniffed]; !ok {
		return "", fmt.Errorf("%w: content is %s", ErrNotImage, sniffed)
	}
	return sniffed, nil
}

// ObjectName builds a unique object key under prefix for contentType.
func ObjectName(prefix, contentType string) string {
	name := uuid.NewString() + extensions[contentType]
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
