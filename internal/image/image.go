// Package image converts between raw image bytes and the inline data-URL
// form that flows through the rest of the app.
package image

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	inlinePrefix = "data:"
	base64Marker = ";base64,"

	// DefaultMIME is assumed when a payload carries no usable media type.
	DefaultMIME = "image/jpeg"

	maxPhotoBytes = 20 << 20
)

// IsInline reports whether s is a self-contained data URL rather than a
// blob-store reference.
func IsInline(s string) bool {
	return strings.HasPrefix(s, inlinePrefix)
}

// Encode wraps raw bytes into an inline data URL.
func Encode(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultMIME
	}
	return inlinePrefix + mimeType + base64Marker + base64.StdEncoding.EncodeToString(data)
}

// Decode splits an inline data URL into its media type and raw bytes.
func Decode(inline string) (string, []byte, error) {
	if !IsInline(inline) {
		return "", nil, fmt.Errorf("not an inline payload: %q", truncate(inline, 32))
	}
	head, tail, ok := strings.Cut(inline, base64Marker)
	if !ok {
		return "", nil, fmt.Errorf("inline payload is not base64-encoded")
	}
	mimeType := strings.TrimPrefix(head, inlinePrefix)
	if mimeType == "" {
		mimeType = DefaultMIME
	}
	data, err := base64.StdEncoding.DecodeString(tail)
	if err != nil {
		return "", nil, fmt.Errorf("decode inline payload: %w", err)
	}
	return mimeType, data, nil
}

// Sniff determines the media type from the leading bytes.
func Sniff(data []byte) string {
	return http.DetectContentType(data)
}

// LoadFile reads an image file from disk and returns it as an inline data URL.
// Non-image content is rejected.
func LoadFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if info.Size() > maxPhotoBytes {
		return "", fmt.Errorf("photo %s is too large (%d bytes, max %d)", path, info.Size(), maxPhotoBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}

	mimeType := Sniff(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%s is not an image (detected %s)", path, mimeType)
	}
	return Encode(mimeType, data), nil
}

// ExtForMIME returns a file extension for a media type, defaulting to png.
func ExtForMIME(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}

// Saver exports inline payloads to regular image files.
type Saver struct{}

func NewSaver() *Saver {
	return &Saver{}
}

// Save decodes an inline payload and writes it to path. An empty path gets a
// timestamped filename in the current directory; a missing extension gains one
// derived from the payload's media type.
func (s *Saver) Save(inline, path string) (string, error) {
	mimeType, data, err := Decode(inline)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = GenerateFilename(mimeType, time.Now())
	} else if filepath.Ext(path) == "" {
		path = path + "." + ExtForMIME(mimeType)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

// GenerateFilename builds a timestamped export name like look-20250101-120000.png.
func GenerateFilename(mimeType string, t time.Time) string {
	return fmt.Sprintf("look-%s.%s", t.Format("20060102-150405"), ExtForMIME(mimeType))
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
