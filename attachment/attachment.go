// Package attachment holds the composer draft and the validation guard that
// every image must pass before it can be attached to a message.
package attachment

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageSize is the largest accepted image in bytes (5 MiB)
const MaxImageSize = 5 * 1024 * 1024

var allowedMIMEs = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// ValidationError describes why an attachment was rejected. Message is
// written for the user.
type ValidationError struct {
	Name    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Name, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks a declared MIME type and size against the upload rules
func Validate(mimeType string, size int64) error {
	if _, ok := allowedMIMEs[strings.ToLower(mimeType)]; !ok {
		return &ValidationError{
			Message: fmt.Sprintf("unsupported image type %q (supported: JPEG, PNG, WebP)", mimeType),
		}
	}
	if size <= 0 {
		return &ValidationError{Message: "image file is empty"}
	}
	if size > MaxImageSize {
		return &ValidationError{
			Message: fmt.Sprintf("image is %s, the limit is 5 MB", formatSize(size)),
		}
	}
	return nil
}

// Image is a validated, not-yet-sent image
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// NewImage validates raw bytes and wraps them as an Image
func NewImage(name string, data []byte) (*Image, error) {
	mimeType := mimetype.Detect(data).String()
	if err := Validate(mimeType, int64(len(data))); err != nil {
		if ve, ok := err.(*ValidationError); ok {
			ve.Name = name
		}
		return nil, err
	}

	return &Image{
		Name:     name,
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// Load reads and validates an image file. The size is checked before the
// file is read so oversized files are rejected cheaply.
func Load(path string) (*Image, error) {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, &ValidationError{Name: name, Message: "file not found", Err: err}
	}
	if info.IsDir() {
		return nil, &ValidationError{Name: name, Message: "is a directory"}
	}
	if info.Size() > MaxImageSize {
		return nil, &ValidationError{
			Name:    name,
			Message: fmt.Sprintf("image is %s, the limit is 5 MB", formatSize(info.Size())),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ValidationError{Name: name, Message: "file could not be read", Err: err}
	}

	return NewImage(name, data)
}

// Preview returns the image as a data URI
func (i *Image) Preview() string {
	return "data:" + i.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// Size returns the image size in bytes
func (i *Image) Size() int {
	return len(i.Data)
}

func formatSize(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
