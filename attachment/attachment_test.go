package attachment

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// jpegBytes returns a buffer of n bytes with a JPEG signature
func jpegBytes(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return data
}

func pngBytes(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'})
	return data
}

func gifBytes(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte("GIF89a"))
	return data
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mimeType    string
		size        int64
		expectError bool
	}{
		{"jpeg at the limit", "image/jpeg", 5242880, false},
		{"jpeg one byte over", "image/jpeg", 5242881, true},
		{"png small", "image/png", 1024, false},
		{"webp small", "image/webp", 1024, false},
		{"gif small", "image/gif", 10, true},
		{"gif huge", "image/gif", 50 * 1024 * 1024, true},
		{"empty file", "image/png", 0, true},
		{"pdf", "application/pdf", 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.mimeType, tt.size)
			if tt.expectError && err == nil {
				t.Error("expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			var ve *ValidationError
			if err != nil && !errors.As(err, &ve) {
				t.Errorf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestNewImageSniffsContent(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		mimeType    string
		expectError bool
	}{
		{"jpeg at the limit", jpegBytes(MaxImageSize), "image/jpeg", false},
		{"jpeg over the limit", jpegBytes(MaxImageSize + 1), "", true},
		{"png", pngBytes(256), "image/png", false},
		{"gif", gifBytes(256), "", true},
		{"plain text", []byte("hello there"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := NewImage("photo", tt.data)
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.HasPrefix(err.Error(), "photo: ") {
					t.Errorf("error should name the file, got %q", err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.MIMEType != tt.mimeType {
				t.Errorf("MIMEType = %q, want %q", img.MIMEType, tt.mimeType)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	okPath := filepath.Join(dir, "nails.png")
	if err := os.WriteFile(okPath, pngBytes(512), 0600); err != nil {
		t.Fatal(err)
	}
	img, err := Load(okPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Name != "nails.png" || img.Size() != 512 {
		t.Errorf("unexpected image: name=%q size=%d", img.Name, img.Size())
	}
	if !strings.HasPrefix(img.Preview(), "data:image/png;base64,") {
		t.Errorf("unexpected preview prefix: %.30s", img.Preview())
	}

	bigPath := filepath.Join(dir, "big.jpg")
	if err := os.WriteFile(bigPath, jpegBytes(MaxImageSize+1), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bigPath); err == nil {
		t.Error("expected oversized file to be rejected")
	}

	if _, err := Load(filepath.Join(dir, "missing.png")); err == nil {
		t.Error("expected missing file to be rejected")
	}
}

func TestDraft(t *testing.T) {
	var d Draft
	if !d.IsEmpty() {
		t.Error("zero draft should be empty")
	}

	d.Text = "   "
	if !d.IsEmpty() {
		t.Error("whitespace-only draft should be empty")
	}

	img, err := NewImage("a.png", pngBytes(64))
	if err != nil {
		t.Fatal(err)
	}
	d.Attach(img)
	if d.IsEmpty() || !d.HasImage() || d.Preview() == "" {
		t.Error("draft with image should not be empty and should carry a preview")
	}

	d.RemoveImage()
	if d.HasImage() || d.Preview() != "" {
		t.Error("RemoveImage should clear image and preview")
	}

	d.Text = "hello"
	d.Attach(img)
	d.Reset()
	if !d.IsEmpty() {
		t.Error("Reset should clear the draft")
	}
}
