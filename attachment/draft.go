package attachment

import "strings"

// Draft is the composer's unsent content: text and at most one image.
// It is never persisted.
type Draft struct {
	Text    string
	Image   *Image
	preview string
}

// Attach replaces any pending image
func (d *Draft) Attach(img *Image) {
	d.Image = img
	d.preview = ""
	if img != nil {
		d.preview = img.Preview()
	}
}

// Preview returns the data URI of the pending image, or ""
func (d *Draft) Preview() string {
	return d.preview
}

func (d *Draft) HasImage() bool {
	return d.Image != nil
}

// RemoveImage drops the pending image and its preview
func (d *Draft) RemoveImage() {
	d.Image = nil
	d.preview = ""
}

// Reset clears text and image
func (d *Draft) Reset() {
	d.Text = ""
	d.RemoveImage()
}

// IsEmpty reports whether there is nothing to send
func (d *Draft) IsEmpty() bool {
	return strings.TrimSpace(d.Text) == "" && d.Image == nil
}
