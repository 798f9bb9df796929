package models

import "strings"

// Document is the input to the extraction pipeline: the raw text recovered
// from an upload, plus the original image when one is available for
// vision-capable models.
type Document struct {
	FileName string
	Text     string
	Image    []byte
	MIMEType string
}

// HasText reports whether any non-blank text was recovered.
func (d Document) HasText() bool {
	return strings.TrimSpace(d.Text) != ""
}

// IsImage reports whether the document carries image bytes.
func (d Document) IsImage() bool {
	return len(d.Image) > 0 && strings.HasPrefix(d.MIMEType, "image/")
}
