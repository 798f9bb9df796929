// Package textsource recovers raw text from uploaded statements and
// receipts: the PDF text layer, Tesseract OCR for images, or the bytes of a
// plain text file.
package textsource

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/parsererror"
)

// DefaultMaxFileSize is the upload limit when none is configured.
const DefaultMaxFileSize int64 = 10 << 20

// Upload is a file handed to the pipeline.
type Upload struct {
	FileName string
	Data     []byte
	Password string
}

// Ext returns the lower-cased extension without the dot.
func (u Upload) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(u.FileName)), ".")
}

// Source turns an upload into a Document.
type Source interface {
	Extract(ctx context.Context, upload Upload) (models.Document, error)
}

var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"webp": "image/webp",
	"pdf":  "application/pdf",
	"txt":  "text/plain",
}

// AllowedExtensions lists the extensions Validate accepts.
func AllowedExtensions() []string {
	return []string{"png", "jpg", "jpeg", "webp", "pdf", "txt"}
}

// MIMEType returns the MIME type for an allowed extension, or "".
func MIMEType(ext string) string {
	return mimeTypes[strings.ToLower(ext)]
}

// Validate checks the extension, emptiness and size of an upload.
// maxSize <= 0 means DefaultMaxFileSize.
func Validate(u Upload, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if u.FileName == "" {
		return &parsererror.UnsupportedFileError{FileName: u.FileName, Reason: "missing file name"}
	}
	if MIMEType(u.Ext()) == "" {
		return &parsererror.UnsupportedFileError{
			FileName: u.FileName,
			Reason:   fmt.Sprintf("extension not allowed (allowed: %s)", strings.Join(AllowedExtensions(), ", ")),
		}
	}
	if len(u.Data) == 0 {
		return &parsererror.UnsupportedFileError{FileName: u.FileName, Reason: "file is empty"}
	}
	if int64(len(u.Data)) > maxSize {
		return &parsererror.UnsupportedFileError{
			FileName: u.FileName,
			Reason:   fmt.Sprintf("file is %d bytes, limit is %d", len(u.Data), maxSize),
		}
	}
	return nil
}

// Router picks a Source by file extension.
type Router struct {
	pdf     Source
	image   Source
	text    Source
	maxSize int64
	logger  logging.Logger
}

// NewRouter creates a Router. Any nil source makes that kind of upload
// unsupported.
func NewRouter(pdf, image, text Source, maxSize int64, logger logging.Logger) *Router {
	return &Router{
		pdf:     pdf,
		image:   image,
		text:    text,
		maxSize: maxSize,
		logger:  logging.OrDefault(logger),
	}
}

// Extract validates the upload and hands it to the matching source.
func (r *Router) Extract(ctx context.Context, u Upload) (models.Document, error) {
	if err := Validate(u, r.maxSize); err != nil {
		return models.Document{}, err
	}

	var src Source
	switch ext := u.Ext(); ext {
	case "pdf":
		src = r.pdf
	case "txt":
		src = r.text
	default:
		src = r.image
	}
	if src == nil {
		return models.Document{}, &parsererror.UnsupportedFileError{
			FileName: u.FileName,
			Reason:   "no reader configured for this file type",
		}
	}

	r.logger.Debug("Acquiring text",
		logging.Field{Key: logging.FieldFile, Value: u.FileName},
		logging.Field{Key: logging.FieldMIMEType, Value: MIMEType(u.Ext())})

	doc, err := src.Extract(ctx, u)
	if err != nil {
		return models.Document{}, err
	}
	if doc.FileName == "" {
		doc.FileName = u.FileName
	}
	return doc, nil
}
