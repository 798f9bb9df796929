package textsource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/parsererror"
)

// PDFText reads the text layer of a PDF, unlocking it with the upload's
// password when the document is encrypted.
type PDFText struct {
	logger logging.Logger
}

// NewPDFText creates a PDF text source.
func NewPDFText(logger logging.Logger) *PDFText {
	return &PDFText{logger: logging.OrDefault(logger)}
}

func (p *PDFText) Extract(ctx context.Context, u Upload) (models.Document, error) {
	pages, err := p.readPages(ctx, u)
	if err != nil {
		return models.Document{}, err
	}

	text := strings.Join(pages, "\n")
	if strings.TrimSpace(text) == "" {
		return models.Document{}, fmt.Errorf("%s: %w", u.FileName, parsererror.ErrEmptyText)
	}

	p.logger.Debug("Read PDF text layer",
		logging.Field{Key: logging.FieldFile, Value: u.FileName},
		logging.Field{Key: "pages", Value: len(pages)},
		logging.Field{Key: logging.FieldCount, Value: len(text)})

	return models.Document{
		FileName: u.FileName,
		Text:     text,
		MIMEType: "application/pdf",
	}, nil
}

// readPages recovers from panics inside the PDF library, which malformed
// files can trigger.
func (p *PDFText) readPages(ctx context.Context, u Upload) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &parsererror.InvalidFormatError{
				FilePath:       u.FileName,
				ExpectedFormat: "PDF",
				Msg:            fmt.Sprintf("PDF reader crashed: %v", r),
			}
		}
	}()

	reader, err := pdf.NewReaderEncrypted(bytes.NewReader(u.Data), int64(len(u.Data)), passwordOnce(u.Password))
	if err != nil {
		return nil, pdfOpenError(u, err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			p.logger.WithError(err).Warn("Skipping unreadable PDF page",
				logging.Field{Key: logging.FieldFile, Value: u.FileName},
				logging.Field{Key: "page", Value: i})
			continue
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			if line := joinRow(row.Content); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages, nil
}

// passwordOnce yields the password on the first call and "" afterwards,
// which tells the PDF reader to stop retrying.
func passwordOnce(password string) func() string {
	used := false
	return func() string {
		if used {
			return ""
		}
		used = true
		return password
	}
}

// encryptKey marks the trailer (or cross-reference stream) entry of an
// encrypted PDF. Neither may live inside a compressed object stream, so a
// byte scan finds it.
var encryptKey = []byte("/Encrypt")

// isEncrypted reports whether data declares an encryption dictionary.
func isEncrypted(data []byte) bool {
	return bytes.Contains(data, encryptKey)
}

// pdfOpenError maps reader failures to the pipeline's password sentinels.
// The reader rejects AES-256 and custom security handlers before it tries
// any password, so those surface as ErrPasswordRequired when no password
// was given and ErrUnsupportedEncryption otherwise.
func pdfOpenError(u Upload, err error) error {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		if u.Password == "" {
			return parsererror.ErrPasswordRequired
		}
		return parsererror.ErrInvalidPassword
	}
	if isEncrypted(u.Data) {
		if u.Password == "" {
			return parsererror.ErrPasswordRequired
		}
		return fmt.Errorf("%s: %w: %v", u.FileName, parsererror.ErrUnsupportedEncryption, err)
	}
	return &parsererror.InvalidFormatError{
		FilePath:       u.FileName,
		ExpectedFormat: "PDF",
		Msg:            err.Error(),
	}
}

// joinRow rebuilds a text line from positioned fragments. Touching
// fragments are concatenated, a normal gap becomes one space and a gap
// wider than the font size becomes two, so column gaps survive for the
// loose line patterns.
func joinRow(words pdf.TextHorizontal) string {
	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			prev := words[i-1]
			gap := w.X - (prev.X + prev.W)
			switch {
			case gap > prev.FontSize:
				b.WriteString("  ")
			case gap > 0.5:
				b.WriteString(" ")
			}
		}
		b.WriteString(w.S)
	}
	return strings.TrimSpace(b.String())
}
