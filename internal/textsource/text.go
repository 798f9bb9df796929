package textsource

import (
	"context"
	"strings"
	"unicode/utf8"

	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/parsererror"
)

// PlainText passes text files through unchanged apart from line endings.
type PlainText struct{}

func (PlainText) Extract(_ context.Context, u Upload) (models.Document, error) {
	if !utf8.Valid(u.Data) {
		return models.Document{}, &parsererror.UnsupportedFileError{FileName: u.FileName, Reason: "not valid UTF-8 text"}
	}
	text := strings.ReplaceAll(string(u.Data), "\r\n", "\n")
	return models.Document{
		FileName: u.FileName,
		Text:     text,
		MIMEType: "text/plain",
	}, nil
}
