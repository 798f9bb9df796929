package parsererror

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels surfaced to callers of the extraction pipeline.
var (
	// ErrPasswordRequired is returned when an encrypted PDF was uploaded
	// without a password. Its text is the wire sentinel clients match on.
	ErrPasswordRequired = errors.New("PDF_PASSWORD_REQUIRED")

	// ErrInvalidPassword is returned when the supplied password does not
	// unlock the PDF.
	ErrInvalidPassword = errors.New("INVALID_PASSWORD")

	// ErrUnsupportedEncryption is returned when a password was supplied for
	// a PDF whose encryption scheme the reader cannot open (AES-256 and
	// non-standard security handlers).
	ErrUnsupportedEncryption = errors.New("UNSUPPORTED_PDF_ENCRYPTION")

	// ErrNoTransactions means every extraction stage came back empty.
	ErrNoTransactions = errors.New("no transactions could be extracted")

	// ErrEmptyText means raw text acquisition produced nothing usable.
	ErrEmptyText = errors.New("no text could be recovered from the document")
)

// ParseError represents a single field that failed to parse.
type ParseError struct {
	Parser string
	Field  string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: failed to parse %s='%s': %v",
		e.Parser, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// InvalidFormatError represents input that does not have the expected shape.
type InvalidFormatError struct {
	FilePath             string
	ExpectedFormat       string
	ActualContentSnippet string
	Msg                  string
}

func (e *InvalidFormatError) Error() string {
	if e.ActualContentSnippet != "" {
		return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s. Content snippet: '%s'",
			e.FilePath, e.Msg, e.ExpectedFormat, e.ActualContentSnippet)
	}
	return fmt.Sprintf("invalid format in file '%s': %s. Expected: %s",
		e.FilePath, e.Msg, e.ExpectedFormat)
}

// UnsupportedFileError is returned for uploads the pipeline cannot read.
type UnsupportedFileError struct {
	FileName string
	Reason   string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("unsupported file %q: %s", e.FileName, e.Reason)
}

// AIResponseError wraps a model reply that could not be turned into line items.
type AIResponseError struct {
	Reason  string
	Snippet string
	Err     error
}

func (e *AIResponseError) Error() string {
	msg := "invalid AI response: " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Snippet != "" {
		msg += fmt.Sprintf(" (response: '%s')", e.Snippet)
	}
	return msg
}

func (e *AIResponseError) Unwrap() error {
	return e.Err
}

// ExtractionFailedError is the terminal failure of the pipeline. Steps lists
// the user-facing step names that were tried, in order.
type ExtractionFailedError struct {
	Steps []string
}

const (
	failureIntro  = "Unable to extract any transactions from the uploaded image."
	failureAdvice = "Please ensure the image is clear and contains visible transaction data with dates, descriptions, and amounts."
)

// FailureMessage is the terminal failure text when both the AI and the OCR
// steps were tried.
const FailureMessage = failureIntro + " We tried:\n" +
	"• Step 1: AI analysis\n" +
	"• Step 2: OCR text extraction\n\n" +
	failureAdvice

var stepLabels = map[string]string{
	"ai":  "AI analysis",
	"ocr": "OCR text extraction",
}

func (e *ExtractionFailedError) Error() string {
	return fmt.Sprintf("%s (steps tried: %s)", ErrNoTransactions.Error(), strings.Join(e.Steps, ", "))
}

func (e *ExtractionFailedError) Unwrap() error {
	return ErrNoTransactions
}

// Message is the end-user text. It lists only the steps that ran.
func (e *ExtractionFailedError) Message() string {
	if len(e.Steps) == 0 {
		return failureIntro + "\n\n" + failureAdvice
	}

	var b strings.Builder
	b.WriteString(failureIntro + " We tried:\n")
	for i, step := range e.Steps {
		label, ok := stepLabels[step]
		if !ok {
			label = step
		}
		fmt.Fprintf(&b, "• Step %d: %s\n", i+1, label)
	}
	b.WriteString("\n" + failureAdvice)
	return b.String()
}
