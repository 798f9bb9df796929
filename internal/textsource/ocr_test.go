package textsource

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-extract/internal/logging"
)

// scriptedRunner answers successive OCR calls from a list.
type scriptedRunner struct {
	mu      sync.Mutex
	outputs []string
	err     error
	inputs  []string
	args    [][]string
}

func (s *scriptedRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.args = append(s.args, append([]string{name}, args...))
	s.inputs = append(s.inputs, args[0])
	if s.err != nil {
		return nil, s.err
	}
	out := s.outputs[0]
	if len(s.outputs) > 1 {
		s.outputs = s.outputs[1:]
	}
	return []byte(out), nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := imaging.New(40, 20, color.White)
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

const longOCRText = "09/21/25  STARBUCKS COFFEE  12.50\n09/22/25  SHELL OIL 1234  40.00\n"

func TestTesseractOCR_SinglePass(t *testing.T) {
	runner := &scriptedRunner{outputs: []string{longOCRText}}
	o := NewTesseractOCR(OCRSettings{}, logging.NewMockLogger()).WithRunner(runner.run)

	data := pngBytes(t)
	doc, err := o.Extract(context.Background(), Upload{FileName: "receipt.png", Data: data})
	require.NoError(t, err)

	assert.Equal(t, longOCRText, doc.Text)
	assert.Equal(t, "image/png", doc.MIMEType)
	assert.Equal(t, data, doc.Image)
	assert.True(t, doc.IsImage())

	require.Len(t, runner.args, 1)
	assert.Equal(t, DefaultTesseractPath, runner.args[0][0])
	assert.Equal(t, []string{"stdout", "-l", DefaultOCRLanguage}, runner.args[0][2:])
	assert.Equal(t, ".png", filepath.Ext(runner.inputs[0]))
}

func TestTesseractOCR_RetriesOnShortText(t *testing.T) {
	runner := &scriptedRunner{outputs: []string{"TOTAL", longOCRText}}
	logger := logging.NewMockLogger()
	o := NewTesseractOCR(OCRSettings{Language: "deu"}, logger).WithRunner(runner.run)

	doc, err := o.Extract(context.Background(), Upload{FileName: "receipt.png", Data: pngBytes(t)})
	require.NoError(t, err)
	assert.Equal(t, longOCRText, doc.Text)

	require.Len(t, runner.args, 2)
	assert.Equal(t, "deu", runner.args[1][len(runner.args[1])-1])
	assert.True(t, logger.HasEntry("INFO", "OCR recovered little text, retrying on enhanced image"))
}

func TestTesseractOCR_KeepsFirstPassWhenRetryIsWorse(t *testing.T) {
	runner := &scriptedRunner{outputs: []string{"TOTAL 4.50", ""}}
	o := NewTesseractOCR(OCRSettings{}, nil).WithRunner(runner.run)

	doc, err := o.Extract(context.Background(), Upload{FileName: "receipt.png", Data: pngBytes(t)})
	require.NoError(t, err)
	assert.Equal(t, "TOTAL 4.50", doc.Text)
}

func TestTesseractOCR_UndecodableImageSkipsRetry(t *testing.T) {
	runner := &scriptedRunner{outputs: []string{"abc"}}
	logger := logging.NewMockLogger()
	o := NewTesseractOCR(OCRSettings{}, logger).WithRunner(runner.run)

	doc, err := o.Extract(context.Background(), Upload{FileName: "receipt.jpg", Data: []byte("not an image")})
	require.NoError(t, err)
	assert.Equal(t, "abc", doc.Text)
	assert.Len(t, runner.args, 1)
	assert.Len(t, logger.GetEntriesByLevel("WARN"), 1)
}

func TestTesseractOCR_CommandFailure(t *testing.T) {
	runner := &scriptedRunner{err: errors.New("exec: \"tesseract\": executable file not found in $PATH")}
	o := NewTesseractOCR(OCRSettings{}, nil).WithRunner(runner.run)

	_, err := o.Extract(context.Background(), Upload{FileName: "receipt.png", Data: pngBytes(t)})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "OCR failed"))
}

func TestTesseractOCR_FailureKeepsImage(t *testing.T) {
	runner := &scriptedRunner{err: errors.New("tesseract: signal: killed")}
	logger := logging.NewMockLogger()
	o := NewTesseractOCR(OCRSettings{KeepImageOnFailure: true}, logger).WithRunner(runner.run)

	data := pngBytes(t)
	doc, err := o.Extract(context.Background(), Upload{FileName: "receipt.png", Data: data})
	require.NoError(t, err)
	assert.Empty(t, doc.Text)
	assert.Equal(t, data, doc.Image)
	assert.Equal(t, "image/png", doc.MIMEType)
	assert.Equal(t, "receipt.png", doc.FileName)
	assert.True(t, doc.IsImage())

	warnings := logger.GetEntriesByLevel("WARN")
	require.Len(t, warnings, 1)
	file, ok := warnings[0].FieldValue(logging.FieldFile)
	require.True(t, ok)
	assert.Equal(t, "receipt.png", file)
}

func TestTesseractOCR_FailureAfterCancelIsReturned(t *testing.T) {
	runner := &scriptedRunner{err: context.Canceled}
	o := NewTesseractOCR(OCRSettings{KeepImageOnFailure: true}, nil).WithRunner(runner.run)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Extract(ctx, Upload{FileName: "receipt.png", Data: pngBytes(t)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTesseractOCR_Defaults(t *testing.T) {
	o := NewTesseractOCR(OCRSettings{}, nil)
	assert.Equal(t, DefaultTesseractPath, o.settings.TesseractPath)
	assert.Equal(t, DefaultOCRLanguage, o.settings.Language)
	assert.Equal(t, DefaultMinOCRChars, o.settings.MinChars)
}
