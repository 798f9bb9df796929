package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/parsererror"
	"fjacquet/stmt-extract/internal/textsource"
)

type stubProcessor struct {
	result *models.ExtractionResult
	err    error
	got    textsource.Upload
}

func (p *stubProcessor) Process(_ context.Context, u textsource.Upload) (*models.ExtractionResult, error) {
	p.got = u
	return p.result, p.err
}

func multipartRequest(t *testing.T, fileName string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if fileName != "" {
		part, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	s := New(&stubProcessor{}, 0, logging.NewMockLogger())

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(requestIDHeader))

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, Version, body["version"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := New(&stubProcessor{}, 0, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))
}

func TestExtractEndpoint_Success(t *testing.T) {
	proc := &stubProcessor{result: models.NewExtractionResult(models.MethodOCR, []models.ExtractedTransaction{{
		Date:        models.DatePtr(2025, 9, 21),
		Description: "STARBUCKS",
		Amount:      decimal.RequireFromString("-12.50"),
	}})}
	s := New(proc, 0, logging.NewMockLogger())

	resp, err := s.App().Test(multipartRequest(t, "statement.pdf", []byte("%PDF"), map[string]string{"password": "secret"}))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ocr", body["extraction_method"])
	items := body["line_items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "2025-09-21", items[0].(map[string]interface{})["date"])

	assert.Equal(t, "statement.pdf", proc.got.FileName)
	assert.Equal(t, "secret", proc.got.Password)
	assert.Equal(t, []byte("%PDF"), proc.got.Data)
}

func TestExtractEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantSteps  []interface{}
	}{
		{
			name:       "password required is a 200",
			err:        parsererror.ErrPasswordRequired,
			wantStatus: fiber.StatusOK,
			wantError:  "PDF_PASSWORD_REQUIRED",
		},
		{
			name:       "invalid password",
			err:        parsererror.ErrInvalidPassword,
			wantStatus: fiber.StatusBadRequest,
			wantError:  "INVALID_PASSWORD",
		},
		{
			name:       "unsupported encryption",
			err:        fmt.Errorf("statement.pdf: %w: malformed PDF: 256-bit encryption key", parsererror.ErrUnsupportedEncryption),
			wantStatus: fiber.StatusBadRequest,
			wantError:  "UNSUPPORTED_PDF_ENCRYPTION",
		},
		{
			name:       "nothing extracted",
			err:        &parsererror.ExtractionFailedError{Steps: []string{"ai", "ocr"}},
			wantStatus: fiber.StatusUnprocessableEntity,
			wantError:  parsererror.FailureMessage,
			wantSteps:  []interface{}{"ai", "ocr"},
		},
		{
			name:       "unsupported file",
			err:        &parsererror.UnsupportedFileError{FileName: "a.docx", Reason: "extension not allowed"},
			wantStatus: fiber.StatusBadRequest,
			wantError:  `unsupported file "a.docx": extension not allowed`,
		},
		{
			name:       "timeout",
			err:        context.DeadlineExceeded,
			wantStatus: fiber.StatusRequestTimeout,
			wantError:  "Request timed out.",
		},
		{
			name:       "unexpected",
			err:        errors.New("disk on fire"),
			wantStatus: fiber.StatusInternalServerError,
			wantError:  "Internal server error.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&stubProcessor{err: tt.err}, 0, logging.NewMockLogger())

			resp, err := s.App().Test(multipartRequest(t, "statement.pdf", []byte("%PDF"), nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			body := decodeBody(t, resp)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantSteps != nil {
				assert.Equal(t, tt.wantSteps, body["steps_tried"])
			} else {
				assert.NotContains(t, body, "steps_tried")
			}
		})
	}
}

func TestExtractEndpoint_BadUploads(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		proc := &stubProcessor{}
		s := New(proc, 0, nil)

		resp, err := s.App().Test(multipartRequest(t, "", nil, map[string]string{"password": "x"}))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "", proc.got.FileName)
	})

	t.Run("file too large", func(t *testing.T) {
		s := New(&stubProcessor{}, 4, nil)

		resp, err := s.App().Test(multipartRequest(t, "a.png", []byte("12345"), nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "File too large.", decodeBody(t, resp)["error"])
	})
}
