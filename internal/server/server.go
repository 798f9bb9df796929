// Package server exposes the extraction pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"

	"fjacquet/stmt-extract/internal/logging"
	"fjacquet/stmt-extract/internal/models"
	"fjacquet/stmt-extract/internal/parsererror"
	"fjacquet/stmt-extract/internal/textsource"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

const requestIDHeader = "X-Request-ID"

// Processor runs the pipeline for one upload.
type Processor interface {
	Process(ctx context.Context, upload textsource.Upload) (*models.ExtractionResult, error)
}

// errorResponse is the body of every non-200 reply, and of the 200
// password-required reply.
type errorResponse struct {
	Error      string   `json:"error"`
	StepsTried []string `json:"steps_tried,omitempty"`
}

// Server wraps the fiber app.
type Server struct {
	app       *fiber.App
	processor Processor
	maxSize   int64
	logger    logging.Logger
}

// New builds the server and registers its routes. maxSize <= 0 means
// textsource.DefaultMaxFileSize.
func New(processor Processor, maxSize int64, logger logging.Logger) *Server {
	if maxSize <= 0 {
		maxSize = textsource.DefaultMaxFileSize
	}
	s := &Server{
		processor: processor,
		maxSize:   maxSize,
		logger:    logging.OrDefault(logger),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "stmt-extract",
		BodyLimit:             int(maxSize) + 1<<20,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(s.requestID)

	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/extract", s.handleExtract)
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("Server listening", logging.Field{Key: "address", Value: addr})
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals(logging.FieldRequestID, id)
	c.Set(requestIDHeader, id)
	return c.Next()
}

func (s *Server) requestLogger(c *fiber.Ctx) logging.Logger {
	id, _ := c.Locals(logging.FieldRequestID).(string)
	return s.logger.WithField(logging.FieldRequestID, id)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
	})
}

func (s *Server) handleExtract(c *fiber.Ctx) error {
	log := s.requestLogger(c)

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "No file uploaded. Use form field 'file'."})
	}
	if fh.Size > s.maxSize {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "File too large."})
	}

	f, err := fh.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Warn("Failed to close uploaded file")
		}
	}()

	data, err := io.ReadAll(io.LimitReader(f, s.maxSize+1))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Failed to read uploaded file.")
	}

	upload := textsource.Upload{
		FileName: fh.Filename,
		Data:     data,
		Password: c.FormValue("password"),
	}

	start := time.Now()
	result, err := s.processor.Process(c.UserContext(), upload)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		log.WithError(err).Info("Extraction request failed",
			logging.Field{Key: logging.FieldFile, Value: fh.Filename},
			logging.Field{Key: logging.FieldDuration, Value: elapsed})
		return s.writeProcessError(c, err)
	}

	log.Info("Extraction request succeeded",
		logging.Field{Key: logging.FieldFile, Value: fh.Filename},
		logging.Field{Key: logging.FieldMethod, Value: result.Method},
		logging.Field{Key: logging.FieldCount, Value: len(result.LineItems)},
		logging.Field{Key: logging.FieldDuration, Value: elapsed})
	return c.JSON(result)
}

// writeProcessError maps pipeline errors to status codes. A missing PDF
// password is not an HTTP error: clients read the sentinel from a 200 body
// and prompt for the password.
func (s *Server) writeProcessError(c *fiber.Ctx, err error) error {
	var (
		failed      *parsererror.ExtractionFailedError
		unsupported *parsererror.UnsupportedFileError
		badFormat   *parsererror.InvalidFormatError
	)

	switch {
	case errors.Is(err, parsererror.ErrPasswordRequired):
		return c.JSON(errorResponse{Error: parsererror.ErrPasswordRequired.Error()})
	case errors.Is(err, parsererror.ErrInvalidPassword):
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: parsererror.ErrInvalidPassword.Error()})
	case errors.Is(err, parsererror.ErrUnsupportedEncryption):
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: parsererror.ErrUnsupportedEncryption.Error()})
	case errors.As(err, &failed):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:      failed.Message(),
			StepsTried: failed.Steps,
		})
	case errors.Is(err, parsererror.ErrEmptyText):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{Error: err.Error()})
	case errors.As(err, &unsupported), errors.As(err, &badFormat):
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return c.Status(fiber.StatusRequestTimeout).JSON(errorResponse{Error: "Request timed out."})
	default:
		return err
	}
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal server error."
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.requestLogger(c).WithError(err).Error("Request failed",
			logging.Field{Key: logging.FieldStatus, Value: code})
	}
	return c.Status(code).JSON(errorResponse{Error: msg})
}
