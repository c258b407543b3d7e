package api

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/cashcheck-dev/cashcheck/internal/detect"
	"github.com/cashcheck-dev/cashcheck/internal/importer"
	"github.com/cashcheck-dev/cashcheck/internal/ingest"
	"github.com/cashcheck-dev/cashcheck/internal/model"
	"github.com/cashcheck-dev/cashcheck/internal/period"
	"github.com/cashcheck-dev/cashcheck/internal/transfer"
)

// Service is the pipeline the handlers drive.
type Service interface {
	Import(ctx context.Context, req ingest.Request) (ingest.Result, error)
	Reapply(ctx context.Context, sessionID string, month period.Month) (ingest.ReapplyResult, error)
	DetectTransfers(ctx context.Context, sessionID string, month period.Month) (transfer.Result, error)
}

// Handler serves the /api routes.
type Handler struct {
	svc    Service
	logger *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type detectResponse struct {
	Provider     model.Provider `json:"provider"`
	Confidence   float64        `json:"confidence"`
	Recognized   bool           `json:"recognized"`
	HeaderOffset int            `json:"headerOffset"`
	Headers      []string       `json:"headers,omitempty"`
}

type monthRequest struct {
	Month string `json:"month"`
}

// Import handles POST /api/import?source=CHASE|VENMO with a multipart
// "file" field.
func (h *Handler) Import(c *fiber.Ctx) error {
	filename, data, err := readUpload(c)
	if err != nil {
		return err
	}

	res, err := h.svc.Import(c.UserContext(), ingest.Request{
		SessionID: sessionID(c),
		Provider:  model.Provider(c.Query("source")),
		Filename:  filename,
		Data:      data,
	})
	if err != nil {
		return h.importError(c, res.FileID, err)
	}
	return c.JSON(res)
}

// Detect handles POST /api/detect. Unrecognized files are reported with
// recognized=false rather than as an error.
func (h *Handler) Detect(c *fiber.Ctx) error {
	_, data, err := readUpload(c)
	if err != nil {
		return err
	}

	res, err := ingest.Detect(data)
	var unrecognized *detect.FormatUnrecognizedError
	switch {
	case errors.As(err, &unrecognized):
		res = unrecognized.Fallback
	case err != nil:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(detectResponse{
		Provider:     res.Provider,
		Confidence:   res.Confidence,
		Recognized:   res.Recognized,
		HeaderOffset: res.HeaderOffset,
		Headers:      res.Headers,
	})
}

// DetectTransfers handles POST /api/transfers/detect?month=YYYY-MM.
func (h *Handler) DetectTransfers(c *fiber.Ctx) error {
	month, err := parseMonth(c)
	if err != nil {
		return err
	}
	res, err := h.svc.DetectTransfers(c.UserContext(), sessionID(c), month)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// Reapply handles POST /api/rules/reapply?month=YYYY-MM.
func (h *Handler) Reapply(c *fiber.Ctx) error {
	month, err := parseMonth(c)
	if err != nil {
		return err
	}
	res, err := h.svc.Reapply(c.UserContext(), sessionID(c), month)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

func (h *Handler) importError(c *fiber.Ctx, fileID string, err error) error {
	body := fiber.Map{"error": err.Error()}
	if fileID != "" {
		body["fileId"] = fileID
	}

	var (
		unrecognized *detect.FormatUnrecognizedError
		parseErr     *importer.ParseError
	)
	switch {
	case errors.As(err, &unrecognized):
		body["provider"] = unrecognized.Fallback.Provider
		body["confidence"] = unrecognized.Fallback.Confidence
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	case errors.As(err, &parseErr):
		body["line"] = parseErr.Line
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	case errors.Is(err, detect.ErrFormatInvalid):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(body)
	case errors.Is(err, ingest.ErrUnsupportedProvider):
		return c.Status(fiber.StatusBadRequest).JSON(body)
	case errors.Is(err, ingest.ErrNoAccount):
		return c.Status(fiber.StatusConflict).JSON(body)
	}

	h.logger.Error("import failed", zap.String("file_id", fileID), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}

func readUpload(c *fiber.Ctx) (string, []byte, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return "", nil, fiber.NewError(fiber.StatusBadRequest, "failed to open file")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return "", nil, fmt.Errorf("reading upload: %w", err)
	}
	return fh.Filename, data, nil
}

// parseMonth reads the month from the query string or a JSON body.
func parseMonth(c *fiber.Ctx) (period.Month, error) {
	raw := c.Query("month")
	if raw == "" && len(c.Body()) > 0 {
		var req monthRequest
		if err := c.BodyParser(&req); err != nil {
			return period.Month{}, fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		raw = req.Month
	}
	if raw == "" {
		return period.Month{}, fiber.NewError(fiber.StatusBadRequest, "month is required")
	}
	m, err := period.ParseMonth(raw)
	if err != nil {
		return period.Month{}, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return m, nil
}
