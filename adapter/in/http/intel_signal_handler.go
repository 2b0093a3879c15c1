package http

import (
	"github.com/gofiber/fiber/v2"

	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
	"brandintel_server/core/service/aggregate"
	"brandintel_server/core/service/extract"
)

// SignalHandler handles signal extraction and batch aggregation requests.
type SignalHandler struct {
	extractor  *extract.Service
	aggregator *aggregate.Service
	signals    out.BrandSignalRepository
}

// NewSignalHandler creates a new signal handler.
func NewSignalHandler(extractor *extract.Service, aggregator *aggregate.Service, signals out.BrandSignalRepository) *SignalHandler {
	return &SignalHandler{
		extractor:  extractor,
		aggregator: aggregator,
		signals:    signals,
	}
}

// Register registers signal routes.
func (h *SignalHandler) Register(router fiber.Router) {
	signals := router.Group("/signals")

	signals.Post("/extract", h.ExtractSignal)
	signals.Post("/batch", h.ProcessBatch)
	signals.Get("/brands", h.ListBrands)
}

// ExtractSignal classifies a single email without persisting anything.
func (h *SignalHandler) ExtractSignal(c *fiber.Ctx) error {
	var email domain.RawEmail
	if err := c.BodyParser(&email); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid email payload")
	}
	if email.FromEmail == "" && email.FromDomain == "" {
		return ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELD", "from_email or from_domain is required")
	}

	signal := h.extractor.Extract(c.Context(), &email)
	return SuccessResponse(c, signal)
}

type batchRequest struct {
	Emails []*domain.RawEmail `json:"emails"`
}

// ProcessBatch runs the full extraction and aggregation pipeline over a
// user's incoming emails.
func (h *SignalHandler) ProcessBatch(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ServiceError(c, err)
	}

	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid batch payload")
	}

	result, err := h.aggregator.ProcessBatch(c.Context(), userID.String(), req.Emails)
	if err != nil {
		return ServiceError(c, err)
	}
	return SuccessResponse(c, result)
}

// ListBrands returns the caller's accumulated brand records, strongest
// first.
func (h *SignalHandler) ListBrands(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ServiceError(c, err)
	}

	limit := c.QueryInt("limit", 50)
	records, err := h.signals.ListByUser(c.Context(), userID.String(), limit)
	if err != nil {
		return ServiceError(c, err)
	}

	return SuccessResponse(c, fiber.Map{
		"brands": records,
		"count":  len(records),
	})
}
