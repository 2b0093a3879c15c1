package http

import (
	"github.com/gofiber/fiber/v2"

	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
	"brandintel_server/core/service/learning"
)

// FeedbackHandler handles feedback and personalized score requests.
type FeedbackHandler struct {
	learning *learning.Service
	audit    out.FeedbackLogRepository
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(learningService *learning.Service, audit out.FeedbackLogRepository) *FeedbackHandler {
	return &FeedbackHandler{
		learning: learningService,
		audit:    audit,
	}
}

// Register registers feedback routes.
func (h *FeedbackHandler) Register(router fiber.Router) {
	feedback := router.Group("/feedback")

	feedback.Post("/", h.RecordFeedback)
	feedback.Get("/personalized-score", h.GetPersonalizedScore)
	feedback.Get("/history", h.ListHistory)
}

type feedbackRequest struct {
	BrandKey  string                 `json:"brand_key"`
	BrandName string                 `json:"brand_name"`
	Rating    string                 `json:"rating"`
	Context   domain.FeedbackContext `json:"context"`
}

// RecordFeedback records one thumbs-up or thumbs-down judgment.
func (h *FeedbackHandler) RecordFeedback(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ServiceError(c, err)
	}

	var req feedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid feedback payload")
	}

	result, err := h.learning.RecordFeedback(c.Context(), learning.FeedbackInput{
		UserID:    userID,
		BrandKey:  req.BrandKey,
		BrandName: req.BrandName,
		Rating:    domain.Rating(req.Rating),
		Context:   req.Context,
	})
	if err != nil {
		return ServiceError(c, err)
	}
	return SuccessResponse(c, result)
}

// GetPersonalizedScore predicts brand fit for the caller.
func (h *FeedbackHandler) GetPersonalizedScore(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ServiceError(c, err)
	}

	brandKey := c.Query("brand")
	category := c.Query("category")

	score, err := h.learning.GetPersonalizedScore(c.Context(), userID, brandKey, category)
	if err != nil {
		return ServiceError(c, err)
	}
	return SuccessResponse(c, score)
}

// ListHistory returns the caller's feedback audit trail.
func (h *FeedbackHandler) ListHistory(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return ServiceError(c, err)
	}
	if h.audit == nil {
		return ErrorResponse(c, fiber.StatusServiceUnavailable, "EXTERNAL_ERROR", "feedback history not available")
	}

	limit := c.QueryInt("limit", 50)
	events, err := h.audit.ListByUser(c.Context(), userID, limit)
	if err != nil {
		return ServiceError(c, err)
	}

	return SuccessResponse(c, fiber.Map{
		"events": events,
		"count":  len(events),
	})
}
