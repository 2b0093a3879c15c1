package http

import (
	"github.com/gofiber/fiber/v2"

	"brandintel_server/core/domain"
	"brandintel_server/core/port/out"
	"brandintel_server/core/service/recommend"
)

// RecommendHandler handles recommendation requests.
type RecommendHandler struct {
	recommender *recommend.Service
	seeds       out.SeedCatalogRepository
}

// NewRecommendHandler creates a new recommendation handler.
func NewRecommendHandler(recommender *recommend.Service, seeds out.SeedCatalogRepository) *RecommendHandler {
	return &RecommendHandler{
		recommender: recommender,
		seeds:       seeds,
	}
}

// Register registers recommendation routes.
func (h *RecommendHandler) Register(router fiber.Router) {
	recommendations := router.Group("/recommendations")

	recommendations.Post("/rank", h.Rank)
	recommendations.Get("/seed-catalog", h.SeedCatalog)
}

type rankRequest struct {
	Intent     *domain.ShoppingIntent   `json:"intent"`
	Candidates []*domain.BrandCandidate `json:"candidates,omitempty"`
}

// Rank scores the supplied candidates against the intent and returns the
// winner. Without an explicit candidate list the seed catalog's cold-start
// candidates are ranked instead.
func (h *RecommendHandler) Rank(c *fiber.Ctx) error {
	var req rankRequest
	if err := c.BodyParser(&req); err != nil {
		return ErrorResponse(c, fiber.StatusBadRequest, "BAD_REQUEST", "invalid rank payload")
	}

	candidates := req.Candidates
	if len(candidates) == 0 && h.seeds != nil {
		catalog, err := h.seeds.GetCatalog(c.Context())
		if err != nil {
			return ServiceError(c, err)
		}
		if catalog != nil {
			for i := range catalog.Brands {
				candidates = append(candidates, catalog.Brands[i].ToCandidate())
			}
		}
	}

	recommendation, err := h.recommender.RankAndRecommend(c.Context(), req.Intent, candidates)
	if err != nil {
		return ServiceError(c, err)
	}
	return SuccessResponse(c, recommendation)
}

// SeedCatalog returns the loaded cold-start catalog.
func (h *RecommendHandler) SeedCatalog(c *fiber.Ctx) error {
	if h.seeds == nil {
		return ErrorResponse(c, fiber.StatusServiceUnavailable, "EXTERNAL_ERROR", "seed catalog not available")
	}

	catalog, err := h.seeds.GetCatalog(c.Context())
	if err != nil {
		return ServiceError(c, err)
	}
	if catalog == nil {
		return ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "seed catalog not loaded")
	}
	return SuccessResponse(c, catalog)
}
