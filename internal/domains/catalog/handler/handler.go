package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/internal/domains/catalog/model"
	"storefront-backend/internal/domains/catalog/service"
	stockRepo "storefront-backend/internal/domains/stock/repository"
	"storefront-backend/internal/shared/response"
)

// VariantHandler serves variant lookups and availability checks
type VariantHandler struct {
	variantService service.VariantService
	ledger         stockRepo.Ledger
}

// NewVariantHandler creates a new variant handler
func NewVariantHandler(variantService service.VariantService, ledger stockRepo.Ledger) *VariantHandler {
	return &VariantHandler{
		variantService: variantService,
		ledger:         ledger,
	}
}

// RegisterRoutes registers public variant routes
func (h *VariantHandler) RegisterRoutes(router *gin.RouterGroup) {
	variants := router.Group("/variants")
	{
		variants.GET("/:id", h.GetVariant)                   // GET /v1/variants/:id
		variants.GET("/:id/availability", h.GetAvailability) // GET /v1/variants/:id/availability?quantity=2
	}
}

// GetVariant handles GET /v1/variants/:id
func (h *VariantHandler) GetVariant(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Variant ID must be a valid UUID")
		return
	}

	variant, err := h.variantService.GetVariant(c.Request.Context(), variantID)
	if err != nil {
		if errors.Is(err, model.ErrVariantNotFound) {
			response.NotFound(c, "Variant not found")
			return
		}
		response.InternalServerError(c, "Something went wrong")
		return
	}

	response.Success(c, http.StatusOK, variant)
}

// GetAvailability handles GET /v1/variants/:id/availability.
// The check reads the live counter, not the cache, so the answer is as
// fresh as a read check can be.
func (h *VariantHandler) GetAvailability(c *gin.Context) {
	variantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Variant ID must be a valid UUID")
		return
	}

	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil || quantity < 1 {
		response.BadRequest(c, "Quantity must be a positive integer")
		return
	}

	available, err := h.ledger.CheckAvailable(c.Request.Context(), variantID, quantity)
	if err != nil {
		response.NotFound(c, "Variant not found")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"variant_id": variantID,
		"quantity":   quantity,
		"available":  available,
	})
}
