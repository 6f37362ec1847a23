package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/order/service"
	"storefront-backend/internal/shared/response"
)

// =====================================================
// POS ORDER HANDLER
// =====================================================
type PosOrderHandler struct {
	posService service.PosOrderService
}

// NewPosOrderHandler creates a new point-of-sale order handler
func NewPosOrderHandler(posService service.PosOrderService) *PosOrderHandler {
	return &PosOrderHandler{
		posService: posService,
	}
}

// RegisterRoutes registers point-of-sale routes, staff only
func (h *PosOrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	pos := router.Group("/pos/orders")
	{
		pos.POST("/drafts", h.CreateDraft)                       // POST /v1/admin/pos/orders/drafts
		pos.POST("", h.CreatePosOrder)                           // POST /v1/admin/pos/orders
		pos.POST("/drafts/:id/items", h.AddItem)                 // POST /v1/admin/pos/orders/drafts/:id/items
		pos.PATCH("/drafts/:id/items/:variantId", h.UpdateItem)  // PATCH /v1/admin/pos/orders/drafts/:id/items/:variantId
		pos.DELETE("/drafts/:id/items/:variantId", h.RemoveItem) // DELETE /v1/admin/pos/orders/drafts/:id/items/:variantId
		pos.PATCH("/drafts/:id/complete", h.CompleteDraft)       // PATCH /v1/admin/pos/orders/drafts/:id/complete
		pos.PATCH("/drafts/:id/cancel", h.CancelDraft)           // PATCH /v1/admin/pos/orders/drafts/:id/cancel
	}
}

func parseVariantID(c *gin.Context) (uuid.UUID, bool) {
	variantID, err := uuid.Parse(c.Param("variantId"))
	if err != nil {
		response.BadRequest(c, "Variant ID must be a valid UUID")
		return uuid.Nil, false
	}
	return variantID, true
}

// CreateDraft handles POST /v1/admin/pos/orders/drafts
func (h *PosOrderHandler) CreateDraft(c *gin.Context) {
	staffID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req model.CreatePosDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.posService.CreateDraft(c.Request.Context(), staffID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, order)
}

// CreatePosOrder handles POST /v1/admin/pos/orders
func (h *PosOrderHandler) CreatePosOrder(c *gin.Context) {
	staffID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req model.CreatePosOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.posService.CreatePosOrder(c.Request.Context(), staffID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, order)
}

// AddItem handles POST /v1/admin/pos/orders/drafts/:id/items
func (h *PosOrderHandler) AddItem(c *gin.Context) {
	staffID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req model.AddDraftItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.posService.AddDraftItem(c.Request.Context(), orderID, staffID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// UpdateItem handles PATCH /v1/admin/pos/orders/drafts/:id/items/:variantId
func (h *PosOrderHandler) UpdateItem(c *gin.Context) {
	staffID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	variantID, ok := parseVariantID(c)
	if !ok {
		return
	}

	var req model.UpdateDraftItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Validation failed", err.Error())
		return
	}

	order, err := h.posService.UpdateDraftItem(c.Request.Context(), orderID, staffID, variantID, req.Quantity)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// RemoveItem handles DELETE /v1/admin/pos/orders/drafts/:id/items/:variantId
func (h *PosOrderHandler) RemoveItem(c *gin.Context) {
	staffID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	variantID, ok := parseVariantID(c)
	if !ok {
		return
	}

	order, err := h.posService.RemoveDraftItem(c.Request.Context(), orderID, staffID, variantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// CompleteDraft handles PATCH /v1/admin/pos/orders/drafts/:id/complete
func (h *PosOrderHandler) CompleteDraft(c *gin.Context) {
	staffID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req model.CompletePosOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.posService.CompletePosOrder(c.Request.Context(), orderID, staffID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// CancelDraft handles PATCH /v1/admin/pos/orders/drafts/:id/cancel
func (h *PosOrderHandler) CancelDraft(c *gin.Context) {
	staffID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req model.CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.posService.CancelDraft(c.Request.Context(), orderID, staffID, req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}
