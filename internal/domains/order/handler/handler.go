package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront-backend/internal/domains/order/model"
	"storefront-backend/internal/domains/order/service"
	"storefront-backend/internal/shared/middleware"
	"storefront-backend/internal/shared/response"
	"storefront-backend/pkg/logger"
)

// =====================================================
// ORDER HANDLER
// =====================================================
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// =====================================================
// ROUTES REGISTRATION
// =====================================================

// RegisterRoutes registers customer-facing order routes
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.POST("", h.CreateOrder)               // POST /v1/orders
		orders.GET("", h.ListMyOrders)               // GET /v1/orders?page=1&limit=20&status=pending
		orders.GET("/:id", h.GetMyOrder)             // GET /v1/orders/:id
		orders.PATCH("/:id/cancel", h.CancelMyOrder) // PATCH /v1/orders/:id/cancel
		orders.PATCH("/:id/receive", h.ReceiveOrder) // PATCH /v1/orders/:id/receive
		orders.POST("/:id/reorder", h.Reorder)       // POST /v1/orders/:id/reorder
		orders.POST("/:id/return", h.RequestReturn)  // POST /v1/orders/:id/return
	}
}

// RegisterAdminRoutes registers staff/admin order routes
func (h *OrderHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("", h.ListOrders)                         // GET /v1/admin/orders
		orders.GET("/:id", h.GetOrder)                       // GET /v1/admin/orders/:id
		orders.GET("/:id/history", h.GetOrderHistory)        // GET /v1/admin/orders/:id/history
		orders.PATCH("/:id/confirm", h.ConfirmOrder)         // PATCH /v1/admin/orders/:id/confirm
		orders.PATCH("/:id/ship", h.ShipOrder)               // PATCH /v1/admin/orders/:id/ship
		orders.PATCH("/:id/complete", h.CompleteOrder)       // PATCH /v1/admin/orders/:id/complete
		orders.PATCH("/:id/cancel", h.CancelOrder)           // PATCH /v1/admin/orders/:id/cancel
		orders.PATCH("/:id/return/approve", h.ApproveReturn) // PATCH /v1/admin/orders/:id/return/approve
		orders.PATCH("/:id/payment-status", h.UpdatePayment) // PATCH /v1/admin/orders/:id/payment-status
		orders.PATCH("/:id/shipping-info", h.UpdateShipping) // PATCH /v1/admin/orders/:id/shipping-info
	}
}

// =====================================================
// HELPERS
// =====================================================

func parseOrderID(c *gin.Context) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Order ID must be a valid UUID")
		return uuid.Nil, false
	}
	return orderID, true
}

func requireUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "Authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// handleServiceError maps domain errors onto HTTP statuses
func handleServiceError(c *gin.Context, err error) {
	var orderErr *model.OrderError
	if errors.As(err, &orderErr) {
		switch orderErr.Code {
		case model.ErrCodeOrderNotFound, model.ErrCodeVariantNotFound, model.ErrCodeLineItemNotFound:
			response.ErrorResponse(c, http.StatusNotFound, orderErr.Code, orderErr.Message)
		case model.ErrCodeInvalidStatus, model.ErrCodePosNotSupported, model.ErrCodeNotPosOrder, model.ErrCodeCodeCollision:
			response.ErrorResponse(c, http.StatusConflict, orderErr.Code, orderErr.Message)
		case model.ErrCodeAccessDenied:
			response.ErrorResponse(c, http.StatusForbidden, orderErr.Code, orderErr.Message)
		default:
			// Validation-class failures: coupon, stock, draft rules
			response.ErrorResponse(c, http.StatusBadRequest, orderErr.Code, orderErr.Message)
		}
		return
	}

	logger.Error("order service error", err)
	response.InternalServerError(c, "Something went wrong")
}

// =====================================================
// CUSTOMER OPERATIONS
// =====================================================

// CreateOrder handles POST /v1/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req model.CreateOnlineOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	order, err := h.orderService.CreateOnlineOrder(c.Request.Context(), userID, req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, order)
}

// ListMyOrders handles GET /v1/orders
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var filter model.ListOrdersRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	orders, total, err := h.orderService.ListMyOrders(c.Request.Context(), userID, &filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// GetMyOrder handles GET /v1/orders/:id
func (h *OrderHandler) GetMyOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetMyOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// CancelMyOrder handles PATCH /v1/orders/:id/cancel
func (h *OrderHandler) CancelMyOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req model.CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	// Ownership check first so a stranger cannot cancel the order
	if _, err := h.orderService.GetMyOrder(c.Request.Context(), orderID, userID); err != nil {
		handleServiceError(c, err)
		return
	}

	order, err := h.orderService.CancelOrder(c.Request.Context(), orderID, userID, req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// ReceiveOrder handles PATCH /v1/orders/:id/receive
func (h *OrderHandler) ReceiveOrder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.ReceiveOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// Reorder handles POST /v1/orders/:id/reorder
func (h *OrderHandler) Reorder(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	result, err := h.orderService.Reorder(c.Request.Context(), orderID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// RequestReturn handles POST /v1/orders/:id/return
func (h *OrderHandler) RequestReturn(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req model.ReturnOrderRequest
	_ = c.ShouldBindJSON(&req)

	order, err := h.orderService.RequestReturn(c.Request.Context(), orderID, userID, req.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// =====================================================
// STAFF OPERATIONS
// =====================================================

// ListOrders handles GET /v1/admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var filter model.ListOrdersRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), &filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, orders, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// GetOrder handles GET /v1/admin/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// GetOrderHistory handles GET /v1/admin/orders/:id/history
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	history, err := h.orderService.GetOrderHistory(c.Request.Context(), orderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, history)
}

// transitionHandler wraps the staff transitions sharing one shape
func (h *OrderHandler) transitionHandler(c *gin.Context, fn func(ctx *gin.Context, orderID, actorID uuid.UUID) (*model.Order, error)) {
	actorID, ok := requireUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := fn(c, orderID, actorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, order)
}

// ConfirmOrder handles PATCH /v1/admin/orders/:id/confirm
func (h *OrderHandler) ConfirmOrder(c *gin.Context) {
	h.transitionHandler(c, func(ctx *gin.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
		return h.orderService.ConfirmOrder(ctx.Request.Context(), orderID, actorID)
	})
}

// ShipOrder handles PATCH /v1/admin/orders/:id/ship
func (h *OrderHandler) ShipOrder(c *gin.Context) {
	h.transitionHandler(c, func(ctx *gin.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
		return h.orderService.ShipOrder(ctx.Request.Context(), orderID, actorID)
	})
}

// CompleteOrder handles PATCH /v1/admin/orders/:id/complete
func (h *OrderHandler) CompleteOrder(c *gin.Context) {
	h.transitionHandler(c, func(ctx *gin.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
		return h.orderService.CompleteOrder(ctx.Request.Context(), orderID, actorID)
	})
}

// CancelOrder handles PATCH /v1/admin/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	var req model.CancelOrderRequest
	_ = c.ShouldBindJSON(&req)

	h.transitionHandler(c, func(ctx *gin.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
		return h.orderService.CancelOrder(ctx.Request.Context(), orderID, actorID, req.Reason)
	})
}

// ApproveReturn handles PATCH /v1/admin/orders/:id/return/approve
func (h *OrderHandler) ApproveReturn(c *gin.Context) {
	h.transitionHandler(c, func(ctx *gin.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
		return h.orderService.ApproveReturn(ctx.Request.Context(), orderID, actorID)
	})
}

// UpdatePayment handles PATCH /v1/admin/orders/:id/payment-status
func (h *OrderHandler) UpdatePayment(c *gin.Context) {
	var req model.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ErrorWithDetails(c, http.StatusUnprocessableEntity, "VALIDATION_FAILED", "Validation failed", err.Error())
		return
	}

	h.transitionHandler(c, func(ctx *gin.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
		return h.orderService.UpdatePaymentStatus(ctx.Request.Context(), orderID, actorID, req.PaymentStatus)
	})
}

// UpdateShipping handles PATCH /v1/admin/orders/:id/shipping-info
func (h *OrderHandler) UpdateShipping(c *gin.Context) {
	var req model.UpdateShippingInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	h.transitionHandler(c, func(ctx *gin.Context, orderID, actorID uuid.UUID) (*model.Order, error) {
		return h.orderService.UpdateShippingInfo(ctx.Request.Context(), orderID, actorID, req)
	})
}
