package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/grocerymart/internal/domain/errors"
	"github.com/polkiloo/grocerymart/internal/domain/model"
	"github.com/polkiloo/grocerymart/internal/server/http/dto"
	"github.com/polkiloo/grocerymart/internal/usecase"
)

const (
	bulkUpdateStatus = "update_status"
	bulkDelete       = "delete"
	bulkExport       = "export"
)

// AdminOrderHandler serves back-office order management.
type AdminOrderHandler struct {
	facade AdminOrderFacade
	now    func() time.Time
}

func NewAdminOrderHandler(facade AdminOrderFacade) *AdminOrderHandler {
	return &AdminOrderHandler{facade: facade, now: time.Now}
}

// List handles GET /api/admin/orders.
func (h *AdminOrderHandler) List(c *gin.Context) {
	filter, err := orderFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	orders, total, err := h.facade.Orders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrderListResponse{
		Orders:     toOrderList(orders),
		Pagination: pagination(filter.Page, filter.PerPage, total),
	})
}

// Create handles POST /api/admin/orders.
func (h *AdminOrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	items := make([]usecase.OrderItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, usecase.OrderItemInput{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	order, err := h.facade.CreateOrder(c.Request.Context(), usecase.CreateOrderInput{
		UserID:          req.UserID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		ShippingCost:    req.ShippingCost,
		TaxAmount:       req.TaxAmount,
		DiscountAmount:  req.DiscountAmount,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderResponse(order))
}

// Get handles GET /api/admin/orders/:id.
func (h *AdminOrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.facade.Order(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(order))
}

func adjustmentInput(req dto.OrderUpdateRequest) (usecase.AdjustmentInput, bool) {
	in := usecase.AdjustmentInput{
		ShippingAddress: req.ShippingAddress,
		ShippingCost:    req.ShippingCost,
		TaxAmount:       req.TaxAmount,
		DiscountAmount:  req.DiscountAmount,
		Notes:           req.Notes,
		TrackingNumber:  req.TrackingNumber,
	}
	touched := in.ShippingAddress != nil || in.ShippingCost != nil || in.TaxAmount != nil ||
		in.DiscountAmount != nil || in.Notes != nil || in.TrackingNumber != nil
	return in, touched
}

// Update handles PATCH /api/admin/orders/:id. Adjustments are applied first, then the
// status change, each in its own transaction.
func (h *AdminOrderHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req dto.OrderUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	in, touched := adjustmentInput(req)
	status := model.OrderStatus(strings.TrimSpace(req.Status))
	if !touched && status == "" {
		respondError(c, domainErrors.NewValidationError("status", "nothing to update"))
		return
	}

	ctx := c.Request.Context()
	var (
		order *model.Order
		stock []model.StockResult
		err   error
	)
	if touched {
		if order, err = h.facade.UpdateAdjustments(ctx, id, in); err != nil {
			respondError(c, err)
			return
		}
	}
	if status != "" {
		if order, stock, err = h.facade.UpdateOrderStatus(ctx, CurrentUserID(c), id, status, req.StatusNotes); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, dto.OrderUpdateResponse{Order: toOrderResponse(order), Stock: toStockResults(stock)})
}

// Delete handles DELETE /api/admin/orders/:id. Only cancelled orders can be deleted.
func (h *AdminOrderHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.facade.DeleteOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// History handles GET /api/admin/orders/:id/history.
func (h *AdminOrderHandler) History(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	entries, err := h.facade.OrderHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toHistory(entries))
}

// Stats handles GET /api/admin/orders/stats.
func (h *AdminOrderHandler) Stats(c *gin.Context) {
	stats, err := h.facade.OrderStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	byStatus := make(map[string]int64, len(model.OrderStatuses))
	for _, s := range model.OrderStatuses {
		byStatus[string(s)] = stats.ByStatus[s]
	}
	c.JSON(http.StatusOK, dto.OrderStatsResponse{Total: stats.Total, ByStatus: byStatus, Revenue: stats.Revenue})
}

// Export handles GET /api/admin/orders/export with the same filters as List.
func (h *AdminOrderHandler) Export(c *gin.Context) {
	filter, err := orderFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	h.writeExport(c, filter)
}

// BulkAction handles POST /api/admin/orders/bulk-action.
func (h *AdminOrderHandler) BulkAction(c *gin.Context) {
	var req dto.BulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	if len(req.OrderIDs) == 0 {
		respondError(c, domainErrors.NewValidationError("order_ids", "select at least one order"))
		return
	}

	ctx := c.Request.Context()
	switch req.Action {
	case bulkUpdateStatus:
		status := model.OrderStatus(strings.TrimSpace(req.Status))
		if status == "" {
			respondError(c, domainErrors.NewValidationError("status", "is required"))
			return
		}
		results, err := h.facade.BulkUpdateStatus(ctx, CurrentUserID(c), req.OrderIDs, status, req.Notes)
		if err != nil {
			respondError(c, err)
			return
		}
		updated := make([]dto.BulkResultResponse, 0, len(results))
		for _, r := range results {
			item := dto.BulkResultResponse{
				OrderID: r.OrderID,
				From:    string(r.From),
				Changed: r.Changed,
				Stock:   toStockResults(r.Stock),
			}
			if r.Order != nil {
				item.To = string(r.Order.Status)
			}
			if r.Err != nil {
				item.Error = r.Err.Error()
			}
			updated = append(updated, item)
		}
		c.JSON(http.StatusOK, dto.BulkActionResponse{Action: req.Action, Updated: updated})
	case bulkDelete:
		deleted, err := h.facade.BulkDelete(ctx, req.OrderIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.BulkActionResponse{Action: req.Action, Deleted: &deleted})
	case bulkExport:
		h.writeExport(c, model.OrderFilter{OrderIDs: req.OrderIDs})
	default:
		respondError(c, domainErrors.NewValidationError("action", "must be one of update_status, delete, export"))
	}
}

func (h *AdminOrderHandler) writeExport(c *gin.Context, filter model.OrderFilter) {
	var buf bytes.Buffer
	if err := h.facade.ExportOrders(c.Request.Context(), &buf, filter); err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("orders-%s.csv", h.now().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
