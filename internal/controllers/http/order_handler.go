package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.orders.CreateOrder(c.Request.Context(), identity(c), req.input())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, res, "Order created successfully")
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	var req verifyPaymentRequest
	if !h.bind(c, &req) {
		return
	}
	order, err := h.orders.ConfirmPayment(c.Request.Context(), identity(c), req.input())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, order, "Payment verified successfully")
}

func (h *Handler) ListOrders(c *gin.Context) {
	page, limit := pageQuery(c)
	res, err := h.orders.ListOwnOrders(c.Request.Context(), identity(c), page, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, newOrderPageResponse(res), "Orders fetched successfully")
}

func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	order, err := h.orders.GetOwnOrder(c.Request.Context(), identity(c), orderID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, order, "Order fetched successfully")
}

func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var req cancelOrderRequest
	if !h.bindOptional(c, &req) {
		return
	}
	order, err := h.orders.CancelOrder(c.Request.Context(), identity(c), orderID, req.Reason)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, order, "Order cancelled successfully")
}

func (h *Handler) AdminListOrders(c *gin.Context) {
	page, limit := pageQuery(c)
	res, err := h.orders.AdminListOrders(c.Request.Context(), identity(c), c.Query("status"), page, limit)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, newOrderPageResponse(res), "Orders fetched successfully")
}

func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	order, err := h.orders.AdminGetOrder(c.Request.Context(), identity(c), orderID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, order, "Order fetched successfully")
}

func (h *Handler) AdminUpdateStatus(c *gin.Context) {
	orderID, ok := idParam(c, "orderId")
	if !ok {
		return
	}
	var req updateStatusRequest
	if !h.bind(c, &req) {
		return
	}
	order, err := h.orders.AdminUpdateStatus(c.Request.Context(), identity(c), orderID, req.input())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, order, "Order status updated successfully")
}

func (h *Handler) OrderStats(c *gin.Context) {
	stats, err := h.orders.OrderStats(c.Request.Context(), identity(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, stats, "Order statistics fetched successfully")
}
