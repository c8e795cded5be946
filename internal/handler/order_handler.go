package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TheFlashe/diplom-neto/internal/model"
	"github.com/TheFlashe/diplom-neto/internal/service"
	"github.com/TheFlashe/diplom-neto/pkg/logger"
	"github.com/TheFlashe/diplom-neto/prometheus"
)

// OrderHandler serves the authenticated user's placed orders.
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// List returns the user's placed orders with their totals, newest first.
func (h *OrderHandler) List(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	defer prometheus.TrackDBOperation("query")(time.Now())
	orders, err := h.orders.Orders(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to list orders", zap.Error(err))
		return serviceError(c, log, err)
	}

	type orderView struct {
		model.Order
		Total float64 `json:"total"`
	}
	views := make([]orderView, 0, len(orders))
	for i := range orders {
		total, err := h.orders.Total(c.Request().Context(), &orders[i])
		if err != nil {
			log.Error("Failed to compute order total", zap.Uint("order_id", orders[i].ID), zap.Error(err))
			return serviceError(c, log, err)
		}
		views = append(views, orderView{Order: orders[i], Total: total})
	}
	return c.JSON(http.StatusOK, views)
}

// Get returns one of the user's orders with its total.
func (h *OrderHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	order, err := h.orders.Order(c.Request().Context(), userID, uint(orderID))
	if err != nil {
		return serviceError(c, log, err)
	}

	total, err := h.orders.Total(c.Request().Context(), order)
	if err != nil {
		log.Error("Failed to compute order total", zap.Uint("order_id", order.ID), zap.Error(err))
		return serviceError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"order": order,
		"total": total,
	})
}

// Checkout places the basket as a new order.
func (h *OrderHandler) Checkout(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)
	prometheus.RecordBasketOperation("checkout")

	defer prometheus.TrackDBOperation("update")(time.Now())
	order, err := h.orders.Checkout(c.Request().Context(), userID)
	if err != nil {
		log.Warn("Checkout rejected", zap.Uint("user_id", userID), zap.Error(err))
		return serviceError(c, log, err)
	}

	prometheus.RecordOrderStatus(string(order.Status))
	log.Info("Order placed", zap.Uint("user_id", userID), zap.Uint("order_id", order.ID))
	return c.JSON(http.StatusCreated, order)
}

// UpdateStatus moves an order along its lifecycle.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	order, err := h.orders.UpdateStatus(c.Request().Context(), userID, uint(orderID), req.Status)
	if err != nil {
		log.Warn("Status update rejected",
			zap.Uint("order_id", uint(orderID)),
			zap.String("status", string(req.Status)),
			zap.Error(err))
		return serviceError(c, log, err)
	}

	prometheus.RecordOrderStatus(string(order.Status))
	log.Info("Order status updated",
		zap.Uint("order_id", order.ID),
		zap.String("status", string(order.Status)))
	return c.JSON(http.StatusOK, order)
}

// Cancel cancels a non-terminal order.
func (h *OrderHandler) Cancel(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	order, err := h.orders.Cancel(c.Request().Context(), userID, uint(orderID))
	if err != nil {
		log.Warn("Cancel rejected", zap.Uint("order_id", uint(orderID)), zap.Error(err))
		return serviceError(c, log, err)
	}

	prometheus.RecordOrderStatus(string(order.Status))
	log.Info("Order canceled", zap.Uint("order_id", order.ID))
	return c.JSON(http.StatusOK, order)
}
