package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TheFlashe/diplom-neto/internal/service"
	"github.com/TheFlashe/diplom-neto/pkg/logger"
	"github.com/TheFlashe/diplom-neto/prometheus"
)

// BasketHandler serves the authenticated user's basket.
type BasketHandler struct {
	orders *service.OrderService
}

func NewBasketHandler(orders *service.OrderService) *BasketHandler {
	return &BasketHandler{orders: orders}
}

// Get returns the basket with its current total.
func (h *BasketHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	defer prometheus.TrackDBOperation("query")(time.Now())
	basket, err := h.orders.Basket(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to load basket", zap.Error(err))
		return serviceError(c, log, err)
	}

	total, err := h.orders.Total(c.Request().Context(), basket)
	if err != nil {
		log.Error("Failed to compute basket total", zap.Error(err))
		return serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"basket": basket,
		"total":  total,
	})
}

// AddItems adds one or more lines to the basket. The body is either a
// single item object or a list of them; partial failures are reported per
// line.
func (h *BasketHandler) AddItems(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)
	prometheus.RecordBasketOperation("add")

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var reqs []service.ItemRequest
	if err := json.Unmarshal(body, &reqs); err != nil {
		var single service.ItemRequest
		if err := json.Unmarshal(body, &single); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
		}
		reqs = []service.ItemRequest{single}
	}
	if len(reqs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no items provided"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	result, err := h.orders.AddItems(c.Request().Context(), userID, reqs)
	if err != nil {
		log.Error("Failed to add basket items", zap.Error(err))
		return serviceError(c, log, err)
	}

	log.Info("Basket items added",
		zap.Uint("user_id", userID),
		zap.Int("applied", result.Applied),
		zap.Int("failed", len(result.Errors)))
	return c.JSON(http.StatusOK, result)
}

// UpdateItems sets new quantities for existing basket lines.
func (h *BasketHandler) UpdateItems(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)
	prometheus.RecordBasketOperation("update")

	var updates []service.ItemUpdate
	if err := c.Bind(&updates); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(updates) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no items provided"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	result, err := h.orders.UpdateItems(c.Request().Context(), userID, updates)
	if err != nil {
		log.Error("Failed to update basket items", zap.Error(err))
		return serviceError(c, log, err)
	}

	return c.JSON(http.StatusOK, result)
}

// RemoveItems deletes basket lines by id. Unknown ids are ignored.
func (h *BasketHandler) RemoveItems(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)
	prometheus.RecordBasketOperation("remove")

	var req struct {
		Items []uint `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no items provided"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	removed, err := h.orders.RemoveItems(c.Request().Context(), userID, req.Items)
	if err != nil {
		log.Error("Failed to remove basket items", zap.Error(err))
		return serviceError(c, log, err)
	}

	log.Info("Basket items removed", zap.Uint("user_id", userID), zap.Int64("removed", removed))
	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}

// Clear empties the whole basket.
func (h *BasketHandler) Clear(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)
	prometheus.RecordBasketOperation("clear")

	defer prometheus.TrackDBOperation("delete")(time.Now())
	removed, err := h.orders.Clear(c.Request().Context(), userID)
	if err != nil {
		log.Error("Failed to clear basket", zap.Error(err))
		return serviceError(c, log, err)
	}

	log.Info("Basket cleared", zap.Uint("user_id", userID), zap.Int64("removed", removed))
	return c.JSON(http.StatusOK, echo.Map{"removed": removed})
}
