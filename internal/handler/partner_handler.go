package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TheFlashe/diplom-neto/internal/service"
	"github.com/TheFlashe/diplom-neto/pkg/logger"
	"github.com/TheFlashe/diplom-neto/prometheus"
)

// PartnerHandler serves the shop-owner feed update endpoint.
type PartnerHandler struct {
	importer *service.Importer
}

func NewPartnerHandler(importer *service.Importer) *PartnerHandler {
	return &PartnerHandler{importer: importer}
}

// Update fetches the feed at the given URL and reconciles it into the
// caller's shop. Listings missing from the feed are deactivated.
func (h *PartnerHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	userID := c.Get("user_id").(uint)

	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "url is required"})
	}

	defer prometheus.TrackDBOperation("import")(time.Now())
	summary, err := h.importer.PartnerUpdateURL(c.Request().Context(), req.URL, userID)
	if err != nil {
		prometheus.RecordImportRun("failed")
		log.Warn("Partner update rejected", zap.Uint("user_id", userID), zap.Error(err))
		return serviceError(c, log, err)
	}

	prometheus.RecordImportRun("succeeded")
	prometheus.RecordImportGoods(summary.Succeeded, summary.Failed)
	log.Info("Partner update applied",
		zap.Uint("user_id", userID),
		zap.String("shop", summary.Shop),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return c.JSON(http.StatusOK, summary)
}
