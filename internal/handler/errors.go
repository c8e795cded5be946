package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TheFlashe/diplom-neto/internal/service"
)

// serviceError maps business errors from the service layer onto HTTP
// responses. Anything unrecognized is logged and answered with a 500.
func serviceError(c echo.Context, log *zap.Logger, err error) error {
	var stockErr *service.StockError
	var checkoutErr *service.CheckoutError

	switch {
	case errors.As(err, &checkoutErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error": checkoutErr.Error(),
			"items": checkoutErr.Problems,
		})
	case errors.As(err, &stockErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     stockErr.Error(),
			"available": stockErr.Available,
		})
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNoShop), errors.Is(err, service.ErrShopNotOwned):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrEmptyBasket):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	log.Error("Unhandled service error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
