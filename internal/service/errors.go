package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for the importer and the order engine. Handlers map these
// onto HTTP status codes; anything else is treated as an internal error.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrUnavailable       = errors.New("product is not available in this shop")
	ErrEmptyBasket       = errors.New("basket is empty")
	ErrInvalidStatus     = errors.New("unrecognized order status")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNoShop            = errors.New("user does not own a shop")
	ErrShopNotOwned      = errors.New("shop does not belong to this user")
)

// StockError reports a quantity request that exceeds the listed stock.
type StockError struct {
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock, available: %d", e.Available)
}

// IsDomainError reports whether err is an expected business failure rather
// than an infrastructure error. Batch operations collect domain errors per
// item and keep going; infrastructure errors abort.
func IsDomainError(err error) bool {
	var stockErr *StockError
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUnavailable) ||
		errors.As(err, &stockErr)
}
