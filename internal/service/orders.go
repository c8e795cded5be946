package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/TheFlashe/diplom-neto/internal/model"
)

// Notifier is the capability the order engine uses to announce status
// changes. Delivery is fire-and-forget: implementations must never fail the
// triggering operation.
type Notifier interface {
	OrderStatusChanged(userID, orderID uint, status model.OrderStatus)
}

// OrderService owns the basket and order lifecycle. Every operation runs in
// one transaction; stock is checked against listings but never reserved, so
// two concurrent checkouts can both claim the last unit.
type OrderService struct {
	db       *gorm.DB
	notifier Notifier
	log      *zap.Logger
}

func NewOrderService(db *gorm.DB, notifier Notifier, log *zap.Logger) *OrderService {
	return &OrderService{db: db, notifier: notifier, log: log}
}

// ItemRequest adds quantity of a product from a shop to the basket.
type ItemRequest struct {
	ProductID uint `json:"product"`
	ShopID    uint `json:"shop"`
	Quantity  int  `json:"quantity"`
}

// ItemUpdate sets a new quantity for an existing basket line.
type ItemUpdate struct {
	ID       uint `json:"id"`
	Quantity int  `json:"quantity"`
}

// ItemError describes one failed line of a batch operation.
type ItemError struct {
	ItemID    uint   `json:"item_id,omitempty"`
	ProductID uint   `json:"product,omitempty"`
	ShopID    uint   `json:"shop,omitempty"`
	Reason    string `json:"error"`
}

// BatchResult reports a partial-success batch: applied lines stay applied,
// failed lines are listed with their reasons.
type BatchResult struct {
	Applied int         `json:"applied"`
	Errors  []ItemError `json:"errors,omitempty"`
}

// CheckoutError aggregates the lines that failed checkout re-validation.
// The basket is left unchanged when it is returned.
type CheckoutError struct {
	Problems []ItemError
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("checkout rejected: %d items are no longer available", len(e.Problems))
}

// Basket returns the user's basket order, creating it lazily on first
// access. There is exactly one basket per user.
func (s *OrderService) Basket(ctx context.Context, userID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.StatusBasket).
		Preload("Items").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		order = model.Order{UserID: userID, Status: model.StatusBasket}
		if err := s.db.WithContext(ctx).Create(&order).Error; err != nil {
			return nil, err
		}
		return &order, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// basketTx is Basket within an existing transaction.
func basketTx(tx *gorm.DB, userID uint) (*model.Order, error) {
	var order model.Order
	err := tx.Where("user_id = ? AND status = ?", userID, model.StatusBasket).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		order = model.Order{UserID: userID, Status: model.StatusBasket}
		if err := tx.Create(&order).Error; err != nil {
			return nil, err
		}
		return &order, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// listingFor looks up the available listing for (product, shop).
func listingFor(tx *gorm.DB, productID, shopID uint) (*model.ProductInfo, error) {
	var info model.ProductInfo
	err := tx.Where("product_id = ? AND shop_id = ?", productID, shopID).First(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnavailable
	}
	if err != nil {
		return nil, err
	}
	if !info.Available {
		return nil, ErrUnavailable
	}
	return &info, nil
}

func checkStock(info *model.ProductInfo, quantity int) error {
	if quantity > info.Quantity {
		return &StockError{Available: info.Quantity}
	}
	return nil
}

// AddItem adds quantity of a product to the user's basket. If a line for
// (product, shop) already exists its quantity is incremented, and the new
// total is re-validated against the listing's current stock.
func (s *OrderService) AddItem(ctx context.Context, userID uint, req ItemRequest) (*model.OrderItem, error) {
	if req.ProductID == 0 || req.ShopID == 0 {
		return nil, fmt.Errorf("%w: product and shop are required", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	var item model.OrderItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := basketTx(tx, userID)
		if err != nil {
			return err
		}

		info, err := listingFor(tx, req.ProductID, req.ShopID)
		if err != nil {
			return err
		}

		err = tx.Where("order_id = ? AND product_id = ? AND shop_id = ?",
			basket.ID, req.ProductID, req.ShopID).First(&item).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := checkStock(info, req.Quantity); err != nil {
				return err
			}
			item = model.OrderItem{
				OrderID:   basket.ID,
				ProductID: req.ProductID,
				ShopID:    req.ShopID,
				Quantity:  req.Quantity,
			}
			return tx.Create(&item).Error
		case err != nil:
			return err
		default:
			total := item.Quantity + req.Quantity
			if err := checkStock(info, total); err != nil {
				return err
			}
			item.Quantity = total
			return tx.Save(&item).Error
		}
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddItems adds a batch of lines. Per-line failures are collected and
// reported; lines that validated are applied regardless.
func (s *OrderService) AddItems(ctx context.Context, userID uint, reqs []ItemRequest) (*BatchResult, error) {
	result := &BatchResult{}
	for _, req := range reqs {
		if _, err := s.AddItem(ctx, userID, req); err != nil {
			if !IsDomainError(err) {
				return nil, err
			}
			result.Errors = append(result.Errors, ItemError{
				ProductID: req.ProductID,
				ShopID:    req.ShopID,
				Reason:    err.Error(),
			})
			continue
		}
		result.Applied++
	}
	return result, nil
}

// UpdateItems sets new quantities for basket lines. Each line must belong
// to the caller's basket, be positive, and fit the listing's current stock;
// invalid lines are reported, valid ones applied.
func (s *OrderService) UpdateItems(ctx context.Context, userID uint, updates []ItemUpdate) (*BatchResult, error) {
	result := &BatchResult{}
	for _, upd := range updates {
		err := s.updateItem(ctx, userID, upd)
		if err != nil {
			if !IsDomainError(err) {
				return nil, err
			}
			result.Errors = append(result.Errors, ItemError{ItemID: upd.ID, Reason: err.Error()})
			continue
		}
		result.Applied++
	}
	return result, nil
}

func (s *OrderService) updateItem(ctx context.Context, userID uint, upd ItemUpdate) error {
	if upd.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := basketTx(tx, userID)
		if err != nil {
			return err
		}

		var item model.OrderItem
		err = tx.Where("id = ? AND order_id = ?", upd.ID, basket.ID).First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: item %d is not in the basket", ErrNotFound, upd.ID)
		}
		if err != nil {
			return err
		}

		info, err := listingFor(tx, item.ProductID, item.ShopID)
		if err != nil {
			return err
		}
		if err := checkStock(info, upd.Quantity); err != nil {
			return err
		}

		item.Quantity = upd.Quantity
		return tx.Save(&item).Error
	})
}

// RemoveItems deletes basket lines by id. Unknown ids are a no-op; the
// count of removed lines is returned.
func (s *OrderService) RemoveItems(ctx context.Context, userID uint, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := basketTx(tx, userID)
		if err != nil {
			return err
		}
		res := tx.Where("order_id = ? AND id IN ?", basket.ID, ids).Delete(&model.OrderItem{})
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}

// Clear removes every line from the basket.
func (s *OrderService) Clear(ctx context.Context, userID uint) (int64, error) {
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		basket, err := basketTx(tx, userID)
		if err != nil {
			return err
		}
		res := tx.Where("order_id = ?", basket.ID).Delete(&model.OrderItem{})
		removed = res.RowsAffected
		return res.Error
	})
	return removed, err
}

// Checkout places the basket: every line is re-validated against current
// availability and stock, and only if all pass does the basket become a new
// order. On failure the basket is left untouched and the problem lines are
// returned inside a CheckoutError.
func (s *OrderService) Checkout(ctx context.Context, userID uint) (*model.Order, error) {
	var placed *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var basket model.Order
		err := tx.Where("user_id = ? AND status = ?", userID, model.StatusBasket).
			Preload("Items").
			First(&basket).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEmptyBasket
		}
		if err != nil {
			return err
		}
		if len(basket.Items) == 0 {
			return ErrEmptyBasket
		}

		var problems []ItemError
		for _, item := range basket.Items {
			info, err := listingFor(tx, item.ProductID, item.ShopID)
			if err != nil {
				if !IsDomainError(err) {
					return err
				}
				problems = append(problems, ItemError{
					ItemID:    item.ID,
					ProductID: item.ProductID,
					ShopID:    item.ShopID,
					Reason:    err.Error(),
				})
				continue
			}
			if err := checkStock(info, item.Quantity); err != nil {
				problems = append(problems, ItemError{
					ItemID:    item.ID,
					ProductID: item.ProductID,
					ShopID:    item.ShopID,
					Reason:    err.Error(),
				})
			}
		}
		if len(problems) > 0 {
			return &CheckoutError{Problems: problems}
		}

		if err := tx.Model(&model.Order{}).Where("id = ?", basket.ID).
			Update("status", model.StatusNew).Error; err != nil {
			return err
		}
		basket.Status = model.StatusNew
		placed = &basket
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		zap.Uint("user_id", placed.UserID),
		zap.Uint("order_id", placed.ID),
		zap.Int("items", len(placed.Items)))
	s.notify(placed.UserID, placed.ID, placed.Status)
	return placed, nil
}

// Orders lists the user's placed orders, newest first. Baskets are not
// included.
func (s *OrderService) Orders(ctx context.Context, userID uint) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status <> ?", userID, model.StatusBasket).
		Preload("Items").
		Order("created_at desc").
		Find(&orders).Error
	return orders, err
}

// Order returns one of the user's orders with its items.
func (s *OrderService) Order(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", orderID, userID).
		Preload("Items").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves an order to a new lifecycle status. The target must be
// a recognized non-basket status and the move must follow the transition
// graph. A notification fires on every change.
func (s *OrderService) UpdateStatus(ctx context.Context, userID, orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() || status == model.StatusBasket {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var order model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND user_id = ?", orderID, userID).First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("order %d: %w", orderID, ErrNotFound)
		}
		if err != nil {
			return err
		}

		if !order.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, status)
		}
		if err := tx.Model(&model.Order{}).Where("id = ?", order.ID).
			Update("status", status).Error; err != nil {
			return err
		}
		order.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(order.UserID, order.ID, order.Status)
	return &order, nil
}

// Cancel cancels the order unless it is already delivered or canceled.
func (s *OrderService) Cancel(ctx context.Context, userID, orderID uint) (*model.Order, error) {
	return s.UpdateStatus(ctx, userID, orderID, model.StatusCanceled)
}

// Total computes the order's total from the current available listings.
// Items whose listing has disappeared or been deactivated contribute
// nothing.
func (s *OrderService) Total(ctx context.Context, order *model.Order) (float64, error) {
	var total float64
	for _, item := range order.Items {
		var info model.ProductInfo
		err := s.db.WithContext(ctx).
			Where("product_id = ? AND shop_id = ? AND available = ?", item.ProductID, item.ShopID, true).
			First(&info).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		total += float64(item.Quantity) * info.Price
	}
	return total, nil
}

func (s *OrderService) notify(userID, orderID uint, status model.OrderStatus) {
	if s.notifier == nil {
		return
	}
	s.notifier.OrderStatusChanged(userID, orderID, status)
}
