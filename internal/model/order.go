package model

import "time"

// OrderStatus is the lifecycle state of an order. "basket" is the only
// mutable-cart state; everything after it represents a placed order.
type OrderStatus string

const (
	StatusBasket    OrderStatus = "basket"
	StatusNew       OrderStatus = "new"
	StatusConfirmed OrderStatus = "confirmed"
	StatusAssembled OrderStatus = "assembled"
	StatusSent      OrderStatus = "sent"
	StatusDelivered OrderStatus = "delivered"
	StatusCanceled  OrderStatus = "canceled"
)

// statusRank orders the forward fulfilment sequence. Basket and canceled
// are not part of the sequence.
var statusRank = map[OrderStatus]int{
	StatusNew:       1,
	StatusConfirmed: 2,
	StatusAssembled: 3,
	StatusSent:      4,
	StatusDelivered: 5,
}

// Valid reports whether s is one of the recognized statuses.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusBasket, StatusNew, StatusConfirmed, StatusAssembled, StatusSent, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

// CanTransitionTo reports whether moving from s to target follows the
// allowed graph: basket -> new -> confirmed -> assembled -> sent ->
// delivered, with canceled reachable from any non-terminal state. Forward
// stages may be skipped; moving backward is rejected.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	if s.Terminal() || !target.Valid() {
		return false
	}
	if target == StatusCanceled {
		return true
	}
	if target == StatusBasket {
		return false
	}
	if s == StatusBasket {
		return target == StatusNew
	}
	return statusRank[target] > statusRank[s]
}

// Order is a user's order. Exactly one order per user may be in basket
// status at a time; it acts as the active cart and is consumed by checkout.
type Order struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"index;not null"`
	User      User        `json:"-"`
	Status    OrderStatus `json:"status" gorm:"type:varchar(20);index;default:basket"`
	Items     []OrderItem `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is one line of an order. Unique per (order, product, shop);
// repeated additions increment the quantity.
type OrderItem struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	OrderID   uint    `json:"order_id" gorm:"uniqueIndex:idx_order_product_shop;not null"`
	ProductID uint    `json:"product_id" gorm:"uniqueIndex:idx_order_product_shop;not null"`
	Product   Product `json:"-"`
	ShopID    uint    `json:"shop_id" gorm:"uniqueIndex:idx_order_product_shop;not null"`
	Shop      Shop    `json:"-"`
	Quantity  int     `json:"quantity" gorm:"not null;default:1"`
}
