package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/TheFlashe/diplom-neto/internal/model"
)

type fakeNotifier struct {
	mu    sync.Mutex
	calls []model.OrderStatus
}

func (f *fakeNotifier) OrderStatusChanged(userID, orderID uint, status model.OrderStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, status)
}

func (f *fakeNotifier) statuses() []model.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.OrderStatus(nil), f.calls...)
}

type orderFixture struct {
	db       *gorm.DB
	svc      *OrderService
	notifier *fakeNotifier
	user     *model.User
	shop     *model.Shop
	gizmo    *model.Product
	gizmoPI  *model.ProductInfo
}

// newOrderFixture seeds a user, a shop and one listing with 10 units at 10.50.
func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	db := newTestDB(t)

	user := newTestUser(t, db, "buyer@example.com")
	owner := newTestUser(t, db, "owner@example.com")

	shop := &model.Shop{Name: "Acme", Slug: "acme", OwnerID: owner.ID}
	require.NoError(t, db.Create(shop).Error)

	category := &model.Category{Name: "Widgets", Slug: "widgets"}
	require.NoError(t, db.Create(category).Error)

	gizmo := &model.Product{Name: "Gizmo", Slug: "gizmo", CategoryID: category.ID}
	require.NoError(t, db.Create(gizmo).Error)

	info := &model.ProductInfo{
		Name: "Gizmo", Slug: "gizmo", Quantity: 10, Price: 10.50, PriceRRC: 12,
		Available: true, ProductID: gizmo.ID, ShopID: shop.ID,
	}
	require.NoError(t, db.Create(info).Error)

	notifier := &fakeNotifier{}
	return &orderFixture{
		db:       db,
		svc:      NewOrderService(db, notifier, testLogger()),
		notifier: notifier,
		user:     user,
		shop:     shop,
		gizmo:    gizmo,
		gizmoPI:  info,
	}
}

func (f *orderFixture) addListing(t *testing.T, name string, qty int, price float64, available bool) (*model.Product, *model.ProductInfo) {
	t.Helper()
	product := &model.Product{Name: name, Slug: Slugify(name), CategoryID: f.gizmo.CategoryID}
	require.NoError(t, f.db.Create(product).Error)
	info := &model.ProductInfo{
		Name: name, Slug: Slugify(name), Quantity: qty, Price: price,
		Available: available, ProductID: product.ID, ShopID: f.shop.ID,
	}
	require.NoError(t, f.db.Create(info).Error)
	return product, info
}

func TestBasketCreatedOnFirstAccess(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	basket, err := f.svc.Basket(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBasket, basket.Status)

	again, err := f.svc.Basket(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, basket.ID, again.ID, "one basket per user")
}

func TestAddItemSumsQuantity(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	req := ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 2}

	item, err := f.svc.AddItem(ctx, f.user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Quantity)

	req.Quantity = 3
	item, err = f.svc.AddItem(ctx, f.user.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 5, item.Quantity)

	var count int64
	require.NoError(t, f.db.Model(&model.OrderItem{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "repeated adds merge into one line")
}

func TestAddItemValidation(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 0})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.AddItem(ctx, f.user.ID, ItemRequest{ShopID: f.shop.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAddItemUnavailableListing(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product, _ := f.addListing(t, "Dud", 5, 2.00, false)

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: product.ID, ShopID: f.shop.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: 999, ShopID: f.shop.ID, Quantity: 1})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestAddItemInsufficientStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 11})
	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 10, stockErr.Available)

	// Summing over the limit is also rejected and the line stays unchanged.
	_, err = f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 8})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 8})
	require.ErrorAs(t, err, &stockErr)

	var item model.OrderItem
	require.NoError(t, f.db.First(&item).Error)
	assert.Equal(t, 8, item.Quantity)
}

func TestAddItemsPartialFailure(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	result, err := f.svc.AddItems(ctx, f.user.ID, []ItemRequest{
		{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 2},
		{ProductID: 999, ShopID: f.shop.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	require.Len(t, result.Errors, 1)
	assert.EqualValues(t, 999, result.Errors[0].ProductID)
}

func TestUpdateItems(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 2})
	require.NoError(t, err)

	result, err := f.svc.UpdateItems(ctx, f.user.ID, []ItemUpdate{
		{ID: item.ID, Quantity: 4},
		{ID: 999, Quantity: 1},
		{ID: item.ID, Quantity: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied)
	assert.Len(t, result.Errors, 2)

	var got model.OrderItem
	require.NoError(t, f.db.First(&got, item.ID).Error)
	assert.Equal(t, 4, got.Quantity)
}

func TestRemoveItemsIdempotent(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	item, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 2})
	require.NoError(t, err)

	removed, err := f.svc.RemoveItems(ctx, f.user.ID, []uint{item.ID, 999})
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	removed, err = f.svc.RemoveItems(ctx, f.user.ID, []uint{item.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 0, removed)
}

func TestClearBasket(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product, _ := f.addListing(t, "Doohickey", 5, 1.00, true)

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: product.ID, ShopID: f.shop.ID, Quantity: 1})
	require.NoError(t, err)

	removed, err := f.svc.Clear(ctx, f.user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, removed)
}

func TestCheckoutEmptyBasket(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.user.ID)
	assert.ErrorIs(t, err, ErrEmptyBasket)

	// An existing but empty basket is rejected the same way.
	_, err = f.svc.Basket(ctx, f.user.ID)
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, f.user.ID)
	assert.ErrorIs(t, err, ErrEmptyBasket)
}

func TestCheckoutRevalidatesStock(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 5})
	require.NoError(t, err)

	// Stock drops between add and checkout.
	require.NoError(t, f.db.Model(f.gizmoPI).Update("quantity", 3).Error)

	_, err = f.svc.Checkout(ctx, f.user.ID)
	var checkoutErr *CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	require.Len(t, checkoutErr.Problems, 1)

	// The basket survives a failed checkout untouched.
	basket, err := f.svc.Basket(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBasket, basket.Status)
	assert.Len(t, basket.Items, 1)
	assert.Empty(t, f.notifier.statuses())
}

func TestCheckoutSuccess(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 2})
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNew, order.Status)
	assert.Equal(t, []model.OrderStatus{model.StatusNew}, f.notifier.statuses())

	// The old basket is gone; the next access creates a fresh one.
	basket, err := f.svc.Basket(ctx, f.user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, order.ID, basket.ID)
	assert.Empty(t, basket.Items)
}

func TestUpdateStatusRules(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 1})
	require.NoError(t, err)
	order, err := f.svc.Checkout(ctx, f.user.ID)
	require.NoError(t, err)

	// Forward moves are allowed, including skipping stages.
	got, err := f.svc.UpdateStatus(ctx, f.user.ID, order.ID, model.StatusAssembled)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAssembled, got.Status)

	// Backward moves are not.
	_, err = f.svc.UpdateStatus(ctx, f.user.ID, order.ID, model.StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Unknown statuses and basket are rejected outright.
	_, err = f.svc.UpdateStatus(ctx, f.user.ID, order.ID, "shipped")
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = f.svc.UpdateStatus(ctx, f.user.ID, order.ID, model.StatusBasket)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// Terminal states accept nothing further.
	_, err = f.svc.UpdateStatus(ctx, f.user.ID, order.ID, model.StatusDelivered)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, f.user.ID, order.ID, model.StatusCanceled)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t,
		[]model.OrderStatus{model.StatusNew, model.StatusAssembled, model.StatusDelivered},
		f.notifier.statuses())
}

func TestUpdateStatusScopedToUser(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 1})
	require.NoError(t, err)
	order, err := f.svc.Checkout(ctx, f.user.ID)
	require.NoError(t, err)

	other := newTestUser(t, f.db, "other@example.com")
	_, err = f.svc.UpdateStatus(ctx, other.ID, order.ID, model.StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancel(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 1})
	require.NoError(t, err)
	order, err := f.svc.Checkout(ctx, f.user.ID)
	require.NoError(t, err)

	got, err := f.svc.Cancel(ctx, f.user.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, got.Status)

	_, err = f.svc.Cancel(ctx, f.user.ID, order.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestOrdersExcludeBasket(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 1})
	require.NoError(t, err)
	placed, err := f.svc.Checkout(ctx, f.user.ID)
	require.NoError(t, err)

	// A fresh basket with an item must not show up in the order list.
	_, err = f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 1})
	require.NoError(t, err)

	orders, err := f.svc.Orders(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, placed.ID, orders[0].ID)
}

func TestTotalSkipsMissingListings(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()
	product, info := f.addListing(t, "Doohickey", 5, 2.00, true)

	_, err := f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: f.gizmo.ID, ShopID: f.shop.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, f.user.ID, ItemRequest{ProductID: product.ID, ShopID: f.shop.ID, Quantity: 3})
	require.NoError(t, err)

	basket, err := f.svc.Basket(ctx, f.user.ID)
	require.NoError(t, err)

	total, err := f.svc.Total(ctx, basket)
	require.NoError(t, err)
	assert.InDelta(t, 2*10.50+3*2.00, total, 0.001)

	// Deactivated listings drop out of the total.
	require.NoError(t, f.db.Model(info).Update("available", false).Error)
	basket, err = f.svc.Basket(ctx, f.user.ID)
	require.NoError(t, err)
	total, err = f.svc.Total(ctx, basket)
	require.NoError(t, err)
	assert.InDelta(t, 2*10.50, total, 0.001)
}
