package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/cart-service/models"
	"github.com/yashrajoria/shopswift/services/cart-service/repository"
	"github.com/yashrajoria/shopswift/services/cart-service/services"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/common/events"
)

// --- Fakes ---

type fakeInventory struct {
	mu       sync.Mutex
	products map[string]models.Product
	err      error
}

func (f *fakeInventory) GetProduct(_ context.Context, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, apperrors.Newf(apperrors.KindNotFound, "Product %s not found", id)
	}
	return &p, nil
}

type mockPromotions struct {
	validateFn func(ctx context.Context, total float64, count int, code string) (*models.PromotionValidation, error)
}

func (m *mockPromotions) Validate(ctx context.Context, total float64, count int, code string) (*models.PromotionValidation, error) {
	return m.validateFn(ctx, total, count, code)
}

type mockOrders struct {
	createFn func(ctx context.Context, customerID string, req *models.CreateOrderRequest) (*models.Order, error)
}

func (m *mockOrders) CreateOrder(ctx context.Context, customerID string, req *models.CreateOrderRequest) (*models.Order, error) {
	return m.createFn(ctx, customerID, req)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *mockPublisher) Publish(_ context.Context, evt events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

// savePromotions mirrors the seeded SAVE10 and MINUS5 rules.
func savePromotions() *mockPromotions {
	return &mockPromotions{validateFn: func(_ context.Context, total float64, count int, code string) (*models.PromotionValidation, error) {
		if count == 0 {
			return nil, apperrors.New(apperrors.KindEmptyCart, "Cart is empty")
		}
		switch code {
		case "SAVE10":
			d := total * 0.1
			return &models.PromotionValidation{Valid: true, Code: code, DiscountAmount: d, FinalTotal: total - d}, nil
		case "MINUS5":
			if total < 20 {
				return nil, apperrors.New(apperrors.KindMinimumNotMet, "Minimum order value of 20.00 not met")
			}
			return &models.PromotionValidation{Valid: true, Code: code, DiscountAmount: 5, FinalTotal: total - 5}, nil
		}
		return nil, apperrors.New(apperrors.KindInvalidCode, "Invalid coupon code")
	}}
}

type fixture struct {
	svc       services.CartService
	repo      *repository.StoreCartRepository
	inventory *fakeInventory
	orders    *mockOrders
	publisher *mockPublisher
}

func newFixture(locker store.Locker) *fixture {
	f := &fixture{
		repo: repository.NewMemoryCartRepository(),
		inventory: &fakeInventory{products: map[string]models.Product{
			"p1": {ID: "p1", Name: "Widget", Price: 10, Stock: 5, Enabled: true},
			"p2": {ID: "p2", Name: "Gadget", Price: 50, Stock: 1, Enabled: true},
			"p3": {ID: "p3", Name: "Retired", Price: 5, Stock: 100, Enabled: false},
		}},
		orders: &mockOrders{createFn: func(_ context.Context, customerID string, req *models.CreateOrderRequest) (*models.Order, error) {
			total := 0.0
			items := make([]models.OrderItem, len(req.Items))
			for i, it := range req.Items {
				total += it.Price * float64(it.Quantity)
				items[i] = models.OrderItem{ProductID: it.ProductID, Name: it.Name, Quantity: it.Quantity, PriceAtPurchase: it.Price}
			}
			return &models.Order{ID: "o1", UserID: customerID, Status: "PENDING", TotalAmount: total, Items: items}, nil
		}},
		publisher: &mockPublisher{},
	}
	f.svc = services.NewCartService(f.repo, f.inventory, savePromotions(), f.orders, locker, f.publisher, nil, zap.NewNop())
	return f
}

// --- Reads ---

func TestGetCart_EmptyWhenMissing(t *testing.T) {
	f := newFixture(nil)

	cart, err := f.svc.GetCart(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", cart.CustomerID)
	assert.NotNil(t, cart.Items)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalPrice)
}

// --- AddItem ---

func TestAddItem_MergesDuplicateProduct(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "c1", "p1", 1)
	require.NoError(t, err)
	cart, err := f.svc.AddItem(ctx, "c1", "p1", 2)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.Equal(t, "Widget", cart.Items[0].Name)
	assert.Equal(t, 30.0, cart.TotalPrice)
}

func TestAddItem_InsufficientStockLeavesCartUnchanged(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.AddItem(ctx, "c1", "p2", 2)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	cart, err := f.svc.GetCart(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	_, err = f.svc.AddItem(ctx, "c1", "p2", 1)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "c1", "p2", 1)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	cart, err = f.svc.GetCart(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestAddItem_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int
		want      error
	}{
		{"unknown product", "nope", 1, apperrors.ErrNotFound},
		{"disabled product", "p3", 1, apperrors.ErrInvalidInput},
		{"zero quantity", "p1", 0, apperrors.ErrInvalidInput},
		{"blank product", " ", 1, apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil)
			_, err := f.svc.AddItem(context.Background(), "c1", tt.productID, tt.quantity)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAddItem_InventoryUnavailable(t *testing.T) {
	f := newFixture(nil)
	f.inventory.err = apperrors.ErrUpstreamUnavailable

	_, err := f.svc.AddItem(context.Background(), "c1", "p1", 1)
	assert.ErrorIs(t, err, apperrors.ErrUpstreamUnavailable)
}

func TestAddItem_ConcurrentAddsAreSerialised(t *testing.T) {
	f := newFixture(store.NewKeyMutex())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.AddItem(context.Background(), "c1", "p1", 1)
		}()
	}
	wg.Wait()

	cart, err := f.svc.GetCart(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 5, cart.Items[0].Quantity)
}

// barrierCartRepo holds every Get until all readers have arrived, so each
// caller works on the same stale cart.
type barrierCartRepo struct {
	repository.CartRepository
	wg *sync.WaitGroup
}

func (b *barrierCartRepo) Get(ctx context.Context, customerID string) (*models.Cart, error) {
	cart, err := b.CartRepository.Get(ctx, customerID)
	b.wg.Done()
	b.wg.Wait()
	return cart, err
}

func TestAddItem_UnguardedAddsLoseUpdates(t *testing.T) {
	f := newFixture(nil)

	var barrier sync.WaitGroup
	barrier.Add(2)
	svc := services.NewCartService(&barrierCartRepo{CartRepository: f.repo, wg: &barrier},
		f.inventory, savePromotions(), f.orders, store.NopLocker{}, f.publisher, nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddItem(context.Background(), "c1", "p1", 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	cart, err := f.repo.Get(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity, "both adds saved the same stale cart")
}

// --- UpdateItem / RemoveItem ---

func TestUpdateItem(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, "c1", "p1", 1)
	require.NoError(t, err)

	cart, err := f.svc.UpdateItem(ctx, "c1", "p1", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.Items[0].Quantity)
	assert.Equal(t, 40.0, cart.TotalPrice)

	_, err = f.svc.UpdateItem(ctx, "c1", "p1", 6)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	cart, err = f.svc.UpdateItem(ctx, "c1", "p1", 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Zero(t, cart.TotalPrice)
}

func TestUpdateAndRemove_NotFound(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.UpdateItem(ctx, "c1", "p1", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.svc.RemoveItem(ctx, "c1", "p1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.AddItem(ctx, "c1", "p1", 1)
	require.NoError(t, err)
	_, err = f.svc.UpdateItem(ctx, "c1", "p2", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.svc.RemoveItem(ctx, "c1", "p2")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRemoveItemKeepsDiscountAndClampsTotal(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, "c1", "p1", 2)
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, "c1", "p2", 1)
	require.NoError(t, err)

	cart, err := f.svc.ApplyPromotion(ctx, "c1", "MINUS5")
	require.NoError(t, err)
	assert.Equal(t, 65.0, cart.TotalPrice)

	cart, err = f.svc.RemoveItem(ctx, "c1", "p2")
	require.NoError(t, err)
	assert.Equal(t, 5.0, cart.DiscountAmount)
	assert.Equal(t, 15.0, cart.TotalPrice)

	cart, err = f.svc.UpdateItem(ctx, "c1", "p1", 0)
	require.NoError(t, err)
	assert.Zero(t, cart.TotalPrice)
}

// --- Promotions ---

func TestApplyPromotion_Save10(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, "c1", "p1", 2)
	require.NoError(t, err)

	cart, err := f.svc.ApplyPromotion(ctx, "c1", "SAVE10")
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", cart.PromotionCode)
	assert.Equal(t, 2.0, cart.DiscountAmount)
	assert.Equal(t, 18.0, cart.TotalPrice)

	cart, err = f.svc.ApplyPromotion(ctx, "c1", "")
	require.NoError(t, err)
	assert.Empty(t, cart.PromotionCode)
	assert.Zero(t, cart.DiscountAmount)
	assert.Equal(t, 20.0, cart.TotalPrice)
}

func TestApplyPromotion_MinimumNotMetKeepsCart(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, "c1", "p1", 1)
	require.NoError(t, err)

	// Subtotal 10 here; MINUS5 requires 20.
	_, err = f.svc.ApplyPromotion(ctx, "c1", "MINUS5")
	assert.ErrorIs(t, err, apperrors.ErrMinimumNotMet)

	cart, err := f.svc.GetCart(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, cart.PromotionCode)
	assert.Equal(t, 10.0, cart.TotalPrice)
}

func TestApplyPromotion_Errors(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.ApplyPromotion(ctx, "c1", "SAVE10")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.AddItem(ctx, "c1", "p1", 1)
	require.NoError(t, err)
	_, err = f.svc.ApplyPromotion(ctx, "c1", "BOGUS")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCode)

	_, err = f.svc.UpdateItem(ctx, "c1", "p1", 0)
	require.NoError(t, err)
	_, err = f.svc.ApplyPromotion(ctx, "c1", "SAVE10")
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
}

// --- Address ---

func TestSetAddress(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.SetAddress(ctx, "c1", "addr-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.AddItem(ctx, "c1", "p1", 1)
	require.NoError(t, err)
	cart, err := f.svc.SetAddress(ctx, "c1", "addr-1")
	require.NoError(t, err)
	assert.Equal(t, "addr-1", cart.ShippingAddressID)

	_, err = f.svc.SetAddress(ctx, "c1", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Checkout ---

func TestCheckout_CreatesOrderAndDeletesCart(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	f.inventory.products["p50"] = models.Product{ID: "p50", Name: "Lamp", Price: 50, Stock: 10, Enabled: true}

	_, err := f.svc.AddItem(ctx, "c1", "p50", 2)
	require.NoError(t, err)
	_, err = f.svc.SetAddress(ctx, "c1", "addr-7")
	require.NoError(t, err)

	var sent *models.CreateOrderRequest
	create := f.orders.createFn
	f.orders.createFn = func(ctx context.Context, customerID string, req *models.CreateOrderRequest) (*models.Order, error) {
		sent = req
		return create(ctx, customerID, req)
	}

	order, err := f.svc.Checkout(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 100.0, order.TotalAmount)
	assert.Equal(t, "PENDING", order.Status)

	require.NotNil(t, sent)
	assert.Equal(t, "addr-7", sent.ShippingAddressID)
	assert.Equal(t, []models.CreateOrderItem{{ProductID: "p50", Name: "Lamp", Quantity: 2, Price: 50}}, sent.Items)

	cart, err := f.svc.GetCart(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	_, err = f.repo.Get(ctx, "c1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, events.CartCheckedOut, f.publisher.events[0].Type)
}

func TestCheckout_FailureKeepsCart(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()
	_, err := f.svc.AddItem(ctx, "c1", "p1", 2)
	require.NoError(t, err)

	f.orders.createFn = func(context.Context, string, *models.CreateOrderRequest) (*models.Order, error) {
		return nil, apperrors.New(apperrors.KindInsufficientStock, "Insufficient stock for product p1")
	}

	_, err = f.svc.Checkout(ctx, "c1")
	assert.ErrorIs(t, err, apperrors.ErrOrderCreationFailed)
	assert.Contains(t, err.Error(), "Insufficient stock")

	cart, err := f.repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Empty(t, f.publisher.events)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, "c1")
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)

	_, err = f.svc.AddItem(ctx, "c1", "p1", 1)
	require.NoError(t, err)
	_, err = f.svc.RemoveItem(ctx, "c1", "p1")
	require.NoError(t, err)

	_, err = f.svc.Checkout(ctx, "c1")
	assert.ErrorIs(t, err, apperrors.ErrEmptyCart)
}

func TestClearCart(t *testing.T) {
	f := newFixture(nil)
	ctx := context.Background()

	require.NoError(t, f.svc.ClearCart(ctx, "c1"))

	_, err := f.svc.AddItem(ctx, "c1", "p1", 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.ClearCart(ctx, "c1"))

	carts, err := f.svc.ListCarts(ctx)
	require.NoError(t, err)
	assert.Empty(t, carts)
}

func TestMissingCustomerID(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.GetCart(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = f.svc.Checkout(context.Background(), " ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
