package services

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/shopswift/pkg/aws"
	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/cart-service/clients"
	"github.com/yashrajoria/shopswift/services/cart-service/models"
	"github.com/yashrajoria/shopswift/services/cart-service/repository"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/common/events"
	"github.com/yashrajoria/shopswift/services/common/middleware"
)

const serviceName = "cart-service"

type CartService interface {
	GetCart(ctx context.Context, customerID string) (*models.Cart, error)
	ListCarts(ctx context.Context) ([]models.Cart, error)
	AddItem(ctx context.Context, customerID, productID string, quantity int) (*models.Cart, error)
	UpdateItem(ctx context.Context, customerID, productID string, quantity int) (*models.Cart, error)
	RemoveItem(ctx context.Context, customerID, productID string) (*models.Cart, error)
	ClearCart(ctx context.Context, customerID string) error
	SetAddress(ctx context.Context, customerID, addressID string) (*models.Cart, error)
	ApplyPromotion(ctx context.Context, customerID, code string) (*models.Cart, error)
	Checkout(ctx context.Context, customerID string) (*models.Order, error)
}

type cartServiceImpl struct {
	repo       repository.CartRepository
	inventory  clients.InventoryClient
	promotions clients.PromotionClient
	orders     clients.OrderClient
	locker     store.Locker
	publisher  events.Publisher
	metrics    aws_pkg.MetricsRecorder
	logger     *zap.Logger
}

func NewCartService(
	repo repository.CartRepository,
	inventory clients.InventoryClient,
	promotions clients.PromotionClient,
	orders clients.OrderClient,
	locker store.Locker,
	publisher events.Publisher,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
) CartService {
	if locker == nil {
		locker = store.NewKeyMutex()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &cartServiceImpl{
		repo:       repo,
		inventory:  inventory,
		promotions: promotions,
		orders:     orders,
		locker:     locker,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
	}
}

// GetCart returns an empty cart when the customer has none.
func (s *cartServiceImpl) GetCart(ctx context.Context, customerID string) (*models.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	cart, err := s.repo.Get(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewCart(customerID), nil
	}
	if err != nil {
		return nil, s.storageError("load", customerID, err)
	}
	return cart, nil
}

func (s *cartServiceImpl) ListCarts(ctx context.Context) ([]models.Cart, error) {
	carts, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list carts", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to list carts", err)
	}
	if carts == nil {
		carts = []models.Cart{}
	}
	return carts, nil
}

// AddItem merges quantity into the product's line, or appends a line with the
// product's current name and price. The stock check is advisory: stock is not
// reserved until checkout.
func (s *cartServiceImpl) AddItem(ctx context.Context, customerID, productID string, quantity int) (*models.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "productId is required")
	}
	if quantity <= 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "Quantity must be greater than zero")
	}

	var cart *models.Cart
	err := s.withLock(ctx, customerID, func() error {
		product, err := s.inventory.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if !product.Enabled {
			return apperrors.Newf(apperrors.KindInvalidInput, "Product %s is not available", productID)
		}

		cart, err = s.GetCart(ctx, customerID)
		if err != nil {
			return err
		}

		idx := cart.Find(productID)
		current := 0
		if idx >= 0 {
			current = cart.Items[idx].Quantity
		}
		if current+quantity > product.Stock {
			return apperrors.Newf(apperrors.KindInsufficientStock,
				"Insufficient stock for product %s: requested %d, available %d", productID, current+quantity, product.Stock)
		}

		if idx >= 0 {
			cart.Items[idx].Quantity = current + quantity
		} else {
			cart.Items = append(cart.Items, models.CartItem{
				ProductID: productID,
				Name:      product.Name,
				Quantity:  quantity,
				Price:     product.Price,
			})
		}
		return s.save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// UpdateItem sets the line's quantity; zero or less removes the line.
func (s *cartServiceImpl) UpdateItem(ctx context.Context, customerID, productID string, quantity int) (*models.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}

	var cart *models.Cart
	err := s.withLock(ctx, customerID, func() error {
		var err error
		cart, err = s.existingCart(ctx, customerID)
		if err != nil {
			return err
		}
		idx := cart.Find(productID)
		if idx < 0 {
			return apperrors.Newf(apperrors.KindNotFound, "Product %s is not in the cart", productID)
		}

		if quantity <= 0 {
			cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
			return s.save(ctx, cart)
		}

		product, err := s.inventory.GetProduct(ctx, productID)
		if err != nil {
			return err
		}
		if quantity > product.Stock {
			return apperrors.Newf(apperrors.KindInsufficientStock,
				"Insufficient stock for product %s: requested %d, available %d", productID, quantity, product.Stock)
		}
		cart.Items[idx].Quantity = quantity
		return s.save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, customerID, productID string) (*models.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}

	var cart *models.Cart
	err := s.withLock(ctx, customerID, func() error {
		var err error
		cart, err = s.existingCart(ctx, customerID)
		if err != nil {
			return err
		}
		idx := cart.Find(productID)
		if idx < 0 {
			return apperrors.Newf(apperrors.KindNotFound, "Product %s is not in the cart", productID)
		}
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return s.save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ClearCart deletes the cart. Clearing a missing cart succeeds.
func (s *cartServiceImpl) ClearCart(ctx context.Context, customerID string) error {
	if err := requireCustomer(customerID); err != nil {
		return err
	}
	return s.withLock(ctx, customerID, func() error {
		if err := s.repo.Delete(ctx, customerID); err != nil {
			return s.storageError("delete", customerID, err)
		}
		return nil
	})
}

// SetAddress does not check that the address belongs to the customer.
func (s *cartServiceImpl) SetAddress(ctx context.Context, customerID, addressID string) (*models.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	addressID = strings.TrimSpace(addressID)
	if addressID == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "addressId is required")
	}

	var cart *models.Cart
	err := s.withLock(ctx, customerID, func() error {
		var err error
		cart, err = s.existingCart(ctx, customerID)
		if err != nil {
			return err
		}
		cart.ShippingAddressID = addressID
		return s.save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ApplyPromotion validates code against the cart's subtotal and stores the
// resulting discount. An empty code clears the current promotion. The stored
// discount is not revalidated when items change later.
func (s *cartServiceImpl) ApplyPromotion(ctx context.Context, customerID, code string) (*models.Cart, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	code = strings.TrimSpace(code)

	var cart *models.Cart
	err := s.withLock(ctx, customerID, func() error {
		var err error
		cart, err = s.existingCart(ctx, customerID)
		if err != nil {
			return err
		}

		if code == "" {
			cart.PromotionCode = ""
			cart.DiscountAmount = 0
			return s.save(ctx, cart)
		}

		res, err := s.promotions.Validate(ctx, cart.Subtotal(), len(cart.Items), code)
		if err != nil {
			return err
		}
		if !res.Valid {
			msg := res.Message
			if msg == "" {
				msg = "Invalid promotion code"
			}
			return apperrors.New(apperrors.KindInvalidCode, msg)
		}

		cart.PromotionCode = code
		cart.DiscountAmount = res.DiscountAmount
		return s.save(ctx, cart)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Promotion applied to cart",
		zap.String("customer_id", customerID),
		zap.String("code", code),
		zap.Float64("discount", cart.DiscountAmount),
	)
	return cart, nil
}

// Checkout creates an order from the cart and deletes the cart. When the
// order cannot be created the cart is left untouched so the customer can
// retry.
func (s *cartServiceImpl) Checkout(ctx context.Context, customerID string) (*models.Order, error) {
	if err := requireCustomer(customerID); err != nil {
		return nil, err
	}
	log := s.logger.With(zap.String("customer_id", customerID))

	var (
		order *models.Order
		cart  *models.Cart
	)
	err := s.withLock(ctx, customerID, func() error {
		var err error
		cart, err = s.repo.Get(ctx, customerID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && len(cart.Items) == 0) {
			return apperrors.New(apperrors.KindEmptyCart, "Cart is empty")
		}
		if err != nil {
			return s.storageError("load", customerID, err)
		}

		req := &models.CreateOrderRequest{
			Items:             make([]models.CreateOrderItem, len(cart.Items)),
			ShippingAddressID: cart.ShippingAddressID,
		}
		for i, it := range cart.Items {
			req.Items[i] = models.CreateOrderItem{
				ProductID: it.ProductID,
				Name:      it.Name,
				Quantity:  it.Quantity,
				Price:     it.Price,
			}
		}

		order, err = s.orders.CreateOrder(ctx, customerID, req)
		if err != nil {
			log.Warn("Order creation failed, cart kept", zap.Error(err))
			middleware.RecordAsync(s.metrics, aws_pkg.MetricCartCheckoutsFailed, map[string]string{
				"Service": serviceName,
				"Reason":  string(apperrors.KindOf(err)),
			})
			return apperrors.Wrap(apperrors.KindOrderCreationFailed,
				"Failed to create order: "+apperrors.As(err).Message, err)
		}

		// The order exists at this point; a failed delete leaves a stale cart
		// rather than failing the checkout.
		if err := s.repo.Delete(ctx, customerID); err != nil {
			log.Error("Failed to delete cart after checkout", zap.String("order_id", order.ID), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.RecordAsync(s.metrics, aws_pkg.MetricCartCheckouts, map[string]string{"Service": serviceName})
	events.Emit(ctx, s.publisher, log, events.NewEvent(serviceName, events.CartCheckedOut, customerID, models.CheckoutEvent{
		CustomerID:     customerID,
		OrderID:        order.ID,
		TotalAmount:    order.TotalAmount,
		PromotionCode:  cart.PromotionCode,
		DiscountAmount: cart.DiscountAmount,
		Items:          cart.Items,
	}))
	log.Info("Cart checked out", zap.String("order_id", order.ID), zap.Float64("total_amount", order.TotalAmount))
	return order, nil
}

func (s *cartServiceImpl) withLock(ctx context.Context, customerID string, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, customerID)
	if err != nil {
		return apperrors.Wrap(apperrors.KindUpstreamUnavailable, "Could not acquire cart lock", err)
	}
	defer unlock()
	return fn()
}

func (s *cartServiceImpl) existingCart(ctx context.Context, customerID string) (*models.Cart, error) {
	cart, err := s.repo.Get(ctx, customerID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Newf(apperrors.KindNotFound, "Cart for customer %s not found", customerID)
	}
	if err != nil {
		return nil, s.storageError("load", customerID, err)
	}
	return cart, nil
}

func (s *cartServiceImpl) save(ctx context.Context, cart *models.Cart) error {
	cart.Recalculate()
	if err := s.repo.Save(ctx, cart); err != nil {
		return s.storageError("save", cart.CustomerID, err)
	}
	return nil
}

func (s *cartServiceImpl) storageError(op, customerID string, err error) error {
	s.logger.Error("Cart storage failed", zap.String("op", op), zap.String("customer_id", customerID), zap.Error(err))
	return apperrors.Wrap(apperrors.KindInternal, "Failed to "+op+" cart", err)
}

func requireCustomer(customerID string) error {
	if strings.TrimSpace(customerID) == "" {
		return apperrors.New(apperrors.KindInvalidInput, "customerId is required")
	}
	return nil
}
