package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	aws_pkg "github.com/yashrajoria/shopswift/pkg/aws"
	"github.com/yashrajoria/shopswift/pkg/money"
	"github.com/yashrajoria/shopswift/pkg/store"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/common/events"
	"github.com/yashrajoria/shopswift/services/common/middleware"
	"github.com/yashrajoria/shopswift/services/order-service/clients"
	"github.com/yashrajoria/shopswift/services/order-service/models"
	repositories "github.com/yashrajoria/shopswift/services/order-service/repository"
)

const (
	serviceName = "order-service"

	// Substituted when a product cannot be looked up during enrichment.
	UnknownProductName   = "Unknown Product"
	FallbackProductPrice = 100.0

	enrichConcurrency   = 8
	compensationTimeout = 10 * time.Second
)

type OrderService interface {
	CreateOrder(ctx context.Context, userID string, req *models.CreateOrderRequest) (*models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	ListUserOrders(ctx context.Context, userID string) ([]models.Order, error)
	SearchOrders(ctx context.Context, filter models.SearchFilter) ([]models.Order, error)
}

type orderServiceImpl struct {
	repo      repositories.OrderRepository
	inventory clients.InventoryClient
	locker    store.Locker
	publisher events.Publisher
	metrics   aws_pkg.MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(
	repo repositories.OrderRepository,
	inventory clients.InventoryClient,
	locker store.Locker,
	publisher events.Publisher,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
) OrderService {
	if locker == nil {
		locker = store.NewKeyMutex()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &orderServiceImpl{
		repo:      repo,
		inventory: inventory,
		locker:    locker,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder enriches the items, deducts stock for every line and persists
// the order as PENDING. If any deduction fails, or the order cannot be saved,
// every line already deducted is restocked and the order is not created.
func (s *orderServiceImpl) CreateOrder(ctx context.Context, userID string, req *models.CreateOrderRequest) (*models.Order, error) {
	if err := validateCreate(userID, req); err != nil {
		return nil, err
	}

	orderID := uuid.NewString()
	log := s.logger.With(zap.String("order_id", orderID), zap.String("user_id", userID))

	items := s.enrichRequest(ctx, log, req.Items)

	deducted := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		if err := s.inventory.Deduct(ctx, item.ProductID, item.Quantity); err != nil {
			appErr := apperrors.As(err)
			log.Warn("Stock deduction failed, compensating",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.String("kind", string(appErr.Kind)),
				zap.Error(err),
			)
			s.compensate(ctx, log, deducted)
			s.recordFailure(appErr.Kind)
			return nil, apperrors.Wrap(appErr.Kind, appErr.Message, err)
		}
		deducted = append(deducted, item)
	}

	lines := make([]money.Line, len(items))
	for i, item := range items {
		lines[i] = money.Line{Price: item.PriceAtPurchase, Quantity: item.Quantity}
	}

	now := s.now()
	order := &models.Order{
		ID:                orderID,
		UserID:            userID,
		Status:            models.StatusPending,
		TotalAmount:       money.Round2(money.Subtotal(lines)),
		Items:             items,
		ShippingAddressID: strings.TrimSpace(req.ShippingAddressID),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		log.Error("Failed to persist order, compensating", zap.Error(err))
		s.compensate(ctx, log, deducted)
		s.recordFailure(apperrors.KindInternal)
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to create order", err)
	}

	middleware.RecordAsync(s.metrics, aws_pkg.MetricOrdersCreated, map[string]string{"Service": serviceName})
	events.Emit(ctx, s.publisher, log, events.NewEvent(serviceName, events.OrderCreated, order.ID, order))
	log.Info("Order created", zap.Int("items", len(items)), zap.Float64("total_amount", order.TotalAmount))
	return order, nil
}

func validateCreate(userID string, req *models.CreateOrderRequest) error {
	if strings.TrimSpace(userID) == "" {
		return apperrors.New(apperrors.KindInvalidInput, "User ID is required")
	}
	if req == nil || len(req.Items) == 0 {
		return apperrors.New(apperrors.KindInvalidInput, "At least one item is required")
	}
	for _, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return apperrors.New(apperrors.KindInvalidInput, "Every item needs a productId")
		}
		if item.Quantity <= 0 {
			return apperrors.Newf(apperrors.KindInvalidInput, "Quantity for product %s must be greater than zero", item.ProductID)
		}
		if item.Price < 0 {
			return apperrors.Newf(apperrors.KindInvalidInput, "Price for product %s cannot be negative", item.ProductID)
		}
	}
	return nil
}

// enrichRequest fills missing names and prices from inventory. A failed
// lookup never fails the order; the fallback name and price are used.
func (s *orderServiceImpl) enrichRequest(ctx context.Context, log *zap.Logger, in []models.CreateOrderItem) models.OrderItems {
	items := make(models.OrderItems, len(in))
	for i, it := range in {
		items[i] = models.OrderItem{
			ProductID:       strings.TrimSpace(it.ProductID),
			Name:            strings.TrimSpace(it.Name),
			Quantity:        it.Quantity,
			PriceAtPurchase: it.Price,
		}
	}

	products := s.lookupProducts(ctx, log, items, func(it models.OrderItem) bool {
		return it.Name == "" || it.PriceAtPurchase <= 0
	})

	for i := range items {
		it := &items[i]
		if p, ok := products[it.ProductID]; ok {
			if it.Name == "" {
				it.Name = p.Name
			}
			if it.PriceAtPurchase <= 0 {
				it.PriceAtPurchase = p.Price
			}
		}
		if it.Name == "" {
			it.Name = UnknownProductName
		}
		if it.PriceAtPurchase <= 0 {
			it.PriceAtPurchase = FallbackProductPrice
		}
	}
	return items
}

// lookupProducts fetches, once per product id, every product whose item
// needs it. Failed lookups are logged and left out of the result.
func (s *orderServiceImpl) lookupProducts(ctx context.Context, log *zap.Logger, items []models.OrderItem, needs func(models.OrderItem) bool) map[string]*clients.Product {
	ids := make(map[string]struct{})
	for _, it := range items {
		if needs(it) {
			ids[it.ProductID] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var (
		mu       sync.Mutex
		products = make(map[string]*clients.Product, len(ids))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for id := range ids {
		g.Go(func() error {
			p, err := s.inventory.GetProduct(gctx, id)
			if err != nil {
				log.Warn("Product lookup failed, using fallback", zap.String("product_id", id), zap.Error(err))
				return nil
			}
			mu.Lock()
			products[id] = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return products
}

// compensate restocks deducted lines in reverse order. It runs detached from
// the request's cancellation so a client disconnect cannot strand stock.
func (s *orderServiceImpl) compensate(ctx context.Context, log *zap.Logger, deducted []models.OrderItem) {
	if len(deducted) == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	for i := len(deducted) - 1; i >= 0; i-- {
		item := deducted[i]
		if err := s.inventory.Restock(cctx, item.ProductID, item.Quantity); err != nil {
			log.Error("Compensating restock failed; stock must be corrected manually",
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
			continue
		}
		middleware.RecordAsync(s.metrics, aws_pkg.MetricOrderCompensations, map[string]string{"Service": serviceName})
	}
}

func (s *orderServiceImpl) recordFailure(kind apperrors.Kind) {
	middleware.RecordAsync(s.metrics, aws_pkg.MetricOrdersFailed, map[string]string{
		"Service": serviceName,
		"Reason":  string(kind),
	})
}

func (s *orderServiceImpl) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	orders := []models.Order{*order}
	s.enrichOrders(ctx, orders)
	return &orders[0], nil
}

// UpdateStatus overwrites the status. Transitions are not validated.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	status = models.OrderStatus(strings.ToUpper(string(status)))
	if !status.Valid() {
		return nil, apperrors.Newf(apperrors.KindInvalidInput,
			"Invalid status %q: must be one of PENDING, CONFIRMED, SHIPPED, DELIVERED", status)
	}

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamUnavailable, "Could not acquire order lock", err)
	}
	defer unlock()

	previous, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	order, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, s.lookupError(id, err)
	}

	events.Emit(ctx, s.publisher, s.logger, events.NewEvent(serviceName, events.OrderStatusUpdated, order.ID, models.OrderStatusEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Previous: previous.Status,
		Status:   order.Status,
	}))
	s.logger.Info("Order status updated",
		zap.String("order_id", id),
		zap.String("from", string(previous.Status)),
		zap.String("to", string(order.Status)),
	)
	return order, nil
}

func (s *orderServiceImpl) ListUserOrders(ctx context.Context, userID string) ([]models.Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "User ID is required")
	}
	return s.SearchOrders(ctx, models.SearchFilter{UserID: userID})
}

// SearchOrders filters by user and an inclusive creation-date range, newest
// first. Items missing a name or price are re-enriched on read.
func (s *orderServiceImpl) SearchOrders(ctx context.Context, filter models.SearchFilter) ([]models.Order, error) {
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, apperrors.New(apperrors.KindInvalidInput, "endDate must not be before startDate")
	}

	orders, err := s.repo.Search(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to search orders", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to fetch orders", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	s.enrichOrders(ctx, orders)
	return orders, nil
}

// enrichOrders fills empty names and zero prices in place. Stored totals are
// never recomputed.
func (s *orderServiceImpl) enrichOrders(ctx context.Context, orders []models.Order) {
	var all []models.OrderItem
	for _, o := range orders {
		all = append(all, o.Items...)
	}
	products := s.lookupProducts(ctx, s.logger, all, func(it models.OrderItem) bool {
		return it.Name == "" || it.PriceAtPurchase <= 0
	})
	if len(products) == 0 {
		return
	}

	for i := range orders {
		for j := range orders[i].Items {
			it := &orders[i].Items[j]
			p, ok := products[it.ProductID]
			if !ok {
				continue
			}
			if it.Name == "" {
				it.Name = p.Name
			}
			if it.PriceAtPurchase <= 0 {
				it.PriceAtPurchase = p.Price
			}
		}
	}
}

func (s *orderServiceImpl) lookupError(id string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperrors.Newf(apperrors.KindNotFound, "Order %s not found", id)
	}
	s.logger.Error("Failed to fetch order", zap.String("order_id", id), zap.Error(err))
	return apperrors.Wrap(apperrors.KindInternal, "Failed to fetch order", err)
}
