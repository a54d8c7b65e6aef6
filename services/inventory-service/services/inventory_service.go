package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/shopswift/pkg/aws"
	"github.com/yashrajoria/shopswift/pkg/store"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/common/events"
	"github.com/yashrajoria/shopswift/services/common/middleware"
	"github.com/yashrajoria/shopswift/services/inventory-service/models"
	"github.com/yashrajoria/shopswift/services/inventory-service/repository"
)

const serviceName = "inventory-service"

// InventoryService is the inventory ledger. Deduct and Restock run under the
// product's lock so the stock check and the write are one step.
type InventoryService interface {
	ListProducts(ctx context.Context, enabled *bool) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error)
	Deduct(ctx context.Context, id string, quantity int) (*models.Product, error)
	Restock(ctx context.Context, id string, quantity int) (*models.Product, error)
}

type inventoryServiceImpl struct {
	repo      repository.ProductRepository
	locker    store.Locker
	publisher events.Publisher
	metrics   aws_pkg.MetricsRecorder
	logger    *zap.Logger
	now       func() time.Time
}

func NewInventoryService(repo repository.ProductRepository, locker store.Locker, publisher events.Publisher, metrics aws_pkg.MetricsRecorder, logger *zap.Logger) InventoryService {
	if locker == nil {
		locker = store.NewKeyMutex()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &inventoryServiceImpl{
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *inventoryServiceImpl) ListProducts(ctx context.Context, enabled *bool) ([]models.Product, error) {
	products, err := s.repo.List(ctx, enabled)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to fetch products", err)
	}
	return products, nil
}

func (s *inventoryServiceImpl) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	return p, nil
}

func (s *inventoryServiceImpl) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Price <= 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "Name and price are required")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "Stock cannot be negative")
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamUnavailable, "Could not acquire product lock", err)
	}
	defer unlock()

	now := s.now()
	p := &models.Product{
		ID:          id,
		Name:        name,
		Description: req.Description,
		Price:       req.Price,
		Enabled:     true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing, err := s.repo.Get(ctx, id); err == nil {
		p.CreatedAt = existing.CreatedAt
	}
	if req.Stock != nil {
		p.Stock = *req.Stock
	}
	if req.Enabled != nil {
		p.Enabled = *req.Enabled
	}

	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("Failed to save product", zap.String("product_id", id), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to create product", err)
	}
	s.logger.Info("Product saved", zap.String("product_id", id), zap.Int("stock", p.Stock))
	return p, nil
}

func (s *inventoryServiceImpl) UpdateProduct(ctx context.Context, id string, req *models.UpdateProductRequest) (*models.Product, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "Name cannot be empty")
	}
	if req.Price != nil && *req.Price <= 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "Price must be greater than zero")
	}
	if req.Stock != nil && *req.Stock < 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "Stock cannot be negative")
	}

	return s.mutate(ctx, id, func(p *models.Product) error {
		if req.Name != nil {
			p.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Price != nil {
			p.Price = *req.Price
		}
		if req.Stock != nil {
			p.Stock = *req.Stock
		}
		if req.Enabled != nil {
			p.Enabled = *req.Enabled
		}
		return nil
	})
}

// Deduct decrements stock by quantity, or fails with INSUFFICIENT_STOCK
// leaving the product unchanged.
func (s *inventoryServiceImpl) Deduct(ctx context.Context, id string, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "Quantity must be greater than zero")
	}

	p, err := s.mutate(ctx, id, func(p *models.Product) error {
		if p.Stock < quantity {
			return apperrors.Newf(apperrors.KindInsufficientStock,
				"Insufficient stock for product %s: available %d, requested %d", id, p.Stock, quantity)
		}
		p.Stock -= quantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	dims := map[string]string{"Service": serviceName}
	middleware.RecordAsync(s.metrics, aws_pkg.MetricInventoryDeducted, dims)
	if p.Stock == 0 {
		middleware.RecordAsync(s.metrics, aws_pkg.MetricInventoryDepleted, dims)
		events.Emit(ctx, s.publisher, s.logger, events.NewEvent(serviceName, events.StockDepleted, p.ID, p))
	}
	s.logger.Info("Stock deducted", zap.String("product_id", id), zap.Int("quantity", quantity), zap.Int("stock", p.Stock))
	return p, nil
}

// Restock returns quantity to stock. It is the compensation for Deduct.
func (s *inventoryServiceImpl) Restock(ctx context.Context, id string, quantity int) (*models.Product, error) {
	if quantity <= 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "Quantity must be greater than zero")
	}

	p, err := s.mutate(ctx, id, func(p *models.Product) error {
		p.Stock += quantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	middleware.RecordAsync(s.metrics, aws_pkg.MetricInventoryRestocked, map[string]string{"Service": serviceName})
	s.logger.Info("Stock restocked", zap.String("product_id", id), zap.Int("quantity", quantity), zap.Int("stock", p.Stock))
	return p, nil
}

// mutate runs a read-modify-write of one product under its lock. fn may
// reject the change by returning an error, in which case nothing is written.
func (s *inventoryServiceImpl) mutate(ctx context.Context, id string, fn func(*models.Product) error) (*models.Product, error) {
	unlock, err := s.locker.Lock(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamUnavailable, "Could not acquire product lock", err)
	}
	defer unlock()

	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.lookupError(id, err)
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("Failed to save product", zap.String("product_id", id), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to update product", err)
	}
	return p, nil
}

func (s *inventoryServiceImpl) lookupError(id string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.Newf(apperrors.KindNotFound, "Product %s not found", id)
	}
	s.logger.Error("Failed to fetch product", zap.String("product_id", id), zap.Error(err))
	return apperrors.Wrap(apperrors.KindInternal, "Failed to fetch product", err)
}
