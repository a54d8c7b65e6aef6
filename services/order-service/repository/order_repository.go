package repositories

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/order-service/models"
)

// ErrNotFound is returned when an order does not exist.
var ErrNotFound = store.ErrNotFound

// OrderRepository defines the interface for order data access.
// Search returns newest orders first.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	Search(ctx context.Context, filter models.SearchFilter) ([]models.Order, error)
}

// StoreOrderRepository implements OrderRepository on a store.Store.
type StoreOrderRepository struct {
	store store.Store[models.Order]
}

func NewMemoryOrderRepository() *StoreOrderRepository {
	return &StoreOrderRepository{store: store.NewMemory(cloneOrder)}
}

func cloneOrder(o models.Order) models.Order {
	if o.Items != nil {
		o.Items = append(models.OrderItems(nil), o.Items...)
	}
	return o
}

func (r *StoreOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.store.Put(ctx, order.ID, *order)
}

func (r *StoreOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	o, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus is a read-modify-write; callers hold the order's lock.
func (r *StoreOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	o, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	if err := r.store.Put(ctx, id, o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *StoreOrderRepository) Search(ctx context.Context, filter models.SearchFilter) ([]models.Order, error) {
	orders, err := r.store.Query(ctx, filter.Matches)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *GormOrderRepository) Search(ctx context.Context, filter models.SearchFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Start != nil {
		query = query.Where("created_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("created_at <= ?", *filter.End)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Seed stores a fixed history of delivered and shipped orders for users 1-5
// so dashboards and searches have data. It skips ids that already exist.
func Seed(ctx context.Context, repo OrderRepository, now time.Time) (int, error) {
	seeded := 0
	for u := 1; u <= 5; u++ {
		userID := strconv.Itoa(u)
		for i := 0; i < 4; i++ {
			id := fmt.Sprintf("order-%d-%d", u, i)
			if _, err := repo.FindByID(ctx, id); err == nil {
				continue
			}
			status := models.StatusDelivered
			if i%2 == 1 {
				status = models.StatusShipped
			}
			qty := i + 1
			createdAt := now.AddDate(0, -(u + 3*i), 0).UTC()
			o := &models.Order{
				ID:          id,
				UserID:      userID,
				Status:      status,
				TotalAmount: float64(50 * qty),
				Items:       models.OrderItems{{ProductID: "2", Name: "Wireless Mouse", Quantity: qty, PriceAtPurchase: 50}},
				CreatedAt:   createdAt,
				UpdatedAt:   createdAt,
			}
			if err := repo.Create(ctx, o); err != nil {
				return seeded, err
			}
			seeded++
		}
	}
	return seeded, nil
}
