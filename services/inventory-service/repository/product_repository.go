package repository

import (
	"context"
	"time"

	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/inventory-service/models"
)

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = store.ErrNotFound

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Get(ctx context.Context, id string) (*models.Product, error)
	Save(ctx context.Context, p *models.Product) error
	List(ctx context.Context, enabled *bool) ([]models.Product, error)
}

// StoreProductRepository implements ProductRepository on a store.Store.
type StoreProductRepository struct {
	store store.Store[models.Product]
}

func NewStoreProductRepository(s store.Store[models.Product]) *StoreProductRepository {
	return &StoreProductRepository{store: s}
}

// NewMemoryProductRepository returns a repository backed by an in-memory store.
func NewMemoryProductRepository() *StoreProductRepository {
	return NewStoreProductRepository(store.NewMemory[models.Product](nil))
}

func (r *StoreProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *StoreProductRepository) Save(ctx context.Context, p *models.Product) error {
	return r.store.Put(ctx, p.ID, *p)
}

func (r *StoreProductRepository) List(ctx context.Context, enabled *bool) ([]models.Product, error) {
	if enabled == nil {
		return r.store.Query(ctx, nil)
	}
	want := *enabled
	return r.store.Query(ctx, func(p models.Product) bool { return p.Enabled == want })
}

var seedCatalog = []models.Product{
	{ID: "1", Name: "High-End Laptop", Description: "Powerful dev machine", Price: 1999, Stock: 10, Enabled: true},
	{ID: "2", Name: "Wireless Mouse", Description: "Ergonomic mouse", Price: 49, Stock: 50, Enabled: true},
	{ID: "3", Name: "Mechanical Keyboard", Description: "Clicky keys", Price: 129, Stock: 30, Enabled: true},
	{ID: "4", Name: "4K Monitor", Description: "27-inch display", Price: 399, Stock: 15, Enabled: true},
	{ID: "5", Name: "Noise-Canceling Headphones", Description: "Immersive sound", Price: 299, Stock: 20, Enabled: true},
	{ID: "6", Name: "Desk Chair", Description: "Lumbar support", Price: 249, Stock: 5, Enabled: true},
	{ID: "7", Name: "USB-C Dock", Description: "10-in-1 hub", Price: 89, Stock: 40, Enabled: true},
	{ID: "8", Name: "Tablet Pro", Description: "For creatives", Price: 799, Stock: 0, Enabled: false},
}

// Seed stores the demo catalog, skipping ids that already exist.
func Seed(ctx context.Context, repo ProductRepository) (int, error) {
	now := time.Now().UTC()
	seeded := 0
	for _, p := range seedCatalog {
		if _, err := repo.Get(ctx, p.ID); err == nil {
			continue
		}
		p.CreatedAt, p.UpdatedAt = now, now
		if err := repo.Save(ctx, &p); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
