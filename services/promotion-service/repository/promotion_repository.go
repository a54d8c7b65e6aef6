package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yashrajoria/shopswift/pkg/store"
	"github.com/yashrajoria/shopswift/services/promotion-service/models"
)

var (
	// ErrNotFound is returned when no promotion has the code.
	ErrNotFound = store.ErrNotFound
	// ErrDuplicateCode is returned by Create when the code is taken.
	ErrDuplicateCode = errors.New("promotion code already exists")
)

// PromotionRepository defines the interface for promotion data access.
// Codes are matched exactly.
type PromotionRepository interface {
	Get(ctx context.Context, code string) (*models.Promotion, error)
	Create(ctx context.Context, p *models.Promotion) error
	Save(ctx context.Context, p *models.Promotion) error
	List(ctx context.Context) ([]models.Promotion, error)
}

// StorePromotionRepository implements PromotionRepository on a store.Store.
type StorePromotionRepository struct {
	store store.Store[models.Promotion]
}

// NewMemoryPromotionRepository returns an empty in-memory repository.
func NewMemoryPromotionRepository() *StorePromotionRepository {
	return &StorePromotionRepository{store: store.NewMemory(clonePromotion)}
}

func clonePromotion(p models.Promotion) models.Promotion {
	if p.MinOrderValue != nil {
		v := *p.MinOrderValue
		p.MinOrderValue = &v
	}
	return p
}

func (r *StorePromotionRepository) Get(ctx context.Context, code string) (*models.Promotion, error) {
	p, err := r.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create stores p unless its code exists. Callers serialise creates per code.
func (r *StorePromotionRepository) Create(ctx context.Context, p *models.Promotion) error {
	if _, err := r.store.Get(ctx, p.Code); err == nil {
		return ErrDuplicateCode
	}
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	return r.store.Put(ctx, p.Code, *p)
}

func (r *StorePromotionRepository) Save(ctx context.Context, p *models.Promotion) error {
	p.UpdatedAt = time.Now().UTC()
	return r.store.Put(ctx, p.Code, *p)
}

func (r *StorePromotionRepository) List(ctx context.Context) ([]models.Promotion, error) {
	return r.store.Query(ctx, nil)
}

// GormPromotionRepository implements PromotionRepository using GORM.
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewGormPromotionRepository creates a new GormPromotionRepository.
func NewGormPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

func (r *GormPromotionRepository) Get(ctx context.Context, code string) (*models.Promotion, error) {
	var p models.Promotion
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPromotionRepository) Create(ctx context.Context, p *models.Promotion) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if err != nil && isDuplicate(err) {
		return ErrDuplicateCode
	}
	return err
}

func (r *GormPromotionRepository) Save(ctx context.Context, p *models.Promotion) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *GormPromotionRepository) List(ctx context.Context) ([]models.Promotion, error) {
	var promotions []models.Promotion
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique")
}

func float64Ptr(v float64) *float64 { return &v }

var seedPromotions = []models.Promotion{
	{Code: "SAVE10", Type: models.PromotionTypePercentage, Value: 10, Enabled: true, Description: "10% off any order"},
	{Code: "MINUS5", Type: models.PromotionTypeFixedAmount, Value: 5, MinOrderValue: float64Ptr(20), Enabled: true, Description: "5 off orders of 20 or more"},
	{Code: "WELCOME20", Type: models.PromotionTypePercentage, Value: 20, MinOrderValue: float64Ptr(50), Enabled: false, Description: "20% off a first order of 50 or more"},
}

// Seed creates the default promotions, skipping codes that already exist.
func Seed(ctx context.Context, repo PromotionRepository) (int, error) {
	seeded := 0
	for _, p := range seedPromotions {
		p := clonePromotion(p)
		err := repo.Create(ctx, &p)
		if errors.Is(err, ErrDuplicateCode) {
			continue
		}
		if err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}
