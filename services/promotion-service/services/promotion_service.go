package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	aws_pkg "github.com/yashrajoria/shopswift/pkg/aws"
	"github.com/yashrajoria/shopswift/pkg/money"
	"github.com/yashrajoria/shopswift/pkg/store"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
	"github.com/yashrajoria/shopswift/services/common/events"
	"github.com/yashrajoria/shopswift/services/common/middleware"
	"github.com/yashrajoria/shopswift/services/promotion-service/clients"
	"github.com/yashrajoria/shopswift/services/promotion-service/models"
	"github.com/yashrajoria/shopswift/services/promotion-service/repository"
)

const serviceName = "promotion-service"

// PromotionService defines the interface for promotion business logic.
type PromotionService interface {
	ListPromotions(ctx context.Context) ([]models.Promotion, error)
	GetPromotion(ctx context.Context, code string) (*models.Promotion, error)
	CreatePromotion(ctx context.Context, req *models.CreatePromotionRequest) (*models.Promotion, error)
	TogglePromotion(ctx context.Context, code string) (*models.Promotion, error)
	Validate(ctx context.Context, req *models.ValidateRequest) (*models.ValidationResult, error)
	Apply(ctx context.Context, req *models.ApplyRequest) (*models.ApplyResult, error)
}

type promotionServiceImpl struct {
	repo      repository.PromotionRepository
	carts     clients.CartReader
	locker    store.Locker
	publisher events.Publisher
	metrics   aws_pkg.MetricsRecorder
	logger    *zap.Logger
}

// NewPromotionService creates a new PromotionService. carts may be nil when
// Apply is not served.
func NewPromotionService(
	repo repository.PromotionRepository,
	carts clients.CartReader,
	locker store.Locker,
	publisher events.Publisher,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
) PromotionService {
	if locker == nil {
		locker = store.NewKeyMutex()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &promotionServiceImpl{
		repo:      repo,
		carts:     carts,
		locker:    locker,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *promotionServiceImpl) ListPromotions(ctx context.Context) ([]models.Promotion, error) {
	promotions, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list promotions", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to list promotions", err)
	}
	return promotions, nil
}

func (s *promotionServiceImpl) GetPromotion(ctx context.Context, code string) (*models.Promotion, error) {
	p, err := s.repo.Get(ctx, normalizeCode(code))
	if err != nil {
		return nil, s.lookupError(code, err)
	}
	return p, nil
}

// CreatePromotion uppercases the code before the uniqueness check.
func (s *promotionServiceImpl) CreatePromotion(ctx context.Context, req *models.CreatePromotionRequest) (*models.Promotion, error) {
	code := normalizeCode(req.Code)
	typ := models.PromotionType(strings.ToUpper(string(req.Type)))

	switch {
	case code == "":
		return nil, apperrors.New(apperrors.KindInvalidInput, "Missing required fields: code, type, value")
	case !typ.Valid():
		return nil, apperrors.New(apperrors.KindInvalidInput, "Type must be PERCENTAGE or FIXED_AMOUNT")
	case req.Value <= 0:
		return nil, apperrors.New(apperrors.KindInvalidInput, "Value must be greater than zero")
	case typ == models.PromotionTypePercentage && req.Value > 100:
		return nil, apperrors.New(apperrors.KindInvalidInput, "Percentage discount cannot exceed 100")
	case req.MinOrderValue != nil && *req.MinOrderValue < 0:
		return nil, apperrors.New(apperrors.KindInvalidInput, "Minimum order value cannot be negative")
	}

	unlock, err := s.locker.Lock(ctx, code)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamUnavailable, "Could not acquire promotion lock", err)
	}
	defer unlock()

	p := &models.Promotion{
		Code:          code,
		Type:          typ,
		Value:         req.Value,
		MinOrderValue: req.MinOrderValue,
		Enabled:       true,
		Description:   req.Description,
	}
	if req.Enabled != nil {
		p.Enabled = *req.Enabled
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			return nil, apperrors.Newf(apperrors.KindConflict, "Promotion code %s already exists", code)
		}
		s.logger.Error("Failed to create promotion", zap.String("code", code), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to create promotion", err)
	}

	s.logger.Info("Promotion created", zap.String("code", p.Code), zap.String("type", string(p.Type)))
	return p, nil
}

// TogglePromotion flips enabled and returns the updated promotion.
func (s *promotionServiceImpl) TogglePromotion(ctx context.Context, code string) (*models.Promotion, error) {
	code = normalizeCode(code)

	unlock, err := s.locker.Lock(ctx, code)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindUpstreamUnavailable, "Could not acquire promotion lock", err)
	}
	defer unlock()

	p, err := s.repo.Get(ctx, code)
	if err != nil {
		return nil, s.lookupError(code, err)
	}
	p.Enabled = !p.Enabled
	if err := s.repo.Save(ctx, p); err != nil {
		s.logger.Error("Failed to toggle promotion", zap.String("code", code), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to toggle promotion", err)
	}

	s.logger.Info("Promotion toggled", zap.String("code", code), zap.Bool("enabled", p.Enabled))
	return p, nil
}

// Validate evaluates code against a cart snapshot. It has no side effects
// beyond metrics. The code must match a stored code exactly.
func (s *promotionServiceImpl) Validate(ctx context.Context, req *models.ValidateRequest) (*models.ValidationResult, error) {
	res, err := s.validate(ctx, req)
	dims := map[string]string{"Service": serviceName}
	if err != nil {
		dims["Reason"] = string(apperrors.KindOf(err))
		middleware.RecordAsync(s.metrics, aws_pkg.MetricPromotionsRejected, dims)
		return nil, err
	}
	middleware.RecordAsync(s.metrics, aws_pkg.MetricPromotionsApplied, dims)
	return res, nil
}

func (s *promotionServiceImpl) validate(ctx context.Context, req *models.ValidateRequest) (*models.ValidationResult, error) {
	if req.ItemCount <= 0 {
		return nil, apperrors.New(apperrors.KindEmptyCart, "Cart is empty or not found")
	}
	if req.CartTotal < 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "Cart total cannot be negative")
	}
	if req.Code == "" {
		return nil, apperrors.New(apperrors.KindInvalidCode, "Invalid coupon code")
	}

	p, err := s.repo.Get(ctx, req.Code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.New(apperrors.KindInvalidCode, "Invalid coupon code")
	}
	if err != nil {
		s.logger.Error("Failed to fetch promotion", zap.String("code", req.Code), zap.Error(err))
		return nil, apperrors.Wrap(apperrors.KindInternal, "Failed to fetch promotion", err)
	}

	if !p.Enabled {
		return nil, apperrors.New(apperrors.KindCouponDisabled, "This coupon is currently disabled")
	}
	if p.MinOrderValue != nil && req.CartTotal < *p.MinOrderValue {
		return nil, apperrors.Newf(apperrors.KindMinimumNotMet,
			"Minimum order value of $%.2f required for this coupon", *p.MinOrderValue)
	}

	total := decimal.NewFromFloat(req.CartTotal)
	var discount decimal.Decimal
	switch p.Type {
	case models.PromotionTypePercentage:
		discount = total.Mul(decimal.NewFromFloat(p.Value)).Div(decimal.NewFromInt(100))
	case models.PromotionTypeFixedAmount:
		discount = decimal.NewFromFloat(p.Value)
	default:
		return nil, apperrors.Newf(apperrors.KindInternal, "Unknown promotion type %s", p.Type)
	}
	if discount.GreaterThan(total) {
		discount = total
	}
	discount = discount.Round(2)

	return &models.ValidationResult{
		Valid:          true,
		Code:           p.Code,
		Type:           p.Type,
		OriginalTotal:  money.Round2(total),
		DiscountAmount: discount.InexactFloat64(),
		FinalTotal:     money.Round2(total.Sub(discount)),
		Message:        "Coupon applied successfully",
	}, nil
}

// Apply reads the customer's cart and validates code against its subtotal.
func (s *promotionServiceImpl) Apply(ctx context.Context, req *models.ApplyRequest) (*models.ApplyResult, error) {
	if strings.TrimSpace(req.CustomerID) == "" || strings.TrimSpace(req.CouponCode) == "" {
		return nil, apperrors.New(apperrors.KindInvalidInput, "customerId and couponCode are required")
	}
	if s.carts == nil {
		return nil, apperrors.New(apperrors.KindUpstreamUnavailable, "Cart service is not configured")
	}

	cart, err := s.carts.GetCart(ctx, req.CustomerID)
	if err != nil {
		s.logger.Warn("Failed to fetch cart", zap.String("customer_id", req.CustomerID), zap.Error(err))
		return nil, err
	}

	lines := make([]money.Line, 0, len(cart.Items))
	for _, it := range cart.Items {
		lines = append(lines, money.Line{Price: it.Price, Quantity: it.Quantity})
	}

	res, err := s.Validate(ctx, &models.ValidateRequest{
		CartTotal: money.Round2(money.Subtotal(lines)),
		ItemCount: len(cart.Items),
		Code:      req.CouponCode,
	})
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, s.logger, events.NewEvent(serviceName, events.PromotionApplied, req.CustomerID,
		models.PromotionAppliedEvent{
			CustomerID:     req.CustomerID,
			Code:           res.Code,
			Type:           res.Type,
			OriginalTotal:  res.OriginalTotal,
			DiscountAmount: res.DiscountAmount,
		}))
	s.logger.Info("Promotion applied",
		zap.String("customer_id", req.CustomerID),
		zap.String("code", res.Code),
		zap.Float64("discount", res.DiscountAmount),
	)
	return &models.ApplyResult{ValidationResult: *res, CustomerID: req.CustomerID}, nil
}

func (s *promotionServiceImpl) lookupError(code string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.Newf(apperrors.KindNotFound, "Promotion %s not found", code)
	}
	s.logger.Error("Failed to fetch promotion", zap.String("code", code), zap.Error(err))
	return apperrors.Wrap(apperrors.KindInternal, "Failed to fetch promotion", err)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
