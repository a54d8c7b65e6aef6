package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yashrajoria/shopswift/pkg/money"
	"github.com/yashrajoria/shopswift/services/admin-service/clients"
	"github.com/yashrajoria/shopswift/services/admin-service/models"
	apperrors "github.com/yashrajoria/shopswift/services/common/errors"
)

// Dashboard sources, as reported in a failure.
const (
	SourceCarts      = "carts"
	SourceOrders     = "orders"
	SourceProducts   = "products"
	SourcePromotions = "promotions"
)

// DashboardError lists the sources that could not be loaded.
type DashboardError struct {
	Sources map[string]string
}

func (e *DashboardError) Error() string {
	names := make([]string, 0, len(e.Sources))
	for name := range e.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("dashboard sources failed: %s", strings.Join(names, ", "))
}

type AdminService interface {
	// Dashboard aggregates all four upstreams. orderQuery narrows the
	// orders search (startDate, endDate, userId).
	Dashboard(ctx context.Context, orderQuery url.Values) (*models.Dashboard, error)
	Forward(ctx context.Context, to clients.Upstream, method, path string, query url.Values, headers http.Header, body json.RawMessage) (json.RawMessage, error)
}

type adminService struct {
	gateway           clients.Gateway
	lowStockThreshold int
	logger            *zap.Logger
	now               func() time.Time
}

func NewAdminService(gateway clients.Gateway, lowStockThreshold int, logger *zap.Logger) AdminService {
	return &adminService{
		gateway:           gateway,
		lowStockThreshold: lowStockThreshold,
		logger:            logger,
		now:               time.Now,
	}
}

func (s *adminService) Dashboard(ctx context.Context, orderQuery url.Values) (*models.Dashboard, error) {
	var (
		carts      []models.Cart
		orders     []models.Order
		products   []models.Product
		promotions []models.Promotion

		cartsErr, ordersErr, productsErr, promotionsErr error
	)

	// Fetches never return their error to the group so one failure does not
	// cancel the others and every failed source is reported.
	var g errgroup.Group
	g.Go(func() error {
		carts, cartsErr = s.gateway.ListCarts(ctx)
		return nil
	})
	g.Go(func() error {
		orders, ordersErr = s.gateway.SearchOrders(ctx, orderQuery)
		return nil
	})
	g.Go(func() error {
		products, productsErr = s.gateway.ListProducts(ctx)
		return nil
	})
	g.Go(func() error {
		promotions, promotionsErr = s.gateway.ListPromotions(ctx)
		return nil
	})
	_ = g.Wait()

	failed := map[string]error{
		SourceCarts:      cartsErr,
		SourceOrders:     ordersErr,
		SourceProducts:   productsErr,
		SourcePromotions: promotionsErr,
	}
	dashErr := &DashboardError{Sources: map[string]string{}}
	for source, err := range failed {
		if err == nil {
			continue
		}
		s.logger.Warn("Dashboard source failed", zap.String("source", source), zap.Error(err))
		dashErr.Sources[source] = apperrors.As(err).Message
	}
	if len(dashErr.Sources) > 0 {
		return nil, dashErr
	}

	return &models.Dashboard{
		Carts:       summariseCarts(carts),
		Orders:      summariseOrders(orders),
		Inventory:   summariseInventory(products, s.lowStockThreshold),
		Promotions:  summarisePromotions(promotions),
		GeneratedAt: s.now().UTC(),
	}, nil
}

func (s *adminService) Forward(ctx context.Context, to clients.Upstream, method, path string, query url.Values, headers http.Header, body json.RawMessage) (json.RawMessage, error) {
	return s.gateway.Forward(ctx, to, method, path, query, headers, body)
}

func summariseCarts(carts []models.Cart) models.CartStats {
	stats := models.CartStats{Total: len(carts)}
	var lines []money.Line
	for _, cart := range carts {
		if len(cart.Items) == 0 {
			continue
		}
		stats.Active++
		lines = append(lines, money.Line{Price: cart.TotalPrice, Quantity: 1})
	}
	stats.Value = money.Round2(money.Subtotal(lines))
	return stats
}

func summariseOrders(orders []models.Order) models.OrderStats {
	stats := models.OrderStats{Total: len(orders), ByStatus: map[string]int{}}
	lines := make([]money.Line, 0, len(orders))
	for _, o := range orders {
		stats.ByStatus[o.Status]++
		lines = append(lines, money.Line{Price: o.TotalAmount, Quantity: 1})
	}
	stats.Revenue = money.Round2(money.Subtotal(lines))
	return stats
}

// summariseInventory lists products at or below threshold, lowest stock first.
func summariseInventory(products []models.Product, threshold int) models.InventoryStats {
	stats := models.InventoryStats{
		Products:          len(products),
		LowStockThreshold: threshold,
		LowStock:          []models.Product{},
	}
	for _, p := range products {
		if p.Stock <= threshold {
			stats.LowStock = append(stats.LowStock, p)
		}
	}
	sort.SliceStable(stats.LowStock, func(i, j int) bool {
		if stats.LowStock[i].Stock != stats.LowStock[j].Stock {
			return stats.LowStock[i].Stock < stats.LowStock[j].Stock
		}
		return stats.LowStock[i].Name < stats.LowStock[j].Name
	})
	return stats
}

func summarisePromotions(promotions []models.Promotion) models.PromotionStats {
	stats := models.PromotionStats{Total: len(promotions)}
	for _, p := range promotions {
		if p.Enabled {
			stats.Enabled++
		}
	}
	return stats
}
