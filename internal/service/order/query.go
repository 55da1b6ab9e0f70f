package order

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/salesorder/internal/cache"
	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/dto"
	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

var (
	serviceTracer = otel.Tracer("github.com/Additional-Code/salesorder/service/order")
	serviceMeter  = otel.Meter("github.com/Additional-Code/salesorder/service/order")
)

// GetSalesOrderQuery asks for a single order by id.
type GetSalesOrderQuery struct {
	OrderID string
}

// QueryParams defines dependencies for constructing QueryHandler.
type QueryParams struct {
	fx.In

	Repository Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// QueryHandler serves the read path.
type QueryHandler struct {
	repo     Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
	lookups  metric.Int64Counter
}

// NewQueryHandler wires a QueryHandler.
func NewQueryHandler(p QueryParams) (*QueryHandler, error) {
	lookups, err := serviceMeter.Int64Counter("salesorder.queries",
		metric.WithDescription("Sales order lookups by outcome."),
	)
	if err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryHandler{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   logger,
		lookups:  lookups,
	}, nil
}

// Handle returns the order named by q. found is false when no such order
// exists; that is not an error.
func (h *QueryHandler) Handle(ctx context.Context, q GetSalesOrderQuery) (result *dto.SalesOrder, found bool, err error) {
	if strings.TrimSpace(q.OrderID) == "" {
		return nil, false, errorbank.BadRequest("order id cannot be empty", errorbank.WithDetail("field", "orderId"))
	}

	ctx, span := serviceTracer.Start(ctx, "SalesOrderQuery.Handle", trace.WithAttributes(attribute.String("order.id", q.OrderID)))
	defer span.End()

	key := cacheKey(q.OrderID)
	var cached dto.SalesOrder
	switch err := cache.GetJSON(ctx, h.cache, key, &cached); {
	case err == nil:
		// Entries for orders the repository does not hold are evicted, not served.
		if h.repo.Exists(ctx, q.OrderID) {
			h.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "cache_hit")))
			return &cached, true, nil
		}
		h.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "cache_stale")))
		if err := h.cache.Delete(ctx, key); err != nil {
			h.logger.Warn("sales order cache evict failed", zap.String("order_id", q.OrderID), zap.Error(err))
		}
	case !errors.Is(err, cache.ErrCacheMiss):
		h.logger.Warn("sales order cache read failed", zap.String("order_id", q.OrderID), zap.Error(err))
	}

	order, ok := h.repo.GetByID(ctx, q.OrderID)
	if !ok {
		h.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "miss")))
		span.SetAttributes(attribute.Bool("order.found", false))
		return nil, false, nil
	}

	result = toDTO(order)
	if err := cache.SetJSON(ctx, h.cache, key, result, h.cacheTTL); err != nil {
		h.logger.Warn("sales order cache write failed", zap.String("order_id", q.OrderID), zap.Error(err))
	}

	h.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "hit")))
	return result, true, nil
}
