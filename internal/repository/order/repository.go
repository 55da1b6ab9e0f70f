package order

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/entity"
	"github.com/Additional-Code/salesorder/internal/erp"
	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

var repoTracer = otel.Tracer("github.com/Additional-Code/salesorder/repository/order")

// orderIDDateLayout is the yyyyMMdd segment of generated order ids.
const orderIDDateLayout = "20060102"

// Repository is the in-memory sales order store. A single mutex guards the
// order map and the id counter; every exported method is atomic.
type Repository struct {
	mu      sync.Mutex
	orders  map[string]*entity.SalesOrder
	counter int
	seeded  atomic.Bool

	// connector is reserved for the ERP integration and is not called yet.
	connector erp.Connector
	endpoint  string

	now    func() time.Time
	logger *zap.Logger
}

// Option customises a Repository.
type Option func(*Repository)

// WithClock overrides the clock used for id dates and seed order dates.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository wires the process-wide repository from configuration.
func NewRepository(cfg config.Config, connector erp.Connector, logger *zap.Logger) (*Repository, error) {
	return New(connector, cfg.ERP.Endpoint, WithLogger(logger))
}

// New builds a seeded repository.
func New(connector erp.Connector, endpoint string, opts ...Option) (*Repository, error) {
	r := &Repository{
		orders:    make(map[string]*entity.SalesOrder),
		connector: connector,
		endpoint:  endpoint,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := r.seed(); err != nil {
		return nil, fmt.Errorf("seed sales orders: %w", err)
	}
	return r, nil
}

// seed loads the fixed orders once. The flag is re-checked under the lock so
// racing callers never seed twice.
func (r *Repository) seed() error {
	if r.seeded.Load() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seeded.Load() {
		return nil
	}

	orders, err := seedOrders(r.now().UTC())
	if err != nil {
		return err
	}
	for _, o := range orders {
		r.orders[o.OrderID()] = o
	}
	r.counter = len(orders)
	r.seeded.Store(true)

	if r.logger != nil {
		r.logger.Info("seeded sales orders", zap.Int("count", len(orders)), zap.String("erp_endpoint", r.endpoint))
	}
	return nil
}

// GetByID looks up a single order. A miss is reported through ok, never as an
// error.
func (r *Repository) GetByID(ctx context.Context, orderID string) (*entity.SalesOrder, bool) {
	_, span := repoTracer.Start(ctx, "SalesOrderRepository.GetByID", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[orderID]
	span.SetAttributes(attribute.Bool("order.found", ok))
	return order, ok
}

// GetAll returns a snapshot of every stored order sorted by id. Later writes
// do not affect the returned slice.
func (r *Repository) GetAll(ctx context.Context) []*entity.SalesOrder {
	_, span := repoTracer.Start(ctx, "SalesOrderRepository.GetAll")
	defer span.End()

	r.mu.Lock()
	snapshot := make([]*entity.SalesOrder, 0, len(r.orders))
	for _, o := range r.orders {
		snapshot = append(snapshot, o)
	}
	r.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].OrderID() < snapshot[j].OrderID()
	})
	span.SetAttributes(attribute.Int("order.count", len(snapshot)))
	return snapshot
}

// Create stores order under its id, replacing any existing entry.
func (r *Repository) Create(ctx context.Context, order *entity.SalesOrder) (*entity.SalesOrder, error) {
	if order == nil {
		return nil, errorbank.BadRequest("order is required")
	}
	_, span := repoTracer.Start(ctx, "SalesOrderRepository.Create", trace.WithAttributes(attribute.String("order.id", order.OrderID())))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[order.OrderID()] = order
	return order, nil
}

// Exists reports whether an order with orderID is stored.
func (r *Repository) Exists(ctx context.Context, orderID string) bool {
	_, span := repoTracer.Start(ctx, "SalesOrderRepository.Exists", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.orders[orderID]
	return ok
}

// GenerateOrderID returns "SO" + UTC yyyyMMdd + a zero padded counter. The
// counter advances exactly once per call.
func (r *Repository) GenerateOrderID(ctx context.Context) string {
	_, span := repoTracer.Start(ctx, "SalesOrderRepository.GenerateOrderID")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter++
	id := fmt.Sprintf("SO%s%03d", r.now().UTC().Format(orderIDDateLayout), r.counter)
	span.SetAttributes(attribute.String("order.id", id))
	return id
}

// Count returns the number of stored orders.
func (r *Repository) Count(ctx context.Context) int {
	_, span := repoTracer.Start(ctx, "SalesOrderRepository.Count")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.orders)
	span.SetAttributes(attribute.Int("order.count", n))
	return n
}
