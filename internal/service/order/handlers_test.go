package order

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/salesorder/internal/cache"
	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/dto"
	"github.com/Additional-Code/salesorder/internal/entity"
	"github.com/Additional-Code/salesorder/internal/erp"
	"github.com/Additional-Code/salesorder/internal/messaging"
	repo "github.com/Additional-Code/salesorder/internal/repository/order"
	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

var itemIDPattern = regexp.MustCompile(`^ITM[0-9A-F]{8}$`)

func testClock() time.Time {
	return time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC)
}

func newRepo(t *testing.T) *repo.Repository {
	t.Helper()
	r, err := repo.New(erp.NewMemoryConnector(), "API_SALES_ORDER_SRV/A_SalesOrder", repo.WithClock(testClock))
	require.NoError(t, err)
	return r
}

// collidingRepository reports every id as taken.
type collidingRepository struct {
	Repository
	creates int
}

func (c *collidingRepository) Exists(context.Context, string) bool { return true }

func (c *collidingRepository) Create(ctx context.Context, order *entity.SalesOrder) (*entity.SalesOrder, error) {
	c.creates++
	return c.Repository.Create(ctx, order)
}

type failingRepository struct {
	Repository
}

func (failingRepository) Create(context.Context, *entity.SalesOrder) (*entity.SalesOrder, error) {
	return nil, errors.New("store unavailable")
}

type countingRepository struct {
	Repository
	mu    sync.Mutex
	reads int
}

func (r *countingRepository) GetByID(ctx context.Context, orderID string) (*entity.SalesOrder, bool) {
	r.mu.Lock()
	r.reads++
	r.mu.Unlock()
	return r.Repository.GetByID(ctx, orderID)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []messaging.Message
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, msg messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return p.err
}

func (p *recordingPublisher) Consume(ctx context.Context, _ messaging.Handler) error {
	<-ctx.Done()
	return ctx.Err()
}

func (p *recordingPublisher) Topic() string { return "salesorders.events" }

type mapCache struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (m *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (m *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func newQueryHandler(t *testing.T, r Repository, store cache.Store) *QueryHandler {
	t.Helper()
	h, err := NewQueryHandler(QueryParams{Repository: r, Cache: store, Logger: zap.NewNop()})
	require.NoError(t, err)
	return h
}

func newCommandHandler(t *testing.T, r Repository, store cache.Store, pub messaging.Client) *CommandHandler {
	t.Helper()
	cfg := config.Config{}
	cfg.Messaging.Enabled = pub != nil
	h, err := NewCommandHandler(CommandParams{Repository: r, Cache: store, Config: cfg, Logger: zap.NewNop(), Publisher: pub})
	require.NoError(t, err)
	h.now = testClock
	return h
}

func createRequest() dto.CreateSalesOrderRequest {
	return dto.CreateSalesOrderRequest{
		CustomerCode: "CUST010",
		CustomerName: "Drogaria Central",
		Status:       entity.StatusPending,
		Items: []dto.CreateSalesOrderItemRequest{
			{MaterialCode: "MAT001", MaterialDescription: "Paracetamol 500mg", Quantity: 10, UnitPrice: decimal.RequireFromString("2.50")},
			{MaterialCode: "MAT004", MaterialDescription: "Amoxicilina 500mg", Quantity: 3, UnitPrice: decimal.RequireFromString("8.90")},
		},
	}
}

func TestQueryHandlerReturnsSeedOrder(t *testing.T) {
	h := newQueryHandler(t, newRepo(t), nil)

	got, found, err := h.Handle(context.Background(), GetSalesOrderQuery{OrderID: "SO20260108001"})
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, "SO20260108001", got.OrderID)
	assert.Equal(t, "CUST001", got.CustomerCode)
	assert.Equal(t, "Farmácia Popular Ltda", got.CustomerName)
	assert.Equal(t, entity.StatusConfirmed, got.Status)
	assert.True(t, decimal.RequireFromString("437.50").Equal(got.TotalAmount.Decimal))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "ITM001", got.Items[0].ItemID)
	assert.True(t, decimal.RequireFromString("250").Equal(got.Items[0].TotalPrice.Decimal))
	assert.True(t, decimal.RequireFromString("187.50").Equal(got.Items[1].TotalPrice.Decimal))
}

func TestQueryHandlerUnknownOrderIsAbsent(t *testing.T) {
	h := newQueryHandler(t, newRepo(t), nil)

	got, found, err := h.Handle(context.Background(), GetSalesOrderQuery{OrderID: "SO19990101001"})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestQueryHandlerRejectsBlankID(t *testing.T) {
	h := newQueryHandler(t, newRepo(t), nil)

	for _, id := range []string{"", "   "} {
		_, found, err := h.Handle(context.Background(), GetSalesOrderQuery{OrderID: id})
		require.Error(t, err)
		assert.False(t, found)
		assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
	}
}

func TestQueryHandlerReadsThroughCache(t *testing.T) {
	ctx := context.Background()
	store := newMapCache()
	counting := &countingRepository{Repository: newRepo(t)}
	h := newQueryHandler(t, counting, store)

	_, found, err := h.Handle(ctx, GetSalesOrderQuery{OrderID: "SO20260108002"})
	require.NoError(t, err)
	require.True(t, found)
	require.Contains(t, store.data, "salesorders:SO20260108002")

	got, found, err := h.Handle(ctx, GetSalesOrderQuery{OrderID: "SO20260108002"})
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, decimal.RequireFromString("840").Equal(got.TotalAmount.Decimal))
	assert.Equal(t, 1, counting.reads)
}

func TestQueryHandlerEvictsEntriesTheRepositoryDoesNotHold(t *testing.T) {
	ctx := context.Background()
	store := newMapCache()
	stale, err := json.Marshal(dto.SalesOrder{OrderID: "SO20250101004", CustomerCode: "CUST777", Status: "PENDING"})
	require.NoError(t, err)
	store.data["salesorders:SO20250101004"] = stale

	h := newQueryHandler(t, newRepo(t), store)
	got, found, err := h.Handle(ctx, GetSalesOrderQuery{OrderID: "SO20250101004"})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
	assert.NotContains(t, store.data, "salesorders:SO20250101004")
}

func TestQueryHandlerIgnoresCacheFailures(t *testing.T) {
	store := newMapCache()
	store.getErr = errors.New("redis down")
	h := newQueryHandler(t, newRepo(t), store)

	got, found, err := h.Handle(context.Background(), GetSalesOrderQuery{OrderID: "SO20260108003"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, got.Items, 3)
}

func TestCommandHandlerCreatesOrder(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	pub := &recordingPublisher{}
	store := newMapCache()
	h := newCommandHandler(t, r, store, pub)

	got, err := h.Handle(ctx, CreateSalesOrderCommand{Request: createRequest()})
	require.NoError(t, err)

	assert.Equal(t, "SO20260108004", got.OrderID)
	assert.Equal(t, "CUST010", got.CustomerCode)
	assert.Equal(t, "Drogaria Central", got.CustomerName)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Equal(t, testClock(), got.OrderDate)
	assert.True(t, decimal.RequireFromString("51.70").Equal(got.TotalAmount.Decimal), "total %s", got.TotalAmount)

	require.Len(t, got.Items, 2)
	for _, item := range got.Items {
		assert.Regexp(t, itemIDPattern, item.ItemID)
	}
	assert.NotEqual(t, got.Items[0].ItemID, got.Items[1].ItemID)
	assert.Equal(t, "MAT001", got.Items[0].MaterialCode)
	assert.True(t, decimal.RequireFromString("26.70").Equal(got.Items[1].TotalPrice.Decimal))

	stored, ok := r.GetByID(ctx, got.OrderID)
	require.True(t, ok)
	assert.Len(t, stored.Items(), 2)
	assert.Equal(t, 4, r.Count(context.Background()))

	assert.Contains(t, store.data, "salesorders:SO20260108004")

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, "SO20260108004", string(msg.Key))
	assert.Equal(t, EventSalesOrderCreated, msg.Headers[messaging.HeaderEventType])
	var event SalesOrderCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, "SO20260108004", event.OrderID)
	assert.Equal(t, 2, event.ItemCount)
	assert.True(t, decimal.RequireFromString("51.70").Equal(event.TotalAmount.Decimal))
}

func TestCommandHandlerSequentialIDs(t *testing.T) {
	h := newCommandHandler(t, newRepo(t), nil, nil)

	for _, want := range []string{"SO20260108004", "SO20260108005", "SO20260108006"} {
		got, err := h.Handle(context.Background(), CreateSalesOrderCommand{Request: createRequest()})
		require.NoError(t, err)
		assert.Equal(t, want, got.OrderID)
	}
}

func TestCommandHandlerConflictOnCollision(t *testing.T) {
	colliding := &collidingRepository{Repository: newRepo(t)}
	h := newCommandHandler(t, colliding, nil, nil)

	_, err := h.Handle(context.Background(), CreateSalesOrderCommand{Request: createRequest()})
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindConflict))
	assert.Contains(t, err.Error(), "already exists")
	assert.Zero(t, colliding.creates)
}

func TestCommandHandlerPropagatesAggregateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dto.CreateSalesOrderRequest)
	}{
		{name: "blank customer code", mutate: func(r *dto.CreateSalesOrderRequest) { r.CustomerCode = " " }},
		{name: "zero quantity", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items[1].Quantity = 0 }},
		{name: "negative price", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items[0].UnitPrice = decimal.NewFromInt(-1) }},
		{name: "blank material", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items[0].MaterialCode = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRepo(t)
			h := newCommandHandler(t, r, nil, nil)
			req := createRequest()
			tt.mutate(&req)

			_, err := h.Handle(context.Background(), CreateSalesOrderCommand{Request: req})
			require.Error(t, err)
			assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
			assert.Equal(t, 3, r.Count(context.Background()))
		})
	}
}

func TestCommandHandlerEmptyItemsYieldsZeroTotal(t *testing.T) {
	h := newCommandHandler(t, newRepo(t), nil, nil)
	req := createRequest()
	req.Items = nil

	got, err := h.Handle(context.Background(), CreateSalesOrderCommand{Request: req})
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.IsZero())
	assert.Empty(t, got.Items)
}

func TestCommandHandlerRepositoryFailure(t *testing.T) {
	pub := &recordingPublisher{}
	h := newCommandHandler(t, failingRepository{Repository: newRepo(t)}, nil, pub)

	_, err := h.Handle(context.Background(), CreateSalesOrderCommand{Request: createRequest()})
	require.Error(t, err)
	assert.Empty(t, pub.messages)
}

func TestCommandHandlerPublishFailureDoesNotFail(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	h := newCommandHandler(t, newRepo(t), nil, pub)

	_, err := h.Handle(context.Background(), CreateSalesOrderCommand{Request: createRequest()})
	require.NoError(t, err)
	assert.Len(t, pub.messages, 1)
}

func TestCommandHandlerConcurrentCreates(t *testing.T) {
	r := newRepo(t)
	h := newCommandHandler(t, r, nil, nil)

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := h.Handle(context.Background(), CreateSalesOrderCommand{Request: createRequest()})
			if assert.NoError(t, err) {
				ids <- got.OrderID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, 3+n, r.Count(context.Background()))
}

func TestNewItemIDFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		assert.Regexp(t, itemIDPattern, newItemID())
	}
}
