package order

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/salesorder/internal/cache"
	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/dto"
	"github.com/Additional-Code/salesorder/internal/entity"
	"github.com/Additional-Code/salesorder/internal/messaging"
	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

// CreateSalesOrderCommand requests a new order. The request has already passed
// boundary validation.
type CreateSalesOrderCommand struct {
	Request dto.CreateSalesOrderRequest
}

// CommandParams defines dependencies for constructing CommandHandler.
type CommandParams struct {
	fx.In

	Repository Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
	Publisher  messaging.Client
}

// CommandHandler serves the write path.
type CommandHandler struct {
	repo      Repository
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	publish   bool
	created   metric.Int64Counter

	now       func() time.Time
	newItemID func() string
}

// NewCommandHandler wires a CommandHandler.
func NewCommandHandler(p CommandParams) (*CommandHandler, error) {
	created, err := serviceMeter.Int64Counter("salesorder.created",
		metric.WithDescription("Sales orders created."),
	)
	if err != nil {
		return nil, err
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandHandler{
		repo:      p.Repository,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    logger,
		publisher: p.Publisher,
		publish:   p.Config.Messaging.Enabled,
		created:   created,
		now:       time.Now,
		newItemID: newItemID,
	}, nil
}

// newItemID returns "ITM" followed by 8 uppercase hex characters.
func newItemID() string {
	return "ITM" + strings.ToUpper(uuid.NewString()[:8])
}

// Handle creates, stores and returns a new order.
func (h *CommandHandler) Handle(ctx context.Context, cmd CreateSalesOrderCommand) (*dto.SalesOrder, error) {
	req := cmd.Request
	ctx, span := serviceTracer.Start(ctx, "SalesOrderCommand.Handle", trace.WithAttributes(
		attribute.String("customer.code", req.CustomerCode),
		attribute.Int("order.items", len(req.Items)),
	))
	defer span.End()

	orderID := h.repo.GenerateOrderID(ctx)
	span.SetAttributes(attribute.String("order.id", orderID))

	// Ids are monotonic, so this only trips on a misbehaving repository.
	if h.repo.Exists(ctx, orderID) {
		span.SetStatus(codes.Error, "order id collision")
		return nil, errorbank.Conflict(fmt.Sprintf("order %s already exists", orderID), errorbank.WithDetail("orderId", orderID))
	}

	order, err := entity.NewSalesOrder(orderID, req.CustomerCode, req.CustomerName, h.now().UTC(), req.Status)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, line := range req.Items {
		item, err := entity.NewSalesOrderItem(h.newItemID(), line.MaterialCode, line.MaterialDescription, line.Quantity, line.UnitPrice)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		if err := order.AddItem(item); err != nil {
			span.RecordError(err)
			return nil, err
		}
	}

	stored, err := h.repo.Create(ctx, order)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, err
	}

	result := toDTO(stored)
	if err := cache.SetJSON(ctx, h.cache, cacheKey(stored.OrderID()), result, h.cacheTTL); err != nil {
		h.logger.Warn("sales order cache write failed", zap.String("order_id", stored.OrderID()), zap.Error(err))
	}
	h.publishCreated(ctx, stored)
	h.created.Add(ctx, 1, metric.WithAttributes(attribute.String("status", stored.Status())))

	h.logger.Info("sales order created",
		zap.String("order_id", stored.OrderID()),
		zap.String("customer_code", stored.CustomerCode()),
		zap.String("total_amount", stored.TotalAmount().StringFixed(2)),
	)
	return result, nil
}

func (h *CommandHandler) publishCreated(ctx context.Context, order *entity.SalesOrder) {
	if !h.publish || h.publisher == nil {
		return
	}
	payload, err := json.Marshal(SalesOrderCreatedEvent{
		OrderID:      order.OrderID(),
		CustomerCode: order.CustomerCode(),
		Status:       order.Status(),
		TotalAmount:  dto.NewMoney(order.TotalAmount()),
		ItemCount:    len(order.Items()),
		OrderDate:    order.OrderDate(),
	})
	if err != nil {
		h.logger.Error("marshal sales order created", zap.Error(err))
		return
	}
	err = h.publisher.Publish(ctx, messaging.Message{
		Key:     []byte(order.OrderID()),
		Value:   payload,
		Headers: map[string]string{messaging.HeaderEventType: EventSalesOrderCreated},
	})
	if err != nil {
		h.logger.Error("publish sales order created", zap.String("order_id", order.OrderID()), zap.Error(err))
	}
}
