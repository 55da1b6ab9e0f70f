package order

import (
	"context"
	"encoding/json"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/internal/messaging"
	ordersvc "github.com/Additional-Code/salesorder/internal/service/order"
	"github.com/Additional-Code/salesorder/internal/worker"
)

var workerTracer = otel.Tracer("github.com/Additional-Code/salesorder/worker/order")

// Module registers sales order worker handlers.
var Module = fx.Module("worker_salesorder",
	fx.Provide(
		fx.Annotate(
			NewSalesOrderCreatedHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

var errMissingOrderID = errors.New("sales order created event without order id")

// NewSalesOrderCreatedHandler logs every salesorder.created event seen on the
// configured topic.
func NewSalesOrderCreatedHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		_, span := workerTracer.Start(ctx, "worker.salesorders.created", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
			attribute.Int64("messaging.offset", msg.Offset),
		))
		defer span.End()

		var event ordersvc.SalesOrderCreatedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode sales order created", zap.Int64("offset", msg.Offset), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		if event.OrderID == "" {
			span.SetStatus(codes.Error, "missing order id")
			return errMissingOrderID
		}
		span.SetAttributes(attribute.String("order.id", event.OrderID))

		logger.Info("sales order created event processed",
			zap.String("order_id", event.OrderID),
			zap.String("customer_code", event.CustomerCode),
			zap.String("status", event.Status),
			zap.String("total_amount", event.TotalAmount.StringFixed(2)),
			zap.Int("item_count", event.ItemCount),
			zap.Time("order_date", event.OrderDate),
		)
		return nil
	}

	return worker.HandlerRegistration{
		Topic:     cfg.Messaging.Kafka.Topic,
		EventType: ordersvc.EventSalesOrderCreated,
		Handler:   handler,
	}
}
