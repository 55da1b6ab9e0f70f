package order

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Additional-Code/salesorder/internal/dto"
	"github.com/Additional-Code/salesorder/internal/presentation/http/response"
	service "github.com/Additional-Code/salesorder/internal/service/order"
	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

// BasePath is the collection route for sales orders.
const BasePath = "/api/v1/salesorders"

var httpTracer = otel.Tracer("github.com/Additional-Code/salesorder/transport/http/order")

// Handler exposes sales order endpoints over HTTP.
type Handler struct {
	queries  *service.QueryHandler
	commands *service.CommandHandler
}

// NewHandler constructs a sales order Handler.
func NewHandler(queries *service.QueryHandler, commands *service.CommandHandler) *Handler {
	return &Handler{queries: queries, commands: commands}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group(BasePath)
	g.GET("/:orderId", h.getByID)
	g.POST("", h.create)
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)
	orderID := c.Param("orderId")

	ctx, span := httpTracer.Start(c.Request().Context(), "salesorders.getByID", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	order, found, err := h.queries.Handle(ctx, service.GetSalesOrderQuery{OrderID: orderID})
	if err != nil {
		return b.WithError(err).Build()
	}
	if !found {
		return b.WithError(errorbank.NotFound(fmt.Sprintf("sales order %s not found", orderID), errorbank.WithDetail("orderId", orderID))).Build()
	}

	return b.WithData(order).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CreateSalesOrderRequest
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}
	if err := c.Validate(&payload); err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "salesorders.create")
	span.SetAttributes(
		attribute.String("customer.code", payload.CustomerCode),
		attribute.Int("order.items", len(payload.Items)),
	)
	defer span.End()

	order, err := h.commands.Handle(ctx, service.CreateSalesOrderCommand{Request: payload})
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).
		WithHeader(echo.HeaderLocation, BasePath+"/"+order.OrderID).
		WithData(order).
		Build()
}
