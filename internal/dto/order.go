package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesOrder is the read-only transfer representation of an order.
type SalesOrder struct {
	OrderID      string           `json:"orderId"`
	CustomerCode string           `json:"customerCode"`
	CustomerName string           `json:"customerName"`
	OrderDate    time.Time        `json:"orderDate"`
	TotalAmount  Money            `json:"totalAmount"`
	Status       string           `json:"status"`
	Items        []SalesOrderItem `json:"items"`
}

// SalesOrderItem is the transfer representation of an order line.
type SalesOrderItem struct {
	ItemID              string `json:"itemId"`
	MaterialCode        string `json:"materialCode"`
	MaterialDescription string `json:"materialDescription"`
	Quantity            int    `json:"quantity"`
	UnitPrice           Money  `json:"unitPrice"`
	TotalPrice          Money  `json:"totalPrice"`
}

// CreateSalesOrderRequest is the inbound payload for order creation. Field
// rules are enforced at the HTTP boundary.
type CreateSalesOrderRequest struct {
	CustomerCode string                        `json:"customerCode" validate:"required,min=1,max=10"`
	CustomerName string                        `json:"customerName" validate:"required,min=3,max=100"`
	Status       string                        `json:"status" validate:"required"`
	Items        []CreateSalesOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreateSalesOrderItemRequest is one requested order line.
type CreateSalesOrderItemRequest struct {
	MaterialCode        string          `json:"materialCode" validate:"required,min=1,max=18"`
	MaterialDescription string          `json:"materialDescription" validate:"required"`
	Quantity            int             `json:"quantity" validate:"gte=1"`
	UnitPrice           decimal.Decimal `json:"unitPrice" validate:"gte=0.01"`
}
