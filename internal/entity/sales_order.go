package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

// Well-known order statuses. Status is free-form; these are the values the
// seed data and the ERP use.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusConfirmed  = "CONFIRMED"
)

// SalesOrder is the order aggregate. It owns its items and keeps TotalAmount
// equal to the sum of their line totals.
type SalesOrder struct {
	orderID      string
	customerCode string
	customerName string
	orderDate    time.Time
	totalAmount  decimal.Decimal
	status       string
	items        []*SalesOrderItem
}

// NewSalesOrder builds an empty order shell. Order id and customer code are
// required.
func NewSalesOrder(orderID, customerCode, customerName string, orderDate time.Time, status string) (*SalesOrder, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, errorbank.BadRequest("order id cannot be empty", errorbank.WithDetail("field", "orderId"))
	}
	if strings.TrimSpace(customerCode) == "" {
		return nil, errorbank.BadRequest("customer code cannot be empty", errorbank.WithDetail("field", "customerCode"))
	}

	return &SalesOrder{
		orderID:      orderID,
		customerCode: customerCode,
		customerName: customerName,
		orderDate:    orderDate,
		totalAmount:  decimal.Zero,
		status:       status,
		items:        make([]*SalesOrderItem, 0),
	}, nil
}

// AddItem appends item and recomputes the order total.
func (o *SalesOrder) AddItem(item *SalesOrderItem) error {
	if item == nil {
		return errorbank.BadRequest("item is required", errorbank.WithDetail("field", "item"))
	}
	o.items = append(o.items, item)
	o.recalculateTotal()
	return nil
}

// UpdateStatus replaces the order status.
func (o *SalesOrder) UpdateStatus(newStatus string) error {
	if strings.TrimSpace(newStatus) == "" {
		return errorbank.BadRequest("status cannot be empty", errorbank.WithDetail("field", "status"))
	}
	o.status = newStatus
	return nil
}

func (o *SalesOrder) recalculateTotal() {
	total := decimal.Zero
	for _, item := range o.items {
		total = total.Add(item.TotalPrice())
	}
	o.totalAmount = total
}

func (o *SalesOrder) OrderID() string              { return o.orderID }
func (o *SalesOrder) CustomerCode() string         { return o.customerCode }
func (o *SalesOrder) CustomerName() string         { return o.customerName }
func (o *SalesOrder) OrderDate() time.Time         { return o.orderDate }
func (o *SalesOrder) TotalAmount() decimal.Decimal { return o.totalAmount }
func (o *SalesOrder) Status() string               { return o.status }

// Items returns the order lines in insertion order. The slice is a copy.
func (o *SalesOrder) Items() []*SalesOrderItem {
	out := make([]*SalesOrderItem, len(o.items))
	copy(out, o.items)
	return out
}
