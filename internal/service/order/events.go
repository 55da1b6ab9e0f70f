package order

import (
	"time"

	"github.com/Additional-Code/salesorder/internal/dto"
)

// EventSalesOrderCreated names the event published after an order is stored.
const EventSalesOrderCreated = "salesorder.created"

// SalesOrderCreatedEvent is emitted when a new sales order is persisted.
type SalesOrderCreatedEvent struct {
	OrderID      string    `json:"order_id"`
	CustomerCode string    `json:"customer_code"`
	Status       string    `json:"status"`
	TotalAmount  dto.Money `json:"total_amount"`
	ItemCount    int       `json:"item_count"`
	OrderDate    time.Time `json:"order_date"`
}
