package entity

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

// SalesOrderItem is a single line of a sales order. Its line total is fixed at
// construction.
type SalesOrderItem struct {
	itemID              string
	materialCode        string
	materialDescription string
	quantity            int
	unitPrice           decimal.Decimal
	totalPrice          decimal.Decimal
}

// NewSalesOrderItem validates the line fields and computes quantity * unitPrice.
func NewSalesOrderItem(itemID, materialCode, materialDescription string, quantity int, unitPrice decimal.Decimal) (*SalesOrderItem, error) {
	if strings.TrimSpace(itemID) == "" {
		return nil, errorbank.BadRequest("item id cannot be empty", errorbank.WithDetail("field", "itemId"))
	}
	if strings.TrimSpace(materialCode) == "" {
		return nil, errorbank.BadRequest("material code cannot be empty", errorbank.WithDetail("field", "materialCode"))
	}
	if quantity <= 0 {
		return nil, errorbank.BadRequest("quantity must be greater than zero", errorbank.WithDetail("field", "quantity"))
	}
	if !unitPrice.IsPositive() {
		return nil, errorbank.BadRequest("unit price must be greater than zero", errorbank.WithDetail("field", "unitPrice"))
	}

	return &SalesOrderItem{
		itemID:              itemID,
		materialCode:        materialCode,
		materialDescription: materialDescription,
		quantity:            quantity,
		unitPrice:           unitPrice,
		totalPrice:          unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}, nil
}

func (i *SalesOrderItem) ItemID() string              { return i.itemID }
func (i *SalesOrderItem) MaterialCode() string        { return i.materialCode }
func (i *SalesOrderItem) MaterialDescription() string { return i.materialDescription }
func (i *SalesOrderItem) Quantity() int               { return i.quantity }
func (i *SalesOrderItem) UnitPrice() decimal.Decimal  { return i.unitPrice }

// TotalPrice returns the line total computed at construction.
func (i *SalesOrderItem) TotalPrice() decimal.Decimal { return i.totalPrice }
