package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

func mustItem(t *testing.T, id, material string, qty int, price string) *SalesOrderItem {
	t.Helper()
	item, err := NewSalesOrderItem(id, material, "desc "+material, qty, decimal.RequireFromString(price))
	require.NoError(t, err)
	return item
}

func TestNewSalesOrderValidation(t *testing.T) {
	now := time.Now().UTC()
	tests := []struct {
		name         string
		orderID      string
		customerCode string
		wantErr      bool
	}{
		{name: "valid", orderID: "SO20260108001", customerCode: "CUST001"},
		{name: "empty order id", orderID: "", customerCode: "CUST001", wantErr: true},
		{name: "whitespace order id", orderID: "   ", customerCode: "CUST001", wantErr: true},
		{name: "empty customer code", orderID: "SO20260108001", customerCode: "", wantErr: true},
		{name: "whitespace customer code", orderID: "SO20260108001", customerCode: "\t", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := NewSalesOrder(tt.orderID, tt.customerCode, "Customer", now, StatusPending)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, order)
				assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.orderID, order.OrderID())
			assert.Equal(t, now, order.OrderDate())
			assert.True(t, order.TotalAmount().IsZero())
			assert.Empty(t, order.Items())
		})
	}
}

func TestAddItemRecomputesTotal(t *testing.T) {
	order, err := NewSalesOrder("SO20260108001", "CUST001", "Farmácia Popular Ltda", time.Now().UTC(), StatusConfirmed)
	require.NoError(t, err)

	require.NoError(t, order.AddItem(mustItem(t, "ITM001", "MAT001", 100, "2.50")))
	assert.True(t, decimal.RequireFromString("250.00").Equal(order.TotalAmount()))

	require.NoError(t, order.AddItem(mustItem(t, "ITM002", "MAT002", 50, "3.75")))
	assert.True(t, decimal.RequireFromString("437.50").Equal(order.TotalAmount()), "got %s", order.TotalAmount())

	items := order.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "ITM001", items[0].ItemID())
	assert.Equal(t, "ITM002", items[1].ItemID())
}

func TestAddItemRejectsNil(t *testing.T) {
	order, err := NewSalesOrder("SO1", "CUST", "", time.Now().UTC(), StatusPending)
	require.NoError(t, err)

	err = order.AddItem(nil)
	require.Error(t, err)
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
	assert.Empty(t, order.Items())
	assert.True(t, order.TotalAmount().IsZero())
}

func TestItemsReturnsCopy(t *testing.T) {
	order, err := NewSalesOrder("SO1", "CUST", "", time.Now().UTC(), StatusPending)
	require.NoError(t, err)
	require.NoError(t, order.AddItem(mustItem(t, "ITM001", "MAT001", 1, "1.00")))

	items := order.Items()
	items[0] = nil

	assert.NotNil(t, order.Items()[0])
}

func TestUpdateStatus(t *testing.T) {
	order, err := NewSalesOrder("SO1", "CUST", "", time.Now().UTC(), StatusPending)
	require.NoError(t, err)

	require.NoError(t, order.UpdateStatus(StatusConfirmed))
	assert.Equal(t, StatusConfirmed, order.Status())

	err = order.UpdateStatus("  ")
	assert.True(t, errorbank.IsKind(err, errorbank.KindBadRequest))
	assert.Equal(t, StatusConfirmed, order.Status())
}
