package http

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/salesorder/internal/dto"
	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

func validRequest() dto.CreateSalesOrderRequest {
	return dto.CreateSalesOrderRequest{
		CustomerCode: "CUST001",
		CustomerName: "Farmácia Popular Ltda",
		Status:       "PENDING",
		Items: []dto.CreateSalesOrderItemRequest{
			{MaterialCode: "MAT001", MaterialDescription: "Paracetamol 500mg", Quantity: 1, UnitPrice: decimal.RequireFromString("0.01")},
		},
	}
}

func TestRequestValidator(t *testing.T) {
	v := NewRequestValidator()

	tests := []struct {
		name   string
		mutate func(*dto.CreateSalesOrderRequest)
		field  string
	}{
		{name: "valid", mutate: func(*dto.CreateSalesOrderRequest) {}},
		{name: "customer code missing", mutate: func(r *dto.CreateSalesOrderRequest) { r.CustomerCode = "" }, field: "customerCode"},
		{name: "customer code too long", mutate: func(r *dto.CreateSalesOrderRequest) { r.CustomerCode = "CUST0000001" }, field: "customerCode"},
		{name: "customer name too short", mutate: func(r *dto.CreateSalesOrderRequest) { r.CustomerName = "ab" }, field: "customerName"},
		{name: "customer name too long", mutate: func(r *dto.CreateSalesOrderRequest) { r.CustomerName = strings.Repeat("x", 101) }, field: "customerName"},
		{name: "status missing", mutate: func(r *dto.CreateSalesOrderRequest) { r.Status = "" }, field: "status"},
		{name: "no items", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items = []dto.CreateSalesOrderItemRequest{} }, field: "items"},
		{name: "nil items", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items = nil }, field: "items"},
		{name: "material code too long", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items[0].MaterialCode = strings.Repeat("M", 19) }, field: "items[0].materialCode"},
		{name: "material description missing", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items[0].MaterialDescription = "" }, field: "items[0].materialDescription"},
		{name: "quantity zero", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items[0].Quantity = 0 }, field: "items[0].quantity"},
		{name: "price zero", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items[0].UnitPrice = decimal.Zero }, field: "items[0].unitPrice"},
		{name: "price below a cent", mutate: func(r *dto.CreateSalesOrderRequest) { r.Items[0].UnitPrice = decimal.RequireFromString("0.009") }, field: "items[0].unitPrice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := v.Validate(&req)
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			appErr := errorbank.From(err)
			assert.Equal(t, errorbank.KindBadRequest, appErr.Kind())
			assert.Contains(t, appErr.Details(), tt.field)
		})
	}
}

func TestRequestValidatorBoundaries(t *testing.T) {
	req := validRequest()
	req.CustomerCode = "C"
	req.CustomerName = "abc"
	req.Items[0].MaterialCode = strings.Repeat("M", 18)

	assert.NoError(t, NewRequestValidator().Validate(&req))
}
