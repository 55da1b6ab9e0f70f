package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/salesorder/internal/entity"
)

type seedItem struct {
	id, material, description string
	quantity                  int
	unitPrice                 string
}

type seedOrder struct {
	id, customerCode, customerName, status string
	age                                    time.Duration
	items                                  []seedItem
}

var seedData = []seedOrder{
	{
		id: "SO20260108001", customerCode: "CUST001", customerName: "Farmácia Popular Ltda",
		status: entity.StatusConfirmed, age: 5 * 24 * time.Hour,
		items: []seedItem{
			{"ITM001", "MAT001", "Paracetamol 500mg", 100, "2.50"},
			{"ITM002", "MAT002", "Dipirona 1g", 50, "3.75"},
		},
	},
	{
		id: "SO20260108002", customerCode: "CUST002", customerName: "Drogaria Moderna S.A.",
		status: entity.StatusProcessing, age: 3 * 24 * time.Hour,
		items: []seedItem{
			{"ITM003", "MAT003", "Ibuprofeno 600mg", 200, "4.20"},
		},
	},
	{
		id: "SO20260108003", customerCode: "CUST003", customerName: "Rede Saúde Plus",
		status: entity.StatusPending, age: 24 * time.Hour,
		items: []seedItem{
			{"ITM004", "MAT001", "Paracetamol 500mg", 150, "2.50"},
			{"ITM005", "MAT004", "Amoxicilina 500mg", 80, "8.90"},
			{"ITM006", "MAT005", "Omeprazol 20mg", 120, "5.60"},
		},
	},
}

func seedOrders(now time.Time) ([]*entity.SalesOrder, error) {
	orders := make([]*entity.SalesOrder, 0, len(seedData))
	for _, so := range seedData {
		order, err := entity.NewSalesOrder(so.id, so.customerCode, so.customerName, now.Add(-so.age), so.status)
		if err != nil {
			return nil, err
		}
		for _, si := range so.items {
			price, err := decimal.NewFromString(si.unitPrice)
			if err != nil {
				return nil, err
			}
			item, err := entity.NewSalesOrderItem(si.id, si.material, si.description, si.quantity, price)
			if err != nil {
				return nil, err
			}
			if err := order.AddItem(item); err != nil {
				return nil, err
			}
		}
		orders = append(orders, order)
	}
	return orders, nil
}
