package order

import (
	"github.com/Additional-Code/salesorder/internal/cache"
	"github.com/Additional-Code/salesorder/internal/dto"
	"github.com/Additional-Code/salesorder/internal/entity"
)

func toDTO(order *entity.SalesOrder) *dto.SalesOrder {
	items := order.Items()
	out := &dto.SalesOrder{
		OrderID:      order.OrderID(),
		CustomerCode: order.CustomerCode(),
		CustomerName: order.CustomerName(),
		OrderDate:    order.OrderDate(),
		TotalAmount:  dto.NewMoney(order.TotalAmount()),
		Status:       order.Status(),
		Items:        make([]dto.SalesOrderItem, 0, len(items)),
	}
	for _, item := range items {
		out.Items = append(out.Items, dto.SalesOrderItem{
			ItemID:              item.ItemID(),
			MaterialCode:        item.MaterialCode(),
			MaterialDescription: item.MaterialDescription(),
			Quantity:            item.Quantity(),
			UnitPrice:           dto.NewMoney(item.UnitPrice()),
			TotalPrice:          dto.NewMoney(item.TotalPrice()),
		})
	}
	return out
}

func cacheKey(orderID string) string {
	return cache.Key("salesorders", orderID)
}
