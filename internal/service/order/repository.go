package order

import (
	"context"

	"github.com/Additional-Code/salesorder/internal/entity"
	repo "github.com/Additional-Code/salesorder/internal/repository/order"
)

// Repository is the store contract the handlers depend on.
type Repository interface {
	GetByID(ctx context.Context, orderID string) (*entity.SalesOrder, bool)
	Create(ctx context.Context, order *entity.SalesOrder) (*entity.SalesOrder, error)
	Exists(ctx context.Context, orderID string) bool
	GenerateOrderID(ctx context.Context) string
}

func asRepository(r *repo.Repository) Repository {
	return r
}
