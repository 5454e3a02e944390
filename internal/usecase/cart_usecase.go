package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// CartUsecase owns the single cart of a storage scope. Every operation is total:
// unknown product IDs are ignored and quantities are clamped to stock.
type CartUsecase interface {
	AddOrIncrement(ctx context.Context, product *entity.Product) entity.Cart
	Decrement(ctx context.Context, productID int64) entity.Cart
	Remove(ctx context.Context, productID int64) entity.Cart
	Clear(ctx context.Context) entity.Cart
	Snapshot(ctx context.Context) entity.Cart
}
