package impl

import (
	"context"
	"log/slog"
	"slices"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/repository"
)

// cartService implements the CartUsecase interface over a scope's cart.
type cartService struct {
	storage scopedStorage
	logger  *slog.Logger

	loaded bool
	// dirty marks changes made before the first good read; they win over storage.
	dirty bool
	items []entity.CartItem
}

func newCartService(storage scopedStorage, logger *slog.Logger) *cartService {
	return &cartService{
		storage: storage,
		logger:  logger,
	}
}

func (srv *cartService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *cartService) hydrate(ctx context.Context) {
	if srv.loaded {
		return
	}

	var items []entity.CartItem
	found, err := srv.storage.load(ctx, srv.log(ctx), repository.KeyCart, &items)
	if err != nil {
		return
	}
	srv.loaded = true

	if srv.dirty {
		srv.dirty = false
		srv.persist(ctx)

		return
	}
	if !found {
		return
	}

	// Stored lines that break 1 <= quantity <= stock are repaired on load.
	for _, item := range items {
		if item.Stock > 0 && item.Quantity > item.Stock {
			item.Quantity = item.Stock
		}
		if item.Quantity > 0 {
			srv.items = append(srv.items, item)
		}
	}
}

// AddOrIncrement adds one unit of the product, never exceeding its stock.
func (srv *cartService) AddOrIncrement(ctx context.Context, product *entity.Product) entity.Cart {
	srv.hydrate(ctx)

	if product == nil {
		return srv.snapshot()
	}

	idx := srv.indexOf(product.ID)
	switch {
	case idx >= 0:
		item := &srv.items[idx]
		if item.Quantity >= item.Stock {
			return srv.snapshot()
		}
		item.Quantity++
	case product.Stock > 0:
		srv.items = append(srv.items, entity.NewCartItem(product))
	default:
		return srv.snapshot()
	}

	srv.persist(ctx)

	return srv.snapshot()
}

// Decrement removes one unit; the line disappears when it reaches zero.
func (srv *cartService) Decrement(ctx context.Context, productID int64) entity.Cart {
	srv.hydrate(ctx)

	idx := srv.indexOf(productID)
	if idx < 0 {
		return srv.snapshot()
	}

	srv.items[idx].Quantity--
	if srv.items[idx].Quantity <= 0 {
		srv.items = slices.Delete(srv.items, idx, idx+1)
	}
	srv.persist(ctx)

	return srv.snapshot()
}

// Remove drops the line regardless of quantity.
func (srv *cartService) Remove(ctx context.Context, productID int64) entity.Cart {
	srv.hydrate(ctx)

	idx := srv.indexOf(productID)
	if idx < 0 {
		return srv.snapshot()
	}

	srv.items = slices.Delete(srv.items, idx, idx+1)
	srv.persist(ctx)

	return srv.snapshot()
}

// Clear empties the cart.
func (srv *cartService) Clear(ctx context.Context) entity.Cart {
	srv.hydrate(ctx)

	srv.items = nil
	srv.persist(ctx)

	return srv.snapshot()
}

// Snapshot returns the cart with its derived totals.
func (srv *cartService) Snapshot(ctx context.Context) entity.Cart {
	srv.hydrate(ctx)

	return srv.snapshot()
}

func (srv *cartService) snapshot() entity.Cart {
	return entity.NewCart(srv.items)
}

func (srv *cartService) indexOf(productID int64) int {
	return slices.IndexFunc(srv.items, func(item entity.CartItem) bool {
		return item.ID == productID
	})
}

func (srv *cartService) persist(ctx context.Context) {
	if !srv.loaded {
		srv.dirty = true

		return
	}

	items := srv.items
	if items == nil {
		items = []entity.CartItem{}
	}
	srv.storage.save(ctx, srv.log(ctx), repository.KeyCart, items)
}
