package service

import (
	"context"

	"storefront/internal/domain/entity"
)

// CatalogProvider fetches the product catalog from an upstream source.
type CatalogProvider interface {
	// FetchProducts returns every product, each with a stock ceiling assigned.
	FetchProducts(ctx context.Context) ([]entity.Product, error)
}
