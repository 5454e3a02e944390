package usecase

import (
	"context"

	"storefront/internal/domain/entity"
)

// ProductQuery filters and pages the catalog.
type ProductQuery struct {
	Search string
	Page   int // 1-based
}

// ProductPage is one page of matching products.
type ProductPage struct {
	Products   []entity.Product `json:"products"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
	Total      int              `json:"total"`
}

// CatalogUsecase serves the read-only product catalog.
type CatalogUsecase interface {
	ListProducts(ctx context.Context, query *ProductQuery) (*ProductPage, error)
	GetProduct(ctx context.Context, productID int64) (*entity.Product, error)
}
