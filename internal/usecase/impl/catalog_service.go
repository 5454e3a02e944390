package impl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"go.uber.org/fx"
)

// catalogService implements the CatalogUsecase interface. Fetched products are cached so
// their stock ceilings stay stable between requests.
type catalogService struct {
	provider service.CatalogProvider
	pageSize int
	cacheTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger

	mu        sync.Mutex
	products  []entity.Product
	fetchedAt time.Time
	// stock pins the first ceiling seen per product so refreshes never move it
	// under cart lines that already copied it.
	stock map[int64]int
}

// CatalogServiceParams holds dependencies for CatalogService, injected by Fx.
type CatalogServiceParams struct {
	fx.In

	Provider service.CatalogProvider
	Config   *config.Config
	Logger   *slog.Logger
}

// NewCatalogService is the constructor for catalogService.
func NewCatalogService(params CatalogServiceParams) usecase.CatalogUsecase {
	return newCatalogService(params, time.Now)
}

func newCatalogService(params CatalogServiceParams, now func() time.Time) *catalogService {
	pageSize, cacheTTL := 8, 10*time.Minute
	if params.Config != nil && params.Config.Catalog != nil {
		if params.Config.Catalog.PageSize > 0 {
			pageSize = params.Config.Catalog.PageSize
		}
		if params.Config.Catalog.CacheTTL > 0 {
			cacheTTL = params.Config.Catalog.CacheTTL
		}
	}

	return &catalogService{
		provider: params.Provider,
		pageSize: pageSize,
		cacheTTL: cacheTTL,
		now:      now,
		logger:   params.Logger,
		stock:    map[int64]int{},
	}
}

func (srv *catalogService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ListProducts filters by title or category and returns the requested page.
func (srv *catalogService) ListProducts(ctx context.Context, query *usecase.ProductQuery) (*usecase.ProductPage, error) {
	products, err := srv.load(ctx)
	if err != nil {
		return nil, err
	}

	search, page := "", 1
	if query != nil {
		search = strings.ToLower(strings.TrimSpace(query.Search))
		page = query.Page
	}

	matched := make([]entity.Product, 0, len(products))
	for _, product := range products {
		if search == "" ||
			strings.Contains(strings.ToLower(product.Title), search) ||
			strings.Contains(strings.ToLower(product.Category), search) {
			matched = append(matched, product)
		}
	}

	totalPages := max(1, (len(matched)+srv.pageSize-1)/srv.pageSize)
	page = min(max(page, 1), totalPages)

	start := (page - 1) * srv.pageSize
	end := min(start+srv.pageSize, len(matched))

	return &usecase.ProductPage{
		Products:   matched[start:end],
		Page:       page,
		PageSize:   srv.pageSize,
		TotalPages: totalPages,
		Total:      len(matched),
	}, nil
}

// GetProduct returns a single product by ID.
func (srv *catalogService) GetProduct(ctx context.Context, productID int64) (*entity.Product, error) {
	products, err := srv.load(ctx)
	if err != nil {
		return nil, err
	}

	for _, product := range products {
		if product.ID == productID {
			found := product

			return &found, nil
		}
	}

	return nil, domainerrors.ErrProductNotFound
}

// load returns the cached catalog, refreshing it once the TTL has passed. A stale copy is
// served when the upstream fails.
func (srv *catalogService) load(ctx context.Context) ([]entity.Product, error) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.products != nil && srv.now().Sub(srv.fetchedAt) < srv.cacheTTL {
		return srv.products, nil
	}

	products, err := srv.provider.FetchProducts(ctx)
	if err != nil {
		if srv.products != nil {
			srv.log(ctx).Warn("Catalog refresh failed, serving cached products", slog.Any("error", err))

			return srv.products, nil
		}
		srv.log(ctx).Error("Failed to fetch catalog", slog.Any("error", err))

		return nil, domainerrors.ErrCatalogUnavailable.WrapMessage(err.Error())
	}

	for i := range products {
		if pinned, ok := srv.stock[products[i].ID]; ok {
			products[i].Stock = pinned
		} else {
			srv.stock[products[i].ID] = products[i].Stock
		}
	}

	srv.products = products
	srv.fetchedAt = srv.now()
	srv.log(ctx).Debug("Catalog refreshed", slog.Int("count", len(products)))

	return srv.products, nil
}
