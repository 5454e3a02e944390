package impl

import (
	"context"
	"fmt"
	"testing"
	"time"

	"storefront/config"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	mockSvc "storefront/internal/mocks/service"
	"storefront/internal/usecase"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func catalogFixture(count int) []entity.Product {
	products := make([]entity.Product, 0, count)
	for i := 1; i <= count; i++ {
		category := "electronics"
		if i%2 == 0 {
			category = "jewelery"
		}
		products = append(products, entity.Product{
			ID:       int64(i),
			Title:    fmt.Sprintf("Item %02d", i),
			Price:    decimal.NewFromFloat(9.99),
			Category: category,
			Stock:    10,
		})
	}

	return products
}

func createTestCatalogService(t *testing.T) (*catalogService, *mockSvc.MockCatalogProvider, *fakeClock) {
	t.Helper()

	provider := mockSvc.NewMockCatalogProvider(t)
	clock := &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	srv := newCatalogService(CatalogServiceParams{
		Provider: provider,
		Config: &config.Config{Catalog: &config.CatalogConfig{
			PageSize: 4,
			CacheTTL: time.Minute,
		}},
		Logger: newDiscardLogger(),
	}, clock.Now)

	return srv, provider, clock
}

func TestCatalogService_ListProducts(t *testing.T) {
	srv, provider, _ := createTestCatalogService(t)
	provider.On("FetchProducts", mock.Anything).Return(catalogFixture(10), nil).Once()
	ctx := context.Background()

	tests := []struct {
		name       string
		query      *usecase.ProductQuery
		wantPage   int
		wantPages  int
		wantTotal  int
		wantFirst  int64
		wantLength int
	}{
		{"nil query is first page", nil, 1, 3, 10, 1, 4},
		{"second page", &usecase.ProductQuery{Page: 2}, 2, 3, 10, 5, 4},
		{"last page is partial", &usecase.ProductQuery{Page: 3}, 3, 3, 10, 9, 2},
		{"page past the end is clamped", &usecase.ProductQuery{Page: 99}, 3, 3, 10, 9, 2},
		{"page below one is clamped", &usecase.ProductQuery{Page: -1}, 1, 3, 10, 1, 4},
		{"search by category ignores case", &usecase.ProductQuery{Search: " JEWEL "}, 1, 2, 5, 2, 4},
		{"search by title", &usecase.ProductQuery{Search: "item 07"}, 1, 1, 1, 7, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := srv.ListProducts(ctx, tt.query)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, 4, page.PageSize)
			require.Len(t, page.Products, tt.wantLength)
			assert.Equal(t, tt.wantFirst, page.Products[0].ID)
		})
	}
}

func TestCatalogService_NoMatchesStillHasOnePage(t *testing.T) {
	srv, provider, _ := createTestCatalogService(t)
	provider.On("FetchProducts", mock.Anything).Return(catalogFixture(3), nil).Once()

	page, err := srv.ListProducts(context.Background(), &usecase.ProductQuery{Search: "nothing like this"})
	require.NoError(t, err)
	assert.Empty(t, page.Products)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 1, page.Page)
}

func TestCatalogService_GetProduct(t *testing.T) {
	srv, provider, _ := createTestCatalogService(t)
	provider.On("FetchProducts", mock.Anything).Return(catalogFixture(3), nil).Once()
	ctx := context.Background()

	product, err := srv.GetProduct(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Item 02", product.Title)

	_, err = srv.GetProduct(ctx, 42)
	assert.True(t, errors.Is(err, domainerrors.ErrProductNotFound))
}

func TestCatalogService_CachesUntilTTL(t *testing.T) {
	srv, provider, clock := createTestCatalogService(t)
	ctx := context.Background()

	provider.On("FetchProducts", mock.Anything).Return(catalogFixture(3), nil).Once()
	_, err := srv.ListProducts(ctx, nil)
	require.NoError(t, err)

	clock.Advance(30 * time.Second)
	_, err = srv.GetProduct(ctx, 1)
	require.NoError(t, err)
	provider.AssertNumberOfCalls(t, "FetchProducts", 1)

	provider.On("FetchProducts", mock.Anything).Return(catalogFixture(5), nil).Once()
	clock.Advance(time.Minute)

	page, err := srv.ListProducts(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	provider.AssertNumberOfCalls(t, "FetchProducts", 2)
}

func TestCatalogService_StockStaysStableAcrossRefreshes(t *testing.T) {
	srv, provider, clock := createTestCatalogService(t)
	ctx := context.Background()

	provider.On("FetchProducts", mock.Anything).Return(catalogFixture(2), nil).Once()
	product, err := srv.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, product.Stock)

	refreshed := catalogFixture(3)
	refreshed[0].Stock = 3
	refreshed[2].Stock = 7
	provider.On("FetchProducts", mock.Anything).Return(refreshed, nil).Once()
	clock.Advance(time.Hour)

	product, err = srv.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, product.Stock, "ceiling seen first is kept")

	product, err = srv.GetProduct(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, product.Stock, "new products keep their own ceiling")
	provider.AssertNumberOfCalls(t, "FetchProducts", 2)
}

func TestCatalogService_ServesStaleCopyOnFailure(t *testing.T) {
	srv, provider, clock := createTestCatalogService(t)
	ctx := context.Background()

	provider.On("FetchProducts", mock.Anything).Return(catalogFixture(3), nil).Once()
	_, err := srv.ListProducts(ctx, nil)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	provider.On("FetchProducts", mock.Anything).Return(nil, errors.New("upstream timeout")).Once()

	page, err := srv.ListProducts(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
}

func TestCatalogService_UnavailableWithoutCache(t *testing.T) {
	srv, provider, _ := createTestCatalogService(t)
	provider.On("FetchProducts", mock.Anything).Return(nil, errors.New("connection refused")).Once()

	_, err := srv.ListProducts(context.Background(), nil)
	assert.True(t, errors.Is(err, domainerrors.ErrCatalogUnavailable))
}
