// Package catalog fetches the product catalog from the Fake Store API.
package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"

	"storefront/config"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"

	"github.com/pkg/errors"
)

const productsPath = "/products"

// fakeStoreProvider implements service.CatalogProvider over HTTP. The upstream has no
// inventory, so each product is given a random stock ceiling.
type fakeStoreProvider struct {
	baseURL    string
	httpClient *http.Client
	minStock   int
	maxStock   int
	intN       func(n int) int
	logger     *slog.Logger
}

// NewFakeStoreProvider creates the catalog provider from the catalog config section
func NewFakeStoreProvider(cfg *config.Config, logger *slog.Logger) service.CatalogProvider {
	catalogCfg := cfg.Catalog

	return &fakeStoreProvider{
		baseURL: strings.TrimRight(catalogCfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: catalogCfg.Timeout,
		},
		minStock: catalogCfg.MinStock,
		maxStock: catalogCfg.MaxStock,
		intN:     rand.IntN,
		logger:   logger,
	}
}

// FetchProducts downloads every product and assigns stock in [minStock, maxStock].
func (p *fakeStoreProvider) FetchProducts(ctx context.Context) ([]entity.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+productsPath, nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch products")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, errors.Errorf("catalog returned status %d: %s", resp.StatusCode, string(body))
	}

	var products []entity.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, errors.Wrap(err, "failed to decode products")
	}

	for i := range products {
		products[i].Stock = p.randomStock()
	}

	p.logger.Info("Fetched catalog", slog.Int("count", len(products)))

	return products, nil
}

func (p *fakeStoreProvider) randomStock() int {
	if p.maxStock <= p.minStock {
		return p.minStock
	}

	return p.minStock + p.intN(p.maxStock-p.minStock+1)
}
