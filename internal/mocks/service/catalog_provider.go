package service

import (
	"context"

	"storefront/internal/domain/entity"

	"github.com/stretchr/testify/mock"
)

// MockCatalogProvider is a mock of service.CatalogProvider.
type MockCatalogProvider struct {
	mock.Mock
}

// NewMockCatalogProvider creates the mock and asserts its expectations on cleanup.
func NewMockCatalogProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCatalogProvider {
	m := &MockCatalogProvider{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockCatalogProvider) FetchProducts(ctx context.Context) ([]entity.Product, error) {
	args := m.Called(ctx)

	var products []entity.Product
	if v := args.Get(0); v != nil {
		products = v.([]entity.Product)
	}

	return products, args.Error(1)
}
