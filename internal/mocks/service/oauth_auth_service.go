// Package service provides testify mocks of the domain service interfaces.
package service

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"

	"github.com/stretchr/testify/mock"
)

// MockOAuthAuthService is a mock of service.OAuthAuthService.
type MockOAuthAuthService struct {
	mock.Mock
}

// NewMockOAuthAuthService creates the mock and asserts its expectations on cleanup.
func NewMockOAuthAuthService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOAuthAuthService {
	m := &MockOAuthAuthService{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

func (m *MockOAuthAuthService) VerifyIDToken(ctx context.Context, idToken string) (*service.OAuthUser, error) {
	args := m.Called(ctx, idToken)

	var user *service.OAuthUser
	if v := args.Get(0); v != nil {
		user = v.(*service.OAuthUser)
	}

	return user, args.Error(1)
}

func (m *MockOAuthAuthService) GetProvider() entity.ProviderType {
	args := m.Called()

	return args.Get(0).(entity.ProviderType)
}
