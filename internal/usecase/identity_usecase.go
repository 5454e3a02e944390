// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"
)

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput defines the data required for a user to log in.
type LoginInput struct {
	Email    string
	Password string
}

// IdentityUsecase owns the user directory and the active session of a storage scope.
type IdentityUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*entity.Session, error)
	Login(ctx context.Context, input *LoginInput) (*entity.Session, error)
	// LoginWithExternalIdentity signs in with a provider profile, linking or creating the account.
	LoginWithExternalIdentity(ctx context.Context, profile *service.OAuthUser) (*entity.Session, error)
	// LoginWithCredential decodes a provider credential and signs in with the resulting profile.
	LoginWithCredential(ctx context.Context, credential string) (*entity.Session, error)
	Logout(ctx context.Context)
	// UpdateName renames the active user. Without a session it does nothing.
	UpdateName(ctx context.Context, name string) *entity.Session
	// CurrentSession returns the active session, or nil when signed out.
	CurrentSession(ctx context.Context) *entity.Session
}
