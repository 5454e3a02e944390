package service

import (
	"context"

	"storefront/internal/domain/entity"
)

// OAuthUser is the profile an external identity provider vouches for.
type OAuthUser struct {
	ID            string              // Provider subject, e.g. Google's 'sub' claim
	Email         string              // Email as reported by the provider
	Name          string              // Display name, may be empty
	Provider      entity.ProviderType // Provider that issued the profile
	AvatarURL     string              // Profile picture URL
	EmailVerified bool                // Whether the provider verified the email
}

// OAuthAuthService turns an opaque sign-in credential into a provider profile.
type OAuthAuthService interface {
	// VerifyIDToken decodes (and, where supported, verifies) an ID token credential.
	VerifyIDToken(ctx context.Context, idToken string) (*OAuthUser, error)

	// GetProvider returns the OAuth provider type
	GetProvider() entity.ProviderType
}
