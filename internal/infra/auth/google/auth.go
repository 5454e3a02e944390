// Package google turns Google Identity Services credentials into provider profiles.
package google

import (
	"context"
	"log/slog"
	"strings"

	"storefront/config"
	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"

	"github.com/pkg/errors"
	"google.golang.org/api/idtoken"
)

// placeholderClientID is the value shipped in sample configs.
const placeholderClientID = "YOUR_GOOGLE_CLIENT_ID"

// IsConfigured reports whether clientID looks like a real OAuth client id.
func IsConfigured(clientID string) bool {
	clientID = strings.TrimSpace(clientID)

	return !strings.HasPrefix(clientID, placeholderClientID) && len(clientID) > 20
}

// NewAuthService creates the Google OAuthAuthService. With a real client id credentials are
// verified against Google's keys; otherwise they are only decoded, for the demo sign-in.
func NewAuthService(cfg *config.Config, logger *slog.Logger) service.OAuthAuthService {
	clientID := ""
	if cfg.GoogleOAuth != nil {
		clientID = cfg.GoogleOAuth.ClientID
	}

	if !IsConfigured(clientID) {
		logger.Info("Google client id not configured, using demo sign-in")

		return newDemoAuthService(logger)
	}

	return &verifiedAuthService{
		clientID: clientID,
		validate: idtoken.Validate,
		logger:   logger,
	}
}

// verifiedAuthService validates ID tokens with google.golang.org/api/idtoken.
type verifiedAuthService struct {
	clientID string
	validate func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)
	logger   *slog.Logger
}

// VerifyIDToken checks signature, audience and expiry, then reads the profile claims.
func (s *verifiedAuthService) VerifyIDToken(ctx context.Context, idToken string) (*service.OAuthUser, error) {
	payload, err := s.validate(ctx, idToken, s.clientID)
	if err != nil {
		s.logger.Warn("Google ID token rejected", slog.Any("error", err))

		return nil, errors.Wrap(err, "invalid ID token")
	}

	if payload.Issuer != "https://accounts.google.com" && payload.Issuer != "accounts.google.com" {
		return nil, errors.Errorf("invalid issuer: %s", payload.Issuer)
	}

	user := &service.OAuthUser{
		ID:            payload.Subject,
		Email:         claimString(payload.Claims, "email"),
		Name:          claimString(payload.Claims, "name"),
		Provider:      entity.ProviderTypeGoogle,
		AvatarURL:     claimString(payload.Claims, "picture"),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
	}

	s.logger.Debug("Google ID token verified", slog.String("subject", user.ID))

	return user, nil
}

func (s *verifiedAuthService) GetProvider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}

func claimString(claims map[string]any, key string) string {
	value, _ := claims[key].(string)

	return value
}

// claimBool accepts both JSON booleans and the "true"/"false" strings some issuers send.
func claimBool(claims map[string]any, key string) bool {
	switch value := claims[key].(type) {
	case bool:
		return value
	case string:
		return strings.EqualFold(value, "true")
	default:
		return false
	}
}
