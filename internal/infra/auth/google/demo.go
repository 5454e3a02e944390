package google

import (
	"context"
	"log/slog"
	"slices"

	"storefront/internal/domain/entity"
	"storefront/internal/domain/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// DemoAccount is a canned Google profile offered when no client id is configured.
type DemoAccount struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}

var demoAccounts = []DemoAccount{
	{
		Sub:     "demo-google-001",
		Name:    "Swati Singh",
		Email:   "swati.singh@gmail.com",
		Picture: "https://api.dicebear.com/9.x/personas/svg?seed=swati&backgroundColor=b6e3f4",
	},
	{
		Sub:     "demo-google-002",
		Name:    "Ravi Kumar",
		Email:   "ravi.kumar@gmail.com",
		Picture: "https://api.dicebear.com/9.x/personas/svg?seed=ravi&backgroundColor=ffd5dc",
	},
	{
		Sub:     "demo-google-003",
		Name:    "Anita Desai",
		Email:   "anita.desai@gmail.com",
		Picture: "https://api.dicebear.com/9.x/personas/svg?seed=anita&backgroundColor=c0aede",
	},
}

// DemoAccounts returns the demo picker's accounts.
func DemoAccounts() []DemoAccount {
	return slices.Clone(demoAccounts)
}

// FindDemoAccount looks up a demo account by subject.
func FindDemoAccount(sub string) (DemoAccount, bool) {
	idx := slices.IndexFunc(demoAccounts, func(a DemoAccount) bool { return a.Sub == sub })
	if idx < 0 {
		return DemoAccount{}, false
	}

	return demoAccounts[idx], true
}

// Profile converts the account into a verified provider profile.
func (a DemoAccount) Profile() *service.OAuthUser {
	return &service.OAuthUser{
		ID:            a.Sub,
		Email:         a.Email,
		Name:          a.Name,
		Provider:      entity.ProviderTypeGoogle,
		AvatarURL:     a.Picture,
		EmailVerified: true,
	}
}

// idTokenClaims is the part of a Google ID token the storefront reads.
type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	jwt.RegisteredClaims
}

// demoAuthService decodes credentials without checking their signature.
type demoAuthService struct {
	parser *jwt.Parser
	logger *slog.Logger
}

func newDemoAuthService(logger *slog.Logger) *demoAuthService {
	return &demoAuthService{
		parser: jwt.NewParser(),
		logger: logger,
	}
}

// VerifyIDToken reads the profile claims of a credential. The signature is not checked.
func (s *demoAuthService) VerifyIDToken(_ context.Context, idToken string) (*service.OAuthUser, error) {
	var claims idTokenClaims
	if _, _, err := s.parser.ParseUnverified(idToken, &claims); err != nil {
		return nil, errors.Wrap(err, "malformed credential")
	}

	if claims.Subject == "" && claims.Email == "" {
		return nil, errors.New("credential carries no identity")
	}

	s.logger.Debug("Decoded unverified credential", slog.String("subject", claims.Subject))

	return &service.OAuthUser{
		ID:            claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Provider:      entity.ProviderTypeGoogle,
		AvatarURL:     claims.Picture,
		EmailVerified: claims.EmailVerified,
	}, nil
}

func (s *demoAuthService) GetProvider() entity.ProviderType {
	return entity.ProviderTypeGoogle
}
