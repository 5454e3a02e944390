// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// identityService implements the IdentityUsecase interface over a scope's user directory.
type identityService struct {
	storage           scopedStorage
	hasher            service.PasswordHasher
	googleAuthService service.OAuthAuthService
	now               func() time.Time
	logger            *slog.Logger

	// loaded is set once storage has been read. Until then changes live only in
	// memory and are merged into the stored directory on the first good read.
	loaded         bool
	sessionChanged bool
	users          []*entity.User
	session        *entity.Session
}

func newIdentityService(
	storage scopedStorage,
	hasher service.PasswordHasher,
	googleAuthService service.OAuthAuthService,
	now func() time.Time,
	logger *slog.Logger,
) *identityService {
	return &identityService{
		storage:           storage,
		hasher:            hasher,
		googleAuthService: googleAuthService,
		now:               now,
		logger:            logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *identityService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *identityService) hydrate(ctx context.Context) {
	if srv.loaded {
		return
	}

	var stored []*entity.User
	if _, err := srv.storage.load(ctx, srv.log(ctx), repository.KeyUsers, &stored); err != nil {
		return
	}
	var session entity.Session
	hasSession, err := srv.storage.load(ctx, srv.log(ctx), repository.KeySession, &session)
	if err != nil {
		return
	}
	srv.loaded = true

	pending := srv.users
	srv.users = nil
	for _, user := range stored {
		if user != nil {
			srv.users = append(srv.users, user)
		}
	}

	merged := false
	for _, user := range pending {
		if srv.findByID(user.ID) != nil || srv.findByEmail(entity.NormalizeEmail(user.Email)) != nil {
			srv.log(ctx).Warn("Dropping in-memory account that clashes with storage", slog.String("userID", user.ID))

			continue
		}
		srv.users = append(srv.users, user)
		merged = true
	}
	if merged {
		srv.persistUsers(ctx)
	}

	if srv.sessionChanged {
		srv.sessionChanged = false
		srv.restoreSession(ctx, srv.session, true)

		return
	}
	if hasSession {
		srv.restoreSession(ctx, &session, false)
	}
}

// restoreSession makes session current if its user still exists. A session set in
// memory before the first read is written back.
func (srv *identityService) restoreSession(ctx context.Context, session *entity.Session, write bool) {
	if session == nil {
		srv.session = nil
		srv.storage.remove(ctx, srv.log(ctx), repository.KeySession)

		return
	}

	user := srv.findByID(session.ID)
	if user == nil {
		srv.log(ctx).Warn("Dropping session of unknown user", slog.String("userID", session.ID))
		srv.session = nil
		srv.storage.remove(ctx, srv.log(ctx), repository.KeySession)

		return
	}
	if write {
		srv.startSession(ctx, user)

		return
	}
	srv.session = user.Session()
}

// Register creates a password account and signs it in.
func (srv *identityService) Register(ctx context.Context, input *usecase.RegisterInput) (*entity.Session, error) {
	srv.hydrate(ctx)

	email := entity.NormalizeEmail(input.Email)
	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	if srv.findByEmail(email) != nil {
		return nil, domainerrors.ErrUserAlreadyExists
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.Any("error", err))

		return nil, domainerrors.ErrPasswordHashFailed.WrapMessage(err.Error())
	}

	user := &entity.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    srv.now(),
	}
	srv.users = append(srv.users, user)
	srv.persistUsers(ctx)
	srv.startSession(ctx, user)

	srv.log(ctx).Debug("Registration completed", slog.String("userID", user.ID))

	return srv.CurrentSession(ctx), nil
}

// Login signs in a password account.
func (srv *identityService) Login(ctx context.Context, input *usecase.LoginInput) (*entity.Session, error) {
	srv.hydrate(ctx)

	email := entity.NormalizeEmail(input.Email)
	user := srv.findByEmail(email)
	if user == nil || !user.HasPassword() || !srv.hasher.Check(input.Password, user.PasswordHash) {
		srv.log(ctx).Info("Login rejected", slog.String("email", email))

		return nil, domainerrors.ErrInvalidCredentials
	}

	srv.startSession(ctx, user)

	return srv.CurrentSession(ctx), nil
}

// LoginWithExternalIdentity signs in with a provider profile. An existing password account
// gains the provider's avatar and subject; an unknown email becomes a new provider account.
func (srv *identityService) LoginWithExternalIdentity(ctx context.Context, profile *service.OAuthUser) (*entity.Session, error) {
	srv.hydrate(ctx)

	if profile == nil || strings.TrimSpace(profile.Email) == "" {
		return nil, domainerrors.ErrOAuthFailed.WrapMessage("profile has no email")
	}
	if !profile.EmailVerified {
		return nil, domainerrors.ErrOAuthEmailNotVerified
	}

	email := entity.NormalizeEmail(profile.Email)
	user := srv.findByEmail(email)

	switch {
	case user == nil:
		user = srv.buildProviderUser(email, profile)
		srv.users = append(srv.users, user)
		srv.persistUsers(ctx)
		srv.log(ctx).Info("Created provider account", slog.String("userID", user.ID), slog.Any("provider", user.Provider))
	case !user.IsProviderAccount():
		if profile.AvatarURL != "" {
			user.Avatar = profile.AvatarURL
		}
		user.ExternalSubject = profile.ID
		srv.persistUsers(ctx)
		srv.log(ctx).Info("Linked provider identity to existing account", slog.String("userID", user.ID))
	}

	srv.startSession(ctx, user)

	return srv.CurrentSession(ctx), nil
}

func (srv *identityService) buildProviderUser(email string, profile *service.OAuthUser) *entity.User {
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		name = entity.EmailLocalPart(email)
	}

	provider := profile.Provider
	if provider == entity.ProviderTypeNone {
		provider = entity.ProviderTypeGoogle
	}

	return &entity.User{
		ID:              uuid.NewString(),
		Name:            name,
		Email:           email,
		Avatar:          profile.AvatarURL,
		Provider:        provider,
		ExternalSubject: profile.ID,
		CreatedAt:       srv.now(),
	}
}

// LoginWithCredential decodes a provider credential and signs in with its profile.
func (srv *identityService) LoginWithCredential(ctx context.Context, credential string) (*entity.Session, error) {
	profile, err := srv.googleAuthService.VerifyIDToken(ctx, credential)
	if err != nil {
		srv.log(ctx).Warn("Failed to verify provider credential", slog.Any("error", err))

		return nil, domainerrors.ErrOAuthFailed.WrapMessage(errors.Cause(err).Error())
	}

	return srv.LoginWithExternalIdentity(ctx, profile)
}

// Logout clears the session. The user directory is untouched.
func (srv *identityService) Logout(ctx context.Context) {
	srv.hydrate(ctx)

	srv.session = nil
	if !srv.loaded {
		srv.sessionChanged = true
	}
	srv.storage.remove(ctx, srv.log(ctx), repository.KeySession)
}

// UpdateName renames the signed-in user and their session together.
func (srv *identityService) UpdateName(ctx context.Context, name string) *entity.Session {
	srv.hydrate(ctx)

	if srv.session == nil {
		return nil
	}

	user := srv.findByID(srv.session.ID)
	if user == nil {
		return nil
	}

	user.Name = strings.TrimSpace(name)
	srv.persistUsers(ctx)
	srv.startSession(ctx, user)

	return srv.CurrentSession(ctx)
}

// CurrentSession returns a copy of the active session, or nil.
func (srv *identityService) CurrentSession(ctx context.Context) *entity.Session {
	srv.hydrate(ctx)

	if srv.session == nil {
		return nil
	}
	session := *srv.session

	return &session
}

func (srv *identityService) startSession(ctx context.Context, user *entity.User) {
	srv.session = user.Session()
	if !srv.loaded {
		srv.sessionChanged = true

		return
	}
	srv.storage.save(ctx, srv.log(ctx), repository.KeySession, srv.session)
}

// persistUsers writes the directory. Skipped before the first good read, so a
// partial mirror never replaces the stored directory.
func (srv *identityService) persistUsers(ctx context.Context) {
	if !srv.loaded {
		return
	}
	srv.storage.save(ctx, srv.log(ctx), repository.KeyUsers, srv.users)
}

func (srv *identityService) findByEmail(email string) *entity.User {
	for _, user := range srv.users {
		if entity.NormalizeEmail(user.Email) == email {
			return user
		}
	}

	return nil
}

func (srv *identityService) findByID(id string) *entity.User {
	for _, user := range srv.users {
		if user.ID == id {
			return user
		}
	}

	return nil
}
