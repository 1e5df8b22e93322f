package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deptevents/event-registration/internal/auth"
	"github.com/deptevents/event-registration/internal/config"
	"github.com/deptevents/event-registration/internal/domain"
	"github.com/deptevents/event-registration/internal/events"
	"github.com/deptevents/event-registration/internal/repository"
)

// AuthService coordinates registration, verification and login flows.
type AuthService struct {
	users       repository.UserRepository
	tokens      repository.TokenRepository
	dispatcher  events.Dispatcher
	tokenMgr    *auth.TokenManager
	bcryptCost  int
	verifyTTL   time.Duration
	resetTTL    time.Duration
	emailDomain string
	baseURL     string
	now         func() time.Time
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	TokenRepo  repository.TokenRepository
	Dispatcher events.Dispatcher
	Clock      func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AuthService{
		users:       deps.UserRepo,
		tokens:      deps.TokenRepo,
		dispatcher:  deps.Dispatcher,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost:  cfg.Auth.BcryptCost,
		verifyTTL:   time.Duration(cfg.Auth.VerifyTokenTTLMinutes) * time.Minute,
		resetTTL:    time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		emailDomain: strings.ToLower(strings.TrimPrefix(cfg.Auth.AllowedEmailDomain, "@")),
		baseURL:     strings.TrimRight(cfg.App.BaseURL, "/"),
		now:         clock,
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return validationErr("email", "invalid email address")
	}
	if s.emailDomain != "" && !strings.HasSuffix(email, "@"+s.emailDomain) {
		return validationErr("email", fmt.Sprintf("only @%s accounts are accepted", s.emailDomain))
	}
	return nil
}

// RegisterUser creates an inactive account and issues a verification token.
func (s *AuthService) RegisterUser(ctx context.Context, email, password string) (*domain.User, error) {
	email = NormalizeEmail(email)
	if err := s.validateEmail(email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, validationErr("password", err.Error())
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, mapErr(domain.ErrEmailTaken)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         domain.UserRoleUser,
		Active:       false,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, mapErr(fmt.Errorf("create user: %w", err))
	}

	if err := s.sendVerification(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ResendVerification issues a fresh verification token for an inactive
// account. Unknown and already verified addresses succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}
	if user.Active {
		return nil
	}
	return s.sendVerification(ctx, user)
}

func (s *AuthService) sendVerification(ctx context.Context, user *domain.User) error {
	token, err := s.issueToken(ctx, user.ID, domain.TokenPurposeVerifyEmail, s.verifyTTL)
	if err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventUserRegistered,
		ActorID: &user.ID,
		Payload: events.UserRegisteredPayload{
			UserID:    user.ID,
			Email:     user.Email,
			VerifyURL: s.verifyURL(token.Token),
			ExpiresAt: token.ExpiresAt,
		},
	})
	return nil
}

// VerifyEmail consumes a verification token and activates the account.
func (s *AuthService) VerifyEmail(ctx context.Context, tokenStr string) (*domain.User, error) {
	token, err := s.consumeToken(ctx, domain.TokenPurposeVerifyEmail, tokenStr)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, s.userErr(err)
	}
	if user.Active {
		return user, nil
	}
	user.Active = true
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("activate user: %w", err)
	}
	return user, nil
}

// LoginUser authenticates a verified account.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, mapErr(domain.ErrInvalidCredentials)
		}
		return nil, "", time.Time{}, err
	}
	if !auth.ComparePassword(user.PasswordHash, password) {
		return nil, "", time.Time{}, mapErr(domain.ErrInvalidCredentials)
	}
	if !user.Active {
		return nil, "", time.Time{}, mapErr(domain.ErrAccountNotVerified)
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	return user, token, exp, nil
}

// RequestPasswordReset issues a reset token when the email is known. Unknown
// addresses succeed silently so that accounts cannot be enumerated.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	token, err := s.issueToken(ctx, user.ID, domain.TokenPurposePasswordReset, s.resetTTL)
	if err != nil {
		return err
	}
	s.publish(ctx, events.Event{
		Type:    events.EventPasswordResetRequested,
		ActorID: &user.ID,
		Payload: events.PasswordResetRequestedPayload{
			UserID:    user.ID,
			Email:     user.Email,
			Token:     token.Token,
			ExpiresAt: token.ExpiresAt,
		},
	})
	return nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return validationErr("password", err.Error())
	}
	token, err := s.consumeToken(ctx, domain.TokenPurposePasswordReset, tokenStr)
	if err != nil {
		return err
	}
	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return s.userErr(err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return validationErr("new_password", err.Error())
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return s.userErr(err)
	}
	if !auth.ComparePassword(user.PasswordHash, currentPassword) {
		return mapErr(domain.ErrInvalidCredentials)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.users.Update(ctx, user)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issueToken(ctx context.Context, userID int64, purpose domain.TokenPurpose, ttl time.Duration) (*domain.OneTimeToken, error) {
	token := &domain.OneTimeToken{
		UserID:    userID,
		Purpose:   purpose,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("store %s token: %w", purpose, err)
	}
	return token, nil
}

func (s *AuthService) consumeToken(ctx context.Context, purpose domain.TokenPurpose, tokenStr string) (*domain.OneTimeToken, error) {
	if strings.TrimSpace(tokenStr) == "" {
		return nil, validationErr("token", "token required")
	}
	token, err := s.tokens.GetByToken(ctx, purpose, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, mapErr(domain.ErrTokenInvalid)
		}
		return nil, err
	}
	if !token.Usable(s.now()) {
		return nil, mapErr(domain.ErrTokenInvalid)
	}
	if err := s.tokens.MarkUsed(ctx, token.ID); err != nil {
		return nil, mapErr(err)
	}
	return token, nil
}

func (s *AuthService) verifyURL(token string) string {
	return s.baseURL + "/auth/verify?token=" + url.QueryEscape(token)
}

func (s *AuthService) userErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return mapErr(domain.ErrUserNotFound)
	}
	return err
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
