// Package auth signs accounts in and out of client sessions and manages
// passwords.
package auth

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"foodorder/internal/domain"
	accountrepo "foodorder/internal/repository/account"
	tokenrepo "foodorder/internal/repository/token"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ProfileWriter creates the users document of a new account.
type ProfileWriter interface {
	Create(ctx context.Context, p domain.Profile) (*domain.Profile, error)
}

// Service handles sign-up, sign-in and password flows.
type Service struct {
	accounts    accountrepo.Repository
	profiles    ProfileWriter
	tokens      *tokenManager
	limiter     *attemptLimiter
	mailer      Mailer
	logger      zerolog.Logger
	accessTTL   time.Duration
	resetTTL    time.Duration
	passwordMin int
	hashCost    int
}

type Option func(*Service)

// WithHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithAttemptLimit sets how many failed sign-ins an email may have before it is
// throttled, and how often one attempt is given back.
func WithAttemptLimit(burst int, every time.Duration) Option {
	return func(s *Service) { s.limiter = newAttemptLimiter(burst, every) }
}

func New(accounts accountrepo.Repository, profiles ProfileWriter, tokens tokenrepo.Repository, mailer Mailer, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		accounts:    accounts,
		profiles:    profiles,
		tokens:      newTokenManager(tokens),
		limiter:     newAttemptLimiter(5, time.Minute),
		mailer:      mailer,
		logger:      logger.With().Str("component", "auth").Logger(),
		accessTTL:   30 * 24 * time.Hour,
		resetTTL:    time.Hour,
		passwordMin: 6,
		hashCost:    bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SignUpInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

// SignUp creates the account, signs the handle in, then writes the users
// document. The gate's profile retry covers the window between the two.
func (s *Service) SignUp(ctx context.Context, h *Handle, in SignUpInput) (*domain.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" || in.ConfirmPassword == "" {
		return nil, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(in.Password) < s.passwordMin {
		return nil, ErrWeakPassword
	}
	role, err := domain.ParseRole(strings.TrimSpace(in.Role))
	if err != nil {
		return nil, ErrInvalidRole
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, err
	}
	acct, err := s.accounts.Create(ctx, domain.Account{Email: email, PasswordHash: string(hashed)})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, ErrEmailInUse
		}
		return nil, networkError(err)
	}

	identity, err := s.signIn(ctx, h, acct)
	if err != nil {
		return nil, err
	}

	if _, err := s.profiles.Create(ctx, domain.Profile{UID: acct.ID, Email: email, Role: role}); err != nil {
		s.logger.Error().Err(err).Str("uid", acct.ID).Msg("create profile after sign-up")
		return nil, networkError(err)
	}
	s.logger.Info().Str("uid", acct.ID).Str("role", string(role)).Msg("account created")
	return identity, nil
}

// SignIn validates the credentials and signs the handle in.
func (s *Service) SignIn(ctx context.Context, h *Handle, email, password string) (*domain.Identity, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if len(password) < s.passwordMin {
		return nil, ErrInvalidPassword
	}
	if s.limiter.Blocked(email) {
		return nil, ErrTooManyRequests
	}

	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.limiter.Fail(email)
			return nil, ErrUserNotFound
		}
		return nil, networkError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		s.limiter.Fail(email)
		s.logger.Debug().Str("uid", acct.ID).Msg("wrong password")
		return nil, ErrWrongPassword
	}
	s.limiter.Reset(email)
	return s.signIn(ctx, h, acct)
}

// SignOut revokes the handle's token and notifies its listeners.
func (s *Service) SignOut(ctx context.Context, h *Handle) error {
	token, _ := h.clear()
	if token == "" {
		return nil
	}
	if err := s.tokens.Revoke(ctx, token); err != nil {
		s.logger.Warn().Err(err).Msg("revoke access token")
		return networkError(err)
	}
	return nil
}

// Restore signs a handle in from a previously issued access token.
func (s *Service) Restore(ctx context.Context, h *Handle, token string) (*domain.Identity, error) {
	accountID, ok := s.tokens.Validate(ctx, token, tokenrepo.KindAccess)
	if !ok {
		return nil, ErrInvalidToken
	}
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, networkError(err)
	}
	identity := &domain.Identity{UID: acct.ID, Email: acct.Email}
	h.set(identity, token)
	return identity, nil
}

// RequestPasswordReset mails a one-time reset code.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingFields
	}
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	if s.limiter.Blocked(email) {
		return ErrTooManyRequests
	}
	acct, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.limiter.Fail(email)
			return ErrUserNotFound
		}
		return networkError(err)
	}
	code, err := s.tokens.Issue(ctx, acct.ID, tokenrepo.KindReset, s.resetTTL)
	if err != nil {
		return networkError(err)
	}
	if err := s.mailer.SendPasswordReset(ctx, acct.Email, code); err != nil {
		return networkError(err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password using a reset code and signs the
// account out everywhere.
func (s *Service) ConfirmPasswordReset(ctx context.Context, code, newPassword string) error {
	if code == "" || newPassword == "" {
		return ErrMissingFields
	}
	if len(newPassword) < s.passwordMin {
		return ErrWeakPassword
	}
	accountID, ok := s.tokens.Validate(ctx, code, tokenrepo.KindReset)
	if !ok {
		return ErrInvalidActionCode
	}
	if err := s.setPassword(ctx, accountID, newPassword); err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, code); err != nil {
		s.logger.Warn().Err(err).Msg("revoke reset code")
	}
	if err := s.tokens.RevokeAll(ctx, accountID, tokenrepo.KindAccess); err != nil {
		s.logger.Warn().Err(err).Str("uid", accountID).Msg("revoke access tokens after reset")
	}
	return nil
}

type ChangePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ChangePassword re-authenticates with the current password before updating it.
func (s *Service) ChangePassword(ctx context.Context, h *Handle, in ChangePasswordInput) error {
	identity := h.Current()
	if identity == nil {
		return ErrNoCurrentUser
	}
	if in.CurrentPassword == "" || in.NewPassword == "" || in.ConfirmPassword == "" {
		return ErrMissingFields
	}
	if in.NewPassword != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(in.NewPassword) < s.passwordMin {
		return ErrWeakPassword
	}

	acct, err := s.accounts.GetByID(ctx, identity.UID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrRequiresRecent
		}
		return networkError(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}
	return s.setPassword(ctx, acct.ID, in.NewPassword)
}

func (s *Service) signIn(ctx context.Context, h *Handle, acct *domain.Account) (*domain.Identity, error) {
	token, err := s.tokens.Issue(ctx, acct.ID, tokenrepo.KindAccess, s.accessTTL)
	if err != nil {
		return nil, networkError(err)
	}
	identity := &domain.Identity{UID: acct.ID, Email: acct.Email}
	h.set(identity, token)
	return identity, nil
}

func (s *Service) setPassword(ctx context.Context, accountID, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, accountID, string(hashed)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return networkError(err)
	}
	return nil
}
