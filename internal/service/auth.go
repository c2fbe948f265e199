package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taponn/taponn-api/internal/core"
	"github.com/taponn/taponn-api/internal/data"
	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/ports"
)

const minPasswordLen = 6

// invalidCredentials is returned for every login failure so callers
// cannot distinguish a wrong password from an unknown email.
func invalidCredentials() error {
	return apperrors.Unauthorized("Invalid email or password")
}

// LoginResult is a freshly issued token with its account record.
type LoginResult struct {
	Token   string
	Account *model.Account
}

// AccountServiceOptions groups dependencies for AccountService.
type AccountServiceOptions struct {
	Accounts core.AccountRepository // Required
	Issuer   ports.TokenIssuer      // Required
	Tokens   ports.IssuedTokenStore // Required
	Lockout  data.LockoutPolicy
	Logger   *slog.Logger
	Now      func() time.Time
}

// AccountService implements registration, login with lockout, token
// verification and account maintenance.
type AccountService struct {
	accounts core.AccountRepository
	issuer   ports.TokenIssuer
	tokens   ports.IssuedTokenStore
	lockout  data.LockoutPolicy
	logger   *slog.Logger
	now      func() time.Time
}

// NewAccountService constructs a new AccountService.
func NewAccountService(opts AccountServiceOptions) (*AccountService, error) {
	if opts.Accounts == nil {
		return nil, errors.New("AccountRepository is required")
	}
	if opts.Issuer == nil {
		return nil, errors.New("TokenIssuer is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("IssuedTokenStore is required")
	}
	if opts.Lockout.MaxAttempts <= 0 {
		opts.Lockout.MaxAttempts = 5
	}
	if opts.Lockout.Duration <= 0 {
		opts.Lockout.Duration = 15 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AccountService{
		accounts: opts.Accounts,
		issuer:   opts.Issuer,
		tokens:   opts.Tokens,
		lockout:  opts.Lockout,
		logger:   opts.Logger.With("component", "account_service"),
		now:      opts.Now,
	}, nil
}

// Register creates an account from a signup request and signs it in.
func (s *AccountService) Register(ctx context.Context, reg domainauth.Registration) (*LoginResult, error) {
	if err := validateRegistration(&reg); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	acct, err := s.accounts.Create(ctx, data.CreateAccountParams{
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: string(hash),
		Phone:        optional(reg.Phone),
		Company:      optional(reg.Company),
		Position:     optional(reg.Position),
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.Conflict("An account with this email already exists")
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "account registered", "user_id", acct.ID)
	return s.issueFor(ctx, acct)
}

// Login verifies credentials and issues a bearer token. Repeated failures
// lock the account for the configured duration and revoke its outstanding
// tokens.
func (s *AccountService) Login(ctx context.Context, creds domainauth.Credentials) (*LoginResult, error) {
	acct, err := s.accounts.GetByEmail(ctx, creds.Email)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if acct.LockedNow(s.now()) {
		return nil, apperrors.Unauthorized("Account is temporarily locked, try again later")
	}

	if bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(creds.Password)) != nil {
		return nil, s.handleLoginFailure(ctx, acct)
	}

	if err := s.accounts.RecordLoginSuccess(ctx, acct.ID); err != nil {
		return nil, err
	}
	return s.issueFor(ctx, acct)
}

func (s *AccountService) handleLoginFailure(ctx context.Context, acct *model.Account) error {
	updated, err := s.accounts.RecordLoginFailure(ctx, acct.ID, s.lockout)
	if err != nil {
		s.logger.ErrorContext(ctx, "record login failure", "user_id", acct.ID, "error", err)
		return invalidCredentials()
	}
	if updated.IsLocked {
		s.logger.WarnContext(ctx, "account locked after repeated failures",
			"user_id", acct.ID, "attempts", updated.LoginAttempts)
		if err := s.tokens.RevokeAllForUser(ctx, acct.ID); err != nil {
			s.logger.ErrorContext(ctx, "revoke tokens for locked account", "user_id", acct.ID, "error", err)
		}
	}
	return invalidCredentials()
}

func (s *AccountService) issueFor(ctx context.Context, acct *model.Account) (*LoginResult, error) {
	token, jti, err := s.issuer.Issue(acct.User())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if err := s.tokens.Save(ctx, jti, acct.ID); err != nil {
		return nil, fmt.Errorf("save token: %w", err)
	}
	return &LoginResult{Token: token, Account: acct}, nil
}

// LoginSSO signs in an identity asserted by a trusted IdP, provisioning
// the account on first login. SSO accounts carry an unusable random
// password hash, so password login stays closed for them.
func (s *AccountService) LoginSSO(ctx context.Context, identity domainauth.User) (*LoginResult, error) {
	if !identity.Valid() {
		return nil, apperrors.Unauthorized("Identity provider returned no email")
	}

	acct, err := s.accounts.GetByEmail(ctx, identity.Email)
	if err == nil {
		if acct.LockedNow(s.now()) {
			return nil, apperrors.Unauthorized("Account is temporarily locked, try again later")
		}
		if err := s.accounts.RecordLoginSuccess(ctx, acct.ID); err != nil {
			return nil, err
		}
		return s.issueFor(ctx, acct)
	}
	if !apperrors.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash placeholder password: %w", err)
	}
	acct, err = s.accounts.Create(ctx, data.CreateAccountParams{
		Name:         identity.Name,
		Email:        identity.Email,
		PasswordHash: string(hash),
		Role:         identity.Role,
		Permissions:  identity.Permissions,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "sso account provisioned", "user_id", acct.ID)
	return s.issueFor(ctx, acct)
}

// Authenticate resolves a bearer token to its account. It rejects tokens
// whose jti is no longer allowlisted (logged out or locked out).
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.Account, string, error) {
	userID, jti, err := s.issuer.Verify(token)
	if err != nil {
		return nil, "", apperrors.Unauthorized("Not authorized to access this route")
	}
	ok, err := s.tokens.Valid(ctx, jti)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", apperrors.Unauthorized("Not authorized to access this route")
	}
	acct, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, "", apperrors.Unauthorized("Not authorized to access this route")
		}
		return nil, "", err
	}
	if acct.LockedNow(s.now()) {
		return nil, "", apperrors.Unauthorized("Account is temporarily locked, try again later")
	}
	return acct, jti, nil
}

// Me retrieves the account behind an authenticated request.
func (s *AccountService) Me(ctx context.Context, userID string) (*model.Account, error) {
	return s.accounts.GetByID(ctx, userID)
}

// UpdateDetails applies a partial account patch and returns the full record.
func (s *AccountService) UpdateDetails(ctx context.Context, userID string, patch domainauth.AccountUpdate) (*model.Account, error) {
	if patch.Email != nil && strings.TrimSpace(*patch.Email) == "" {
		return nil, apperrors.ValidationField("email", "email cannot be empty")
	}
	acct, err := s.accounts.UpdateDetails(ctx, userID, patch)
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.Conflict("An account with this email already exists")
		}
		return nil, err
	}
	return acct, nil
}

// Logout revokes the presented token's jti. Revoking an already revoked
// token is a no-op, so logout is idempotent.
func (s *AccountService) Logout(ctx context.Context, jti string) error {
	return s.tokens.Revoke(ctx, jti)
}

// List returns a page of accounts, newest first.
func (s *AccountService) List(ctx context.Context, limit, offset int) ([]*model.Account, error) {
	return s.accounts.List(ctx, limit, offset)
}

func validateRegistration(reg *domainauth.Registration) error {
	reg.Email = strings.ToLower(strings.TrimSpace(reg.Email))
	reg.Name = strings.TrimSpace(reg.Name)
	if reg.Email == "" {
		return apperrors.ValidationField("email", "email is required")
	}
	if !strings.Contains(reg.Email, "@") {
		return apperrors.ValidationField("email", "email is not valid")
	}
	if len(reg.Password) < minPasswordLen {
		return apperrors.ValidationField("password", "password must be at least 6 characters")
	}
	return nil
}

func optional(v string) *string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
