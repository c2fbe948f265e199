// Package session implements the client-side session lifecycle: token
// acquisition and persistence, startup restore, demo-mode degradation,
// and the authorization query surface consumers read.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/observability/metrics"
	"github.com/taponn/taponn-api/internal/observability/notify"
	"github.com/taponn/taponn-api/internal/observability/statsd"
	"github.com/taponn/taponn-api/internal/ports"
)

// TokenKey is the credential store slot holding the bearer token.
const TokenKey = "taponn-token"

// LoadingState tracks whether the startup credential check has completed.
type LoadingState string

const (
	StateInitializing LoadingState = "initializing"
	StateReady        LoadingState = "ready"
)

// Result is the outcome every session operation resolves to. Operations
// never panic or leak raw errors past the manager; failures are captured
// here after the user has been notified.
type Result struct {
	Success bool
	Err     error
}

// Config wires a Manager's collaborators.
type Config struct {
	API      ports.AuthAPI
	Tokens   ports.CredentialStore
	TokenKey string
	DemoMode bool
	Notifier notify.Sink
	Metrics  statsd.Sink
	Logger   *slog.Logger

	// CacheReset is invoked whenever the authenticated identity changes,
	// so consumers can drop query caches scoped to the old identity.
	CacheReset func()

	// Now overrides the clock, used by tests and demo id synthesis.
	Now func() time.Time
}

// Manager owns the current-user state and orchestrates the account
// lifecycle against the remote auth service. It is a per-process
// singleton; concurrent operations are last-write-wins on the current
// user, which is acceptable for a human-paced consumer.
type Manager struct {
	api      ports.AuthAPI
	tokens   ports.CredentialStore
	tokenKey string
	demoMode bool
	notifier notify.Sink
	metrics  statsd.Sink
	logger   *slog.Logger
	reset    func()
	now      func() time.Time

	mu       sync.RWMutex
	user     *domainauth.User
	loading  LoadingState
	initOnce sync.Once
}

// NewManager builds a Manager in the Initializing state.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tokenKey := cfg.TokenKey
	if tokenKey == "" {
		tokenKey = TokenKey
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Manager{
		api:      cfg.API,
		tokens:   cfg.Tokens,
		tokenKey: tokenKey,
		demoMode: cfg.DemoMode,
		notifier: cfg.Notifier,
		metrics:  cfg.Metrics,
		logger:   logger,
		reset:    cfg.CacheReset,
		now:      now,
		loading:  StateInitializing,
	}
}

// Initialize restores the session from the stored token. It runs its body
// at most once per process; the manager is Ready afterwards regardless of
// outcome. Safe to call again (no-op).
func (m *Manager) Initialize(ctx context.Context) {
	m.initOnce.Do(func() {
		defer m.setReady()

		token, err := m.tokens.Get(m.tokenKey)
		if err != nil {
			m.logger.WarnContext(ctx, "could not read stored token", "error", err)
			metrics.EmitSessionRestore(m.metrics, "store_error")
			return
		}
		if token == "" {
			metrics.EmitSessionRestore(m.metrics, "no_token")
			return
		}

		user, err := m.api.Me(ctx)
		if err != nil || !user.Valid() {
			// A stale or rejected token is cleared rather than retried.
			m.logger.InfoContext(ctx, "stored token failed verification", "error", err)
			metrics.EmitSessionRestore(m.metrics, "invalid_token")
			m.clearSession(ctx, false)
			return
		}

		m.setUser(user)
		metrics.EmitSessionRestore(m.metrics, "restored")
	})
}

// Login authenticates with the remote service and establishes a session.
func (m *Manager) Login(ctx context.Context, creds domainauth.Credentials) Result {
	started := m.now()

	res, err := m.api.Login(ctx, creds)
	if err == nil {
		err = m.establish(res)
	}
	metrics.EmitAccountOp(m.metrics, "login", m.now().Sub(started), err)

	if err != nil {
		m.notifyError(ctx, "login", creds.Email, failureMessage(err, "Login failed. Please try again."))
		return Result{Err: err}
	}

	m.notifySuccess(ctx, "login", res.User.Email, "Logged in successfully")
	return Result{Success: true}
}

// Register creates an account remotely, or synthesizes a demo account
// when demo mode is on or the service is unreachable or failing
// server-side. Business rejections (4xx) never fall back.
func (m *Manager) Register(ctx context.Context, reg domainauth.Registration) Result {
	if m.demoMode {
		return m.registerDemo(ctx, reg, nil)
	}

	started := m.now()
	res, err := m.api.Register(ctx, reg)
	if err == nil {
		err = m.establish(res)
	}
	metrics.EmitAccountOp(m.metrics, "register", m.now().Sub(started), err)

	if err != nil {
		if apperrors.IsRetriableRemote(err) {
			return m.registerDemo(ctx, reg, err)
		}
		m.notifyError(ctx, "register", reg.Email, failureMessage(err, "Registration failed. Please try again."))
		return Result{Err: err}
	}

	m.notifySuccess(ctx, "register", res.User.Email, "Account created successfully")
	return Result{Success: true}
}

// registerDemo installs a synthesized account. cause is the remote
// failure that triggered the fallback, nil in pure demo mode.
func (m *Manager) registerDemo(ctx context.Context, reg domainauth.Registration, cause error) Result {
	acct := synthesizeDemoAccount(reg.Name, reg.Email, m.now())

	if err := m.tokens.Set(m.tokenKey, acct.token); err != nil {
		m.logger.WarnContext(ctx, "could not persist demo token", "error", err)
	}
	m.setUser(acct.user)
	m.resetCaches()

	message := "Demo account created"
	if cause != nil {
		message = "Server unavailable, created a demo account instead"
		metrics.EmitDemoFallback(m.metrics, cause)
		m.logger.InfoContext(ctx, "registration fell back to demo account",
			"email", reg.Email, "error", cause)
	}

	m.notifySuccess(ctx, "demo_fallback", acct.user.Email, message)
	return Result{Success: true}
}

// Logout tears the session down. Idempotent and infallible: it always
// leaves the manager unauthenticated with no stored token.
func (m *Manager) Logout(ctx context.Context) {
	m.clearSession(ctx, true)
}

// UpdateProfile applies a partial account patch and replaces the current
// user wholesale with the returned record. A 401 means the session is no
// longer valid and triggers an implicit logout.
func (m *Manager) UpdateProfile(ctx context.Context, patch domainauth.AccountUpdate) Result {
	started := m.now()
	user, err := m.api.UpdateDetails(ctx, patch)
	metrics.EmitAccountOp(m.metrics, "profile_update", m.now().Sub(started), err)

	if err != nil {
		if apperrors.IsUnauthorized(err) {
			m.Logout(ctx)
		} else {
			m.notifyError(ctx, "profile_update", m.currentEmail(), failureMessage(err, "Profile update failed."))
		}
		return Result{Err: err}
	}

	m.setUser(user)
	m.notifySuccess(ctx, "profile_update", user.Email, "Profile updated successfully")
	return Result{Success: true}
}

// CurrentUser returns a copy of the authenticated user, if any.
func (m *Manager) CurrentUser() (domainauth.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return domainauth.User{}, false
	}
	return *m.user, true
}

// Loading reports the startup state.
func (m *Manager) Loading() LoadingState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}

// IsAuthenticated reports whether a validated user is present.
func (m *Manager) IsAuthenticated() bool {
	_, ok := m.CurrentUser()
	return ok
}

// Role returns the current user's role, or guest when unauthenticated.
func (m *Manager) Role() domainauth.Role {
	u, ok := m.CurrentUser()
	if !ok {
		return domainauth.RoleGuest
	}
	return u.Role
}

// IsAdmin reports whether the current user holds the admin role.
func (m *Manager) IsAdmin() bool {
	u, ok := m.CurrentUser()
	return ok && u.IsAdmin()
}

// HasPermission reports whether the current user holds the permission.
// Always false when unauthenticated.
func (m *Manager) HasPermission(p string) bool {
	u, ok := m.CurrentUser()
	return ok && u.HasPermission(p)
}

// establish persists the token and installs the user after a successful
// login or registration.
func (m *Manager) establish(res ports.AuthResult) error {
	if err := m.tokens.Set(m.tokenKey, res.Token); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "Could not persist your session.")
	}
	m.setUser(res.User)
	m.resetCaches()
	return nil
}

func (m *Manager) clearSession(ctx context.Context, announce bool) {
	if err := m.tokens.Remove(m.tokenKey); err != nil {
		m.logger.WarnContext(ctx, "could not remove stored token", "error", err)
	}

	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	m.resetCaches()

	if announce {
		m.notifySuccess(ctx, "logout", "", "Logged out successfully")
	}
}

func (m *Manager) setUser(u domainauth.User) {
	m.mu.Lock()
	m.user = &u
	m.mu.Unlock()
}

func (m *Manager) setReady() {
	m.mu.Lock()
	m.loading = StateReady
	m.mu.Unlock()
}

func (m *Manager) resetCaches() {
	if m.reset != nil {
		m.reset()
	}
}

func (m *Manager) currentEmail() string {
	u, _ := m.CurrentUser()
	return u.Email
}

func (m *Manager) notifySuccess(ctx context.Context, kind, email, message string) {
	m.send(ctx, notify.AccountEvent{
		Level:      notify.LevelSuccess,
		Message:    message,
		Kind:       kind,
		Email:      email,
		OccurredAt: m.now(),
	})
}

func (m *Manager) notifyError(ctx context.Context, kind, email, message string) {
	m.send(ctx, notify.AccountEvent{
		Level:      notify.LevelError,
		Message:    message,
		Kind:       kind,
		Email:      email,
		OccurredAt: m.now(),
	})
}

func (m *Manager) send(ctx context.Context, event notify.AccountEvent) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.SendAccountEvent(ctx, event); err != nil {
		m.logger.DebugContext(ctx, "notification delivery failed", "error", err)
	}
}

// failureMessage picks the user-facing message for a failed operation:
// the AppError message when one is present, otherwise the fallback.
func failureMessage(err error, fallback string) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
