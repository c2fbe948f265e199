package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/taponn/taponn-api/internal/data/pgxutil"
	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

const accountColumns = `
	id, name, email, password_hash, role, permissions, phone, company, position,
	is_locked, login_attempts, lock_until, last_login, created_at, updated_at`

// CreateAccountParams are the fields needed to insert a new account. The
// password is hashed by the service before it reaches the repository.
type CreateAccountParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         domainauth.Role
	Permissions  []string
	Phone        *string
	Company      *string
	Position     *string
}

// AccountRepo provides database operations for user accounts.
type AccountRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAccountRepo creates an AccountRepo with the real clock.
func NewAccountRepo(db *sql.DB) *AccountRepo {
	return &AccountRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewAccountRepoWithTimeProvider creates an AccountRepo with a custom clock (useful for tests).
func NewAccountRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *AccountRepo {
	return &AccountRepo{DB: db, timeProvider: tp}
}

// Create inserts a new account.
func (r *AccountRepo) Create(ctx context.Context, params CreateAccountParams) (*model.Account, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" {
		return nil, apperrors.ValidationField("email", "email is required")
	}
	if params.PasswordHash == "" {
		return nil, apperrors.ValidationField("password", "password hash is required")
	}
	role := params.Role
	if role == "" {
		role = domainauth.RoleUser
	}
	perms := params.Permissions
	if len(perms) == 0 {
		perms = domainauth.DefaultPermissions(role)
	}

	var name *string
	if trimmed := strings.TrimSpace(params.Name); trimmed != "" {
		name = &trimmed
	}

	now := r.timeProvider.Now().UTC()
	var out model.Account
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.QueryOne[model.Account](ctx, conn, `
			INSERT INTO users (
				name, email, password_hash, role, permissions, phone, company, position, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING `+accountColumns,
			name, email, params.PasswordHash, role, perms,
			params.Phone, params.Company, params.Position, now,
		)
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return r.getByQuery(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves an account by email (case-insensitive).
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return r.getByQuery(ctx,
		`SELECT `+accountColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)),
	)
}

// List retrieves accounts ordered by creation time, newest first.
func (r *AccountRepo) List(ctx context.Context, limit, offset int) ([]*model.Account, error) {
	if limit <= 0 {
		limit = 50
	}
	offset = max(offset, 0)

	var rowsOut []model.Account
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		rowsOut, err = pgxutil.QueryMany[model.Account](ctx, conn,
			`SELECT `+accountColumns+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
			limit, offset,
		)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Account, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// UpdateDetails applies a partial patch and returns the full record.
// An empty patch returns the current record unchanged.
func (r *AccountRepo) UpdateDetails(ctx context.Context, id string, patch domainauth.AccountUpdate) (*model.Account, error) {
	setParts, args := r.buildUpdateClause(patch)
	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := "UPDATE users SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + accountColumns

	var out model.Account
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.QueryOne[model.Account](ctx, conn, query, args...)
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

func (r *AccountRepo) buildUpdateClause(patch domainauth.AccountUpdate) ([]string, []any) {
	setParts := make([]string, 0, 6)
	args := make([]any, 0, 7)
	next := func() int { return len(args) + 1 }

	if patch.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", next()))
		args = append(args, strings.TrimSpace(*patch.Name))
	}
	if patch.Email != nil {
		setParts = append(setParts, fmt.Sprintf("email = $%d", next()))
		args = append(args, strings.ToLower(strings.TrimSpace(*patch.Email)))
	}
	if patch.Phone != nil {
		setParts = append(setParts, fmt.Sprintf("phone = $%d", next()))
		args = append(args, *patch.Phone)
	}
	if patch.Company != nil {
		setParts = append(setParts, fmt.Sprintf("company = $%d", next()))
		args = append(args, *patch.Company)
	}
	if patch.Position != nil {
		setParts = append(setParts, fmt.Sprintf("position = $%d", next()))
		args = append(args, *patch.Position)
	}
	if len(setParts) == 0 {
		return nil, nil
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", next()))
	args = append(args, r.timeProvider.Now().UTC())
	return setParts, args
}

// RecordLoginFailure increments the failed-attempt counter and locks the
// account once maxAttempts is reached. Returns the updated record.
func (r *AccountRepo) RecordLoginFailure(ctx context.Context, id string, policy LockoutPolicy) (*model.Account, error) {
	now := r.timeProvider.Now().UTC()
	lockUntil := now.Add(policy.Duration)

	var out model.Account
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.QueryOne[model.Account](ctx, conn, `
			UPDATE users SET
				login_attempts = login_attempts + 1,
				is_locked = (login_attempts + 1 >= $2),
				lock_until = CASE WHEN login_attempts + 1 >= $2 THEN $3 ELSE lock_until END,
				updated_at = $4
			WHERE id = $1
			RETURNING `+accountColumns,
			id, policy.MaxAttempts, lockUntil, now,
		)
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// RecordLoginSuccess resets lockout bookkeeping and stamps last_login.
func (r *AccountRepo) RecordLoginSuccess(ctx context.Context, id string) error {
	now := r.timeProvider.Now().UTC()
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			UPDATE users SET
				login_attempts = 0, is_locked = FALSE, lock_until = NULL,
				last_login = $2, updated_at = $2
			WHERE id = $1`,
			id, now,
		)
		return err
	}); err != nil {
		return apperrors.MapDBError(err)
	}
	return nil
}

// LockoutPolicy mirrors the configured lockout thresholds.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// getByQuery executes a single-account query.
func (r *AccountRepo) getByQuery(ctx context.Context, query string, args ...any) (*model.Account, error) {
	var out model.Account
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		out, e = pgxutil.QueryOne[model.Account](ctx, conn, query, args...)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Account not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
