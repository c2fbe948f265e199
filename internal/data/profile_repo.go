package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/taponn/taponn-api/internal/data/pgxutil"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

const profileColumns = `
	id, user_id, display_name, username, bio, avatar, theme, is_public,
	social_links, contact_info, created_at, updated_at`

// ProfileRepo provides database operations for business-card profiles.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a ProfileRepo with the real clock.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a ProfileRepo with a custom clock (useful for tests).
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// Create inserts a new profile.
func (r *ProfileRepo) Create(ctx context.Context, req *model.CreateProfileRequest) (*model.Profile, error) {
	if req == nil {
		return nil, apperrors.Validation("create profile request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	isPublic := true
	if req.IsPublic != nil {
		isPublic = *req.IsPublic
	}

	now := r.timeProvider.Now().UTC()
	var out model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.QueryOne[model.Profile](ctx, conn, `
			INSERT INTO profiles (
				user_id, display_name, username, bio, theme, is_public,
				social_links, contact_info, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			RETURNING `+profileColumns,
			req.UserID, strings.TrimSpace(req.DisplayName), req.Username, req.Bio,
			req.Theme, isPublic, req.SocialLinks, req.ContactInfo, now,
		)
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a profile by id.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	return r.getByQuery(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

// GetByUsername retrieves a public profile by username. Private profiles
// are invisible through this lookup.
func (r *ProfileRepo) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return r.getByQuery(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = $1 AND is_public = TRUE`,
		strings.ToLower(strings.TrimSpace(username)),
	)
}

// ListByUser retrieves all profiles owned by a user.
func (r *ProfileRepo) ListByUser(ctx context.Context, userID string) ([]*model.Profile, error) {
	var rowsOut []model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		rowsOut, err = pgxutil.QueryMany[model.Profile](ctx, conn,
			`SELECT `+profileColumns+` FROM profiles WHERE user_id = $1 ORDER BY created_at DESC`,
			userID,
		)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.Profile, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Update applies a partial patch and returns the full updated record.
func (r *ProfileRepo) Update(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	setParts, args := r.buildUpdateClause(req)
	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := "UPDATE profiles SET " + strings.Join(setParts, ", ") +
		" WHERE id = $" + strconv.Itoa(len(args)) +
		" RETURNING " + profileColumns

	var out model.Profile
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.QueryOne[model.Profile](ctx, conn, query, args...)
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Delete removes a profile. Returns false when no row matched.
func (r *ProfileRepo) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = ct.RowsAffected()
		return nil
	}); err != nil {
		return false, apperrors.MapDBError(err)
	}
	return affected > 0, nil
}

func (r *ProfileRepo) buildUpdateClause(req model.UpdateProfileRequest) ([]string, []any) {
	setParts := make([]string, 0, 7)
	args := make([]any, 0, 8)
	next := func() int { return len(args) + 1 }

	if req.DisplayName != nil {
		setParts = append(setParts, fmt.Sprintf("display_name = $%d", next()))
		args = append(args, strings.TrimSpace(*req.DisplayName))
	}
	if req.Bio != nil {
		setParts = append(setParts, fmt.Sprintf("bio = $%d", next()))
		args = append(args, *req.Bio)
	}
	if req.Avatar != nil {
		if strings.TrimSpace(*req.Avatar) == "" {
			setParts = append(setParts, "avatar = NULL")
		} else {
			setParts = append(setParts, fmt.Sprintf("avatar = $%d", next()))
			args = append(args, *req.Avatar)
		}
	}
	if req.Theme != nil {
		setParts = append(setParts, fmt.Sprintf("theme = $%d", next()))
		args = append(args, *req.Theme)
	}
	if req.IsPublic != nil {
		setParts = append(setParts, fmt.Sprintf("is_public = $%d", next()))
		args = append(args, *req.IsPublic)
	}
	if req.SocialLinks != nil {
		setParts = append(setParts, fmt.Sprintf("social_links = $%d", next()))
		args = append(args, *req.SocialLinks)
	}
	if req.ContactInfo != nil {
		setParts = append(setParts, fmt.Sprintf("contact_info = $%d", next()))
		args = append(args, *req.ContactInfo)
	}
	if len(setParts) == 0 {
		return nil, nil
	}

	setParts = append(setParts, fmt.Sprintf("updated_at = $%d", next()))
	args = append(args, r.timeProvider.Now().UTC())
	return setParts, args
}

func (r *ProfileRepo) getByQuery(ctx context.Context, query string, args ...any) (*model.Profile, error) {
	var out model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		out, e = pgxutil.QueryOne[model.Profile](ctx, conn, query, args...)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Profile not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}
