package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/taponn/taponn-api/internal/data/pgxutil"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

const qrCodeColumns = `
	id, user_id, profile_id, name, qr_data, scan_count, is_active,
	settings, last_scan, created_at, updated_at`

// QRCodeRepo provides database operations for QR codes.
type QRCodeRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewQRCodeRepo creates a QRCodeRepo with the real clock.
func NewQRCodeRepo(db *sql.DB) *QRCodeRepo {
	return &QRCodeRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewQRCodeRepoWithTimeProvider creates a QRCodeRepo with a custom clock (useful for tests).
func NewQRCodeRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *QRCodeRepo {
	return &QRCodeRepo{DB: db, timeProvider: tp}
}

// Create inserts a new QR code, applying default settings when none are given.
func (r *QRCodeRepo) Create(ctx context.Context, req *model.CreateQRCodeRequest) (*model.QRCode, error) {
	if req == nil {
		return nil, apperrors.Validation("create qr code request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	settings := model.DefaultQRSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}

	now := r.timeProvider.Now().UTC()
	var out model.QRCode
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.QueryOne[model.QRCode](ctx, conn, `
			INSERT INTO qr_codes (
				user_id, profile_id, name, qr_data, settings, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $6)
			RETURNING `+qrCodeColumns,
			req.UserID, req.ProfileID, req.Name, req.QRData, settings, now,
		)
		return err
	}); err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// GetByID retrieves a QR code by id.
func (r *QRCodeRepo) GetByID(ctx context.Context, id string) (*model.QRCode, error) {
	var out model.QRCode
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		out, e = pgxutil.QueryOne[model.QRCode](ctx, conn,
			`SELECT `+qrCodeColumns+` FROM qr_codes WHERE id = $1`, id)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("QR code not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// ListByUser retrieves all QR codes owned by a user.
func (r *QRCodeRepo) ListByUser(ctx context.Context, userID string) ([]*model.QRCode, error) {
	var rowsOut []model.QRCode
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		rowsOut, err = pgxutil.QueryMany[model.QRCode](ctx, conn,
			`SELECT `+qrCodeColumns+` FROM qr_codes WHERE user_id = $1 ORDER BY created_at DESC`,
			userID,
		)
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", apperrors.MapDBError(err))
	}

	res := make([]*model.QRCode, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// RecordScan atomically increments the scan counter and stamps last_scan.
// Inactive codes do not record scans.
func (r *QRCodeRepo) RecordScan(ctx context.Context, id string) (*model.QRCode, error) {
	now := r.timeProvider.Now().UTC()
	var out model.QRCode
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		out, e = pgxutil.QueryOne[model.QRCode](ctx, conn, `
			UPDATE qr_codes SET scan_count = scan_count + 1, last_scan = $2, updated_at = $2
			WHERE id = $1 AND is_active = TRUE
			RETURNING `+qrCodeColumns,
			id, now,
		)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("QR code not found or inactive")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// SetActive toggles whether the code records scans.
func (r *QRCodeRepo) SetActive(ctx context.Context, id string, active bool) (*model.QRCode, error) {
	now := r.timeProvider.Now().UTC()
	var out model.QRCode
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var e error
		out, e = pgxutil.QueryOne[model.QRCode](ctx, conn, `
			UPDATE qr_codes SET is_active = $2, updated_at = $3
			WHERE id = $1
			RETURNING `+qrCodeColumns,
			id, active, now,
		)
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("QR code not found")
		}
		return nil, apperrors.MapDBError(err)
	}
	return &out, nil
}

// Delete removes a QR code. Returns false when no row matched.
func (r *QRCodeRepo) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		ct, err := conn.Exec(ctx, `DELETE FROM qr_codes WHERE id = $1`, id)
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
