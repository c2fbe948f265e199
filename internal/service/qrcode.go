package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taponn/taponn-api/internal/core"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

// QRCodeServiceOptions groups dependencies for QRCodeService.
type QRCodeServiceOptions struct {
	QRCodes  core.QRCodeRepository  // Required
	Profiles core.ProfileRepository // Required
	// Analytics records scan events. Optional; scans still count without it.
	Analytics core.AnalyticsRepository
	// PublicBaseURL is the origin shared card links point at. Used to
	// derive qr_data when the caller does not supply it.
	PublicBaseURL string
	Logger        *slog.Logger
}

// QRCodeService manages QR codes for card profiles and counts scans.
type QRCodeService struct {
	qrcodes   core.QRCodeRepository
	profiles  core.ProfileRepository
	analytics core.AnalyticsRepository
	baseURL   string
	logger    *slog.Logger
}

// NewQRCodeService constructs a new QRCodeService.
func NewQRCodeService(opts QRCodeServiceOptions) (*QRCodeService, error) {
	if opts.QRCodes == nil {
		return nil, errors.New("QRCodeRepository is required")
	}
	if opts.Profiles == nil {
		return nil, errors.New("ProfileRepository is required")
	}
	if opts.PublicBaseURL == "" {
		opts.PublicBaseURL = "http://localhost:8080"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &QRCodeService{
		qrcodes:   opts.QRCodes,
		profiles:  opts.Profiles,
		analytics: opts.Analytics,
		baseURL:   strings.TrimRight(opts.PublicBaseURL, "/"),
		logger:    opts.Logger.With("component", "qrcode_service"),
	}, nil
}

// Create creates a QR code for a profile the user owns. When the request
// carries no qr_data the code points at the profile's public card URL.
func (s *QRCodeService) Create(ctx context.Context, userID string, req *model.CreateQRCodeRequest) (*model.QRCode, error) {
	if req == nil {
		return nil, errors.New("create qr code request is required")
	}
	req.UserID = userID

	profile, err := s.profiles.GetByID(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}
	if profile.UserID != userID {
		return nil, apperrors.NotFound("Profile not found")
	}
	if strings.TrimSpace(req.QRData) == "" {
		req.QRData = s.baseURL + "/p/" + profile.Username
	}

	code, err := s.qrcodes.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create qr code: %w", err)
	}
	s.logger.InfoContext(ctx, "qr code created", "qr_code_id", code.ID, "profile_id", profile.ID)
	return code, nil
}

// Get retrieves a QR code the user owns.
func (s *QRCodeService) Get(ctx context.Context, userID, id string) (*model.QRCode, error) {
	return s.getOwned(ctx, userID, id)
}

// List returns all QR codes owned by the user.
func (s *QRCodeService) List(ctx context.Context, userID string) ([]*model.QRCode, error) {
	return s.qrcodes.ListByUser(ctx, userID)
}

// Scan counts a scan against an active QR code and records an engagement
// event. Inactive or missing codes report not found. The analytics write
// is best-effort: a failed event never undoes the scan.
func (s *QRCodeService) Scan(ctx context.Context, id string) (*model.QRCode, error) {
	code, err := s.qrcodes.RecordScan(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.analytics != nil {
		_, recErr := s.analytics.Record(ctx, &model.RecordEventRequest{
			UserID:      code.UserID,
			ProfileID:   &code.ProfileID,
			QRCodeID:    &code.ID,
			EventType:   "qr_scan",
			EventAction: "scan",
			Metadata:    map[string]any{"scan_count": code.ScanCount},
		})
		if recErr != nil {
			s.logger.WarnContext(ctx, "record scan event", "qr_code_id", code.ID, "error", recErr)
		}
	}
	return code, nil
}

// SetActive toggles a QR code the user owns. Deactivated codes stop
// counting scans.
func (s *QRCodeService) SetActive(ctx context.Context, userID, id string, active bool) (*model.QRCode, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.qrcodes.SetActive(ctx, id, active)
}

// Delete removes a QR code the user owns.
func (s *QRCodeService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	ok, err := s.qrcodes.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete qr code: %w", err)
	}
	if !ok {
		return apperrors.NotFound("QR code not found")
	}
	return nil
}

func (s *QRCodeService) getOwned(ctx context.Context, userID, id string) (*model.QRCode, error) {
	code, err := s.qrcodes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if code.UserID != userID {
		return nil, apperrors.NotFound("QR code not found")
	}
	return code, nil
}
