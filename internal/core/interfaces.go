// Package core defines the repository interfaces the service layer depends
// on. The data layer provides the Postgres implementations; tests substitute
// lightweight fakes.
package core

import (
	"context"
	"time"

	"github.com/taponn/taponn-api/internal/data"
	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	"github.com/taponn/taponn-api/internal/domain/model"
)

// AccountRepository defines persistence operations for user accounts.
type AccountRepository interface {
	Create(ctx context.Context, params data.CreateAccountParams) (*model.Account, error)
	GetByID(ctx context.Context, id string) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	List(ctx context.Context, limit, offset int) ([]*model.Account, error)
	UpdateDetails(ctx context.Context, id string, patch domainauth.AccountUpdate) (*model.Account, error)
	RecordLoginFailure(ctx context.Context, id string, policy data.LockoutPolicy) (*model.Account, error)
	RecordLoginSuccess(ctx context.Context, id string) error
}

// ProfileRepository defines persistence operations for card profiles.
type ProfileRepository interface {
	Create(ctx context.Context, req *model.CreateProfileRequest) (*model.Profile, error)
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	GetByUsername(ctx context.Context, username string) (*model.Profile, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Profile, error)
	Update(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.Profile, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// QRCodeRepository defines persistence operations for QR codes.
type QRCodeRepository interface {
	Create(ctx context.Context, req *model.CreateQRCodeRequest) (*model.QRCode, error)
	GetByID(ctx context.Context, id string) (*model.QRCode, error)
	ListByUser(ctx context.Context, userID string) ([]*model.QRCode, error)
	RecordScan(ctx context.Context, id string) (*model.QRCode, error)
	SetActive(ctx context.Context, id string, active bool) (*model.QRCode, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// OrderRepository defines persistence operations for card orders.
type OrderRepository interface {
	Create(ctx context.Context, orderNumber string, req *model.CreateOrderRequest) (*model.Order, error)
	GetByID(ctx context.Context, id string) (*model.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus, trackingNumber *string) (*model.Order, error)
	UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (*model.Order, error)
}

// AnalyticsRepository defines persistence operations for engagement events.
type AnalyticsRepository interface {
	Record(ctx context.Context, req *model.RecordEventRequest) (*model.AnalyticsEvent, error)
	ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*model.AnalyticsEvent, error)
	CountByType(ctx context.Context, userID string, since time.Time) (map[string]int64, error)
}
