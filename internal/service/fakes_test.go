package service

import (
	"context"
	"time"

	"github.com/taponn/taponn-api/internal/data"
	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	"github.com/taponn/taponn-api/internal/domain/model"
)

// Func-field fakes for the core repository interfaces. Unset fields panic,
// which makes an unexpected call an immediate test failure.

type fakeAccountRepo struct {
	create             func(ctx context.Context, params data.CreateAccountParams) (*model.Account, error)
	getByID            func(ctx context.Context, id string) (*model.Account, error)
	getByEmail         func(ctx context.Context, email string) (*model.Account, error)
	list               func(ctx context.Context, limit, offset int) ([]*model.Account, error)
	updateDetails      func(ctx context.Context, id string, patch domainauth.AccountUpdate) (*model.Account, error)
	recordLoginFailure func(ctx context.Context, id string, policy data.LockoutPolicy) (*model.Account, error)
	recordLoginSuccess func(ctx context.Context, id string) error
}

func (f *fakeAccountRepo) Create(ctx context.Context, params data.CreateAccountParams) (*model.Account, error) {
	return f.create(ctx, params)
}

func (f *fakeAccountRepo) GetByID(ctx context.Context, id string) (*model.Account, error) {
	return f.getByID(ctx, id)
}

func (f *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	return f.getByEmail(ctx, email)
}

func (f *fakeAccountRepo) List(ctx context.Context, limit, offset int) ([]*model.Account, error) {
	return f.list(ctx, limit, offset)
}

func (f *fakeAccountRepo) UpdateDetails(ctx context.Context, id string, patch domainauth.AccountUpdate) (*model.Account, error) {
	return f.updateDetails(ctx, id, patch)
}

func (f *fakeAccountRepo) RecordLoginFailure(ctx context.Context, id string, policy data.LockoutPolicy) (*model.Account, error) {
	return f.recordLoginFailure(ctx, id, policy)
}

func (f *fakeAccountRepo) RecordLoginSuccess(ctx context.Context, id string) error {
	return f.recordLoginSuccess(ctx, id)
}

type fakeTokenStore struct {
	save             func(ctx context.Context, jti, userID string) error
	valid            func(ctx context.Context, jti string) (bool, error)
	revoke           func(ctx context.Context, jti string) error
	revokeAllForUser func(ctx context.Context, userID string) error
}

func (f *fakeTokenStore) Save(ctx context.Context, jti, userID string) error {
	if f.save == nil {
		return nil
	}
	return f.save(ctx, jti, userID)
}

func (f *fakeTokenStore) Valid(ctx context.Context, jti string) (bool, error) {
	return f.valid(ctx, jti)
}

func (f *fakeTokenStore) Revoke(ctx context.Context, jti string) error {
	return f.revoke(ctx, jti)
}

func (f *fakeTokenStore) RevokeAllForUser(ctx context.Context, userID string) error {
	return f.revokeAllForUser(ctx, userID)
}

type fakeIssuer struct {
	issue  func(user domainauth.User) (string, string, error)
	verify func(token string) (string, string, error)
}

func (f *fakeIssuer) Issue(user domainauth.User) (string, string, error) {
	if f.issue == nil {
		return "tok-" + user.ID, "jti-" + user.ID, nil
	}
	return f.issue(user)
}

func (f *fakeIssuer) Verify(token string) (string, string, error) {
	return f.verify(token)
}

type fakeProfileRepo struct {
	create        func(ctx context.Context, req *model.CreateProfileRequest) (*model.Profile, error)
	getByID       func(ctx context.Context, id string) (*model.Profile, error)
	getByUsername func(ctx context.Context, username string) (*model.Profile, error)
	listByUser    func(ctx context.Context, userID string) ([]*model.Profile, error)
	update        func(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.Profile, error)
	delete        func(ctx context.Context, id string) (bool, error)
}

func (f *fakeProfileRepo) Create(ctx context.Context, req *model.CreateProfileRequest) (*model.Profile, error) {
	return f.create(ctx, req)
}

func (f *fakeProfileRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	return f.getByID(ctx, id)
}

func (f *fakeProfileRepo) GetByUsername(ctx context.Context, username string) (*model.Profile, error) {
	return f.getByUsername(ctx, username)
}

func (f *fakeProfileRepo) ListByUser(ctx context.Context, userID string) ([]*model.Profile, error) {
	return f.listByUser(ctx, userID)
}

func (f *fakeProfileRepo) Update(ctx context.Context, id string, req model.UpdateProfileRequest) (*model.Profile, error) {
	return f.update(ctx, id, req)
}

func (f *fakeProfileRepo) Delete(ctx context.Context, id string) (bool, error) {
	return f.delete(ctx, id)
}

type fakeQRCodeRepo struct {
	create     func(ctx context.Context, req *model.CreateQRCodeRequest) (*model.QRCode, error)
	getByID    func(ctx context.Context, id string) (*model.QRCode, error)
	listByUser func(ctx context.Context, userID string) ([]*model.QRCode, error)
	recordScan func(ctx context.Context, id string) (*model.QRCode, error)
	setActive  func(ctx context.Context, id string, active bool) (*model.QRCode, error)
	delete     func(ctx context.Context, id string) (bool, error)
}

func (f *fakeQRCodeRepo) Create(ctx context.Context, req *model.CreateQRCodeRequest) (*model.QRCode, error) {
	return f.create(ctx, req)
}

func (f *fakeQRCodeRepo) GetByID(ctx context.Context, id string) (*model.QRCode, error) {
	return f.getByID(ctx, id)
}

func (f *fakeQRCodeRepo) ListByUser(ctx context.Context, userID string) ([]*model.QRCode, error) {
	return f.listByUser(ctx, userID)
}

func (f *fakeQRCodeRepo) RecordScan(ctx context.Context, id string) (*model.QRCode, error) {
	return f.recordScan(ctx, id)
}

func (f *fakeQRCodeRepo) SetActive(ctx context.Context, id string, active bool) (*model.QRCode, error) {
	return f.setActive(ctx, id, active)
}

func (f *fakeQRCodeRepo) Delete(ctx context.Context, id string) (bool, error) {
	return f.delete(ctx, id)
}

type fakeOrderRepo struct {
	create              func(ctx context.Context, orderNumber string, req *model.CreateOrderRequest) (*model.Order, error)
	getByID             func(ctx context.Context, id string) (*model.Order, error)
	getByOrderNumber    func(ctx context.Context, orderNumber string) (*model.Order, error)
	listByUser          func(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error)
	updateStatus        func(ctx context.Context, id string, status model.OrderStatus, trackingNumber *string) (*model.Order, error)
	updatePaymentStatus func(ctx context.Context, id string, status model.PaymentStatus) (*model.Order, error)
}

func (f *fakeOrderRepo) Create(ctx context.Context, orderNumber string, req *model.CreateOrderRequest) (*model.Order, error) {
	return f.create(ctx, orderNumber, req)
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	return f.getByID(ctx, id)
}

func (f *fakeOrderRepo) GetByOrderNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	return f.getByOrderNumber(ctx, orderNumber)
}

func (f *fakeOrderRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Order, error) {
	return f.listByUser(ctx, userID, limit, offset)
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus, trackingNumber *string) (*model.Order, error) {
	return f.updateStatus(ctx, id, status, trackingNumber)
}

func (f *fakeOrderRepo) UpdatePaymentStatus(ctx context.Context, id string, status model.PaymentStatus) (*model.Order, error) {
	return f.updatePaymentStatus(ctx, id, status)
}

type fakeAnalyticsRepo struct {
	record      func(ctx context.Context, req *model.RecordEventRequest) (*model.AnalyticsEvent, error)
	listByUser  func(ctx context.Context, userID string, since time.Time, limit int) ([]*model.AnalyticsEvent, error)
	countByType func(ctx context.Context, userID string, since time.Time) (map[string]int64, error)
}

func (f *fakeAnalyticsRepo) Record(ctx context.Context, req *model.RecordEventRequest) (*model.AnalyticsEvent, error) {
	return f.record(ctx, req)
}

func (f *fakeAnalyticsRepo) ListByUser(ctx context.Context, userID string, since time.Time, limit int) ([]*model.AnalyticsEvent, error) {
	return f.listByUser(ctx, userID, since, limit)
}

func (f *fakeAnalyticsRepo) CountByType(ctx context.Context, userID string, since time.Time) (map[string]int64, error) {
	return f.countByType(ctx, userID, since)
}
