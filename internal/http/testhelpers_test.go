package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taponn/taponn-api/internal/data"
	domainauth "github.com/taponn/taponn-api/internal/domain/auth"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
	"github.com/taponn/taponn-api/internal/service"
)

// In-memory repositories backing the router tests. They implement the
// core interfaces with just enough semantics for handler behavior.

type memAccounts struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*model.Account
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]*model.Account{}}
}

func (m *memAccounts) Create(_ context.Context, params data.CreateAccountParams) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(strings.TrimSpace(params.Email))
	for _, a := range m.byID {
		if a.Email == email {
			return nil, apperrors.Conflict("duplicate email")
		}
	}
	m.seq++
	role := params.Role
	if role == "" {
		role = domainauth.RoleUser
	}
	perms := params.Permissions
	if len(perms) == 0 {
		perms = domainauth.DefaultPermissions(role)
	}
	var name *string
	if params.Name != "" {
		n := params.Name
		name = &n
	}
	acct := &model.Account{
		ID:           fmt.Sprintf("acct-%d", m.seq),
		Name:         name,
		Email:        email,
		PasswordHash: params.PasswordHash,
		Role:         role,
		Permissions:  perms,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.byID[acct.ID] = acct
	return acct, nil
}

func (m *memAccounts) GetByID(_ context.Context, id string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, apperrors.NotFound("Account not found")
}

func (m *memAccounts) GetByEmail(_ context.Context, email string) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range m.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("Account not found")
}

func (m *memAccounts) List(_ context.Context, _, _ int) ([]*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Account, 0, len(m.byID))
	for _, a := range m.byID {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memAccounts) UpdateDetails(ctx context.Context, id string, patch domainauth.AccountUpdate) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Account not found")
	}
	if patch.Name != nil {
		a.Name = patch.Name
	}
	if patch.Email != nil {
		a.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Phone != nil {
		a.Phone = patch.Phone
	}
	if patch.Company != nil {
		a.Company = patch.Company
	}
	if patch.Position != nil {
		a.Position = patch.Position
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) RecordLoginFailure(_ context.Context, id string, policy data.LockoutPolicy) (*model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Account not found")
	}
	a.LoginAttempts++
	if a.LoginAttempts >= policy.MaxAttempts {
		a.IsLocked = true
		until := time.Now().Add(policy.Duration)
		a.LockUntil = &until
	}
	cp := *a
	return &cp, nil
}

func (m *memAccounts) RecordLoginSuccess(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.byID[id]; ok {
		a.LoginAttempts = 0
		a.IsLocked = false
		a.LockUntil = nil
		now := time.Now()
		a.LastLogin = &now
	}
	return nil
}

type memTokens struct {
	mu     sync.Mutex
	owners map[string]string
}

func newMemTokens() *memTokens { return &memTokens{owners: map[string]string{}} }

func (m *memTokens) Save(_ context.Context, jti, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[jti] = userID
	return nil
}

func (m *memTokens) Valid(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.owners[jti]
	return ok, nil
}

func (m *memTokens) Revoke(_ context.Context, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.owners, jti)
	return nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for jti, owner := range m.owners {
		if owner == userID {
			delete(m.owners, jti)
		}
	}
	return nil
}

// stubIssuer encodes the user id into the token so Verify can round-trip
// without real signing.
type stubIssuer struct {
	mu  sync.Mutex
	seq int
}

func (s *stubIssuer) Issue(user domainauth.User) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	jti := fmt.Sprintf("jti-%d", s.seq)
	return "tok." + user.ID + "." + jti, jti, nil
}

func (s *stubIssuer) Verify(token string) (string, string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != "tok" {
		return "", "", fmt.Errorf("malformed token")
	}
	return parts[1], parts[2], nil
}

type memProfiles struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*model.Profile
}

func newMemProfiles() *memProfiles { return &memProfiles{byID: map[string]*model.Profile{}} }

func (m *memProfiles) Create(_ context.Context, req *model.CreateProfileRequest) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	username := strings.ToLower(req.Username)
	for _, p := range m.byID {
		if p.Username == username {
			return nil, apperrors.Conflict("duplicate username")
		}
	}
	m.seq++
	theme := req.Theme
	if theme == "" {
		theme = model.ThemeDefault
	}
	p := &model.Profile{
		ID:          fmt.Sprintf("prof-%d", m.seq),
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Username:    username,
		Bio:         req.Bio,
		Theme:       theme,
		SocialLinks: req.SocialLinks,
		ContactInfo: req.ContactInfo,
		IsPublic:    true,
	}
	m.byID[p.ID] = p
	return p, nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.NotFound("Profile not found")
}

func (m *memProfiles) GetByUsername(_ context.Context, username string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	username = strings.ToLower(username)
	for _, p := range m.byID {
		if p.Username == username && p.IsPublic {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("Profile not found")
}

func (m *memProfiles) ListByUser(_ context.Context, userID string) ([]*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Profile
	for _, p := range m.byID {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memProfiles) Update(_ context.Context, id string, req model.UpdateProfileRequest) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Profile not found")
	}
	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.Theme != nil {
		p.Theme = *req.Theme
	}
	if req.IsPublic != nil {
		p.IsPublic = *req.IsPublic
	}
	cp := *p
	return &cp, nil
}

func (m *memProfiles) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

type memQRCodes struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*model.QRCode
}

func newMemQRCodes() *memQRCodes { return &memQRCodes{byID: map[string]*model.QRCode{}} }

func (m *memQRCodes) Create(_ context.Context, req *model.CreateQRCodeRequest) (*model.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	settings := model.DefaultQRSettings()
	if req.Settings != nil {
		settings = *req.Settings
	}
	c := &model.QRCode{
		ID:        fmt.Sprintf("qr-%d", m.seq),
		UserID:    req.UserID,
		ProfileID: req.ProfileID,
		Name:      req.Name,
		QRData:    req.QRData,
		Settings:  settings,
		IsActive:  true,
	}
	m.byID[c.ID] = c
	return c, nil
}

func (m *memQRCodes) GetByID(_ context.Context, id string) (*model.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byID[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, apperrors.NotFound("QR code not found")
}

func (m *memQRCodes) ListByUser(_ context.Context, userID string) ([]*model.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.QRCode
	for _, c := range m.byID {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memQRCodes) RecordScan(_ context.Context, id string) (*model.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok || !c.IsActive {
		return nil, apperrors.NotFound("QR code not found")
	}
	c.ScanCount++
	now := time.Now()
	c.LastScan = &now
	cp := *c
	return &cp, nil
}

func (m *memQRCodes) SetActive(_ context.Context, id string, active bool) (*model.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("QR code not found")
	}
	c.IsActive = active
	cp := *c
	return &cp, nil
}

func (m *memQRCodes) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}

type memOrders struct {
	mu   sync.Mutex
	seq  int
	byID map[string]*model.Order
}

func newMemOrders() *memOrders { return &memOrders{byID: map[string]*model.Order{}} }

func (m *memOrders) Create(_ context.Context, orderNumber string, req *model.CreateOrderRequest) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.OrderNumber == orderNumber {
			return nil, apperrors.Conflict("duplicate order number")
		}
	}
	m.seq++
	o := &model.Order{
		ID:              fmt.Sprintf("order-%d", m.seq),
		UserID:          req.UserID,
		OrderNumber:     orderNumber,
		ProductType:     req.ProductType,
		Quantity:        req.Quantity,
		TotalAmount:     req.TotalAmount,
		Status:          model.OrderPending,
		PaymentStatus:   model.PaymentPending,
		ShippingAddress: req.ShippingAddress,
	}
	m.byID[o.ID] = o
	return o, nil
}

func (m *memOrders) GetByID(_ context.Context, id string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.byID[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, apperrors.NotFound("Order not found")
}

func (m *memOrders) GetByOrderNumber(_ context.Context, orderNumber string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.OrderNumber == orderNumber {
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound("Order not found")
}

func (m *memOrders) ListByUser(_ context.Context, userID string, _, _ int) ([]*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Order
	for _, o := range m.byID {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memOrders) UpdateStatus(_ context.Context, id string, status model.OrderStatus, trackingNumber *string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Order not found")
	}
	o.Status = status
	if trackingNumber != nil {
		o.TrackingNumber = trackingNumber
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdatePaymentStatus(_ context.Context, id string, status model.PaymentStatus) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, apperrors.NotFound("Order not found")
	}
	o.PaymentStatus = status
	cp := *o
	return &cp, nil
}

type memAnalytics struct {
	mu     sync.Mutex
	seq    int
	events []*model.AnalyticsEvent
}

func newMemAnalytics() *memAnalytics { return &memAnalytics{} }

func (m *memAnalytics) Record(_ context.Context, req *model.RecordEventRequest) (*model.AnalyticsEvent, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ev := &model.AnalyticsEvent{
		ID:            fmt.Sprintf("event-%d", m.seq),
		UserID:        req.UserID,
		ProfileID:     req.ProfileID,
		QRCodeID:      req.QRCodeID,
		EventType:     req.EventType,
		EventCategory: req.EventCategory,
		EventAction:   req.EventAction,
		Metadata:      req.Metadata,
		CreatedAt:     time.Now(),
	}
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *memAnalytics) ListByUser(_ context.Context, userID string, _ time.Time, _ int) ([]*model.AnalyticsEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AnalyticsEvent
	for _, ev := range m.events {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *memAnalytics) CountByType(_ context.Context, userID string, _ time.Time) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, ev := range m.events {
		if ev.UserID == userID {
			counts[ev.EventType]++
		}
	}
	return counts, nil
}

// apiHarness is a running router over in-memory stores.
type apiHarness struct {
	srv       *httptest.Server
	analytics *memAnalytics
	accounts  *memAccounts
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	accounts := newMemAccounts()
	tokens := newMemTokens()
	analytics := newMemAnalytics()
	profiles := newMemProfiles()

	accountSvc, err := service.NewAccountService(service.AccountServiceOptions{
		Accounts: accounts,
		Issuer:   &stubIssuer{},
		Tokens:   tokens,
	})
	require.NoError(t, err)
	profileSvc, err := service.NewProfileService(service.ProfileServiceOptions{Profiles: profiles})
	require.NoError(t, err)
	qrSvc, err := service.NewQRCodeService(service.QRCodeServiceOptions{
		QRCodes:       newMemQRCodes(),
		Profiles:      profiles,
		Analytics:     analytics,
		PublicBaseURL: "https://taponn.example",
	})
	require.NoError(t, err)
	orderSvc, err := service.NewOrderService(service.OrderServiceOptions{Orders: newMemOrders()})
	require.NoError(t, err)
	analyticsSvc, err := service.NewAnalyticsService(service.AnalyticsServiceOptions{Events: analytics})
	require.NoError(t, err)

	handler := NewRouter(RouterServices{
		Accounts:  accountSvc,
		Profiles:  profileSvc,
		QRCodes:   qrSvc,
		Orders:    orderSvc,
		Analytics: analyticsSvc,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &apiHarness{srv: srv, analytics: analytics, accounts: accounts}
}

// do issues a request and decodes the JSON body into a generic map.
func (h *apiHarness) do(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, h.srv.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// register creates an account through the API and returns its token.
func (h *apiHarness) register(t *testing.T, email string) string {
	t.Helper()
	status, body := h.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name": "Test User", "email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, "register: %v", body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}
