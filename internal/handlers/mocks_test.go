package handlers

import (
	"context"
	"io"
	"net/http/httptest"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/filesystem"
	"github.com/stretchr/testify/mock"

	"ticket-marketplace/internal/services"
	"ticket-marketplace/models"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(token string) (models.Identity, error) {
	args := m.Called(token)
	return args.Get(0).(models.Identity), args.Error(1)
}

// Authenticate falls back to the Verify expectations unless a test sets its
// own.
func (m *MockVerifier) Authenticate(ctx context.Context, token string) (models.Identity, error) {
	for _, call := range m.ExpectedCalls {
		if call.Method == "Authenticate" {
			args := m.Called(ctx, token)
			return args.Get(0).(models.Identity), args.Error(1)
		}
	}
	return m.Verify(token)
}

type MockAuthService struct {
	MockVerifier
}

func (m *MockAuthService) Login(ctx context.Context, creds services.Credentials) (models.Session, error) {
	args := m.Called(ctx, creds)
	return args.Get(0).(models.Session), args.Error(1)
}

func (m *MockAuthService) AdminLogin(creds services.AdminCredentials) (models.Session, error) {
	args := m.Called(creds)
	return args.Get(0).(models.Session), args.Error(1)
}

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Signup(ctx context.Context, kind models.IdentityKind, req services.SignupRequest) (services.AuthResult, error) {
	args := m.Called(ctx, kind, req)
	return args.Get(0).(services.AuthResult), args.Error(1)
}

func (m *MockAccountService) Profile(ctx context.Context, caller models.Identity) (models.Account, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *MockAccountService) UpdateProfile(ctx context.Context, caller models.Identity, fields models.AccountFields) (models.Account, error) {
	args := m.Called(ctx, caller, fields)
	return args.Get(0).(models.Account), args.Error(1)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, caller models.Identity, req services.ChangePasswordRequest) error {
	return m.Called(ctx, caller, req).Error(0)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, caller models.Identity) error {
	return m.Called(ctx, caller).Error(0)
}

func (m *MockAccountService) VenueContact(ctx context.Context, venueID string) (models.VenueContact, error) {
	args := m.Called(ctx, venueID)
	return args.Get(0).(models.VenueContact), args.Error(1)
}

type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) Purchase(ctx context.Context, req services.PurchaseRequest, caller models.Identity) (models.Receipt, error) {
	args := m.Called(ctx, req, caller)
	return args.Get(0).(models.Receipt), args.Error(1)
}

func (m *MockPurchaseService) OrdersForUser(ctx context.Context, caller models.Identity, userID string) ([]models.Order, error) {
	args := m.Called(ctx, caller, userID)
	return args.Get(0).([]models.Order), args.Error(1)
}

type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, caller models.Identity, draft models.EventDraft) (models.Event, error) {
	args := m.Called(ctx, caller, draft)
	return args.Get(0).(models.Event), args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, caller models.Identity, id string, fields models.EventFields) (models.Event, error) {
	args := m.Called(ctx, caller, id, fields)
	return args.Get(0).(models.Event), args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, caller models.Identity, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *MockEventService) SetImage(ctx context.Context, caller models.Identity, id string, file *filesystem.File) (models.Event, error) {
	args := m.Called(ctx, caller, id, file)
	return args.Get(0).(models.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (models.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Event), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context) ([]models.Event, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventService) ListVenueEvents(ctx context.Context, venueID string) ([]models.Event, error) {
	args := m.Called(ctx, venueID)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockEventService) ListOrders(ctx context.Context, caller models.Identity, eventID string) ([]models.Order, error) {
	args := m.Called(ctx, caller, eventID)
	return args.Get(0).([]models.Order), args.Error(1)
}

type MockAnalyticsService struct {
	mock.Mock
}

func (m *MockAnalyticsService) ForEvent(ctx context.Context, caller models.Identity, eventID string) (models.EventAnalytics, error) {
	args := m.Called(ctx, caller, eventID)
	return args.Get(0).(models.EventAnalytics), args.Error(1)
}

func (m *MockAnalyticsService) ForVenue(ctx context.Context, caller models.Identity, venueID string) ([]models.EventAnalytics, error) {
	args := m.Called(ctx, caller, venueID)
	return args.Get(0).([]models.EventAnalytics), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) ListAccounts(ctx context.Context, caller models.Identity, kind models.IdentityKind) ([]models.Account, error) {
	args := m.Called(ctx, caller, kind)
	return args.Get(0).([]models.Account), args.Error(1)
}

func (m *MockAdminService) ListEvents(ctx context.Context, caller models.Identity) ([]models.Event, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).([]models.Event), args.Error(1)
}

func (m *MockAdminService) DeleteAccount(ctx context.Context, caller models.Identity, kind models.IdentityKind, id string) error {
	return m.Called(ctx, caller, kind, id).Error(0)
}

func (m *MockAdminService) DeleteEvent(ctx context.Context, caller models.Identity, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

func (m *MockAdminService) ListFeedback(ctx context.Context, caller models.Identity, kind models.IdentityKind) ([]models.Feedback, error) {
	args := m.Called(ctx, caller, kind)
	return args.Get(0).([]models.Feedback), args.Error(1)
}

func (m *MockAdminService) RespondFeedback(ctx context.Context, caller models.Identity, id string, resp services.FeedbackResponse) (models.Feedback, error) {
	args := m.Called(ctx, caller, id, resp)
	return args.Get(0).(models.Feedback), args.Error(1)
}

type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) Submit(ctx context.Context, caller models.Identity, message string) (models.Feedback, error) {
	args := m.Called(ctx, caller, message)
	return args.Get(0).(models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) Mine(ctx context.Context, caller models.Identity) ([]models.Feedback, error) {
	args := m.Called(ctx, caller)
	return args.Get(0).([]models.Feedback), args.Error(1)
}

func (m *MockFeedbackService) MarkRead(ctx context.Context, caller models.Identity) (int, error) {
	args := m.Called(ctx, caller)
	return args.Int(0), args.Error(1)
}

var (
	buyer = models.Identity{ID: "user1", Kind: models.KindUser, Email: "ann@example.com"}
	venue = models.Identity{ID: "venue1", Kind: models.KindVenue, Email: "bar@example.com"}
	admin = models.Identity{ID: "root", Kind: models.KindSuperadmin}
)

// newRequestEvent builds a bare request event around an httptest recorder.
func newRequestEvent(method, target string, body io.Reader, token string) (*core.RequestEvent, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e := &core.RequestEvent{}
	e.Request = req
	e.Response = rec
	return e, rec
}

func verifierFor(token string, id models.Identity) *MockVerifier {
	v := &MockVerifier{}
	v.On("Verify", token).Return(id, nil)
	return v
}
