package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/admin7club/financial-manager/internal/models"
	"github.com/admin7club/financial-manager/internal/paymentprovider"
)

type MockPaymentRepository struct {
	mock.Mock
}

var _ PaymentRepository = (*MockPaymentRepository)(nil)

func (m *MockPaymentRepository) CreateCheckoutPayment(ctx context.Context, p models.CheckoutPayment) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentRepository) GetPaymentByProviderID(ctx context.Context, providerID string) (*models.CheckoutPayment, error) {
	args := m.Called(ctx, providerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutPayment), args.Error(1)
}

func (m *MockPaymentRepository) UpdatePaymentStatus(ctx context.Context, providerID, status string) error {
	args := m.Called(ctx, providerID, status)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

type MockLicenseActivator struct {
	mock.Mock
}

var _ LicenseActivator = (*MockLicenseActivator)(nil)

func (m *MockLicenseActivator) Activate(ctx context.Context, userUID string, req models.DummyActivateLicense) (*models.LicenseInfo, error) {
	args := m.Called(ctx, userUID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LicenseInfo), args.Error(1)
}

type MockProvider struct {
	mock.Mock
}

var _ Provider = (*MockProvider)(nil)

func (m *MockProvider) CreatePayment(reqParams paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error) {
	args := m.Called(reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.CreatePaymentResponse), args.Error(1)
}

func (m *MockProvider) VerifyWebhookSignature(body []byte, signature string) bool {
	args := m.Called(body, signature)
	return args.Bool(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func proPlan() *models.Plan {
	return &models.Plan{
		ID:       "plan-1",
		Name:     "Pro",
		PriceBRL: 49.90,
		PriceUSD: 9.90,
	}
}

func providerResponse() *paymentprovider.CreatePaymentResponse {
	resp := &paymentprovider.CreatePaymentResponse{ID: "pay-1", Status: "pending"}
	resp.Confirmation.ConfirmationURL = "https://provider.example/confirm/pay-1"
	return resp
}

func TestCheckout_CreatesPendingPayment(t *testing.T) {
	repo := new(MockPaymentRepository)
	provider := new(MockProvider)
	service := New(repo, new(MockLicenseActivator), provider, newNoopLogger())

	repo.On("GetPlan", mock.Anything, "plan-1").Return(proPlan(), nil).Once()
	provider.On("CreatePayment", mock.MatchedBy(func(req paymentprovider.CreatePaymentRequest) bool {
		return req.Amount.Value == "49.90" && req.Amount.Currency == "BRL" &&
			req.Metadata["user_uid"] == "user-1" && req.Metadata["plan_id"] == "plan-1"
	})).Return(providerResponse(), nil).Once()
	repo.On("CreateCheckoutPayment", mock.Anything, mock.MatchedBy(func(p models.CheckoutPayment) bool {
		return p.UserUID == "user-1" && p.ProviderID == "pay-1" &&
			p.Status == models.PaymentPending && p.Amount == 49.90 && p.Currency == "BRL"
	})).Return("checkout-1", nil).Once()

	url, err := service.Checkout(context.Background(), "user-1", models.DummyCheckout{PlanID: "plan-1"})

	require.NoError(t, err)
	assert.Equal(t, "https://provider.example/confirm/pay-1", url)
	repo.AssertExpectations(t)
	provider.AssertExpectations(t)
}

func TestCheckout_USDUsesDollarPrice(t *testing.T) {
	repo := new(MockPaymentRepository)
	provider := new(MockProvider)
	service := New(repo, new(MockLicenseActivator), provider, newNoopLogger())

	repo.On("GetPlan", mock.Anything, "plan-1").Return(proPlan(), nil).Once()
	provider.On("CreatePayment", mock.MatchedBy(func(req paymentprovider.CreatePaymentRequest) bool {
		return req.Amount.Value == "9.90" && req.Amount.Currency == "USD"
	})).Return(providerResponse(), nil).Once()
	repo.On("CreateCheckoutPayment", mock.Anything, mock.AnythingOfType("models.CheckoutPayment")).
		Return("checkout-1", nil).Once()

	_, err := service.Checkout(context.Background(), "user-1",
		models.DummyCheckout{PlanID: "plan-1", Currency: "USD"})

	require.NoError(t, err)
	provider.AssertExpectations(t)
}

func TestCheckout_ProviderError(t *testing.T) {
	repo := new(MockPaymentRepository)
	provider := new(MockProvider)
	service := New(repo, new(MockLicenseActivator), provider, newNoopLogger())

	repo.On("GetPlan", mock.Anything, "plan-1").Return(proPlan(), nil).Once()
	provider.On("CreatePayment", mock.Anything).Return(nil, errors.New("provider unavailable")).Once()

	_, err := service.Checkout(context.Background(), "user-1", models.DummyCheckout{PlanID: "plan-1"})

	require.Error(t, err)
	repo.AssertNotCalled(t, "CreateCheckoutPayment")
}

func TestHandleWebhook_SucceededActivatesLicense(t *testing.T) {
	repo := new(MockPaymentRepository)
	licenses := new(MockLicenseActivator)
	service := New(repo, licenses, new(MockProvider), newNoopLogger())

	repo.On("GetPaymentByProviderID", mock.Anything, "pay-1").Return(&models.CheckoutPayment{
		UserUID:    "user-1",
		PlanID:     "plan-1",
		ProviderID: "pay-1",
		Status:     models.PaymentPending,
	}, nil).Once()
	repo.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentSucceeded).Return(nil).Once()
	licenses.On("Activate", mock.Anything, "user-1",
		models.DummyActivateLicense{PlanID: "plan-1"}).Return(&models.LicenseInfo{}, nil).Once()

	notification := paymentprovider.WebhookNotification{Event: paymentprovider.EventPaymentSucceeded}
	notification.Object.ID = "pay-1"

	err := service.HandleWebhook(context.Background(), notification)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	licenses.AssertExpectations(t)
}

func TestHandleWebhook_CanceledMarksFailed(t *testing.T) {
	repo := new(MockPaymentRepository)
	licenses := new(MockLicenseActivator)
	service := New(repo, licenses, new(MockProvider), newNoopLogger())

	repo.On("GetPaymentByProviderID", mock.Anything, "pay-1").Return(&models.CheckoutPayment{
		UserUID:    "user-1",
		ProviderID: "pay-1",
		Status:     models.PaymentPending,
	}, nil).Once()
	repo.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentFailed).Return(nil).Once()

	notification := paymentprovider.WebhookNotification{Event: paymentprovider.EventPaymentCanceled}
	notification.Object.ID = "pay-1"

	err := service.HandleWebhook(context.Background(), notification)

	require.NoError(t, err)
	repo.AssertExpectations(t)
	licenses.AssertNotCalled(t, "Activate")
}

func TestHandleWebhook_UnknownPayment(t *testing.T) {
	repo := new(MockPaymentRepository)
	service := New(repo, new(MockLicenseActivator), new(MockProvider), newNoopLogger())

	repo.On("GetPaymentByProviderID", mock.Anything, "missing").
		Return(nil, errors.New("not found")).Once()

	notification := paymentprovider.WebhookNotification{Event: paymentprovider.EventPaymentSucceeded}
	notification.Object.ID = "missing"

	err := service.HandleWebhook(context.Background(), notification)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPayment)
}

func TestHandleWebhook_DuplicateNotificationIgnored(t *testing.T) {
	repo := new(MockPaymentRepository)
	licenses := new(MockLicenseActivator)
	service := New(repo, licenses, new(MockProvider), newNoopLogger())

	repo.On("GetPaymentByProviderID", mock.Anything, "pay-1").Return(&models.CheckoutPayment{
		ProviderID: "pay-1",
		Status:     models.PaymentSucceeded,
	}, nil).Once()

	notification := paymentprovider.WebhookNotification{Event: paymentprovider.EventPaymentSucceeded}
	notification.Object.ID = "pay-1"

	err := service.HandleWebhook(context.Background(), notification)

	require.NoError(t, err)
	repo.AssertNotCalled(t, "UpdatePaymentStatus")
	licenses.AssertNotCalled(t, "Activate")
}

func TestVerifySignature(t *testing.T) {
	provider := new(MockProvider)
	provider.On("VerifyWebhookSignature", []byte("body"), "sig").Return(true).Once()
	service := New(new(MockPaymentRepository), new(MockLicenseActivator), provider, newNoopLogger())

	assert.True(t, service.VerifySignature([]byte("body"), "sig"))
	provider.AssertExpectations(t)
}
