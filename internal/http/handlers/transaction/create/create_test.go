package create

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/admin7club/financial-manager/internal/http/middlewarectx"
	"github.com/admin7club/financial-manager/internal/models"
	transactionservice "github.com/admin7club/financial-manager/internal/services/transaction"
)

type MockService struct {
	mock.Mock
}

var _ Service = (*MockService)(nil)

func (m *MockService) Create(ctx context.Context, userUID string, req models.DummyTransaction) (string, error) {
	args := m.Called(ctx, userUID, req)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validBody = `{
	"kind": "expense",
	"description": "Аренда офиса",
	"amount": 1500,
	"due_date": "2024-06-05",
	"category_id": "6c1f27cc-62d5-4f40-9d3b-7f1e2a3b4c5d",
	"account_id": "9a2b3c4d-5e6f-4a7b-8c9d-0e1f2a3b4c5d"
}`

func newRequest(body, userUID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	if userUID != "" {
		req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, userUID))
	}
	return req
}

func TestServeHTTP_Success(t *testing.T) {
	service := new(MockService)
	service.On("Create", mock.Anything, "user-1", mock.Anything).Return("tx-1", nil).Once()
	handler := New(newNoopLogger(), service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(validBody, "user-1"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tx-1")
	service.AssertExpectations(t)
}

func TestServeHTTP_InvalidJSON(t *testing.T) {
	service := new(MockService)
	handler := New(newNoopLogger(), service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest("{not json", "user-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	service.AssertNotCalled(t, "Create")
}

func TestServeHTTP_ValidationError(t *testing.T) {
	service := new(MockService)
	handler := New(newNoopLogger(), service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(`{"kind": "unknown"}`, "user-1"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	service.AssertNotCalled(t, "Create")
}

func TestServeHTTP_NoUserUID(t *testing.T) {
	service := new(MockService)
	handler := New(newNoopLogger(), service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(validBody, ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	service.AssertNotCalled(t, "Create")
}

func TestServeHTTP_LimitReached(t *testing.T) {
	service := new(MockService)
	service.On("Create", mock.Anything, "user-1", mock.Anything).
		Return("", transactionservice.ErrLimitReached).Once()
	handler := New(newNoopLogger(), service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(validBody, "user-1"))

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	service.AssertExpectations(t)
}

func TestServeHTTP_ServiceError(t *testing.T) {
	service := new(MockService)
	service.On("Create", mock.Anything, "user-1", mock.Anything).
		Return("", assert.AnError).Once()
	handler := New(newNoopLogger(), service)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newRequest(validBody, "user-1"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	service.AssertExpectations(t)
}
