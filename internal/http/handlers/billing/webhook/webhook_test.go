package webhook_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	webhookhandler "github.com/magabrotheeeer/membership-service/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/membership-service/internal/models"
	"github.com/magabrotheeeer/membership-service/internal/services/billing"
)

type BillingServiceMock struct {
	mock.Mock
}

func (m *BillingServiceMock) ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) (billing.WebhookResult, error) {
	args := m.Called(ctx, payload, sigHeader)
	return args.Get(0).(billing.WebhookResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_ServeHTTP(t *testing.T) {
	payload := []byte(`{"id": "evt_1", "type": "checkout.session.completed"}`)

	tests := []struct {
		name       string
		sigHeader  string
		setupMock  func(service *BillingServiceMock)
		wantStatus int
	}{
		{
			name:      "processed event",
			sigHeader: "t=1,v1=abc",
			setupMock: func(service *BillingServiceMock) {
				service.On("ProcessWebhook", mock.Anything, payload, "t=1,v1=abc").
					Return(billing.WebhookResult{EventType: "checkout.session.completed"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:      "ignored event",
			sigHeader: "t=1,v1=abc",
			setupMock: func(service *BillingServiceMock) {
				service.On("ProcessWebhook", mock.Anything, payload, "t=1,v1=abc").
					Return(billing.WebhookResult{EventType: "invoice.paid", Ignored: true}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:      "invalid signature",
			sigHeader: "t=1,v1=bad",
			setupMock: func(service *BillingServiceMock) {
				service.On("ProcessWebhook", mock.Anything, payload, "t=1,v1=bad").
					Return(billing.WebhookResult{}, models.ErrInvalidSignature)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "malformed payload",
			sigHeader: "t=1,v1=abc",
			setupMock: func(service *BillingServiceMock) {
				service.On("ProcessWebhook", mock.Anything, payload, "t=1,v1=abc").
					Return(billing.WebhookResult{EventType: "customer.subscription.updated"}, models.ErrMalformedPayload)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "processing failure triggers retry",
			sigHeader: "t=1,v1=abc",
			setupMock: func(service *BillingServiceMock) {
				service.On("ProcessWebhook", mock.Anything, payload, "t=1,v1=abc").
					Return(billing.WebhookResult{EventType: "checkout.session.completed"},
						errors.New("storage unavailable"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(BillingServiceMock)
			tt.setupMock(service)

			handler := webhookhandler.New(newNoopLogger(), service)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/webhook", bytes.NewBuffer(payload))
			req.Header.Set("Stripe-Signature", tt.sigHeader)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			service.AssertExpectations(t)
		})
	}
}
