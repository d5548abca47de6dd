package billing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/membership-service/internal/models"
	"github.com/magabrotheeeer/membership-service/internal/paymentprovider"
	"github.com/magabrotheeeer/membership-service/internal/services/billing"
)

func newCheckoutService(repo *RepoMock, provider *ProviderMock) *billing.Service {
	return billing.New(newNoopLogger(), repo, provider, nil, billing.Config{
		MonthlyPriceID: "price_monthly",
		AnnualPriceID:  "price_annual",
		BaseURL:        "https://app.example.com",
	})
}

func strPtr(s string) *string { return &s }

func TestService_StartCheckout(t *testing.T) {
	tests := []struct {
		name       string
		user       models.User
		plan       string
		cfg        *billing.Config
		setupMocks func(repo *RepoMock, provider *ProviderMock)
		wantURL    string
		wantErr    error
	}{
		{
			name: "new customer is created and stored",
			user: models.User{UID: "uid-1", Email: "user@example.com", Role: models.RoleFree},
			plan: "monthly",
			setupMocks: func(repo *RepoMock, provider *ProviderMock) {
				provider.On("CreateCustomer", mock.Anything, "user@example.com", "uid-1").
					Return(&paymentprovider.Customer{ID: "cus_1"}, nil)
				repo.On("SetStripeCustomerID", mock.Anything, "uid-1", "cus_1").
					Return(nil)
				provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p paymentprovider.CheckoutParams) bool {
					return p.CustomerID == "cus_1" &&
						p.PriceID == "price_monthly" &&
						p.SuccessURL == "https://app.example.com/billing/success?session_id={CHECKOUT_SESSION_ID}" &&
						p.CancelURL == "https://app.example.com/dashboard" &&
						p.Metadata["user_uid"] == "uid-1" &&
						p.Metadata["plan"] == "monthly"
				})).Return(&paymentprovider.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/cs_1"}, nil)
			},
			wantURL: "https://checkout.stripe.com/cs_1",
		},
		{
			name: "existing customer is reused",
			user: models.User{UID: "uid-1", Email: "user@example.com", StripeCustomerID: strPtr("cus_1")},
			plan: "annual",
			setupMocks: func(repo *RepoMock, provider *ProviderMock) {
				provider.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(p paymentprovider.CheckoutParams) bool {
					return p.CustomerID == "cus_1" && p.PriceID == "price_annual"
				})).Return(&paymentprovider.CheckoutSession{ID: "cs_2", URL: "https://checkout.stripe.com/cs_2"}, nil)
			},
			wantURL: "https://checkout.stripe.com/cs_2",
		},
		{
			name:       "unknown plan",
			user:       models.User{UID: "uid-1"},
			plan:       "weekly",
			setupMocks: func(repo *RepoMock, provider *ProviderMock) {},
			wantErr:    models.ErrInvalidPlan,
		},
		{
			name:       "missing price configuration",
			user:       models.User{UID: "uid-1"},
			plan:       "annual",
			cfg:        &billing.Config{MonthlyPriceID: "price_monthly", BaseURL: "https://app.example.com"},
			setupMocks: func(repo *RepoMock, provider *ProviderMock) {},
			wantErr:    models.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			provider := new(ProviderMock)
			tt.setupMocks(repo, provider)

			svc := newCheckoutService(repo, provider)
			if tt.cfg != nil {
				svc = billing.New(newNoopLogger(), repo, provider, nil, *tt.cfg)
			}

			session, err := svc.StartCheckout(context.Background(), &tt.user, tt.plan)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, session)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantURL, session.URL)
			}
			repo.AssertExpectations(t)
			provider.AssertExpectations(t)
		})
	}
}

func TestService_ConfirmCheckout(t *testing.T) {
	tests := []struct {
		name       string
		user       models.User
		setupMocks func(provider *ProviderMock)
		wantErr    error
	}{
		{
			name: "session belongs to user",
			user: models.User{UID: "uid-1", StripeCustomerID: strPtr("cus_1")},
			setupMocks: func(provider *ProviderMock) {
				provider.On("GetCheckoutSession", mock.Anything, "cs_1").
					Return(&paymentprovider.CheckoutSession{ID: "cs_1", CustomerID: "cus_1"}, nil)
			},
		},
		{
			name: "session belongs to another customer",
			user: models.User{UID: "uid-1", StripeCustomerID: strPtr("cus_1")},
			setupMocks: func(provider *ProviderMock) {
				provider.On("GetCheckoutSession", mock.Anything, "cs_1").
					Return(&paymentprovider.CheckoutSession{ID: "cs_1", CustomerID: "cus_other"}, nil)
			},
			wantErr: models.ErrSessionMismatch,
		},
		{
			name: "user has no customer yet",
			user: models.User{UID: "uid-1"},
			setupMocks: func(provider *ProviderMock) {
				provider.On("GetCheckoutSession", mock.Anything, "cs_1").
					Return(&paymentprovider.CheckoutSession{ID: "cs_1", CustomerID: "cus_1"}, nil)
			},
			wantErr: models.ErrSessionMismatch,
		},
		{
			name: "unknown session",
			user: models.User{UID: "uid-1", StripeCustomerID: strPtr("cus_1")},
			setupMocks: func(provider *ProviderMock) {
				provider.On("GetCheckoutSession", mock.Anything, "cs_1").
					Return(nil, models.ErrInvalidSession)
			},
			wantErr: models.ErrInvalidSession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			provider := new(ProviderMock)
			tt.setupMocks(provider)

			svc := newCheckoutService(repo, provider)
			err := svc.ConfirmCheckout(context.Background(), &tt.user, "cs_1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			provider.AssertExpectations(t)
		})
	}
}

func TestService_CancelSubscription(t *testing.T) {
	user := &models.User{UID: "uid-1", Role: models.RolePremium}
	providerErr := errors.New("stripe is down")

	t.Run("success", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		repo.On("ActiveSubscriptionByUser", mock.Anything, "uid-1").
			Return(&models.Subscription{ID: 7, UserUID: "uid-1", Status: models.StatusActive,
				StripeSubscriptionID: strPtr("sub_1")}, nil)
		provider.On("CancelAtPeriodEnd", mock.Anything, "sub_1").Return(nil)
		repo.On("SetCancelAtPeriodEnd", mock.Anything, int64(7), true).Return(nil)

		svc := newCheckoutService(repo, provider)
		assert.NoError(t, svc.CancelSubscription(context.Background(), user))
		repo.AssertExpectations(t)
		provider.AssertExpectations(t)
	})

	t.Run("no active subscription", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		repo.On("ActiveSubscriptionByUser", mock.Anything, "uid-1").
			Return(nil, models.ErrSubscriptionNotFound)

		svc := newCheckoutService(repo, provider)
		err := svc.CancelSubscription(context.Background(), user)
		assert.ErrorIs(t, err, models.ErrNoActiveSubscription)
		repo.AssertExpectations(t)
	})

	t.Run("provider failure leaves local flag untouched", func(t *testing.T) {
		repo := new(RepoMock)
		provider := new(ProviderMock)
		repo.On("ActiveSubscriptionByUser", mock.Anything, "uid-1").
			Return(&models.Subscription{ID: 7, UserUID: "uid-1", Status: models.StatusActive,
				StripeSubscriptionID: strPtr("sub_1")}, nil)
		provider.On("CancelAtPeriodEnd", mock.Anything, "sub_1").Return(providerErr)

		svc := newCheckoutService(repo, provider)
		err := svc.CancelSubscription(context.Background(), user)
		assert.ErrorIs(t, err, providerErr)
		repo.AssertNotCalled(t, "SetCancelAtPeriodEnd", mock.Anything, mock.Anything, mock.Anything)
		repo.AssertExpectations(t)
		provider.AssertExpectations(t)
	})
}
