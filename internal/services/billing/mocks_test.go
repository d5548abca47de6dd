package billing_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/membership-service/internal/models"
	"github.com/magabrotheeeer/membership-service/internal/paymentprovider"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) SetStripeCustomerID(ctx context.Context, userUID, customerID string) error {
	args := m.Called(ctx, userUID, customerID)
	return args.Error(0)
}

func (m *RepoMock) ActiveSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error) {
	args := m.Called(ctx, userUID)
	if s := args.Get(0); s != nil {
		return s.(*models.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RepoMock) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID int64, flag bool) error {
	args := m.Called(ctx, subscriptionID, flag)
	return args.Error(0)
}

func (m *RepoMock) ApplyCheckoutCompleted(ctx context.Context, userUID, externalID string,
	plan models.Plan, periodEnd *time.Time, role models.Role) error {
	args := m.Called(ctx, userUID, externalID, plan, periodEnd, role)
	return args.Error(0)
}

func (m *RepoMock) ApplySubscriptionUpdate(ctx context.Context, externalID string,
	upd models.SubscriptionUpdate, newRole models.Role) (bool, error) {
	args := m.Called(ctx, externalID, upd, newRole)
	return args.Bool(0), args.Error(1)
}

type ProviderMock struct {
	mock.Mock
}

func (m *ProviderMock) CreateCustomer(ctx context.Context, email, userUID string) (*paymentprovider.Customer, error) {
	args := m.Called(ctx, email, userUID)
	if c := args.Get(0); c != nil {
		return c.(*paymentprovider.Customer), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProviderMock) CreateCheckoutSession(ctx context.Context, p paymentprovider.CheckoutParams) (*paymentprovider.CheckoutSession, error) {
	args := m.Called(ctx, p)
	if s := args.Get(0); s != nil {
		return s.(*paymentprovider.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProviderMock) GetCheckoutSession(ctx context.Context, sessionID string) (*paymentprovider.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if s := args.Get(0); s != nil {
		return s.(*paymentprovider.CheckoutSession), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProviderMock) GetSubscription(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error) {
	args := m.Called(ctx, subscriptionID)
	if s := args.Get(0); s != nil {
		return s.(*paymentprovider.Subscription), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProviderMock) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) PublishMessage(ctx context.Context, body any) error {
	args := m.Called(ctx, body)
	return args.Error(0)
}
