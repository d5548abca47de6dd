package paymentprovider

import (
	"context"
	"fmt"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"

	"github.com/magabrotheeeer/membership-service/internal/models"
)

// Client — клиент Stripe. Вызовы SDK вынесены в поля-функции,
// чтобы их можно было подменять в тестах.
type Client struct {
	createCustomer        func(params *stripe.CustomerParams) (*stripe.Customer, error)
	createCheckoutSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getCheckoutSession    func(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getSubscription       func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	updateSubscription    func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

// NewClient создаёт клиент Stripe с указанным секретным ключом API.
func NewClient(secretKey string) *Client {
	stripe.Key = secretKey
	return &Client{
		createCustomer:        customer.New,
		createCheckoutSession: session.New,
		getCheckoutSession:    session.Get,
		getSubscription:       subscription.Get,
		updateSubscription:    subscription.Update,
	}
}

// CreateCustomer создаёт покупателя в Stripe и возвращает его идентификатор.
func (c *Client) CreateCustomer(ctx context.Context, email, userUID string) (*Customer, error) {
	const op = "paymentprovider.CreateCustomer"
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.Context = ctx
	params.AddMetadata("user_uid", userUID)

	cust, err := c.createCustomer(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrPaymentProvider, err)
	}
	return &Customer{ID: cust.ID, Email: cust.Email}, nil
}

// CreateCheckoutSession создаёт checkout-сессию в режиме подписки
// и возвращает её вместе с адресом страницы оплаты.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	const op = "paymentprovider.CreateCheckoutSession"
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:           stripe.String(p.CustomerID),
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: p.Metadata,
	}
	params.Context = ctx

	sess, err := c.createCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrPaymentProvider, err)
	}
	return convertCheckoutSession(sess), nil
}

// GetCheckoutSession возвращает checkout-сессию по её идентификатору.
// Неизвестная процессору сессия возвращает models.ErrInvalidSession.
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	const op = "paymentprovider.GetCheckoutSession"
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := c.getCheckoutSession(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrInvalidSession, err)
	}
	return convertCheckoutSession(sess), nil
}

// GetSubscription возвращает подписку по данным процессора.
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	const op = "paymentprovider.GetSubscription"
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.getSubscription(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, models.ErrPaymentProvider, err)
	}
	return convertSubscription(sub), nil
}

// CancelAtPeriodEnd помечает подписку к отмене в конце оплаченного периода.
func (c *Client) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	const op = "paymentprovider.CancelAtPeriodEnd"
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	if _, err := c.updateSubscription(subscriptionID, params); err != nil {
		return fmt.Errorf("%s: %w: %v", op, models.ErrPaymentProvider, err)
	}
	return nil
}

func convertCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	result := &CheckoutSession{
		ID:  sess.ID,
		URL: sess.URL,
	}
	if sess.Customer != nil {
		result.CustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		result.SubscriptionID = sess.Subscription.ID
	}
	return result
}

func convertSubscription(sub *stripe.Subscription) *Subscription {
	result := &Subscription{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.Customer != nil {
		result.CustomerID = sub.Customer.ID
	}
	// Конец периода хранится на позиции подписки.
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].CurrentPeriodEnd > 0 {
		periodEnd := time.Unix(sub.Items.Data[0].CurrentPeriodEnd, 0).UTC()
		result.CurrentPeriodEnd = &periodEnd
	}
	return result
}
