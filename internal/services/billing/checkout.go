package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/membership-service/internal/models"
	"github.com/magabrotheeeer/membership-service/internal/paymentprovider"
)

// StartCheckout создает checkout-сессию Stripe для выбранного плана.
// При первом обращении у пользователя заводится customer в Stripe,
// идентификатор сохраняется в профиле и переиспользуется дальше.
func (s *Service) StartCheckout(ctx context.Context, user *models.User, planName string) (*paymentprovider.CheckoutSession, error) {
	const op = "services.billing.StartCheckout"

	plan, err := models.ParsePlan(planName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrInvalidPlan)
	}
	priceID, err := s.priceFor(plan)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CheckoutParams{
		CustomerID: customerID,
		PriceID:    priceID,
		SuccessURL: s.cfg.BaseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.cfg.BaseURL + "/dashboard",
		Metadata: map[string]string{
			"user_uid": user.UID,
			"plan":     string(plan),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("checkout session created",
		"user_uid", user.UID,
		"plan", string(plan),
		"session_id", session.ID)
	return session, nil
}

// ConfirmCheckout проверяет, что сессия существует и принадлежит данному
// пользователю. Реестр подписок здесь не меняется: единственным источником
// изменений остается вебхук checkout.session.completed.
func (s *Service) ConfirmCheckout(ctx context.Context, user *models.User, sessionID string) error {
	const op = "services.billing.ConfirmCheckout"

	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.StripeCustomerID == nil || session.CustomerID != *user.StripeCustomerID {
		return fmt.Errorf("%s: %w", op, models.ErrSessionMismatch)
	}
	return nil
}

// CancelSubscription запрашивает отмену активной подписки пользователя
// в конце оплаченного периода. Локальный флаг выставляется только после
// успешного ответа провайдера, поэтому при сбое состояние не расходится.
func (s *Service) CancelSubscription(ctx context.Context, user *models.User) error {
	const op = "services.billing.CancelSubscription"

	sub, err := s.repo.ActiveSubscriptionByUser(ctx, user.UID)
	if err != nil {
		if errors.Is(err, models.ErrSubscriptionNotFound) {
			return fmt.Errorf("%s: %w", op, models.ErrNoActiveSubscription)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if sub.StripeSubscriptionID == nil {
		return fmt.Errorf("%s: %w", op, models.ErrNoActiveSubscription)
	}

	if err := s.provider.CancelAtPeriodEnd(ctx, *sub.StripeSubscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetCancelAtPeriodEnd(ctx, sub.ID, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription cancellation scheduled",
		"user_uid", user.UID,
		"subscription_id", *sub.StripeSubscriptionID)
	return nil
}

// ensureCustomer возвращает идентификатор Stripe-customer пользователя,
// создавая его при первом обращении.
func (s *Service) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		return *user.StripeCustomerID, nil
	}
	customer, err := s.provider.CreateCustomer(ctx, user.Email, user.UID)
	if err != nil {
		return "", err
	}
	if err := s.repo.SetStripeCustomerID(ctx, user.UID, customer.ID); err != nil {
		return "", err
	}
	return customer.ID, nil
}

// priceFor возвращает идентификатор цены Stripe для плана подписки.
func (s *Service) priceFor(plan models.Plan) (string, error) {
	var priceID string
	switch plan {
	case models.PlanMonthly:
		priceID = s.cfg.MonthlyPriceID
	case models.PlanAnnual:
		priceID = s.cfg.AnnualPriceID
	}
	if priceID == "" {
		return "", fmt.Errorf("no price configured for plan %q: %w", plan, models.ErrConfiguration)
	}
	return priceID, nil
}
