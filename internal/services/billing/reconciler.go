package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/magabrotheeeer/membership-service/internal/models"
)

// Типы событий Stripe, которые обрабатывает сверка. Остальные события
// подтверждаются без изменений в реестре.
const (
	eventCheckoutCompleted  = "checkout.session.completed"
	eventSubscriptionUpdate = "customer.subscription.updated"
	eventSubscriptionDelete = "customer.subscription.deleted"
)

// WebhookResult описывает итог обработки вебхука для логов и метрик.
type WebhookResult struct {
	EventType string
	Ignored   bool
}

// checkoutSessionPayload повторяет нужные сверке поля объекта
// checkout.session из тела события.
type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// subscriptionPayload повторяет нужные сверке поля объекта subscription.
// Конец периода Stripe отдаёт либо на верхнем уровне, либо на позициях
// подписки, поэтому читаются оба места. Флаг отмены читается указателем:
// отсутствующее в теле поле не должно затирать локально выставленный флаг.
type subscriptionPayload struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd *bool  `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// ProcessWebhook проверяет подпись вебхука и применяет событие к реестру
// подписок. До успешной проверки подписи тело не разбирается и никакие
// данные не меняются. Событие неизвестного типа или с неизвестным
// пользователем подтверждается как проигнорированное.
func (s *Service) ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) (WebhookResult, error) {
	const op = "services.billing.ProcessWebhook"

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		if isSignatureError(err) {
			return WebhookResult{}, fmt.Errorf("%s: %w: %v", op, models.ErrInvalidSignature, err)
		}
		return WebhookResult{}, fmt.Errorf("%s: %w: %v", op, models.ErrMalformedPayload, err)
	}

	result := WebhookResult{EventType: string(event.Type)}
	switch string(event.Type) {
	case eventCheckoutCompleted:
		result.Ignored, err = s.handleCheckoutCompleted(ctx, event)
	case eventSubscriptionUpdate:
		result.Ignored, err = s.handleSubscriptionUpdated(ctx, event)
	case eventSubscriptionDelete:
		result.Ignored, err = s.handleSubscriptionDeleted(ctx, event)
	default:
		s.log.Debug("ignoring unhandled webhook event", "type", string(event.Type))
		result.Ignored = true
	}
	if err != nil {
		return result, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// handleCheckoutCompleted переводит оплаченную checkout-сессию в строку
// реестра: upsert подписки и роль premium владельцу в одной транзакции.
func (s *Service) handleCheckoutCompleted(ctx context.Context, event stripe.Event) (bool, error) {
	var session checkoutSessionPayload
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return false, fmt.Errorf("%w: %v", models.ErrMalformedPayload, err)
	}

	userUID := session.Metadata["user_uid"]
	if userUID == "" || session.Subscription == "" {
		s.log.Warn("checkout event without user or subscription reference",
			"session_id", session.ID)
		return true, nil
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.log.Warn("checkout event for unknown user",
				"user_uid", userUID, "session_id", session.ID)
			return true, nil
		}
		return false, err
	}

	plan, err := models.ParsePlan(session.Metadata["plan"])
	if err != nil {
		s.log.Warn("checkout event with unknown plan, storing without plan",
			"plan", session.Metadata["plan"], "session_id", session.ID)
		plan = ""
	}

	var periodEnd *time.Time
	if sub, err := s.provider.GetSubscription(ctx, session.Subscription); err == nil {
		periodEnd = sub.CurrentPeriodEnd
	} else {
		s.log.Warn("failed to fetch subscription details, storing without period end",
			"subscription_id", session.Subscription, "error", err.Error())
	}

	if err := s.repo.ApplyCheckoutCompleted(ctx, user.UID, session.Subscription,
		plan, periodEnd, models.RolePremium); err != nil {
		return false, err
	}

	s.log.Info("checkout completed",
		"user_uid", user.UID, "subscription_id", session.Subscription)
	s.notify(ctx, Event{
		Type:           eventCheckoutCompleted,
		UserUID:        user.UID,
		SubscriptionID: session.Subscription,
		Status:         string(models.StatusActive),
	})
	return false, nil
}

// handleSubscriptionUpdated обновляет строку реестра по состоянию из события
// и при смене статуса корректирует роль владельца.
func (s *Service) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) (bool, error) {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return false, fmt.Errorf("%w: %v", models.ErrMalformedPayload, err)
	}

	status, err := models.ParseSubscriptionStatus(sub.Status)
	if err != nil {
		return false, fmt.Errorf("%w: %v", models.ErrMalformedPayload, err)
	}

	upd := models.SubscriptionUpdate{
		Status:            status,
		CurrentPeriodEnd:  periodEndFrom(sub),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	found, err := s.repo.ApplySubscriptionUpdate(ctx, sub.ID, upd, roleFor(status))
	if err != nil {
		return false, err
	}
	if !found {
		s.log.Warn("update event for unknown subscription", "subscription_id", sub.ID)
		return true, nil
	}

	s.log.Info("subscription updated",
		"subscription_id", sub.ID, "status", string(status))
	s.notify(ctx, Event{
		Type:           eventSubscriptionUpdate,
		SubscriptionID: sub.ID,
		Status:         string(status),
	})
	return false, nil
}

// handleSubscriptionDeleted помечает подписку отменённой и сбрасывает
// роль владельца до free.
func (s *Service) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) (bool, error) {
	var sub subscriptionPayload
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return false, fmt.Errorf("%w: %v", models.ErrMalformedPayload, err)
	}

	upd := models.SubscriptionUpdate{Status: models.StatusCanceled}
	found, err := s.repo.ApplySubscriptionUpdate(ctx, sub.ID, upd, models.RoleFree)
	if err != nil {
		return false, err
	}
	if !found {
		s.log.Warn("delete event for unknown subscription", "subscription_id", sub.ID)
		return true, nil
	}

	s.log.Info("subscription deleted", "subscription_id", sub.ID)
	s.notify(ctx, Event{
		Type:           eventSubscriptionDelete,
		SubscriptionID: sub.ID,
		Status:         string(models.StatusCanceled),
	})
	return false, nil
}

// roleFor возвращает роль владельца для нового статуса подписки.
// Пустая роль означает, что статус роль не меняет.
func roleFor(status models.SubscriptionStatus) models.Role {
	switch status {
	case models.StatusActive:
		return models.RolePremium
	case models.StatusCanceled, models.StatusPastDue:
		return models.RoleFree
	default:
		return ""
	}
}

// isSignatureError отличает провал проверки подписи от прочих ошибок
// разбора конверта: подпись проверяется до разбора JSON, поэтому всё
// остальное означает битое тело при корректной подписи.
func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

// periodEndFrom извлекает конец оплаченного периода из тела события.
func periodEndFrom(sub subscriptionPayload) *time.Time {
	ts := sub.CurrentPeriodEnd
	if ts == 0 && len(sub.Items.Data) > 0 {
		ts = sub.Items.Data[0].CurrentPeriodEnd
	}
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
