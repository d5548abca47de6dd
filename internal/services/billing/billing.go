// Package billing реализует платежную логику: запуск и подтверждение
// checkout-сессий, отмену подписки в конце периода и сверку локального
// реестра подписок с состоянием Stripe по входящим вебхукам.
package billing

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/membership-service/internal/models"
	"github.com/magabrotheeeer/membership-service/internal/paymentprovider"
)

// Repo описывает операции хранилища, необходимые платежному сервису.
type Repo interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userUID, customerID string) error
	ActiveSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error)
	SetCancelAtPeriodEnd(ctx context.Context, subscriptionID int64, flag bool) error
	ApplyCheckoutCompleted(ctx context.Context, userUID, externalID string,
		plan models.Plan, periodEnd *time.Time, role models.Role) error
	ApplySubscriptionUpdate(ctx context.Context, externalID string,
		upd models.SubscriptionUpdate, newRole models.Role) (bool, error)
}

// Provider описывает операции платежного провайдера.
type Provider interface {
	CreateCustomer(ctx context.Context, email, userUID string) (*paymentprovider.Customer, error)
	CreateCheckoutSession(ctx context.Context, p paymentprovider.CheckoutParams) (*paymentprovider.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*paymentprovider.CheckoutSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*paymentprovider.Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}

// Notifier публикует события биллинга во внешнюю шину сообщений.
type Notifier interface {
	PublishMessage(ctx context.Context, body any) error
}

// Event описывает событие биллинга, публикуемое после успешной сверки.
type Event struct {
	Type           string `json:"type"`
	UserUID        string `json:"user_uid,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Status         string `json:"status,omitempty"`
}

// Config задает параметры платежного сервиса.
type Config struct {
	MonthlyPriceID string
	AnnualPriceID  string
	BaseURL        string
	WebhookSecret  string
}

// Service реализует платежную логику поверх хранилища и провайдера.
type Service struct {
	log      *slog.Logger
	repo     Repo
	provider Provider
	notifier Notifier
	cfg      Config
}

// New создает новый платежный сервис. Notifier может быть nil, тогда
// события биллинга никуда не публикуются.
func New(log *slog.Logger, repo Repo, provider Provider, notifier Notifier, cfg Config) *Service {
	return &Service{
		log:      log,
		repo:     repo,
		provider: provider,
		notifier: notifier,
		cfg:      cfg,
	}
}

// notify публикует событие в шину, не влияя на результат сверки:
// сбой публикации только логируется.
func (s *Service) notify(ctx context.Context, event Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.PublishMessage(ctx, event); err != nil {
		s.log.Warn("failed to publish billing event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()))
	}
}
