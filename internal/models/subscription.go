package models

import (
	"fmt"
	"time"
)

// SubscriptionStatus — статус подписки, зеркало состояния в Stripe.
// Переходы между статусами управляются исключительно событиями процессора.
type SubscriptionStatus string

const (
	// StatusActive — подписка оплачена и действует.
	StatusActive SubscriptionStatus = "active"
	// StatusCanceled — подписка отменена.
	StatusCanceled SubscriptionStatus = "canceled"
	// StatusPastDue — платёж просрочен.
	StatusPastDue SubscriptionStatus = "past_due"
	// StatusTrialing — пробный период.
	StatusTrialing SubscriptionStatus = "trialing"
	// StatusIncomplete — оформление не завершено.
	StatusIncomplete SubscriptionStatus = "incomplete"
)

// ParseSubscriptionStatus преобразует строку в SubscriptionStatus,
// отклоняя неизвестные значения на границе десериализации.
func ParseSubscriptionStatus(s string) (SubscriptionStatus, error) {
	switch SubscriptionStatus(s) {
	case StatusActive, StatusCanceled, StatusPastDue, StatusTrialing, StatusIncomplete:
		return SubscriptionStatus(s), nil
	}
	return "", fmt.Errorf("unknown subscription status: %q", s)
}

// Plan — тарифный план подписки. Закрытый набор значений.
type Plan string

const (
	// PlanMonthly — помесячная оплата.
	PlanMonthly Plan = "monthly"
	// PlanAnnual — годовая оплата.
	PlanAnnual Plan = "annual"
)

// ParsePlan преобразует строку в Plan, отклоняя неизвестные значения.
func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case PlanMonthly, PlanAnnual:
		return Plan(s), nil
	}
	return "", fmt.Errorf("unknown plan: %q", s)
}

// Subscription — локальная запись о подписке пользователя.
// Таблица является зеркалом состояния Stripe, а не источником истины:
// записи никогда не удаляются, только помечаются отменёнными.
type Subscription struct {
	ID                   int64               // Монотонный ключ упорядочивания (bigserial)
	UserUID              string              // Владелец подписки
	StripeSubscriptionID *string             // Идентификатор подписки в Stripe (уникальный)
	Status               SubscriptionStatus  // Текущий статус
	PlanName             Plan                // Тарифный план
	CurrentPeriodEnd     *time.Time          // Конец оплаченного периода
	CancelAtPeriodEnd    bool                // Отмена в конце периода
	CreatedAt            time.Time           // Дата создания записи
	UpdatedAt            *time.Time          // Дата последнего изменения
}

// SubscriptionUpdate описывает изменяемые поля подписки при сверке
// с событием процессора. Nil‑поля события не трогают локальное значение.
type SubscriptionUpdate struct {
	Status            SubscriptionStatus // Новый статус
	CurrentPeriodEnd  *time.Time         // Конец периода (nil — не менять)
	CancelAtPeriodEnd *bool              // Флаг отмены (nil — не менять)
}
