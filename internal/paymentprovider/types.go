// Package paymentprovider содержит клиент платёжного процессора Stripe.
//
// Клиент оборачивает вызовы SDK в доменные типы и ошибки; системой записи
// о подписках остаётся Stripe, локальный реестр лишь зеркалирует его
// по webhook-событиям.
package paymentprovider

import "time"

// Customer — покупатель в Stripe.
type Customer struct {
	ID    string // Идентификатор cus_...
	Email string
}

// CheckoutSession — сессия оплаты, размещённая у процессора.
type CheckoutSession struct {
	ID             string // Идентификатор cs_...
	URL            string // Адрес страницы оплаты у процессора
	CustomerID     string // Покупатель, которому принадлежит сессия
	SubscriptionID string // Подписка, созданная по итогам сессии (может быть пустой)
}

// Subscription — подписка по данным процессора.
type Subscription struct {
	ID                string // Идентификатор sub_...
	CustomerID        string
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  *time.Time // Конец оплаченного периода (nil, если не сообщён)
}

// CheckoutParams — параметры создания checkout-сессии.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string // user_uid и plan для последующей сверки
}
