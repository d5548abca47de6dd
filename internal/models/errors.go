package models

import "errors"

// Доменные ошибки сервиса. Обработчики HTTP отображают их в статусы ответов,
// бизнес-логика оборачивает через fmt.Errorf("%s: %w", op, err).
var (
	// ErrUnauthenticated — запрос без токена.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidToken — подпись токена не прошла проверку.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken — срок действия токена истёк.
	ErrExpiredToken = errors.New("token expired")
	// ErrForbidden — роли или подписки недостаточно для доступа.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidSignature — подпись webhook-события не прошла проверку.
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedPayload — тело webhook-события не удалось разобрать.
	ErrMalformedPayload = errors.New("malformed webhook payload")

	// ErrPaymentProvider — ошибка на стороне платёжного процессора.
	ErrPaymentProvider = errors.New("payment provider error")
	// ErrConfiguration — отсутствует обязательная настройка (например, price id).
	ErrConfiguration = errors.New("configuration error")

	// ErrUserNotFound — пользователь не найден.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists — пользователь с такой почтой уже зарегистрирован.
	ErrUserExists = errors.New("user already exists")
	// ErrSubscriptionNotFound — запись подписки не найдена.
	ErrSubscriptionNotFound = errors.New("subscription not found")
	// ErrNoActiveSubscription — у пользователя нет активной подписки.
	ErrNoActiveSubscription = errors.New("no active subscription")

	// ErrInvalidPlan — неизвестный тарифный план.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrInvalidSession — процессор не смог найти сессию оплаты.
	ErrInvalidSession = errors.New("invalid checkout session")
	// ErrSessionMismatch — сессия оплаты принадлежит другому покупателю.
	ErrSessionMismatch = errors.New("checkout session customer mismatch")
)
