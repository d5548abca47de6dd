// Package models содержит доменные модели пользователя и подписки,
// закрытые строковые типы для ролей и статусов, а также доменные ошибки.
// Структуры используются в бизнес‑логике и при работе с хранилищем.
package models

import (
	"fmt"
	"time"
)

// Role — роль пользователя в системе. Закрытый набор значений:
// роль назначается биллингом (free/premium) либо вручную (admin),
// напрямую пользователем не редактируется.
type Role string

const (
	// RoleFree — роль по умолчанию после регистрации.
	RoleFree Role = "free"
	// RolePremium — роль пользователя с активной платной подпиской.
	RolePremium Role = "premium"
	// RoleAdmin — служебная роль с полным доступом.
	RoleAdmin Role = "admin"
)

// ParseRole преобразует строку в Role, отклоняя неизвестные значения на границе.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleFree, RolePremium, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role: %q", s)
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	UID              string     // Уникальный идентификатор пользователя (uuid)
	Email            string     // Электронная почта (уникальная)
	PasswordHash     string     // Хэш пароля пользователя
	Role             Role       // Роль пользователя: free, premium или admin
	StripeCustomerID *string    // Идентификатор покупателя в Stripe (nil, пока не создан)
	IsVerified       bool       // Признак подтверждённой почты
	CreatedAt        time.Time  // Дата создания записи
	UpdatedAt        *time.Time // Дата последнего изменения (nil, если не менялась)
}
