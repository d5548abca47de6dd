// Package access реализует проверки прав доступа: требования к роли
// пользователя и вычисление премиум-статуса по роли и последней подписке.
package access

import (
	"fmt"

	"github.com/magabrotheeeer/membership-service/internal/models"
)

// Service выполняет проверки доступа. Состояния у сервиса нет,
// все решения принимаются по переданным данным.
type Service struct{}

// New создает новый сервис проверки доступа.
func New() *Service {
	return &Service{}
}

// RequireRole проверяет, что роль пользователя входит в список разрешенных.
// Возвращает ErrForbidden, если ни одна роль не совпала.
func (s *Service) RequireRole(user *models.User, allowed ...models.Role) error {
	const op = "services.access.RequireRole"

	for _, role := range allowed {
		if user.Role == role {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", op, models.ErrForbidden)
}

// IsPremium возвращает true, если пользователь имеет премиум-доступ.
//
// Доступ дает либо роль premium или admin, либо активная последняя подписка.
// Проверки независимы: админ без подписок остается премиумом, а пользователь
// с ролью free и активной подпиской тоже проходит (роль могла еще не
// обновиться после вебхука).
func (s *Service) IsPremium(user *models.User, latest *models.Subscription) bool {
	if user.Role == models.RolePremium || user.Role == models.RoleAdmin {
		return true
	}
	return latest != nil && latest.Status == models.StatusActive
}
