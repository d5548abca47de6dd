package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-service/internal/http/response"
	"github.com/magabrotheeeer/membership-service/internal/lib/sl"
	"github.com/magabrotheeeer/membership-service/internal/models"
)

// AccessService описывает интерфейс сервиса проверки прав доступа.
type AccessService interface {
	RequireRole(user *models.User, allowed ...models.Role) error
}

// RequireRoleMiddleware создает middleware, пропускающий только пользователей
// с одной из перечисленных ролей. Требует предварительного JWTMiddleware.
func RequireRoleMiddleware(log *slog.Logger, accessService AccessService, allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			if err := accessService.RequireRole(user, allowed...); err != nil {
				log.Error("access denied", sl.Err(err))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("access denied"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
