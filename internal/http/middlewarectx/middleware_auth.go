// Package middlewarectx содержит HTTP middleware для проверки сессии
// и прав доступа.
//
// JWTMiddleware проверяет JWT из заголовка Authorization или из cookie
// сессии, перечитывает пользователя из хранилища и кладет его в контекст
// запроса для дальнейшего использования в обработчиках.
//
// В случае ошибки проверки возвращает HTTP 401 Unauthorized с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-service/internal/http/response"
	"github.com/magabrotheeeer/membership-service/internal/lib/sl"
	"github.com/magabrotheeeer/membership-service/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// User — ключ для текущего пользователя в контексте.
const User Key = "user"

// SessionCookie — имя cookie с токеном сессии.
const SessionCookie = "access_token"

// AuthService описывает интерфейс сервиса для разбора токена сессии.
type AuthService interface {
	ResolveUser(ctx context.Context, token string) (*models.User, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет токен сессии.
//
// Токен берется из заголовка Authorization (Bearer), а при его отсутствии
// из cookie сессии. Если токен валиден, пользователь из хранилища кладется
// в контекст запроса, иначе возвращается HTTP 401 Unauthorized.
func JWTMiddleware(authService AuthService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := tokenFromRequest(r)
			if token == "" {
				log.Error("missing session token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing session token"))
				return
			}

			user, err := authService.ResolveUser(r.Context(), token)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), User, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext возвращает текущего пользователя, положенного в контекст
// JWTMiddleware. Второе значение false означает, что запрос не прошел
// аутентификацию.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(User).(*models.User)
	return user, ok && user != nil
}

// tokenFromRequest извлекает токен сессии из заголовка Authorization,
// а при его отсутствии из cookie.
func tokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}
