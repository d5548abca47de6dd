package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-service/internal/http/response"
	"github.com/magabrotheeeer/membership-service/internal/lib/sl"
	"github.com/magabrotheeeer/membership-service/internal/models"
)

// PremiumChecker описывает интерфейс вычисления премиум-статуса.
type PremiumChecker interface {
	IsPremium(user *models.User, latest *models.Subscription) bool
}

// SubscriptionRepo описывает чтение последней подписки пользователя.
type SubscriptionRepo interface {
	LatestSubscriptionByUser(ctx context.Context, userUID string) (*models.Subscription, error)
}

// PremiumGateMiddleware создает middleware, пропускающий только пользователей
// с премиум-доступом: по роли либо по активной последней подписке.
// Требует предварительного JWTMiddleware.
func PremiumGateMiddleware(log *slog.Logger, checker PremiumChecker, repo SubscriptionRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				log.Error("user identification missing")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("user identification missing"))
				return
			}

			latest, err := repo.LatestSubscriptionByUser(r.Context(), user.UID)
			if err != nil && !errors.Is(err, models.ErrSubscriptionNotFound) {
				log.Error("failed to get latest subscription", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal service error"))
				return
			}

			if !checker.IsPremium(user, latest) {
				log.Error("premium access denied", slog.String("user_uid", user.UID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("premium subscription required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
