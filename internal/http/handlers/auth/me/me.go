package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-service/internal/http/middlewarectx"
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

type Handler struct {
	log     *slog.Logger
	checker PremiumChecker
	repo    SubscriptionRepo
}

func New(log *slog.Logger, checker PremiumChecker, repo SubscriptionRepo) *Handler {
	return &Handler{log: log, checker: checker, repo: repo}
}

// ServeHTTP возвращает профиль текущего пользователя вместе с вычисленным
// премиум-статусом и последней подпиской, если она есть.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user identification missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("user identification missing"))
		return
	}

	latest, err := h.repo.LatestSubscriptionByUser(r.Context(), user.UID)
	if err != nil && !errors.Is(err, models.ErrSubscriptionNotFound) {
		log.Error("failed to get latest subscription", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal service error"))
		return
	}

	data := map[string]any{
		"uid":        user.UID,
		"email":      user.Email,
		"role":       string(user.Role),
		"is_premium": h.checker.IsPremium(user, latest),
	}
	if latest != nil {
		sub := map[string]any{
			"status":               string(latest.Status),
			"plan":                 string(latest.PlanName),
			"cancel_at_period_end": latest.CancelAtPeriodEnd,
		}
		if latest.CurrentPeriodEnd != nil {
			sub["current_period_end"] = latest.CurrentPeriodEnd.UTC().Format(time.RFC3339)
		}
		data["subscription"] = sub
	}

	render.JSON(w, r, response.StatusOKWithData(data))
}
