package checkoutconfirm

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/membership-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-service/internal/http/response"
	"github.com/magabrotheeeer/membership-service/internal/lib/sl"
	"github.com/magabrotheeeer/membership-service/internal/models"
)

// Request — входные данные для подтверждения оплаты
type Request struct {
	SessionID string `json:"session_id" validate:"required"`
}

// BillingService описывает интерфейс платежного сервиса.
type BillingService interface {
	ConfirmCheckout(ctx context.Context, user *models.User, sessionID string) error
}

type Handler struct {
	log            *slog.Logger
	billingService BillingService
	validate       *validator.Validate
}

func New(log *slog.Logger, billingService BillingService) *Handler {
	return &Handler{
		log:            log,
		billingService: billingService,
		validate:       validator.New(),
	}
}

// ServeHTTP подтверждает возврат пользователя со страницы оплаты. Проверяется
// только принадлежность сессии, реестр подписок меняет вебхук.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkoutconfirm"

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

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.billingService.ConfirmCheckout(r.Context(), user, req.SessionID); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidSession):
			log.Error("unknown checkout session", slog.String("session_id", req.SessionID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown checkout session"))
		case errors.Is(err, models.ErrSessionMismatch):
			log.Error("checkout session belongs to another user", slog.String("session_id", req.SessionID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("checkout session belongs to another user"))
		default:
			log.Error("failed to confirm checkout", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to confirm checkout"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "checkout confirmed",
	}))
}
