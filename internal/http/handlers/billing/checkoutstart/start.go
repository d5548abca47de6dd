package checkoutstart

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
	"github.com/magabrotheeeer/membership-service/internal/metrics"
	"github.com/magabrotheeeer/membership-service/internal/models"
	"github.com/magabrotheeeer/membership-service/internal/paymentprovider"
)

// Request — входные данные для запуска оплаты
type Request struct {
	Plan string `json:"plan" validate:"required,oneof=monthly annual"`
}

// BillingService описывает интерфейс платежного сервиса.
type BillingService interface {
	StartCheckout(ctx context.Context, user *models.User, planName string) (*paymentprovider.CheckoutSession, error)
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

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkoutstart"

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

	session, err := h.billingService.StartCheckout(r.Context(), user, req.Plan)
	if err != nil {
		metrics.CheckoutSessionsTotal.WithLabelValues("error").Inc()
		switch {
		case errors.Is(err, models.ErrInvalidPlan):
			log.Error("unknown plan", slog.String("plan", req.Plan))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown plan"))
		default:
			log.Error("failed to start checkout", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to start checkout"))
		}
		return
	}
	metrics.CheckoutSessionsTotal.WithLabelValues("ok").Inc()

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"session_id":   session.ID,
		"checkout_url": session.URL,
	}))
}
