package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-service/internal/http/response"
	"github.com/magabrotheeeer/membership-service/internal/lib/sl"
	"github.com/magabrotheeeer/membership-service/internal/metrics"
	"github.com/magabrotheeeer/membership-service/internal/models"
	"github.com/magabrotheeeer/membership-service/internal/services/billing"
)

// maxBodyBytes ограничивает размер тела вебхука, рекомендация Stripe.
const maxBodyBytes = 65536

// BillingService описывает интерфейс сверки реестра по вебхукам.
type BillingService interface {
	ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) (billing.WebhookResult, error)
}

type Handler struct {
	log            *slog.Logger
	billingService BillingService
}

func New(log *slog.Logger, billingService BillingService) *Handler {
	return &Handler{log: log, billingService: billingService}
}

// ServeHTTP принимает вебхук Stripe. Событие с невалидной подписью или
// нечитаемым телом отклоняется со статусом 400, сбой применения отдает 500,
// чтобы Stripe повторил доставку. Успешные и проигнорированные события
// подтверждаются статусом 200.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "read_error").Inc()
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read request body"))
		return
	}

	start := time.Now()
	result, err := h.billingService.ProcessWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if result.EventType != "" {
		metrics.WebhookDuration.WithLabelValues(result.EventType).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidSignature):
			log.Error("webhook signature verification failed", sl.Err(err))
			metrics.WebhookEventsTotal.WithLabelValues("unknown", "invalid_signature").Inc()
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid signature"))
		case errors.Is(err, models.ErrMalformedPayload):
			log.Error("webhook payload malformed", sl.Err(err))
			metrics.WebhookEventsTotal.WithLabelValues(result.EventType, "malformed").Inc()
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("malformed payload"))
		default:
			log.Error("webhook processing failed", sl.Err(err))
			metrics.WebhookEventsTotal.WithLabelValues(result.EventType, "error").Inc()
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to process event"))
		}
		return
	}

	outcome := "ok"
	if result.Ignored {
		outcome = "ignored"
	}
	metrics.WebhookEventsTotal.WithLabelValues(result.EventType, outcome).Inc()

	log.Info("webhook processed",
		slog.String("event_type", result.EventType),
		slog.String("outcome", outcome))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"received": true,
	}))
}
