package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/membership-service/internal/http/response"
	"github.com/magabrotheeeer/membership-service/internal/lib/sl"
	"github.com/magabrotheeeer/membership-service/internal/storage/repository"
)

type Handler struct {
	log     *slog.Logger
	storage *repository.Storage
}

func New(log *slog.Logger, storage *repository.Storage) *Handler {
	return &Handler{log: log, storage: storage}
}

// ServeHTTP проверяет готовность базы данных. Маршрут доступен только
// администраторам через RequireRoleMiddleware.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.health"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := repository.CheckDatabaseReady(h.storage); err != nil {
		log.Error("database is not ready", sl.Err(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database is not ready"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"database": "ready",
	}))
}
