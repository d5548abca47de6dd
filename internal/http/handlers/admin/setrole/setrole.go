package setrole

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/membership-service/internal/http/response"
	"github.com/magabrotheeeer/membership-service/internal/lib/sl"
	"github.com/magabrotheeeer/membership-service/internal/models"
)

// Request — входные данные для смены роли
type Request struct {
	Role string `json:"role" validate:"required,oneof=free premium admin"`
}

// UserRepo описывает операцию смены роли в хранилище.
type UserRepo interface {
	UpdateUserRole(ctx context.Context, userUID string, role models.Role) error
}

type Handler struct {
	log      *slog.Logger
	repo     UserRepo
	validate *validator.Validate
}

func New(log *slog.Logger, repo UserRepo) *Handler {
	return &Handler{
		log:      log,
		repo:     repo,
		validate: validator.New(),
	}
}

// ServeHTTP назначает пользователю новую роль. Маршрут доступен только
// администраторам через RequireRoleMiddleware.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.setrole"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID := chi.URLParam(r, "uid")
	if userUID == "" {
		log.Error("missing user uid")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing user uid"))
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

	role, err := models.ParseRole(req.Role)
	if err != nil {
		log.Error("unknown role", slog.String("role", req.Role))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown role"))
		return
	}

	if err := h.repo.UpdateUserRole(r.Context(), userUID, role); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			log.Error("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to update role", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update role"))
		return
	}

	log.Info("role updated", slog.String("user_uid", userUID), slog.String("role", req.Role))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user_uid": userUID,
		"role":     req.Role,
	}))
}
