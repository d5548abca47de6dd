// Package membershipservice собирает приложение: хранилище, сервисы,
// маршруты и HTTP-сервер.
package membershipservice

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	adminhealth "github.com/magabrotheeeer/membership-service/internal/http/handlers/admin/health"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/admin/setrole"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/billing/cancel"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/billing/checkoutconfirm"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/billing/checkoutstart"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/membership-service/internal/http/handlers/premium/data"
	"github.com/magabrotheeeer/membership-service/internal/http/middlewarectx"
	"github.com/magabrotheeeer/membership-service/internal/models"
	accessservice "github.com/magabrotheeeer/membership-service/internal/services/access"
	authservice "github.com/magabrotheeeer/membership-service/internal/services/auth"
	billingservice "github.com/magabrotheeeer/membership-service/internal/services/billing"
	"github.com/magabrotheeeer/membership-service/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger,
	store *repository.Storage,
	authService *authservice.Service,
	accessService *accessservice.Service,
	billingService *billingservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)

		// Webhook endpoint (без аутентификации, подпись проверяет сервис)
		r.Post("/billing/webhook", webhook.New(logger, billingService).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/logout", logout.New(logger).ServeHTTP)
			r.Get("/me", me.New(logger, accessService, store).ServeHTTP)
			r.Post("/billing/checkout", checkoutstart.New(logger, billingService).ServeHTTP)
			r.Post("/billing/checkout/confirm", checkoutconfirm.New(logger, billingService).ServeHTTP)
			r.Post("/billing/cancel", cancel.New(logger, billingService).ServeHTTP)

			// Премиум-контент за дополнительной проверкой подписки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.PremiumGateMiddleware(logger, accessService, store))
				r.Get("/premium/data", data.New(logger).ServeHTTP)
			})

			// Административные конечные точки
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRoleMiddleware(logger, accessService, models.RoleAdmin))
				r.Get("/admin/health", adminhealth.New(logger, store).ServeHTTP)
				r.Put("/admin/users/{uid}/role", setrole.New(logger, store).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
