package membershipservice

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/membership-service/internal/config"
	"github.com/magabrotheeeer/membership-service/internal/lib/jwt"
	"github.com/magabrotheeeer/membership-service/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/membership-service/internal/lib/sl"
	"github.com/magabrotheeeer/membership-service/internal/migrations"
	"github.com/magabrotheeeer/membership-service/internal/paymentprovider"
	accessservice "github.com/magabrotheeeer/membership-service/internal/services/access"
	authservice "github.com/magabrotheeeer/membership-service/internal/services/auth"
	billingservice "github.com/magabrotheeeer/membership-service/internal/services/billing"
	"github.com/magabrotheeeer/membership-service/internal/storage/repository"
)

type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	publisher *rabbitmq.Publisher
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	var publisher *rabbitmq.Publisher
	if cfg.AddressAMQP != "" {
		publisher, err = rabbitmq.New(cfg.AddressAMQP, cfg.Exchange, cfg.RoutingKey)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Info("AMQP address is empty, billing events will not be published")
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.SecretKey)

	authService := authservice.New(db, jwtMaker)
	accessService := accessservice.New()

	var notifier billingservice.Notifier
	if publisher != nil {
		notifier = publisher
	}
	billingService := billingservice.New(logger, db, providerClient, notifier, billingservice.Config{
		MonthlyPriceID: cfg.MonthlyPriceID,
		AnnualPriceID:  cfg.AnnualPriceID,
		BaseURL:        cfg.BaseURL,
		WebhookSecret:  cfg.WebhookSecret,
	})

	router := chi.NewRouter()
	RegisterRoutes(router, logger, db, authService, accessService, billingService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		publisher: publisher,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.publisher != nil {
			if closeErr := a.publisher.Close(); closeErr != nil {
				a.logger.Error("failed to close AMQP publisher", sl.Err(closeErr))
			}
		}
		a.db.DB.Close()
		return err
	}
}
