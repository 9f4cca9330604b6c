// Package financialmanager собирает и запускает основное HTTP-приложение.
package financialmanager

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/admin7club/financial-manager/internal/cache"
	"github.com/admin7club/financial-manager/internal/config"
	"github.com/admin7club/financial-manager/internal/lib/jwt"
	"github.com/admin7club/financial-manager/internal/migrations"
	"github.com/admin7club/financial-manager/internal/paymentprovider"
	authservice "github.com/admin7club/financial-manager/internal/services/auth"
	catalogservice "github.com/admin7club/financial-manager/internal/services/catalog"
	licenseservice "github.com/admin7club/financial-manager/internal/services/license"
	paymentservice "github.com/admin7club/financial-manager/internal/services/payment"
	recurrenceservice "github.com/admin7club/financial-manager/internal/services/recurrence"
	transactionservice "github.com/admin7club/financial-manager/internal/services/transaction"
	"github.com/admin7club/financial-manager/internal/storage/repository"
)

// App представляет HTTP-приложение финансового менеджера.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
}

// New создает приложение: подключает хранилище и кэш, прогоняет миграции,
// собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.ShopID, cfg.SecretKey, cfg.WebhookSecret)

	authService := authservice.NewAuthService(db, db, jwtMaker, logger)
	licenseService := licenseservice.NewLicenseService(db, db, cacheRedis, logger)
	transactionService := transactionservice.NewTransactionService(db, licenseService, cacheRedis, logger)
	recurrenceService := recurrenceservice.NewRecurrenceService(db, logger)
	catalogService := catalogservice.NewCatalogService(db, licenseService, logger)
	paymentService := paymentservice.New(db, licenseService, providerClient, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:        authService,
		License:     licenseService,
		Transaction: transactionService,
		Recurrence:  recurrenceService,
		Catalog:     catalogService,
		Payment:     paymentService,
		Rates:       db,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и корректно останавливает его по отмене контекста.
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
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}
