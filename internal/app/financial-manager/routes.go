// Package financialmanager предоставляет маршруты для основного приложения.
package financialmanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/admin7club/financial-manager/internal/http/handlers/auth/login"
	"github.com/admin7club/financial-manager/internal/http/handlers/auth/register"
	"github.com/admin7club/financial-manager/internal/http/handlers/catalog/account"
	"github.com/admin7club/financial-manager/internal/http/handlers/catalog/category"
	"github.com/admin7club/financial-manager/internal/http/handlers/catalog/costcenter"
	"github.com/admin7club/financial-manager/internal/http/handlers/catalog/product"
	"github.com/admin7club/financial-manager/internal/http/handlers/catalog/producttype"
	"github.com/admin7club/financial-manager/internal/http/handlers/catalog/supplier"
	"github.com/admin7club/financial-manager/internal/http/handlers/health"
	"github.com/admin7club/financial-manager/internal/http/handlers/license/activate"
	"github.com/admin7club/financial-manager/internal/http/handlers/license/history"
	"github.com/admin7club/financial-manager/internal/http/handlers/license/plans"
	"github.com/admin7club/financial-manager/internal/http/handlers/license/status"
	"github.com/admin7club/financial-manager/internal/http/handlers/payment/checkout"
	"github.com/admin7club/financial-manager/internal/http/handlers/payment/webhook"
	ratelist "github.com/admin7club/financial-manager/internal/http/handlers/rates/list"
	recurrencecreate "github.com/admin7club/financial-manager/internal/http/handlers/recurrence/create"
	"github.com/admin7club/financial-manager/internal/http/handlers/recurrence/generate"
	recurrencelist "github.com/admin7club/financial-manager/internal/http/handlers/recurrence/list"
	recurrenceremove "github.com/admin7club/financial-manager/internal/http/handlers/recurrence/remove"
	"github.com/admin7club/financial-manager/internal/http/handlers/recurrence/toggle"
	recurrenceupdate "github.com/admin7club/financial-manager/internal/http/handlers/recurrence/update"
	"github.com/admin7club/financial-manager/internal/http/handlers/transaction/create"
	"github.com/admin7club/financial-manager/internal/http/handlers/transaction/list"
	"github.com/admin7club/financial-manager/internal/http/handlers/transaction/read"
	"github.com/admin7club/financial-manager/internal/http/handlers/transaction/remove"
	"github.com/admin7club/financial-manager/internal/http/handlers/transaction/stats"
	"github.com/admin7club/financial-manager/internal/http/handlers/transaction/update"
	"github.com/admin7club/financial-manager/internal/http/middlewarectx"
	authservice "github.com/admin7club/financial-manager/internal/services/auth"
	catalogservice "github.com/admin7club/financial-manager/internal/services/catalog"
	licenseservice "github.com/admin7club/financial-manager/internal/services/license"
	paymentservice "github.com/admin7club/financial-manager/internal/services/payment"
	recurrenceservice "github.com/admin7club/financial-manager/internal/services/recurrence"
	transactionservice "github.com/admin7club/financial-manager/internal/services/transaction"
	"github.com/admin7club/financial-manager/internal/storage/repository"
)

// Services объединяет сервисы, необходимые для регистрации маршрутов.
type Services struct {
	Auth        *authservice.AuthService
	License     *licenseservice.LicenseService
	Transaction *transactionservice.TransactionService
	Recurrence  *recurrenceservice.RecurrenceService
	Catalog     *catalogservice.CatalogService
	Payment     *paymentservice.PaymentService
	Rates       *repository.Storage
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
		r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
		r.Get("/license/plans", plans.New(logger, svc.License).ServeHTTP)

		// Webhook платежного провайдера (без аутентификации, с проверкой подписи)
		r.Post("/payments/webhook", webhook.New(logger, svc.Payment).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/license/status", status.New(logger, svc.License).ServeHTTP)
			r.Get("/license/history", history.New(logger, svc.License).ServeHTTP)
			r.Post("/license/activate", activate.New(logger, svc.License).ServeHTTP)
			r.Post("/payments/checkout", checkout.New(logger, svc.Payment).ServeHTTP)
			r.Get("/rates", ratelist.New(logger, svc.Rates).ServeHTTP)

			// Подгруппа, доступная только при действующей лицензии
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.LicenseGuardMiddleware(logger, svc.License))

				r.Post("/transactions", create.New(logger, svc.Transaction).ServeHTTP)
				r.Get("/transactions/list", list.New(logger, svc.Transaction).ServeHTTP)
				r.Get("/transactions/stats", stats.New(logger, svc.Transaction).ServeHTTP)
				r.Get("/transactions/{id}", read.New(logger, svc.Transaction).ServeHTTP)
				r.Put("/transactions/{id}", update.New(logger, svc.Transaction).ServeHTTP)
				r.Delete("/transactions/{id}", remove.New(logger, svc.Transaction).ServeHTTP)

				r.Post("/recurrences", recurrencecreate.New(logger, svc.Recurrence).ServeHTTP)
				r.Get("/recurrences/list", recurrencelist.New(logger, svc.Recurrence).ServeHTTP)
				r.Put("/recurrences/{id}", recurrenceupdate.New(logger, svc.Recurrence).ServeHTTP)
				r.Delete("/recurrences/{id}", recurrenceremove.New(logger, svc.Recurrence).ServeHTTP)
				r.Patch("/recurrences/{id}/active", toggle.New(logger, svc.Recurrence).ServeHTTP)
				r.Post("/recurrences/generate", generate.New(logger, svc.Recurrence).ServeHTTP)

				registerCatalogRoutes(r, logger, svc.Catalog)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", health.New(logger).ServeHTTP)
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

func registerCatalogRoutes(r chi.Router, logger *slog.Logger, svc *catalogservice.CatalogService) {
	accounts := account.New(logger, svc)
	r.Post("/catalog/accounts", accounts.Create)
	r.Get("/catalog/accounts", accounts.List)
	r.Put("/catalog/accounts/{id}", accounts.Update)
	r.Delete("/catalog/accounts/{id}", accounts.Remove)

	categories := category.New(logger, svc)
	r.Post("/catalog/categories", categories.Create)
	r.Get("/catalog/categories", categories.List)
	r.Put("/catalog/categories/{id}", categories.Update)
	r.Delete("/catalog/categories/{id}", categories.Remove)

	costCenters := costcenter.New(logger, svc)
	r.Post("/catalog/cost-centers", costCenters.Create)
	r.Get("/catalog/cost-centers", costCenters.List)
	r.Put("/catalog/cost-centers/{id}", costCenters.Update)
	r.Delete("/catalog/cost-centers/{id}", costCenters.Remove)

	suppliers := supplier.New(logger, svc)
	r.Post("/catalog/suppliers", suppliers.Create)
	r.Get("/catalog/suppliers", suppliers.List)
	r.Put("/catalog/suppliers/{id}", suppliers.Update)
	r.Delete("/catalog/suppliers/{id}", suppliers.Remove)

	productTypes := producttype.New(logger, svc)
	r.Post("/catalog/product-types", productTypes.Create)
	r.Get("/catalog/product-types", productTypes.List)
	r.Put("/catalog/product-types/{id}", productTypes.Update)
	r.Delete("/catalog/product-types/{id}", productTypes.Remove)

	products := product.New(logger, svc)
	r.Post("/catalog/products", products.Create)
	r.Get("/catalog/products", products.List)
	r.Put("/catalog/products/{id}", products.Update)
	r.Delete("/catalog/products/{id}", products.Remove)
}
