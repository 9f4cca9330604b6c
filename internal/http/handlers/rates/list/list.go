// Package list реализует HTTP-обработчик получения курсов валют.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/admin7club/financial-manager/internal/http/response"
	"github.com/admin7club/financial-manager/internal/lib/sl"
	"github.com/admin7club/financial-manager/internal/models"
)

// Handler обрабатывает запросы на получение курсов валют.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс хранилища курсов валют.
type Service interface {
	ListExchangeRates(ctx context.Context) ([]*models.ExchangeRate, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Курсы валют
// @Description Возвращает последние сохраненные курсы валют к BRL.
// @Tags Rates
// @Produce  json
// @Success 200 {object} map[string]any "Курсы валют"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /rates [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rates.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.ListExchangeRates(r.Context())
	if err != nil {
		log.Error("failed to list exchange rates", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list exchange rates"))
		return
	}

	log.Info("success to list exchange rates", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"rates": res,
	}))
}
