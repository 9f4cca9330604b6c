// Package generate реализует HTTP-обработчик ручного запуска обхода правил.
// Основной запуск идет из планировщика; ручной нужен админу для наката
// пропущенных генераций без ожидания следующего тика.
package generate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/admin7club/financial-manager/internal/http/middlewarectx"
	"github.com/admin7club/financial-manager/internal/http/response"
	"github.com/admin7club/financial-manager/internal/lib/sl"
	recurrenceservice "github.com/admin7club/financial-manager/internal/services/recurrence"
)

// Handler обрабатывает запросы на ручной запуск обхода правил.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс обхода правил повторения.
type Service interface {
	GenerateDue(ctx context.Context, today time.Time) (recurrenceservice.SweepResult, error)
}

// New создает новый Handler с переданным логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Запустить обход правил повторения
// @Description Обходит правила с наступившей датой и генерирует записи. Доступно только администратору.
// @Tags Recurrences
// @Produce  json
// @Success 200 {object} map[string]any "Итог обхода"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /recurrences/generate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recurrence.generate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	role, ok := r.Context().Value(middlewarectx.Role).(string)
	if !ok || role != "admin" {
		log.Error("manual sweep requires admin role")
		w.WriteHeader(http.StatusForbidden)
		render.JSON(w, r, response.Error("admin role required"))
		return
	}

	result, err := h.service.GenerateDue(r.Context(), time.Now().UTC())
	if err != nil {
		log.Error("failed to run recurrence sweep", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not run recurrence sweep"))
		return
	}

	log.Info("success to run recurrence sweep",
		slog.Int("generated", result.Generated),
		slog.Int("deactivated", result.Deactivated))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"evaluated":   result.Evaluated,
		"generated":   result.Generated,
		"deactivated": result.Deactivated,
		"skipped":     result.Skipped,
		"failed":      result.Failed,
	}))
}
