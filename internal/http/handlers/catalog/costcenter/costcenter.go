// Package costcenter реализует HTTP-обработчики справочника центров затрат.
package costcenter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/admin7club/financial-manager/internal/http/middlewarectx"
	"github.com/admin7club/financial-manager/internal/http/response"
	"github.com/admin7club/financial-manager/internal/lib/sl"
	"github.com/admin7club/financial-manager/internal/models"
)

// Handler обрабатывает запросы к справочнику центров затрат.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики справочника центров затрат.
type Service interface {
	CreateCostCenter(ctx context.Context, userUID string, req models.DummyCostCenter) (string, error)
	ListCostCenters(ctx context.Context, userUID string) ([]*models.CostCenter, error)
	UpdateCostCenter(ctx context.Context, req models.DummyCostCenter, id, userUID string) (int, error)
	RemoveCostCenter(ctx context.Context, id, userUID string) (int, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// Create godoc
// @Summary Создать центр затрат
// @Tags Catalog
// @Accept  json
// @Produce  json
// @Param request body models.DummyCostCenter true "Данные центра затрат"
// @Success 200 {object} map[string]any "ID созданного центра затрат"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /catalog/cost-centers [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.costcenter.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCostCenter
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	id, err := h.service.CreateCostCenter(r.Context(), userUID, req)
	if err != nil {
		log.Error("failed to create cost center", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create cost center"))
		return
	}

	log.Info("success to create cost center", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"last_added_id": id,
	}))
}

// List godoc
// @Summary Список центров затрат
// @Tags Catalog
// @Produce  json
// @Success 200 {object} map[string]any "Список центров затрат"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /catalog/cost-centers [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.costcenter.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.ListCostCenters(r.Context(), userUID)
	if err != nil {
		log.Error("failed to list cost centers", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list cost centers"))
		return
	}

	log.Info("success to list cost centers", slog.Int("count", len(res)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"cost_centers": res,
	}))
}

// Update godoc
// @Summary Обновить центр затрат
// @Tags Catalog
// @Accept  json
// @Produce  json
// @Param id path string true "ID центра затрат"
// @Param request body models.DummyCostCenter true "Новые данные"
// @Success 200 {object} map[string]any "Количество обновленных записей"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /catalog/cost-centers/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.costcenter.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyCostCenter
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	id := chi.URLParam(r, "id")
	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	count, err := h.service.UpdateCostCenter(r.Context(), req, id, userUID)
	if err != nil {
		log.Error("failed to update cost center", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not update cost center"))
		return
	}

	log.Info("success to update cost center", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"updated_count": count,
	}))
}

// Remove godoc
// @Summary Удалить центр затрат
// @Tags Catalog
// @Produce  json
// @Param id path string true "ID центра затрат"
// @Success 200 {object} map[string]any "Количество удаленных записей"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /catalog/cost-centers/{id} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.costcenter.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	count, err := h.service.RemoveCostCenter(r.Context(), id, userUID)
	if err != nil {
		log.Error("failed to remove cost center", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove cost center"))
		return
	}

	log.Info("success to remove cost center", slog.String("id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"removed_count": count,
	}))
}
