// Package webhook реализует HTTP-обработчик уведомлений платежного провайдера.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/admin7club/financial-manager/internal/http/response"
	"github.com/admin7club/financial-manager/internal/lib/sl"
	"github.com/admin7club/financial-manager/internal/paymentprovider"
	paymentservice "github.com/admin7club/financial-manager/internal/services/payment"
)

// Handler обрабатывает входящие уведомления о платежах.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс обработки уведомлений провайдера.
type Service interface {
	HandleWebhook(ctx context.Context, notification paymentprovider.WebhookNotification) error
	VerifySignature(body []byte, signature string) bool
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Вебхук платежного провайдера
// @Description Принимает уведомление о смене статуса платежа. Подпись проверяется по сырому телу запроса.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Success 200 {object} response.Response "Уведомление обработано"
// @Failure 400 {object} response.ErrorResponse "Некорректное уведомление"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 404 {object} response.ErrorResponse "Платеж не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	signature := r.Header.Get("X-Webhook-Signature")
	if !h.service.VerifySignature(body, signature) {
		log.Error("webhook signature mismatch")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var notification paymentprovider.WebhookNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		log.Error("failed to decode notification", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid notification body"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), notification); err != nil {
		if errors.Is(err, paymentservice.ErrUnknownPayment) {
			log.Error("unknown payment in notification", slog.String("provider_id", notification.Object.ID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("unknown payment"))
			return
		}
		log.Error("failed to handle webhook", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not handle notification"))
		return
	}

	log.Info("success to handle webhook", slog.String("event", notification.Event))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"event": notification.Event,
	}))
}
