// Package payment содержит бизнес-логику оплаты тарифных планов через
// внешнего платёжного провайдера.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/admin7club/financial-manager/internal/lib/sl"
	"github.com/admin7club/financial-manager/internal/models"
	"github.com/admin7club/financial-manager/internal/paymentprovider"
)

// ErrUnknownPayment возвращается для уведомления о неизвестном платеже.
var ErrUnknownPayment = errors.New("unknown payment")

// PaymentRepository описывает операции хранилища над платежами.
type PaymentRepository interface {
	CreateCheckoutPayment(ctx context.Context, p models.CheckoutPayment) (string, error)
	GetPaymentByProviderID(ctx context.Context, providerID string) (*models.CheckoutPayment, error)
	UpdatePaymentStatus(ctx context.Context, providerID, status string) error
	GetPlan(ctx context.Context, id string) (*models.Plan, error)
}

// LicenseActivator активирует лицензию по оплаченному плану.
type LicenseActivator interface {
	Activate(ctx context.Context, userUID string, req models.DummyActivateLicense) (*models.LicenseInfo, error)
}

// Provider описывает клиент платёжного провайдера.
type Provider interface {
	CreatePayment(reqParams paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error)
	VerifyWebhookSignature(body []byte, signature string) bool
}

// PaymentService создает платежи за планы и обрабатывает уведомления провайдера.
type PaymentService struct {
	repo     PaymentRepository
	licenses LicenseActivator
	provider Provider
	log      *slog.Logger
}

// New создает новый экземпляр PaymentService.
func New(repo PaymentRepository, licenses LicenseActivator, provider Provider, log *slog.Logger) *PaymentService {
	return &PaymentService{
		repo:     repo,
		licenses: licenses,
		provider: provider,
		log:      log,
	}
}

// Checkout создает платёж за тарифный план у провайдера и сохраняет его
// в статусе pending. Возвращает URL подтверждения оплаты.
func (s *PaymentService) Checkout(ctx context.Context, userUID string, req models.DummyCheckout) (string, error) {
	plan, err := s.repo.GetPlan(ctx, req.PlanID)
	if err != nil {
		return "", err
	}
	currency := req.Currency
	if currency == "" {
		currency = "BRL"
	}
	amount := plan.PriceBRL
	if currency == "USD" {
		amount = plan.PriceUSD
	}

	providerReq := paymentprovider.CreatePaymentRequest{
		Amount: paymentprovider.Amount{
			Value:    strconv.FormatFloat(amount, 'f', 2, 64),
			Currency: currency,
		},
		Capture:     true,
		Description: fmt.Sprintf("Plan %s", plan.Name),
		Metadata: map[string]string{
			"user_uid": userUID,
			"plan_id":  plan.ID,
		},
	}
	providerReq.Confirmation.Type = "redirect"

	resp, err := s.provider.CreatePayment(providerReq)
	if err != nil {
		return "", fmt.Errorf("failed to create payment: %w", err)
	}

	payment := models.CheckoutPayment{
		UserUID:    userUID,
		PlanID:     plan.ID,
		ProviderID: resp.ID,
		Status:     models.PaymentPending,
		Amount:     amount,
		Currency:   currency,
	}
	if _, err := s.repo.CreateCheckoutPayment(ctx, payment); err != nil {
		return "", err
	}
	s.log.Info("created checkout payment",
		slog.String("user_uid", userUID),
		slog.String("provider_id", resp.ID),
		slog.String("plan", plan.Name))
	return resp.Confirmation.ConfirmationURL, nil
}

// HandleWebhook обрабатывает уведомление провайдера. Успешная оплата
// переводит платёж в succeeded и активирует лицензию по оплаченному плану.
// Повторное уведомление об уже обработанном платеже игнорируется.
func (s *PaymentService) HandleWebhook(ctx context.Context, notification paymentprovider.WebhookNotification) error {
	payment, err := s.repo.GetPaymentByProviderID(ctx, notification.Object.ID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownPayment, notification.Object.ID)
	}
	if payment.Status != models.PaymentPending {
		s.log.Info("payment already processed, skipping",
			slog.String("provider_id", payment.ProviderID),
			slog.String("status", payment.Status))
		return nil
	}

	switch notification.Event {
	case paymentprovider.EventPaymentSucceeded:
		if err := s.repo.UpdatePaymentStatus(ctx, payment.ProviderID, models.PaymentSucceeded); err != nil {
			return err
		}
		req := models.DummyActivateLicense{PlanID: payment.PlanID}
		if _, err := s.licenses.Activate(ctx, payment.UserUID, req); err != nil {
			s.log.Error("failed to activate license after payment",
				slog.String("provider_id", payment.ProviderID), sl.Err(err))
			return err
		}
		s.log.Info("payment succeeded, license activated",
			slog.String("user_uid", payment.UserUID),
			slog.String("provider_id", payment.ProviderID))
	case paymentprovider.EventPaymentCanceled:
		if err := s.repo.UpdatePaymentStatus(ctx, payment.ProviderID, models.PaymentFailed); err != nil {
			return err
		}
		s.log.Info("payment canceled",
			slog.String("provider_id", payment.ProviderID))
	default:
		s.log.Warn("unknown webhook event", slog.String("event", notification.Event))
	}
	return nil
}

// VerifySignature проверяет подпись тела уведомления провайдера.
func (s *PaymentService) VerifySignature(body []byte, signature string) bool {
	return s.provider.VerifyWebhookSignature(body, signature)
}
