// Package payment wraps the Stripe API behind the domain PaymentService
// interface. No payment state is kept in-process; Stripe is the source of
// truth and webhooks report outcomes.
package payment

import (
	"context"
	"log/slog"

	"github.com/ahmedhassan-hash/go-starter-template/config"
	domainerrors "github.com/ahmedhassan-hash/go-starter-template/internal/domain/errors"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/fx"
)

const defaultCurrency = "usd"

// Params defines the required parameters
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

type stripeService struct {
	api             *client.API
	webhookSecret   string
	defaultCurrency string
	logger          *slog.Logger
}

// NewStripeService creates the Stripe-backed payment service.
func NewStripeService(params Params) (service.PaymentService, error) {
	cfg := params.Config.Payment
	if cfg == nil || cfg.StripeSecretKey == "" {
		return nil, errors.New("stripe secret key must be provided")
	}

	currency := cfg.DefaultCurrency
	if currency == "" {
		currency = defaultCurrency
	}

	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)

	return &stripeService{
		api:             api,
		webhookSecret:   cfg.StripeWebhookSecret,
		defaultCurrency: currency,
		logger:          params.Logger,
	}, nil
}

// CreatePaymentIntent registers a charge attempt with Stripe on behalf of the
// given user and returns its client handle.
func (s *stripeService) CreatePaymentIntent(ctx context.Context, amount int64, currency string, userID string) (*service.PaymentIntent, error) {
	if amount <= 0 {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("amount must be positive")
	}
	if currency == "" {
		currency = s.defaultCurrency
	}

	params := &stripe.PaymentIntentParams{
		Params: stripe.Params{
			Context: ctx,
			Metadata: map[string]string{
				"user_id": userID,
			},
		},
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		s.logger.Error("Stripe payment intent creation failed",
			slog.String("user_id", userID),
			slog.Int64("amount", amount),
			slog.String("error", err.Error()),
		)

		return nil, domainerrors.ErrPaymentFailed
	}

	return &service.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
		Status:       string(intent.Status),
	}, nil
}

// Refund reverses a previously captured payment intent.
func (s *stripeService) Refund(ctx context.Context, paymentIntentID string) error {
	params := &stripe.RefundParams{
		Params: stripe.Params{
			Context: ctx,
		},
		PaymentIntent: stripe.String(paymentIntentID),
	}

	if _, err := s.api.Refunds.New(params); err != nil {
		s.logger.Error("Stripe refund failed",
			slog.String("payment_intent_id", paymentIntentID),
			slog.String("error", err.Error()),
		)

		return domainerrors.ErrPaymentFailed
	}

	return nil
}

// VerifyWebhook checks Stripe's signature over the raw payload and returns
// the decoded event. Invalid signatures fail closed.
func (s *stripeService) VerifyWebhook(payload []byte, signatureHeader string) (*service.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, s.webhookSecret)
	if err != nil {
		return nil, domainerrors.ErrWebhookSignatureInvalid
	}

	objectID := ""
	if id, ok := event.Data.Object["id"].(string); ok {
		objectID = id
	}

	return &service.WebhookEvent{
		ID:       event.ID,
		Type:     string(event.Type),
		ObjectID: objectID,
	}, nil
}
