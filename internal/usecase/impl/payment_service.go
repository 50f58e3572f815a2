package impl

import (
	"context"
	"encoding/json"
	"log/slog"

	deliverycontext "github.com/ahmedhassan-hash/go-starter-template/internal/delivery/context"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// paymentService implements the PaymentUsecase interface. It forwards charge
// attempts to the provider and fans verified webhook outcomes out to realtime
// clients.
type paymentService struct {
	payments  service.PaymentService
	qrcodes   service.QRCodeService
	publisher service.EventPublisher
	logger    *slog.Logger
}

// PaymentServiceParams holds dependencies for paymentService, injected by Fx.
type PaymentServiceParams struct {
	fx.In

	Payments  service.PaymentService
	QRCodes   service.QRCodeService
	Publisher service.EventPublisher
	Logger    *slog.Logger
}

// NewPaymentService is the constructor for paymentService.
func NewPaymentService(params PaymentServiceParams) usecase.PaymentUsecase {
	return &paymentService{
		payments:  params.Payments,
		qrcodes:   params.QRCodes,
		publisher: params.Publisher,
		logger:    params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *paymentService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreatePayment registers a charge attempt with the provider on behalf of the user.
func (srv *paymentService) CreatePayment(ctx context.Context, userID uuid.UUID, amount int64, currency string) (*usecase.CreatePaymentOutput, error) {
	srv.log(ctx).Info("Creating payment intent",
		slog.Any("user_id", userID),
		slog.Int64("amount", amount),
		slog.String("currency", currency),
	)

	intent, err := srv.payments.CreatePaymentIntent(ctx, amount, currency, userID.String())
	if err != nil {
		return nil, err
	}

	// The QR code is a convenience; its failure must not void the intent.
	qrPNG, err := srv.qrcodes.GeneratePaymentQR(intent.ID, intent.ClientSecret)
	if err != nil {
		srv.log(ctx).Warn("Payment QR generation failed",
			slog.String("payment_intent_id", intent.ID),
			slog.Any("error", err),
		)
		qrPNG = nil
	}

	return &usecase.CreatePaymentOutput{
		Intent:    intent,
		QRCodePNG: qrPNG,
	}, nil
}

// RefundPayment reverses a previously captured payment intent.
func (srv *paymentService) RefundPayment(ctx context.Context, paymentIntentID string) error {
	srv.log(ctx).Info("Refunding payment", slog.String("payment_intent_id", paymentIntentID))

	return srv.payments.Refund(ctx, paymentIntentID)
}

// HandleWebhook verifies and processes a provider webhook delivery. The
// signature check fails closed; fan-out after verification is best effort
// because the provider only needs an acknowledgment.
func (srv *paymentService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := srv.payments.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		srv.log(ctx).Warn("Webhook signature verification failed", slog.Any("error", err))

		return err
	}

	srv.log(ctx).Info("Webhook verified",
		slog.String("event_id", event.ID),
		slog.String("event_type", event.Type),
	)

	body, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "failed to encode webhook event")
	}

	broadcast := &service.BroadcastEvent{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		Event:     event.Type,
		Payload:   string(body),
	}
	if err := srv.publisher.PublishBroadcastEvent(ctx, broadcast); err != nil {
		srv.log(ctx).Warn("Webhook broadcast failed",
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)
	}

	return nil
}
