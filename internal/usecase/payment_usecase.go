package usecase

import (
	"context"

	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"

	"github.com/google/uuid"
)

// CreatePaymentOutput is the result of registering a charge attempt: the
// provider's client handle plus a scannable QR code for checkout.
type CreatePaymentOutput struct {
	Intent    *service.PaymentIntent `json:"intent"`
	QRCodePNG []byte                 `json:"qr_code_png,omitempty"`
}

// PaymentUsecase defines the payment operations exposed to the delivery layer.
type PaymentUsecase interface {
	// CreatePayment registers a charge attempt with the provider on behalf
	// of the user.
	CreatePayment(ctx context.Context, userID uuid.UUID, amount int64, currency string) (*CreatePaymentOutput, error)

	// RefundPayment reverses a previously captured payment intent.
	RefundPayment(ctx context.Context, paymentIntentID string) error

	// HandleWebhook verifies and processes a provider webhook delivery.
	// Verified events are fanned out to connected realtime clients.
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error
}
