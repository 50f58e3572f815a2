package service

import "context"

// PaymentIntent is the provider-neutral result of creating a charge attempt.
type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// WebhookEvent is a verified event delivered by the payment provider.
type WebhookEvent struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	ObjectID string `json:"object_id"` // ID of the payment object the event refers to.
}

// PaymentService defines the interface for the payment-processor wrapper.
// It forwards validated input to the provider; no payment state is kept
// in-process.
type PaymentService interface {
	// CreatePaymentIntent registers a charge attempt with the provider on
	// behalf of the given user and returns its client handle.
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, userID string) (*PaymentIntent, error)

	// Refund reverses a previously captured payment intent.
	Refund(ctx context.Context, paymentIntentID string) error

	// VerifyWebhook checks the provider's signature over the raw payload and
	// returns the decoded event. Invalid signatures fail closed.
	VerifyWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error)
}
