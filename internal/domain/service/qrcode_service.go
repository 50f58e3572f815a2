package service

// QRCodeService defines the interface for QR code generation.
type QRCodeService interface {
	// GeneratePaymentQR renders a PNG QR code encoding the checkout reference
	// for a payment intent.
	GeneratePaymentQR(paymentIntentID string, clientSecret string) ([]byte, error)
}
