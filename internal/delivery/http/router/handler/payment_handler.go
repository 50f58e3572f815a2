package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/middleware"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/response"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// stripeSignatureHeader carries the provider's webhook signature.
const stripeSignatureHeader = "Stripe-Signature"

// CreatePaymentRequest is the payload for registering a charge attempt.
type CreatePaymentRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency"`
}

// PaymentHandler holds dependencies for payment-related handlers.
type PaymentHandler struct {
	uc     usecase.PaymentUsecase
	logger *slog.Logger
}

// NewPaymentHandler is the constructor for PaymentHandler, injected by Fx.
func NewPaymentHandler(uc usecase.PaymentUsecase, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		uc:     uc,
		logger: logger,
	}
}

// Create registers a charge attempt for the authenticated user and returns
// the provider handle plus a checkout QR code.
func (h *PaymentHandler) Create(c echo.Context) error {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid payment input")
	}
	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_FAILED", "Amount must be a positive integer")
	}

	output, err := h.uc.CreatePayment(c.Request().Context(), user.ID, req.Amount, req.Currency)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, output, "Payment intent created successfully")
}

// Refund reverses a captured payment intent.
func (h *PaymentHandler) Refund(c echo.Context) error {
	intentID := c.Param("id")
	if intentID == "" {
		return response.BadRequest(c, "INVALID_INPUT", "Payment intent ID is required")
	}

	if err := h.uc.RefundPayment(c.Request().Context(), intentID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Refund created successfully")
}

// Webhook receives provider callbacks. The raw body is handed to the
// usecase untouched so the signature check sees exactly what was signed.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return response.BadRequest(c, "INVALID_INPUT", "Unreadable webhook payload")
	}

	signature := c.Request().Header.Get(stripeSignatureHeader)
	if err := h.uc.HandleWebhook(c.Request().Context(), payload, signature); err != nil {
		return errors.WithStack(err)
	}

	return c.NoContent(http.StatusOK)
}
