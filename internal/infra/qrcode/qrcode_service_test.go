package qrcode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRCodeService_GeneratePaymentQR(t *testing.T) {
	svc := NewQRCodeService(256, "M")

	png, err := svc.GeneratePaymentQR("pi_123", "pi_123_secret_abc")
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	// PNG magic bytes
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestNewQRCodeService_UnknownLevelFallsBackToMedium(t *testing.T) {
	svc := NewQRCodeService(256, "X")

	png, err := svc.GeneratePaymentQR("pi_123", "pi_123_secret_abc")
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}
