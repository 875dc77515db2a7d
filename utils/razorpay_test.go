package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(49900), ToPaise(499))
	assert.Equal(t, int64(1999), ToPaise(19.99))
	assert.Equal(t, int64(1), ToPaise(0.005))
	assert.Equal(t, int64(0), ToPaise(0))
}

func TestPaymentSignatureKnownVector(t *testing.T) {
	// echo -n "order_123|pay_456" | openssl dgst -sha256 -hmac "secret"
	assert.Equal(t, "18bfc0baafae8f6367711ee362f2201aaa3654274683100e5367bb9a2bd29cbe", PaymentSignature("secret", "order_123", "pay_456"))
	assert.Len(t, PaymentSignature("secret", "order_123", "pay_456"), 64)
	assert.NotEqual(t, PaymentSignature("secret", "order_123", "pay_456"), PaymentSignature("other", "order_123", "pay_456"))
	assert.NotEqual(t, PaymentSignature("secret", "order_123", "pay_456"), PaymentSignature("secret", "order_123|pay", "_456x"))
}

func TestVerifySignature(t *testing.T) {
	g, err := NewRazorpayGateway("rzp_test_key", "secret")
	require.NoError(t, err)

	sig := PaymentSignature("secret", "order_1", "pay_1")
	assert.True(t, g.VerifySignature("order_1", "pay_1", sig))
	assert.False(t, g.VerifySignature("order_1", "pay_2", sig))
	assert.False(t, g.VerifySignature("order_1", "pay_1", ""))
	assert.False(t, g.VerifySignature("order_1", "pay_1", sig[:63]+"0"))
}

func TestNewRazorpayGatewayRequiresKeys(t *testing.T) {
	_, err := NewRazorpayGateway("", "secret")
	assert.ErrorIs(t, err, ErrPaymentsNotConfigured)
}

func TestGatewayOrderFromBody(t *testing.T) {
	order, err := gatewayOrderFromBody(map[string]interface{}{
		"id": "order_9", "amount": float64(49900), "currency": "INR", "receipt": "receipt_1",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_9", order.ID)
	assert.Equal(t, int64(49900), order.Amount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "receipt_1", order.Receipt)

	_, err = gatewayOrderFromBody(map[string]interface{}{"error": "bad"})
	assert.Error(t, err)
}
