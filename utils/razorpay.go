package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"

	"go-storefront/models"

	razorpay "github.com/razorpay/razorpay-go"
)

// ErrPaymentsNotConfigured is returned when Razorpay keys are missing
var ErrPaymentsNotConfigured = errors.New("razorpay keys are not configured")

// PaymentGateway creates gateway orders and checks the signatures the checkout posts back
type PaymentGateway interface {
	CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (*models.GatewayOrder, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// ToPaise converts a rupee amount into the smallest currency unit
func ToPaise(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// PaymentSignature is hex(HMAC-SHA256(secret, orderID|paymentID))
func PaymentSignature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// RazorpayGateway talks to Razorpay through the official SDK
type RazorpayGateway struct {
	client *razorpay.Client
	secret string
}

func NewRazorpayGateway(keyID, keySecret string) (*RazorpayGateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, ErrPaymentsNotConfigured
	}
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret), secret: keySecret}, nil
}

func (g *RazorpayGateway) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (*models.GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}
	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}
	return gatewayOrderFromBody(body)
}

func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	expected := PaymentSignature(g.secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// gatewayOrderFromBody reads the decoded JSON the SDK returns
func gatewayOrderFromBody(body map[string]interface{}) (*models.GatewayOrder, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay create order: response has no id")
	}
	order := &models.GatewayOrder{ID: id}
	order.Currency, _ = body["currency"].(string)
	order.Receipt, _ = body["receipt"].(string)
	switch amount := body["amount"].(type) {
	case float64:
		order.Amount = int64(amount)
	case int64:
		order.Amount = amount
	case int:
		order.Amount = int64(amount)
	}
	return order, nil
}
