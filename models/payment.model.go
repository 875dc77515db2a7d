package models

// GatewayOrder is the Razorpay order handed to the checkout widget
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // smallest currency unit (paise)
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// PaymentVerification is what the checkout widget posts back after payment
type PaymentVerification struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
	OrderID           string `json:"orderId" validate:"required"`
}
