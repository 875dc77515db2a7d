package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentMethodRazorpay is the only payment method the store accepts
const PaymentMethodRazorpay = "Razorpay"

// OrderItem is a denormalized line of an order
type OrderItem struct {
	Name     string             `bson:"name" json:"name"`
	Quantity int                `bson:"quantity" json:"quantity"`
	Price    float64            `bson:"price" json:"price"`
	Image    string             `bson:"image" json:"image"`
	Product  primitive.ObjectID `bson:"product" json:"product"`
}

// ShippingAddress represents the delivery address of an order
type ShippingAddress struct {
	FullName   string `bson:"full_name" json:"fullName"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	PostalCode string `bson:"postal_code" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone" json:"phone"`
}

// DefaultShippingAddress is stored when checkout sends no address
func DefaultShippingAddress(fullName string) ShippingAddress {
	return ShippingAddress{
		FullName:   fullName,
		Address:    "Not provided",
		City:       "Not provided",
		PostalCode: "000000",
		Country:    "India",
		Phone:      "0000000000",
	}
}

// Order represents a checkout tracked against a Razorpay order
type Order struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	User              primitive.ObjectID `bson:"user" json:"user"`
	OrderItems        []OrderItem        `bson:"order_items" json:"orderItems"`
	ShippingAddress   ShippingAddress    `bson:"shipping_address" json:"shippingAddress"`
	PaymentMethod     string             `bson:"payment_method" json:"paymentMethod"`
	RazorpayOrderID   string             `bson:"razorpay_order_id" json:"razorpayOrderId"`
	RazorpayPaymentID string             `bson:"razorpay_payment_id,omitempty" json:"razorpayPaymentId,omitempty"`
	RazorpaySignature string             `bson:"razorpay_signature,omitempty" json:"razorpaySignature,omitempty"`
	ItemsPrice        float64            `bson:"items_price" json:"itemsPrice"`
	ShippingPrice     float64            `bson:"shipping_price" json:"shippingPrice"`
	TotalPrice        float64            `bson:"total_price" json:"totalPrice"`
	IsPaid            bool               `bson:"is_paid" json:"isPaid"`
	PaidAt            *time.Time         `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	IsDelivered       bool               `bson:"is_delivered" json:"isDelivered"`
	DeliveredAt       *time.Time         `bson:"delivered_at,omitempty" json:"deliveredAt,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ItemsTotal sums price*quantity over the order lines
func ItemsTotal(items []OrderItem) float64 {
	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}
