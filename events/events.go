// Package events carries order lifecycle notifications from the API to the email worker.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-storefront/models"
	"go-storefront/utils"

	"github.com/sirupsen/logrus"
)

// Routing keys on the storefront exchange
const (
	Exchange       = "storefront.events"
	OrderPaid      = "order.paid"
	OrderDelivered = "order.delivered"
)

// OrderEvent describes a change to an order that the customer is told about
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	TotalPrice float64   `json:"totalPrice"`
	ItemCount  int       `json:"itemCount"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewOrderEvent builds an event of the given type for order, placed by user
func NewOrderEvent(eventType string, order *models.Order, user *models.User) OrderEvent {
	items := 0
	for _, it := range order.OrderItems {
		items += it.Quantity
	}
	return OrderEvent{
		Type:       eventType,
		OrderID:    order.ID.Hex(),
		UserID:     user.ID.Hex(),
		Email:      user.Email,
		Name:       user.Name,
		TotalPrice: order.TotalPrice,
		ItemCount:  items,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher hands order events to whoever notifies customers
type Publisher interface {
	Publish(ctx context.Context, evt OrderEvent) error
}

// OrderMailer is the part of utils.EmailService the notifier needs
type OrderMailer interface {
	SendOrderConfirmationEmail(toEmail string, order utils.OrderMail) error
	SendDeliveryEmail(toEmail string, order utils.OrderMail) error
}

// Notifier turns order events into customer emails
type Notifier struct {
	Mailer OrderMailer
}

func (n *Notifier) Handle(evt OrderEvent) error {
	mail := utils.OrderMail{Name: evt.Name, OrderID: evt.OrderID, ItemCount: evt.ItemCount, Total: evt.TotalPrice}
	switch evt.Type {
	case OrderPaid:
		return n.Mailer.SendOrderConfirmationEmail(evt.Email, mail)
	case OrderDelivered:
		return n.Mailer.SendDeliveryEmail(evt.Email, mail)
	default:
		return fmt.Errorf("unknown event type %q", evt.Type)
	}
}

// InProcessPublisher notifies from a goroutine when no broker is configured
type InProcessPublisher struct {
	notifier *Notifier
	wg       sync.WaitGroup
}

func NewInProcessPublisher(notifier *Notifier) *InProcessPublisher {
	return &InProcessPublisher{notifier: notifier}
}

func (p *InProcessPublisher) Publish(_ context.Context, evt OrderEvent) error {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.notifier.Handle(evt); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"event":    evt.Type,
				"order_id": evt.OrderID,
				"email":    evt.Email,
			}).Error("Failed to send order notification")
		}
	}()
	return nil
}

// Wait blocks until in-flight notifications finish
func (p *InProcessPublisher) Wait() {
	p.wg.Wait()
}
