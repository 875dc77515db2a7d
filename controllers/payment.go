package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-storefront/events"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/repository"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultCurrency = "INR"

// PaymentController handles Razorpay checkout and order history
type PaymentController struct {
	Orders   repository.OrderStore
	Products repository.ProductStore
	Users    repository.UserStore
	Gateway  utils.PaymentGateway
	Events   events.Publisher

	now func() time.Time
}

// NewPaymentController creates a new PaymentController. gateway may be nil when Razorpay keys are absent.
func NewPaymentController(orders repository.OrderStore, products repository.ProductStore, users repository.UserStore,
	gateway utils.PaymentGateway, publisher events.Publisher) *PaymentController {
	return &PaymentController{
		Orders:   orders,
		Products: products,
		Users:    users,
		Gateway:  gateway,
		Events:   publisher,
		now:      time.Now,
	}
}

type checkoutItem struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
}

type createOrderRequest struct {
	Amount          float64                 `json:"amount"`
	Currency        string                  `json:"currency"`
	Items           []checkoutItem          `json:"items"`
	ShippingAddress *models.ShippingAddress `json:"shippingAddress"`
}

func paymentError(w http.ResponseWriter, status int, message string) {
	utils.RespondJSON(w, status, map[string]any{"success": false, "message": message})
}

// CreateOrder opens a Razorpay order and records the checkout as unpaid
func (pc *PaymentController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		paymentError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	if pc.Gateway == nil {
		paymentError(w, http.StatusServiceUnavailable, "Payments are not configured")
		return
	}

	var req createOrderRequest
	if err := utils.DecodeJSON(w, r, &req); err != nil || req.Amount <= 0 || len(req.Items) == 0 {
		paymentError(w, http.StatusBadRequest, "Amount and items are required")
		return
	}
	items, problem := orderItems(req.Items)
	if problem != "" {
		paymentError(w, http.StatusBadRequest, problem)
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	log := logrus.WithField("user_id", user.ID.Hex())
	receipt := fmt.Sprintf("receipt_%d", pc.now().UnixMilli())
	notes := map[string]string{
		"userId":     user.ID.Hex(),
		"itemsCount": strconv.Itoa(len(items)),
	}
	gatewayOrder, err := pc.Gateway.CreateOrder(utils.ToPaise(req.Amount), currency, receipt, notes)
	if err != nil {
		log.WithError(err).Error("Error creating Razorpay order")
		paymentError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	shipping := models.DefaultShippingAddress(user.Name)
	if req.ShippingAddress != nil {
		shipping = *req.ShippingAddress
	}
	itemsPrice := models.ItemsTotal(items)
	order := &models.Order{
		User:            user.ID,
		OrderItems:      items,
		ShippingAddress: shipping,
		PaymentMethod:   models.PaymentMethodRazorpay,
		RazorpayOrderID: gatewayOrder.ID,
		ItemsPrice:      itemsPrice,
		ShippingPrice:   req.Amount - itemsPrice,
		TotalPrice:      req.Amount,
	}
	if err := pc.Orders.Create(r.Context(), order); err != nil {
		log.WithError(err).WithField("razorpay_order_id", gatewayOrder.ID).Error("Error saving order")
		paymentError(w, http.StatusInternalServerError, "Failed to create order")
		return
	}

	log.WithFields(logrus.Fields{"order_id": order.ID.Hex(), "razorpay_order_id": gatewayOrder.ID}).Info("Order created")
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"order":   gatewayOrder,
		"orderId": order.ID,
	})
}

// orderItems converts checkout lines, returning a client message for the first bad one
func orderItems(items []checkoutItem) ([]models.OrderItem, string) {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		productID, err := primitive.ObjectIDFromHex(item.ID)
		if err != nil {
			return nil, "Invalid product in items"
		}
		if item.Quantity < 1 {
			return nil, "Item quantity must be at least 1"
		}
		if item.Price < 0 {
			return nil, "Item price must not be negative"
		}
		out = append(out, models.OrderItem{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			Image:    item.Image,
			Product:  productID,
		})
	}
	return out, ""
}

// VerifyPayment checks the Razorpay signature and marks the order paid
func (pc *PaymentController) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		paymentError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	var req models.PaymentVerification
	if err := utils.DecodeJSON(w, r, &req); err != nil {
		paymentError(w, http.StatusBadRequest, "Payment verification data is missing")
		return
	}
	if err := utils.Validate.Struct(&req); err != nil {
		paymentError(w, http.StatusBadRequest, "Payment verification data is missing")
		return
	}

	ctx := r.Context()
	log := logrus.WithFields(logrus.Fields{"user_id": user.ID.Hex(), "order_id": req.OrderID})
	orderID, err := primitive.ObjectIDFromHex(req.OrderID)
	if err != nil {
		paymentError(w, http.StatusNotFound, "Order not found")
		return
	}
	order, err := pc.Orders.FindByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && order.User != user.ID) {
		paymentError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		log.WithError(err).Error("Error loading order")
		paymentError(w, http.StatusInternalServerError, "Payment verification failed")
		return
	}
	if pc.Gateway == nil {
		paymentError(w, http.StatusServiceUnavailable, "Payments are not configured")
		return
	}

	if order.RazorpayOrderID != req.RazorpayOrderID ||
		!pc.Gateway.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
		log.Warn("Payment signature mismatch")
		paymentError(w, http.StatusBadRequest, "Payment verification failed - Invalid signature")
		return
	}

	order, paid, err := pc.Orders.MarkPaid(ctx, orderID, req.RazorpayPaymentID, req.RazorpaySignature, pc.now().UTC())
	if err != nil {
		log.WithError(err).Error("Error marking order paid")
		paymentError(w, http.StatusInternalServerError, "Payment verification failed")
		return
	}
	if paid {
		log.WithField("payment_id", req.RazorpayPaymentID).Info("Payment verified")
		pc.publish(ctx, events.NewOrderEvent(events.OrderPaid, order, user))
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Payment verified successfully",
		"order": map[string]any{
			"_id":        order.ID,
			"totalPrice": order.TotalPrice,
			"isPaid":     order.IsPaid,
			"paidAt":     order.PaidAt,
		},
	})
}

// GetUserOrders lists the signed-in user's orders, newest first
func (pc *PaymentController) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		paymentError(w, http.StatusUnauthorized, "Not authorized, no token")
		return
	}
	orders, err := pc.Orders.ListByUser(r.Context(), user.ID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", user.ID.Hex()).Error("Error fetching orders")
		paymentError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	pc.respondOrders(w, r, orders)
}

// GetAllOrders lists every order, newest first (Admin only)
func (pc *PaymentController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := pc.Orders.ListAll(r.Context())
	if err != nil {
		logrus.WithError(err).Error("Error fetching orders")
		paymentError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	pc.respondOrders(w, r, orders)
}

// DeliverOrder marks an order delivered and tells the customer (Admin only)
func (pc *PaymentController) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		paymentError(w, http.StatusNotFound, "Order not found")
		return
	}
	ctx := r.Context()
	order, delivered, err := pc.Orders.MarkDelivered(ctx, id, pc.now().UTC())
	if errors.Is(err, repository.ErrNotFound) {
		paymentError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		logrus.WithError(err).WithField("order_id", id.Hex()).Error("Error marking order delivered")
		paymentError(w, http.StatusInternalServerError, "Failed to update order")
		return
	}
	if delivered {
		customer, err := pc.Users.FindByID(ctx, order.User)
		if err != nil {
			logrus.WithError(err).WithField("order_id", id.Hex()).Warn("Skipping delivery notice, customer not found")
		} else {
			pc.publish(ctx, events.NewOrderEvent(events.OrderDelivered, order, customer))
		}
	}
	utils.RespondJSON(w, http.StatusOK, order)
}

func (pc *PaymentController) publish(ctx context.Context, evt events.OrderEvent) {
	if pc.Events == nil {
		return
	}
	if err := pc.Events.Publish(ctx, evt); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"event": evt.Type, "order_id": evt.OrderID}).
			Error("Failed to publish order event")
	}
}

type productRef struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Image string             `json:"image"`
}

type populatedItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	// Product is a productRef, or the bare ID once the product is gone
	Product any `json:"product"`
}

type orderView struct {
	models.Order
	OrderItems []populatedItem `json:"orderItems"`
}

func (pc *PaymentController) respondOrders(w http.ResponseWriter, r *http.Request, orders []models.Order) {
	views, err := pc.populate(r.Context(), orders)
	if err != nil {
		logrus.WithError(err).Error("Error loading ordered products")
		paymentError(w, http.StatusInternalServerError, "Failed to fetch orders")
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"success": true, "orders": views})
}

// populate swaps each item's product ID for the product's name and image
func (pc *PaymentController) populate(ctx context.Context, orders []models.Order) ([]orderView, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, o := range orders {
		for _, item := range o.OrderItems {
			if !seen[item.Product] {
				seen[item.Product] = true
				ids = append(ids, item.Product)
			}
		}
	}

	refs := map[primitive.ObjectID]productRef{}
	if len(ids) > 0 {
		products, err := pc.Products.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			refs[p.ID] = productRef{ID: p.ID, Name: p.Name, Image: p.Image}
		}
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		items := make([]populatedItem, 0, len(o.OrderItems))
		for _, item := range o.OrderItems {
			var product any = item.Product
			if ref, ok := refs[item.Product]; ok {
				product = ref
			}
			items = append(items, populatedItem{
				Name:     item.Name,
				Quantity: item.Quantity,
				Price:    item.Price,
				Image:    item.Image,
				Product:  product,
			})
		}
		views = append(views, orderView{Order: o, OrderItems: items})
	}
	return views, nil
}
