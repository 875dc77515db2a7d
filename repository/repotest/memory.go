// Package repotest provides in-memory stores for handler and middleware tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go-storefront/models"
	"go-storefront/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Users is an in-memory repository.UserStore
type Users struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.User
}

func NewUsers() *Users {
	return &Users{items: map[primitive.ObjectID]models.User{}}
}

func (s *Users) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range s.items {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *Users) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range s.items {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	s.items[user.ID] = *user
	return nil
}

func (s *Users) SetAdmin(_ context.Context, id primitive.ObjectID, isAdmin bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsAdmin = isAdmin
	s.items[id] = u
	return nil
}

func (s *Users) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]models.User, 0, len(s.items))
	for _, u := range s.items {
		u.Password = ""
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID.Hex() > users[j].ID.Hex() })
	return users, nil
}

// OTPs is an in-memory repository.OTPStore
type OTPs struct {
	mu    sync.Mutex
	items map[string]models.OTP
}

func NewOTPs() *OTPs {
	return &OTPs{items: map[string]models.OTP{}}
}

func (s *OTPs) FindByEmail(_ context.Context, email string) (*models.OTP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[strings.ToLower(email)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (s *OTPs) Replace(_ context.Context, otp *models.OTP) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	otp.Email = strings.ToLower(otp.Email)
	if existing, ok := s.items[otp.Email]; ok {
		otp.ID = existing.ID
	} else {
		otp.ID = primitive.NewObjectID()
	}
	s.items[otp.Email] = *otp
	return nil
}

func (s *OTPs) DeleteByEmail(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, strings.ToLower(email))
	return nil
}

// Put stores an OTP as-is, for arranging expired records in tests
func (s *OTPs) Put(otp models.OTP) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[strings.ToLower(otp.Email)] = otp
}

// Products is an in-memory repository.ProductStore
type Products struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Product
}

func NewProducts() *Products {
	return &Products{items: map[primitive.ObjectID]models.Product{}}
}

func (s *Products) List(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := []models.Product{}
	search := strings.ToLower(filter.Search)
	for _, p := range s.items {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID.Hex() < products[j].ID.Hex() })
	return products, nil
}

func (s *Products) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *Products) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	products := []models.Product{}
	for _, id := range ids {
		if p, ok := s.items[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *Products) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = time.Now().UTC()
	product.UpdatedAt = product.CreatedAt
	s.items[product.ID] = *product
	return nil
}

func (s *Products) Update(_ context.Context, id primitive.ObjectID, update models.ProductUpdate) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	update.Apply(&p)
	p.UpdatedAt = time.Now().UTC()
	s.items[id] = p
	return &p, nil
}

func (s *Products) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.items, id)
	return nil
}

// Orders is an in-memory repository.OrderStore
type Orders struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]models.Order
}

func NewOrders() *Orders {
	return &Orders{items: map[primitive.ObjectID]models.Order{}}
}

func (s *Orders) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = primitive.NewObjectID()
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	if order.PaymentMethod == "" {
		order.PaymentMethod = models.PaymentMethodRazorpay
	}
	s.items[order.ID] = *order
	return nil
}

func (s *Orders) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &o, nil
}

func (s *Orders) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	return s.list(func(o models.Order) bool { return o.User == userID }), nil
}

func (s *Orders) ListAll(_ context.Context) ([]models.Order, error) {
	return s.list(func(models.Order) bool { return true }), nil
}

func (s *Orders) list(keep func(models.Order) bool) []models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []models.Order{}
	for _, o := range s.items {
		if keep(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID.Hex() > orders[j].ID.Hex() })
	return orders
}

func (s *Orders) MarkPaid(_ context.Context, id primitive.ObjectID, paymentID, signature string, paidAt time.Time) (*models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if o.IsPaid {
		return &o, false, nil
	}
	o.RazorpayPaymentID = paymentID
	o.RazorpaySignature = signature
	o.IsPaid = true
	o.PaidAt = &paidAt
	s.items[id] = o
	return &o, true, nil
}

func (s *Orders) MarkDelivered(_ context.Context, id primitive.ObjectID, deliveredAt time.Time) (*models.Order, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.items[id]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	if o.IsDelivered {
		return &o, false, nil
	}
	o.IsDelivered = true
	o.DeliveredAt = &deliveredAt
	s.items[id] = o
	return &o, true, nil
}

var (
	_ repository.UserStore    = (*Users)(nil)
	_ repository.OTPStore     = (*OTPs)(nil)
	_ repository.ProductStore = (*Products)(nil)
	_ repository.OrderStore   = (*Orders)(nil)
)
