package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-storefront/controllers"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/repository/repotest"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type fixture struct {
	router *mux.Router
	tokens *utils.TokenIssuer
	users  *repotest.Users
	health *controllers.HealthController
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		tokens: utils.NewTokenIssuer("test-secret", time.Hour),
		users:  repotest.NewUsers(),
		health: controllers.NewHealthController(pinger{}),
	}
	products := repotest.NewProducts()
	f.router = mux.NewRouter()
	RegisterRoutes(f.router, Controllers{
		Users:    controllers.NewUserController(f.users, repotest.NewOTPs(), f.tokens, nil, nil, ""),
		Products: controllers.NewProductController(products, nil),
		Payments: controllers.NewPaymentController(repotest.NewOrders(), products, f.users, nil, nil),
		Health:   f.health,
	}, f.tokens, f.users, middleware.NewRateLimiter(nil))
	return f
}

func (f *fixture) token(t *testing.T, admin bool) string {
	t.Helper()
	user := &models.User{Name: "U", Email: "u" + time.Now().Format("150405.000000000") + "@example.com", IsAdmin: admin}
	require.NoError(t, f.users.Create(context.Background(), user))
	token, err := f.tokens.GenerateJWT(user.ID, user.Name, user.Email)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"E-commerce API is running"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/products/products", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/metrics", "", "").Code)

	f.health.DB = pinger{err: errors.New("down")}
	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodGet, "/health", "", "").Code)
}

func TestProtectedRoutes(t *testing.T) {
	f := newFixture(t)
	shopper := f.token(t, false)
	admin := f.token(t, true)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/users/profile", "", "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/users/profile", shopper, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/payments/orders", shopper, "").Code)

	body := `{"name":"Sofa","description":"d","image":"s.jpg","category":"sofas","price":10}`
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/products/products", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodPost, "/api/products/products", shopper, body).Code)
	assert.Equal(t, http.StatusCreated, f.do(http.MethodPost, "/api/products/products", admin, body).Code)

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/api/payments/admin/orders", shopper, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/payments/admin/orders", admin, "").Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/users/admin/users", admin, "").Code)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/nope", "", "").Code)
}
