package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-storefront/models"
	"go-storefront/repository/repotest"
	"go-storefront/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	msg, _ := body["message"].(string)
	return msg
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestProtect(t *testing.T) {
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	users := repotest.NewUsers()
	user := &models.User{Name: "Asha", Email: "asha@example.com"}
	require.NoError(t, users.Create(context.Background(), user))

	valid, err := tokens.GenerateJWT(user.ID, user.Name, user.Email)
	require.NoError(t, err)
	ghost, err := tokens.GenerateJWT(primitive.NewObjectID(), "Ghost", "ghost@example.com")
	require.NoError(t, err)

	var seen *models.User
	handler := Protect(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name   string
		header string
		status int
		msg    string
	}{
		{"missing header", "", http.StatusUnauthorized, "Not authorized, no token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Not authorized, no token"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "Not authorized, token failed"},
		{"unknown user", "Bearer " + ghost, http.StatusUnauthorized, "User not found"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/users/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.msg != "" {
				assert.Equal(t, tt.msg, message(t, rec))
			}
		})
	}
	require.NotNil(t, seen)
	assert.Equal(t, user.ID, seen.ID)
}

func TestAdmin(t *testing.T) {
	handler := Admin(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), &models.User{Name: "Shopper"})))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized as an admin", message(t, rec))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), &models.User{IsAdmin: true})))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func newLimiter(t *testing.T) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRateLimiter(rdb), mr
}

func doRequest(h http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/users/send-otp", nil)
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitFixedWindow(t *testing.T) {
	rl, mr := newLimiter(t)
	h := rl.Handler(OTPLimit)(okHandler)

	for i := 0; i < 3; i++ {
		rec := doRequest(h, "10.0.0.1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Header().Get("RateLimit-Limit"))
	}

	rec := doRequest(h, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many OTP requests, please try again after 15 minutes.", message(t, rec))
	assert.Equal(t, "0", rec.Header().Get("RateLimit-Remaining"))

	// other clients have their own window
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.2").Code)

	mr.FastForward(15 * time.Minute)
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.1").Code)
}

func TestRateLimitSkipsSuccessfulRequests(t *testing.T) {
	rl, _ := newLimiter(t)
	status := http.StatusOK
	h := rl.Handler(AuthLimit)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, doRequest(h, "10.0.0.3").Code)
	}

	status = http.StatusBadRequest
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusBadRequest, doRequest(h, "10.0.0.3").Code)
	}
	rec := doRequest(h, "10.0.0.3")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Too many login attempts, please try again after 15 minutes.", message(t, rec))
}

func TestRateLimitDisabledWithoutRedis(t *testing.T) {
	h := NewRateLimiter(nil).Handler(OTPLimit)(okHandler)
	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.4").Code)
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	rl, mr := newLimiter(t)
	h := rl.Handler(GeneralLimit)(okHandler)
	mr.Close()
	assert.Equal(t, http.StatusOK, doRequest(h, "10.0.0.5").Code)
}

func TestRequestLoggerEchoesRequestID(t *testing.T) {
	h := RequestLogger(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	router := mux.NewRouter()
	router.Use(Metrics)
	router.Handle("/api/products/products/{id}", okHandler)

	var route string
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route = routeTemplate(r)
			next.ServeHTTP(w, r)
		})
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/products/123", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/products/products/{id}", route)
	assert.Equal(t, "unmatched", routeTemplate(httptest.NewRequest(http.MethodGet, "/x", nil)))
}
