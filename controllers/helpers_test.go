package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go-storefront/events"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/utils"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOTPSender struct {
	mock.Mock
}

func (m *MockOTPSender) SendOTPEmail(toEmail, code string) error {
	return m.Called(toEmail, code).Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]string) (*models.GatewayOrder, error) {
	args := m.Called(amountPaise, currency, receipt, notes)
	order, _ := args.Get(0).(*models.GatewayOrder)
	return order, args.Error(1)
}

func (m *MockGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return utils.PaymentSignature("test-secret", orderID, paymentID) == signature
}

type stubVerifier struct {
	identity *utils.SocialIdentity
	err      error
}

func (s stubVerifier) VerifyIDToken(_ context.Context, _ string) (*utils.SocialIdentity, error) {
	return s.identity, s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evt events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) Events() []events.OrderEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.OrderEvent(nil), p.events...)
}

// call runs handler against a JSON request, optionally as user and with route vars
func call(t *testing.T, handler http.HandlerFunc, method, target string, body any, user *models.User, vars map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(middleware.WithUser(req.Context(), user))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
