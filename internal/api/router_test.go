package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/share-marketplace/internal/api/handler"
	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
	"github.com/99minutos/share-marketplace/internal/core/service"
	"github.com/99minutos/share-marketplace/internal/infrastructure/storage"
)

const password = "s3cret-pass"

type testServer struct {
	t     *testing.T
	e     http.Handler
	store *storage.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()
	store := storage.NewMemoryStore()
	auth := service.NewAuthService(store.Users, bcrypt.MinCost, log)

	for _, u := range []ports.CreateUserInput{
		{Username: "owner", Password: password, Role: "owner"},
		{Username: "rival", Password: password, Role: "owner"},
		{Username: "buyer", Password: password, Role: "buyer"},
	} {
		_, err := auth.CreateUser(context.Background(), u)
		require.NoError(t, err)
	}

	e := NewRouter(Deps{
		AuthService:     auth,
		BusinessService: service.NewBusinessService(store.Businesses, store.Orders, log),
		OrderService:    service.NewOrderService(store.Businesses, store.Orders, store.Events, nil, log),
		Health:          []handler.Dependency{{Name: "database", Pinger: store}},
		Log:             log,
	})
	return &testServer{t: t, e: e, store: store}
}

// do sends a request as username; an empty username sends no credentials.
func (s *testServer) do(method, path, username, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if username != "" {
		req.SetBasicAuth(username, password)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) createBusiness(shares int) int64 {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/businesses", "owner",
		fmt.Sprintf(`{"business":{"name":"My Business","shares_available":%d}}`, shares))
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode[map[string]any](s.t, rec)["id"].(float64))
}

func (s *testServer) placeOrder(businessID int64, quantity int) int64 {
	s.t.Helper()
	rec := s.do(http.MethodPost, fmt.Sprintf("/businesses/%d/orders", businessID), "buyer",
		fmt.Sprintf(`{"order":{"quantity":%d,"price":50.0}}`, quantity))
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode[map[string]any](s.t, rec)["id"].(float64))
}

func TestRouter_MarketplaceWorkflow(t *testing.T) {
	s := newTestServer(t)

	businessID := s.createBusiness(100)

	rec := s.do(http.MethodGet, "/businesses", "buyer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]map[string]any](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, "My Business", listed[0]["name"])
	assert.Equal(t, float64(100), listed[0]["shares_available"])

	rec = s.do(http.MethodPost, fmt.Sprintf("/businesses/%d/orders", businessID), "buyer",
		`{"order":{"quantity":10,"price":50.0}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[map[string]any](t, rec)
	assert.Equal(t, "pending", order["status"])
	assert.Equal(t, "50", order["price"])
	orderID := int64(order["id"].(float64))

	rec = s.do(http.MethodGet, fmt.Sprintf("/businesses/%d/orders", businessID), "owner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	orders := decode[[]map[string]any](t, rec)
	require.Len(t, orders, 1)
	assert.Equal(t, "buyer", orders[0]["buyer_username"])

	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d/accept", orderID), "owner", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "accepted", decode[map[string]any](t, rec)["status"])

	business, err := s.store.Businesses.FindByID(context.Background(), businessID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), business.SharesAvailable)

	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d/reject", orderID), "owner", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Accepted orders cannot be rejected."}`, rec.Body.String())

	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d", orderID), "buyer", `{"order":{"quantity":1}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Order has already been accepted."}`, rec.Body.String())

	rec = s.do(http.MethodGet, fmt.Sprintf("/businesses/%d/order_history", businessID), "buyer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]map[string]any](t, rec), 1)
}

func TestRouter_MissingCredentials(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/businesses", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `Basic realm="Application"`, rec.Header().Get("WWW-Authenticate"))
}

func TestRouter_WrongPassword(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/businesses", nil)
	req.SetBasicAuth("buyer", "nope")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
}

func TestRouter_RoleGates(t *testing.T) {
	s := newTestServer(t)
	businessID := s.createBusiness(10)

	// Payload validity does not matter to the role gate.
	for _, body := range []string{`{"business":{"name":"X","shares_available":1}}`, `{}`} {
		rec := s.do(http.MethodPost, "/businesses", "buyer", body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec := s.do(http.MethodPost, fmt.Sprintf("/businesses/%d/orders", businessID), "owner",
		`{"order":{"quantity":1,"price":1}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	orderID := s.placeOrder(businessID, 1)
	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d", orderID), "owner", `{"order":{"quantity":2}}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d/accept", orderID), "buyer", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_OnlyBusinessOwnerTransitions(t *testing.T) {
	s := newTestServer(t)
	orderID := s.placeOrder(s.createBusiness(10), 2)

	rec := s.do(http.MethodPatch, fmt.Sprintf("/orders/%d/accept", orderID), "rival", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized to accept this order."}`, rec.Body.String())

	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d/reject", orderID), "rival", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Unauthorized to reject this order."}`, rec.Body.String())

	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d/reject", orderID), "owner", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rejected", decode[map[string]any](t, rec)["status"])

	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d/accept", orderID), "owner", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.JSONEq(t, `{"error":"Rejected orders cannot be accepted."}`, rec.Body.String())
}

func TestRouter_NotFound(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/orders/999/accept", "/orders/999/reject", "/orders/abc/accept"} {
		rec := s.do(http.MethodPatch, path, "owner", "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.JSONEq(t, `{"error":"order not found"}`, rec.Body.String())
	}

	rec := s.do(http.MethodPost, "/businesses/42/orders", "buyer", `{"order":{"quantity":1,"price":1}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"business not found"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/businesses/42/order_history", "buyer", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// the path id is resolved before the body is read
	rec = s.do(http.MethodPost, "/businesses/42/orders", "buyer", `{"order":`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"business not found"}`, rec.Body.String())

	rec = s.do(http.MethodPatch, "/orders/999", "buyer", `{"order":{}}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"order not found"}`, rec.Body.String())
}

func TestRouter_BadRequestAndValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/businesses", "owner", `{"name":"Acme"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"param is missing or the value is empty: business"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/businesses", "owner", `{"business":{"name":" ","shares_available":-1}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields := decode[map[string][]string](t, rec)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "shares_available")

	businessID := s.createBusiness(5)
	rec = s.do(http.MethodPost, fmt.Sprintf("/businesses/%d/orders", businessID), "buyer",
		`{"order":{"quantity":6,"price":10}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	fields = decode[map[string][]string](t, rec)
	assert.Contains(t, fields["quantity"], domain.MsgInsufficientShares)

	orders, err := s.store.Orders.ListByBusiness(context.Background(), businessID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestRouter_EmptyEnvelope(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/businesses", "owner", `{"business":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"param is missing or the value is empty: business"}`, rec.Body.String())

	businessID := s.createBusiness(5)
	orderID := s.placeOrder(businessID, 2)

	rec = s.do(http.MethodPost, fmt.Sprintf("/businesses/%d/orders", businessID), "buyer", `{"order":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"param is missing or the value is empty: order"}`, rec.Body.String())

	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d", orderID), "buyer", `{"order":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"param is missing or the value is empty: order"}`, rec.Body.String())
}

func TestRouter_NumericLimits(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/businesses", "owner",
		`{"business":{"name":"Huge","shares_available":18446744073709551615}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"must be less than or equal to 9223372036854775807"},
		decode[map[string][]string](t, rec)["shares_available"])

	businessID := s.createBusiness(100)
	ordersPath := fmt.Sprintf("/businesses/%d/orders", businessID)

	cases := []struct {
		body  string
		field string
		msg   string
	}{
		{`{"order":{"quantity":18446744073709551611,"price":50}}`, "quantity", "must be less than or equal to 9223372036854775807"},
		{`{"order":{"quantity":1.00000000000000001,"price":50}}`, "quantity", "must be an integer"},
		{`{"order":{"quantity":1,"price":0.00001}}`, "price", "must be greater than 0"},
		{`{"order":{"quantity":1,"price":10000000000}}`, "price", "must be less than 10000000000"},
	}
	for _, tc := range cases {
		rec := s.do(http.MethodPost, ordersPath, "buyer", tc.body)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code, tc.body)
		assert.Contains(t, decode[map[string][]string](t, rec)[tc.field], tc.msg, tc.body)
	}

	orderID := s.placeOrder(businessID, 1)
	rec = s.do(http.MethodPatch, fmt.Sprintf("/orders/%d", orderID), "buyer", `{"order":{"quantity":-18446744073709551615}}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[map[string][]string](t, rec)["quantity"], "must be greater than 0")

	orders, err := s.store.Orders.ListByBusiness(context.Background(), businessID)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.EqualValues(t, 1, orders[0].Quantity)
}

func TestRouter_OperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "database")

	s.do(http.MethodGet, "/businesses", "buyer", "")
	rec = s.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marketplace_businesses_created_total")
}
