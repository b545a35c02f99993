package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BakeryStore/internal/auth"
	"BakeryStore/internal/controller/rest/handlers"
	"BakeryStore/internal/domain/cart"
	"BakeryStore/internal/domain/catalog"
	"BakeryStore/internal/domain/order"
	"BakeryStore/internal/domain/user"
	"BakeryStore/internal/repo/memory"
	"BakeryStore/pkg/health"
	"BakeryStore/pkg/logger"
)

type testServer struct {
	engine *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	seed, err := memory.LoadSeed("")
	require.NoError(t, err)
	store := memory.NewStore(seed.State())
	l := logger.NewNop()

	ledger := catalog.NewLedgerService(memory.NewProductRepo(store), l)
	orders := order.NewOrderService(memory.NewOrderRepo(store), memory.NewEventSink(store), l, order.ServiceConfig{
		Pricing: order.Pricing{DeliveryFee: decimal.RequireFromString("5.00"), DefaultVendor: "Chef Pierre"},
		Policy:  order.DefaultHandoffPolicy(),
	})
	carts := cart.NewCartService(memory.NewCartRepo(store), ledger, orders, l)
	users := user.NewUserService(memory.NewUserRepo(store))
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)

	session := handlers.NewSessionHandler(users, carts, tokens)
	product := handlers.NewProductHandler(ledger)
	cartHandler := handlers.NewCartHandler(carts)
	orderHandler := handlers.NewOrderHandler(orders)
	stats := handlers.NewStatsHandler(orders, ledger, users, 5)
	userHandler := handlers.NewUserHandler(users)

	engine := gin.New()
	NewRouter(&session, &product, &cartHandler, &orderHandler, &stats, &userHandler, tokens, health.NewRegistry()).SetUp(engine)
	return &testServer{engine: engine, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/sessions", "", gin.H{"username": username, "password": "123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var token auth.Token
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	return token.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) placeOrder(t *testing.T, token string, method order.DeliveryMethod) order.Order {
	t.Helper()
	w := s.do(t, http.MethodPost, "/cart/items", token, gin.H{"product_id": "1", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/checkout", token, gin.H{
		"phone":           "+1 (555) 222-3333",
		"address":         "12 Baker St",
		"delivery_method": method,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[order.Order](t, w)
}

func TestRouter_DeliveryHandoff(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.login(t, "user")
	rider := srv.login(t, "rider")

	placed := srv.placeOrder(t, customer, order.MethodDelivery)
	require.Len(t, placed.VerificationCode, 6)
	assert.Equal(t, "$22.00", placed.DisplayTotal())
	assert.Equal(t, order.StatusPending, placed.Status)

	cartView := decode[cart.View](t, srv.do(t, http.MethodGet, "/cart", customer, nil))
	assert.Empty(t, cartView.Lines)

	tasks := decode[[]order.Order](t, srv.do(t, http.MethodGet, "/orders?view=tasks", rider, nil))
	require.Len(t, tasks, 1)
	assert.Empty(t, tasks[0].VerificationCode)

	path := "/orders/" + placed.ID
	w := srv.do(t, http.MethodPatch, path, rider, gin.H{"assignedTo": "Mike Driver", "status": "Out for Delivery"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode[order.UpdateResult](t, w)
	assert.Equal(t, order.OutcomeApplied, accepted.Outcome)
	assert.Equal(t, order.StatusOutForDelivery, accepted.Order.Status)
	assert.Empty(t, accepted.Order.VerificationCode)

	wrong := "000000"
	if placed.VerificationCode == wrong {
		wrong = "111111"
	}
	w = srv.do(t, http.MethodPatch, path, rider, gin.H{"riderProvidedOTP": wrong})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "rejected_verification", decode[map[string]any](t, w)["outcome"])

	w = srv.do(t, http.MethodPatch, path, rider, gin.H{"riderProvidedOTP": placed.VerificationCode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, order.StatusDelivered, decode[order.UpdateResult](t, w).Order.Status)

	w = srv.do(t, http.MethodPatch, path, rider, gin.H{"status": "Cancelled"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "rejected_guard", decode[map[string]any](t, w)["outcome"])

	mine := decode[order.Order](t, srv.do(t, http.MethodGet, path, customer, nil))
	assert.Equal(t, order.StatusDelivered, mine.Status)
	assert.Equal(t, placed.VerificationCode, mine.VerificationCode)

	page := decode[order.OrderEventPage](t, srv.do(t, http.MethodGet, path+"/events?sort_asc=true", customer, nil))
	require.NotEmpty(t, page.Items)
	assert.Equal(t, order.EventOrderCreated, page.Items[0].Kind)
}

func TestRouter_PickupHandoff(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.login(t, "user")
	vendor := srv.login(t, "vendor")

	placed := srv.placeOrder(t, customer, order.MethodPickup)
	assert.Equal(t, "$17.00", placed.DisplayTotal())
	path := "/orders/" + placed.ID

	w := srv.do(t, http.MethodPatch, path, vendor, gin.H{"riderProvidedOTP": placed.VerificationCode})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "rejected_guard", decode[map[string]any](t, w)["outcome"])

	for _, status := range []order.Status{order.StatusPreparing, order.StatusReadyForPickup} {
		w = srv.do(t, http.MethodPatch, path, vendor, gin.H{"status": status})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = srv.do(t, http.MethodPatch, path, vendor, gin.H{"riderProvidedOTP": placed.VerificationCode})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, order.StatusPickedUp, decode[order.UpdateResult](t, w).Order.Status)

	w = srv.do(t, http.MethodPatch, path, vendor, gin.H{"riderProvidedOTP": placed.VerificationCode})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[order.UpdateResult](t, w).Changed)

	stats := decode[handlers.StatsResponse](t, srv.do(t, http.MethodGet, "/stats", vendor, nil))
	assert.Equal(t, 1, stats.Completed)
	assert.True(t, decimal.RequireFromString("17").Equal(stats.Revenue))
	assert.Nil(t, stats.UsersByRole)

	admin := srv.login(t, "admin")
	adminStats := decode[handlers.StatsResponse](t, srv.do(t, http.MethodGet, "/stats", admin, nil))
	assert.Equal(t, map[user.Role]int{
		user.RoleAdmin:    1,
		user.RoleVendor:   1,
		user.RoleDelivery: 1,
		user.RoleCustomer: 1,
	}, adminStats.UsersByRole)
}

func TestRouter_CartCapacity(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.login(t, "user")

	w := srv.do(t, http.MethodPost, "/cart/items", customer, gin.H{"product_id": "c4", "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = srv.do(t, http.MethodPost, "/cart/items", customer, gin.H{"product_id": "c4", "quantity": 1})
	require.Equal(t, http.StatusConflict, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "Insufficient stock! You already have 2 in basket, and only 2 are available in total.", body["error"])
	assert.EqualValues(t, 2, body["available"])

	view := decode[cart.View](t, srv.do(t, http.MethodGet, "/cart", customer, nil))
	assert.Equal(t, 2, view.Count)
}

func TestRouter_Authorization(t *testing.T) {
	srv := newTestServer(t)
	customer := srv.login(t, "user")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{name: "catalog is public", method: http.MethodGet, path: "/products", want: http.StatusOK},
		{name: "cart needs a token", method: http.MethodGet, path: "/cart", want: http.StatusUnauthorized},
		{name: "customers cannot see stats", method: http.MethodGet, path: "/stats", token: customer, want: http.StatusForbidden},
		{name: "customers cannot manage users", method: http.MethodGet, path: "/admin/users", token: customer, want: http.StatusForbidden},
		{name: "unknown product", method: http.MethodGet, path: "/products/nope", want: http.StatusNotFound},
		{name: "health", method: http.MethodGet, path: "/health/ready", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRouter_LoginAndRegister(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodPost, "/sessions", "", gin.H{"username": "user", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodPost, "/users", "", gin.H{"username": "baker", "password": "secret", "name": "New Baker"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := decode[auth.Token](t, w)
	assert.Equal(t, user.RoleCustomer, token.User.Role)

	w = srv.do(t, http.MethodPost, "/users", "", gin.H{"username": "baker", "password": "secret", "name": "Other"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_AdminManagesUsers(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login(t, "admin")
	vendor := srv.login(t, "vendor")

	// provision a rider
	w := srv.do(t, http.MethodPost, "/admin/users", admin, gin.H{
		"username": "rider2", "password": "ride", "name": "Rosa Rider", "role": "DELIVERY",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[user.User](t, w)
	assert.Equal(t, user.RoleDelivery, created.Role)
	assert.Empty(t, created.Password)

	w = srv.do(t, http.MethodPost, "/sessions", "", gin.H{"username": "rider2", "password": "ride"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, user.RoleDelivery, decode[auth.Token](t, w).User.Role)

	w = srv.do(t, http.MethodPost, "/admin/users", admin, gin.H{
		"username": "rider3", "password": "ride", "name": "X", "role": "BAKER",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// promote to vendor
	w = srv.do(t, http.MethodPut, "/admin/users/rider2", admin, gin.H{"role": "VENDOR", "bio": "Rye specialist"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[user.User](t, w)
	assert.Equal(t, user.RoleVendor, updated.Role)
	assert.Equal(t, "Rye specialist", updated.Bio)

	w = srv.do(t, http.MethodPut, "/admin/users/admin", admin, gin.H{"role": "CUSTOMER"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// only admins reach the directory
	w = srv.do(t, http.MethodGet, "/admin/users", vendor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	users := decode[[]user.User](t, srv.do(t, http.MethodGet, "/admin/users", admin, nil))
	assert.Len(t, users, 5)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}

	// delete
	w = srv.do(t, http.MethodDelete, "/admin/users/rider2", admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
	w = srv.do(t, http.MethodPost, "/sessions", "", gin.H{"username": "rider2", "password": "ride"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = srv.do(t, http.MethodDelete, "/admin/users/rider2", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = srv.do(t, http.MethodDelete, "/admin/users/admin", admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
