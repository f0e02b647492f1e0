package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
)

type stubCart struct {
	cart.Service
	seen cart.Identity
}

func (s *stubCart) Get(_ context.Context, identity cart.Identity) (*cart.Snapshot, error) {
	s.seen = identity
	return &cart.Snapshot{Currency: "USD"}, nil
}

type stubOrders struct {
	orders.Service
	customer uuid.UUID
}

func (s *stubOrders) List(_ context.Context, customerID uuid.UUID, _ pagination.Params) (*orders.OrderList, error) {
	s.customer = customerID
	return &orders.OrderList{Orders: []orders.OrderSummary{}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "storefront-test"},
	}
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterWiring(t *testing.T) {
	cfg := testConfig()
	carts := &stubCart{}
	orderSvc := &stubOrders{}
	router := NewRouter(Deps{
		Config:   cfg,
		Logger:   logger.Nop(),
		Gatherer: prometheus.NewRegistry(),
		Cart:     carts,
		Orders:   orderSvc,
	})

	t.Run("liveness", func(t *testing.T) {
		rec := serve(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})

	t.Run("guest cart", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
		req.Header.Set(middleware.SessionHeader, "sess-42")
		rec := serve(router, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "sess-42", carts.seen.SessionID)
	})

	t.Run("orders reject guests", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set(middleware.SessionHeader, "sess-42")
		assert.Equal(t, http.StatusUnauthorized, serve(router, req).Code)
	})

	t.Run("orders for customer", func(t *testing.T) {
		customer := uuid.New()
		token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), time.Hour, pkgauth.AccessTokenPayload{CustomerID: customer})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := serve(router, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, customer, orderSvc.customer)
	})

	t.Run("metrics", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil)).Code)
	})

	t.Run("address lookup unmounted", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(router, httptest.NewRequest(http.MethodGet, "/api/v1/addresses/suggest?q=main", nil)).Code)
	})
}
