package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	pkgauth "github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
)

var testJWT = config.JWTConfig{Secret: "test-secret", Issuer: "storefront-test"}

func captureIdentity(t *testing.T, req *http.Request) (cart.Identity, *httptest.ResponseRecorder) {
	t.Helper()
	var got cart.Identity
	h := Identity(testJWT, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = IdentityFromContext(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return got, rec
}

func TestIdentityFromBearerToken(t *testing.T) {
	customer := uuid.New()
	token, err := pkgauth.MintAccessToken(testJWT, time.Now(), time.Hour, pkgauth.AccessTokenPayload{CustomerID: customer})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(SessionHeader, "ignored")

	got, rec := captureIdentity(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got.CustomerID == nil || *got.CustomerID != customer {
		t.Fatalf("customer = %v, want %s", got.CustomerID, customer)
	}
	if got.SessionID != "" {
		t.Fatalf("session should be ignored for customers, got %q", got.SessionID)
	}
}

func TestIdentityRejectsBadToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")

	_, rec := captureIdentity(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestIdentityFromSessionHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(SessionHeader, "guest_abc-123")

	got, _ := captureIdentity(t, req)
	if !got.IsGuest() || got.SessionID != "guest_abc-123" {
		t.Fatalf("unexpected identity %+v", got)
	}
}

func TestIdentityRejectsMalformedSession(t *testing.T) {
	for _, sid := range []string{"has space", "semi;colon", strings.Repeat("a", maxSessionLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(SessionHeader, sid)
		if _, rec := captureIdentity(t, req); rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("session %q: status = %d, want 422", sid, rec.Code)
		}
	}
}

func TestRequireCustomer(t *testing.T) {
	h := RequireCustomer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	guest := httptest.NewRequest(http.MethodGet, "/", nil)
	guest = guest.WithContext(WithIdentity(guest.Context(), cart.Identity{SessionID: "s"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, guest)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("guest status = %d, want 401", rec.Code)
	}

	customer := uuid.New()
	authed := httptest.NewRequest(http.MethodGet, "/", nil)
	authed = authed.WithContext(WithIdentity(authed.Context(), cart.Identity{CustomerID: &customer}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authed)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("customer status = %d, want 204", rec.Code)
	}
}
