package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/platform/auth"
	"github.com/teknofix/api/internal/services"
)

func TestRouterHealthEndpoints(t *testing.T) {
	router := NewRouter()

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200 for %s, got %d", path, rr.Code)
		}
	}
}

func TestRouterNotFound(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}

	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Error != errorNotFoundCode {
		t.Fatalf("expected code %s, got %s", errorNotFoundCode, body.Error)
	}
}

func TestRouterUnconfiguredGroupNotImplemented(t *testing.T) {
	router := NewRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("expected status 501, got %d", rr.Code)
	}
}

func TestRouterMountsRegistrars(t *testing.T) {
	router := NewRouter(
		WithCatalogRoutes(func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestRouterDealerRateLimitKeysByIdentity(t *testing.T) {
	verifier := &stubTokenVerifier{tokens: map[string]*firebaseauth.Token{
		"token-1": {UID: "dealer-1", Claims: map[string]interface{}{"role": "dealer", "approved": true}},
		"token-2": {UID: "dealer-2", Claims: map[string]interface{}{"role": "dealer", "approved": true}},
	}}
	authn := auth.NewAuthenticator(verifier)

	service := &stubPriceListService{
		generateFn: func(ctx context.Context, buyer *domain.Buyer) (services.PriceListExport, error) {
			return services.PriceListExport{DealerID: buyer.ID, ProductCount: 1}, nil
		},
	}
	handler := NewDealerHandlers(authn, service, RateLimit(1, time.Minute))
	router := NewRouter(WithDealerRoutes(handler.Routes))

	do := func(token string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/dealer/price-list", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := do("token-1"); code != http.StatusCreated {
		t.Fatalf("expected first dealer-1 request to pass, got %d", code)
	}
	// a different dealer behind the same address gets its own budget
	if code := do("token-2"); code != http.StatusCreated {
		t.Fatalf("expected dealer-2 request to pass, got %d", code)
	}
	if code := do("token-1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected repeat dealer-1 request to be limited, got %d", code)
	}
	// anonymous requests are rejected by authentication, not the limiter
	if code := do(""); code != http.StatusUnauthorized {
		t.Fatalf("expected anonymous request to be rejected, got %d", code)
	}
}
