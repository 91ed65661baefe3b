package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/platform/auth"
	"github.com/teknofix/api/internal/services"
)

func adminRouter(catalog services.CatalogService, settings services.SettingsService) chi.Router {
	handler := NewAdminHandlers(nil, catalog, settings)
	router := chi.NewRouter()
	router.Route("/admin", handler.Routes)
	return router
}

func asAdmin(req *http.Request) *http.Request {
	identity := &auth.Identity{UID: "admin-1", Roles: []string{auth.RoleAdmin}}
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func TestAdminHandlersCreateProduct(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	catalog := &stubCatalogService{
		createFn: func(ctx context.Context, cmd services.SaveProductCommand) (domain.Product, error) {
			if cmd.ID != "" {
				t.Fatalf("expected empty id on create, got %q", cmd.ID)
			}
			if cmd.SKU != "SCR-11" || cmd.PriceUSD != 68 || cmd.DealerDiscountPercent != 15 {
				t.Fatalf("unexpected command %#v", cmd)
			}
			return domain.Product{
				ID:                    "prod_new",
				SKU:                   cmd.SKU,
				Name:                  cmd.Name,
				PriceUSD:              cmd.PriceUSD,
				DealerDiscountPercent: cmd.DealerDiscountPercent,
				VATRate:               cmd.VATRate,
				StockQty:              cmd.StockQty,
				Active:                cmd.Active,
				CreatedAt:             now,
				UpdatedAt:             now,
			}, nil
		},
	}

	router := adminRouter(catalog, &stubSettingsService{})
	body := `{"sku":"SCR-11","name":"iPhone 11 Ekran","priceUsd":68,"dealerDiscountPercent":15,"vatRate":0.20,"stockQty":12,"active":true}`
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(body)))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp adminProductResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Product.ID != "prod_new" {
		t.Fatalf("expected product id prod_new, got %q", resp.Product.ID)
	}
	if resp.Product.PriceUSD != 68 {
		t.Fatalf("expected price 68, got %v", resp.Product.PriceUSD)
	}
}

func TestAdminHandlersCreateProductInvalid(t *testing.T) {
	catalog := &stubCatalogService{
		createFn: func(ctx context.Context, cmd services.SaveProductCommand) (domain.Product, error) {
			return domain.Product{}, services.ErrCatalogInvalidInput
		},
	}

	router := adminRouter(catalog, &stubSettingsService{})
	req := asAdmin(httptest.NewRequest(http.MethodPost, "/admin/products", strings.NewReader(`{"sku":"X"}`)))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestAdminHandlersUpdateProductNotFound(t *testing.T) {
	catalog := &stubCatalogService{
		updateFn: func(ctx context.Context, cmd services.SaveProductCommand) (domain.Product, error) {
			if cmd.ID != "prod_missing" {
				t.Fatalf("expected id prod_missing, got %q", cmd.ID)
			}
			return domain.Product{}, services.ErrProductNotFound
		},
	}

	router := adminRouter(catalog, &stubSettingsService{})
	req := asAdmin(httptest.NewRequest(http.MethodPut, "/admin/products/prod_missing", strings.NewReader(`{"sku":"SCR-11","name":"Ekran","priceUsd":68}`)))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestAdminHandlersDeleteProduct(t *testing.T) {
	deleted := ""
	catalog := &stubCatalogService{
		deleteFn: func(ctx context.Context, id string) error {
			deleted = id
			return nil
		},
	}

	router := adminRouter(catalog, &stubSettingsService{})
	req := asAdmin(httptest.NewRequest(http.MethodDelete, "/admin/products/prod_old", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if deleted != "prod_old" {
		t.Fatalf("expected prod_old deleted, got %q", deleted)
	}
}

func TestAdminHandlersListIncludesInactive(t *testing.T) {
	catalog := &stubCatalogService{
		listFn: func(ctx context.Context, filter domain.ProductFilter, buyer *domain.Buyer) (services.PricedProductList, error) {
			if filter.ActiveOnly {
				t.Fatalf("expected admin listing to include inactive products")
			}
			return services.PricedProductList{}, nil
		},
	}

	router := adminRouter(catalog, &stubSettingsService{})
	req := asAdmin(httptest.NewRequest(http.MethodGet, "/admin/products", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

func TestAdminHandlersGetSettings(t *testing.T) {
	settings := &stubSettingsService{
		getFn: func(ctx context.Context) (domain.Settings, error) {
			return domain.Settings{
				ExchangeRate: 41.75,
				RateSource:   "tcmb",
				UpdatedAt:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				UpdatedBy:    "admin-1",
			}, nil
		},
	}

	router := adminRouter(&stubCatalogService{}, settings)
	req := asAdmin(httptest.NewRequest(http.MethodGet, "/admin/settings", nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp settingsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Settings.ExchangeRate != 41.75 {
		t.Fatalf("expected rate 41.75, got %v", resp.Settings.ExchangeRate)
	}
}

func TestAdminHandlersUpdateExchangeRate(t *testing.T) {
	settings := &stubSettingsService{
		updateFn: func(ctx context.Context, cmd services.UpdateExchangeRateCommand) (domain.Settings, error) {
			if cmd.ExchangeRate != 41.75 || cmd.RateSource != "tcmb" {
				t.Fatalf("unexpected command %#v", cmd)
			}
			if cmd.UpdatedBy != "admin-1" {
				t.Fatalf("expected updater admin-1, got %q", cmd.UpdatedBy)
			}
			return domain.Settings{ExchangeRate: cmd.ExchangeRate, RateSource: cmd.RateSource, UpdatedBy: cmd.UpdatedBy}, nil
		},
	}

	router := adminRouter(&stubCatalogService{}, settings)
	req := asAdmin(httptest.NewRequest(http.MethodPut, "/admin/settings/exchange-rate", strings.NewReader(`{"exchangeRate":41.75,"rateSource":"tcmb"}`)))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp settingsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Settings.ExchangeRate != 41.75 {
		t.Fatalf("expected rate 41.75, got %v", resp.Settings.ExchangeRate)
	}
}

func TestAdminHandlersUpdateExchangeRateInvalid(t *testing.T) {
	settings := &stubSettingsService{
		updateFn: func(ctx context.Context, cmd services.UpdateExchangeRateCommand) (domain.Settings, error) {
			return domain.Settings{}, services.ErrSettingsInvalid
		},
	}

	router := adminRouter(&stubCatalogService{}, settings)
	req := asAdmin(httptest.NewRequest(http.MethodPut, "/admin/settings/exchange-rate", strings.NewReader(`{"exchangeRate":0}`)))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}
