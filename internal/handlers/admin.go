package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/platform/auth"
	"github.com/teknofix/api/internal/platform/httpx"
	"github.com/teknofix/api/internal/services"
)

const maxAdminBodySize = 256 * 1024

// AdminHandlers exposes admin-only catalog and settings endpoints.
type AdminHandlers struct {
	authn       *auth.Authenticator
	catalog     services.CatalogService
	settings    services.SettingsService
	middlewares []func(http.Handler) http.Handler
}

// NewAdminHandlers constructs the admin handlers. Extra middlewares run after
// authentication so they observe the resolved identity.
func NewAdminHandlers(authn *auth.Authenticator, catalog services.CatalogService, settings services.SettingsService, middlewares ...func(http.Handler) http.Handler) *AdminHandlers {
	return &AdminHandlers{authn: authn, catalog: catalog, settings: settings, middlewares: middlewares}
}

// Routes wires the /admin endpoints onto the provided router.
func (h *AdminHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleAdmin))
	}
	for _, mw := range h.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Route("/products", func(rt chi.Router) {
		rt.Get("/", h.listProducts)
		rt.Post("/", h.createProduct)
		rt.Put("/{productID}", h.updateProduct)
		rt.Delete("/{productID}", h.deleteProduct)
	})
	r.Route("/settings", func(rt chi.Router) {
		rt.Get("/", h.getSettings)
		rt.Put("/exchange-rate", h.updateExchangeRate)
	})
}

func (h *AdminHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	filter, err := parseProductFilter(r)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	// Admins see inactive products unless they ask otherwise.
	filter.ActiveOnly = strings.EqualFold(r.URL.Query().Get("active_only"), "true")

	page, err := h.catalog.ListProducts(ctx, filter, nil)
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	products := make([]adminProductPayload, 0, len(page.Products))
	for _, p := range page.Products {
		products = append(products, newAdminProductPayload(p.Product))
	}

	writeJSONResponse(w, http.StatusOK, adminProductListResponse{
		Products:      products,
		NextPageToken: page.NextPageToken,
	})
}

func (h *AdminHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, "")
}

func (h *AdminHandlers) updateProduct(w http.ResponseWriter, r *http.Request) {
	h.saveProduct(w, r, chi.URLParam(r, "productID"))
}

func (h *AdminHandlers) saveProduct(w http.ResponseWriter, r *http.Request, productID string) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := requireAdminIdentity(ctx, w); !ok {
		return
	}

	cmd, err := decodeSaveProductRequest(r, productID)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var product domain.Product
	if r.Method == http.MethodPost {
		product, err = h.catalog.CreateProduct(ctx, cmd)
	} else {
		product, err = h.catalog.UpdateProduct(ctx, cmd)
	}
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	writeJSONResponse(w, status, adminProductResponse{Product: newAdminProductPayload(product)})
}

func (h *AdminHandlers) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}
	if _, ok := requireAdminIdentity(ctx, w); !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	if err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandlers) getSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "settings service unavailable", http.StatusServiceUnavailable))
		return
	}

	settings, err := h.settings.Get(ctx)
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, settingsResponse{Settings: newSettingsPayload(settings)})
}

func (h *AdminHandlers) updateExchangeRate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.settings == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "settings service unavailable", http.StatusServiceUnavailable))
		return
	}
	identity, ok := requireAdminIdentity(ctx, w)
	if !ok {
		return
	}

	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	var req updateExchangeRateRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	settings, err := h.settings.UpdateExchangeRate(ctx, services.UpdateExchangeRateCommand{
		ExchangeRate: req.ExchangeRate,
		RateSource:   req.RateSource,
		UpdatedBy:    identity.UID,
	})
	if err != nil {
		writeSettingsError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, settingsResponse{Settings: newSettingsPayload(settings)})
}

func requireAdminIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

type saveProductRequest struct {
	SKU                   string  `json:"sku"`
	Name                  string  `json:"name"`
	Description           string  `json:"description"`
	Category              string  `json:"category"`
	PriceUSD              float64 `json:"priceUsd"`
	DealerDiscountPercent float64 `json:"dealerDiscountPercent"`
	VATRate               float64 `json:"vatRate"`
	StockQty              int     `json:"stockQty"`
	Active                bool    `json:"active"`
}

func decodeSaveProductRequest(r *http.Request, productID string) (services.SaveProductCommand, error) {
	body, err := readLimitedBody(r, maxAdminBodySize)
	if err != nil {
		return services.SaveProductCommand{}, err
	}

	var req saveProductRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return services.SaveProductCommand{}, fmt.Errorf("invalid JSON payload: %w", err)
	}

	return services.SaveProductCommand{
		ID:                    strings.TrimSpace(productID),
		SKU:                   req.SKU,
		Name:                  req.Name,
		Description:           req.Description,
		Category:              req.Category,
		PriceUSD:              req.PriceUSD,
		DealerDiscountPercent: req.DealerDiscountPercent,
		VATRate:               req.VATRate,
		StockQty:              req.StockQty,
		Active:                req.Active,
	}, nil
}

type adminProductPayload struct {
	ID                    string  `json:"id"`
	SKU                   string  `json:"sku"`
	Name                  string  `json:"name"`
	Description           string  `json:"description,omitempty"`
	Category              string  `json:"category,omitempty"`
	PriceUSD              float64 `json:"priceUsd"`
	DealerDiscountPercent float64 `json:"dealerDiscountPercent"`
	VATRate               float64 `json:"vatRate"`
	StockQty              int     `json:"stockQty"`
	Active                bool    `json:"active"`
	CreatedAt             string  `json:"createdAt,omitempty"`
	UpdatedAt             string  `json:"updatedAt,omitempty"`
}

func newAdminProductPayload(p domain.Product) adminProductPayload {
	return adminProductPayload{
		ID:                    p.ID,
		SKU:                   p.SKU,
		Name:                  p.Name,
		Description:           p.Description,
		Category:              p.Category,
		PriceUSD:              p.PriceUSD,
		DealerDiscountPercent: p.DealerDiscountPercent,
		VATRate:               p.VATRate,
		StockQty:              p.StockQty,
		Active:                p.Active,
		CreatedAt:             formatTime(p.CreatedAt),
		UpdatedAt:             formatTime(p.UpdatedAt),
	}
}

type adminProductResponse struct {
	Product adminProductPayload `json:"product"`
}

type adminProductListResponse struct {
	Products      []adminProductPayload `json:"products"`
	NextPageToken string                `json:"nextPageToken,omitempty"`
}

type updateExchangeRateRequest struct {
	ExchangeRate float64 `json:"exchangeRate"`
	RateSource   string  `json:"rateSource"`
}

type settingsPayload struct {
	ExchangeRate float64 `json:"exchangeRate"`
	RateSource   string  `json:"rateSource,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
	UpdatedBy    string  `json:"updatedBy,omitempty"`
}

func newSettingsPayload(s domain.Settings) settingsPayload {
	return settingsPayload{
		ExchangeRate: s.ExchangeRate,
		RateSource:   s.RateSource,
		UpdatedAt:    formatTime(s.UpdatedAt),
		UpdatedBy:    s.UpdatedBy,
	}
}

type settingsResponse struct {
	Settings settingsPayload `json:"settings"`
}

func writeSettingsError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSettingsInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
