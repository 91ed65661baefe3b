package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/platform/auth"
	"github.com/teknofix/api/internal/platform/httpx"
	"github.com/teknofix/api/internal/services"
)

const (
	defaultCatalogPageSize = 20
	maxCatalogPageSize     = 100
)

// CatalogHandlers exposes the public product listing. Requests may carry a
// Firebase token; approved dealers then see their discounted prices, everyone
// else sees retail prices.
type CatalogHandlers struct {
	authn   *auth.Authenticator
	catalog services.CatalogService
}

// NewCatalogHandlers constructs the public catalog handlers.
func NewCatalogHandlers(authn *auth.Authenticator, catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{authn: authn, catalog: catalog}
}

// Routes wires the /products endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.OptionalFirebaseAuth())
	}
	r.Get("/", h.listProducts)
	r.Get("/{productID}", h.getProduct)
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
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

	page, err := h.catalog.ListProducts(ctx, filter, buyerFromContext(ctx))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}

	products := make([]productPayload, 0, len(page.Products))
	for _, p := range page.Products {
		products = append(products, newProductPayload(p))
	}

	writeJSONResponse(w, http.StatusOK, productListResponse{
		Products:      products,
		NextPageToken: page.NextPageToken,
	})
}

func (h *CatalogHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	product, err := h.catalog.GetProduct(ctx, productID, buyerFromContext(ctx))
	if err != nil {
		writeCatalogError(ctx, w, err)
		return
	}
	if !product.Product.Active {
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
		return
	}

	writeJSONResponse(w, http.StatusOK, productResponse{Product: newProductPayload(product)})
}

type productListResponse struct {
	Products      []productPayload `json:"products"`
	NextPageToken string           `json:"nextPageToken,omitempty"`
}

type productResponse struct {
	Product productPayload `json:"product"`
}

// parseProductFilter reads listing filters off the query string. The public
// listing only ever serves active products.
func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	query := r.URL.Query()

	filter := domain.ProductFilter{
		Category:   strings.TrimSpace(query.Get("category")),
		Search:     strings.TrimSpace(query.Get("q")),
		PageToken:  strings.TrimSpace(query.Get("page_token")),
		PageSize:   defaultCatalogPageSize,
		ActiveOnly: true,
	}

	if raw := strings.TrimSpace(query.Get("page_size")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return domain.ProductFilter{}, errors.New("page_size must be a positive integer")
		}
		if size > maxCatalogPageSize {
			size = maxCatalogPageSize
		}
		filter.PageSize = size
	}

	return filter, nil
}

func writeCatalogError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCatalogInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
