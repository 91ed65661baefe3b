package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/teknofix/api/internal/platform/auth"
	"github.com/teknofix/api/internal/platform/httpx"
	"github.com/teknofix/api/internal/services"
)

// DealerHandlers exposes dealer-only endpoints, currently the price list
// export.
type DealerHandlers struct {
	authn       *auth.Authenticator
	priceLists  services.PriceListService
	middlewares []func(http.Handler) http.Handler
}

// NewDealerHandlers constructs the dealer handlers. Extra middlewares run
// after authentication so they observe the resolved identity.
func NewDealerHandlers(authn *auth.Authenticator, priceLists services.PriceListService, middlewares ...func(http.Handler) http.Handler) *DealerHandlers {
	return &DealerHandlers{authn: authn, priceLists: priceLists, middlewares: middlewares}
}

// Routes wires the /dealer endpoints onto the provided router.
func (h *DealerHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth(auth.RoleDealer))
	}
	for _, mw := range h.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.Post("/price-list", h.generatePriceList)
}

func (h *DealerHandlers) generatePriceList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.priceLists == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "price list service unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	export, err := h.priceLists.GenerateDealerPriceList(ctx, identity.Buyer())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPriceListForbidden):
			httpx.WriteError(ctx, w, httpx.NewError("dealer_not_approved", "an approved dealer account is required", http.StatusForbidden))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
		}
		return
	}

	writeJSONResponse(w, http.StatusCreated, priceListExportResponse{
		ObjectPath:   export.ObjectPath,
		DownloadURL:  export.SignedURL,
		ExpiresAt:    formatTime(export.ExpiresAt),
		ProductCount: export.ProductCount,
		GeneratedAt:  formatTime(export.GeneratedAt),
	})
}

type priceListExportResponse struct {
	ObjectPath   string `json:"objectPath"`
	DownloadURL  string `json:"downloadUrl"`
	ExpiresAt    string `json:"expiresAt"`
	ProductCount int    `json:"productCount"`
	GeneratedAt  string `json:"generatedAt"`
}
