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

const maxCartBodySize = 16 * 1024

// CartHandlers exposes authenticated cart endpoints for the current user.
type CartHandlers struct {
	authn *auth.Authenticator
	carts services.CartService
}

// NewCartHandlers constructs handlers enforcing Firebase authentication before invoking the cart service.
func NewCartHandlers(authn *auth.Authenticator, carts services.CartService) *CartHandlers {
	return &CartHandlers{authn: authn, carts: carts}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.authn != nil {
		r.Use(h.authn.RequireFirebaseAuth())
	}
	r.Get("/", h.getCart)
	r.Delete("/", h.clearCart)
	r.Get("/quote", h.quoteCart)
	r.Put("/items/{productID}", h.setLine)
	r.Delete("/items/{productID}", h.removeLine)
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	cart, err := h.carts.GetCart(ctx, identity.UID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: newCartPayload(cart)})
}

func (h *CartHandlers) setLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	body, err := readLimitedBody(r, maxCartBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		}
		return
	}

	var req setCartLineRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid JSON payload: %v", err), http.StatusBadRequest))
		return
	}

	cart, err := h.carts.SetLine(ctx, services.SetCartLineCommand{
		UserID:    identity.UID,
		ProductID: productID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: newCartPayload(cart)})
}

func (h *CartHandlers) removeLine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	cart, err := h.carts.RemoveLine(ctx, identity.UID, productID)
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, cartResponse{Cart: newCartPayload(cart)})
}

func (h *CartHandlers) clearCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	if err := h.carts.Clear(ctx, identity.UID); err != nil {
		writeCartError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandlers) quoteCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := h.requireIdentity(ctx, w)
	if !ok {
		return
	}

	totals, err := h.carts.Quote(ctx, identity.UID, identity.Buyer())
	if err != nil {
		writeCartError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, newCartQuotePayload(totals))
}

func (h *CartHandlers) requireIdentity(ctx context.Context, w http.ResponseWriter) (*auth.Identity, bool) {
	if h.carts == nil {
		httpx.WriteError(ctx, w, httpx.NewError("service_unavailable", "cart service unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil || strings.TrimSpace(identity.UID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return nil, false
	}
	return identity, true
}

type setCartLineRequest struct {
	Quantity int `json:"quantity"`
}

type cartLinePayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartPayload struct {
	UserID    string            `json:"userId"`
	Lines     []cartLinePayload `json:"lines"`
	UpdatedAt string            `json:"updatedAt,omitempty"`
}

type cartResponse struct {
	Cart cartPayload `json:"cart"`
}

func newCartPayload(cart domain.Cart) cartPayload {
	lines := make([]cartLinePayload, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, cartLinePayload{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return cartPayload{
		UserID:    cart.UserID,
		Lines:     lines,
		UpdatedAt: formatTime(cart.UpdatedAt),
	}
}

type quoteLinePayload struct {
	ProductID   string                `json:"productId"`
	Quantity    int                   `json:"quantity"`
	Unit        priceBreakdownPayload `json:"unit"`
	SubtotalTL  float64               `json:"subtotalTl"`
	VATAmountTL float64               `json:"vatAmountTl"`
	LineTotalTL float64               `json:"lineTotalTl"`
}

type cartQuotePayload struct {
	SubtotalTL   float64            `json:"subtotalTl"`
	VATTotalTL   float64            `json:"vatTotalTl"`
	GrandTotalTL float64            `json:"grandTotalTl"`
	Lines        []quoteLinePayload `json:"lines"`
}

func newCartQuotePayload(totals domain.CartTotals) cartQuotePayload {
	lines := make([]quoteLinePayload, 0, len(totals.Lines))
	for _, line := range totals.Lines {
		lines = append(lines, quoteLinePayload{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			Unit:        newPriceBreakdownPayload(line.Unit),
			SubtotalTL:  line.SubtotalTL,
			VATAmountTL: line.VATAmountTL,
			LineTotalTL: line.LineTotalTL,
		})
	}
	return cartQuotePayload{
		SubtotalTL:   totals.SubtotalTL,
		VATTotalTL:   totals.VATTotalTL,
		GrandTotalTL: totals.GrandTotalTL,
		Lines:        lines,
	}
}

func writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", "product not found", http.StatusNotFound))
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
