package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/platform/auth"
)

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("request body is required")
)

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	reader := io.LimitReader(r.Body, limit+1)
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// buyerFromContext maps the request identity, if any, onto the pricing
// buyer. Anonymous requests price as a plain retail customer.
func buyerFromContext(ctx context.Context) *domain.Buyer {
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || identity == nil {
		return nil
	}
	return identity.Buyer()
}

type priceBreakdownPayload struct {
	BasePriceUSD           float64 `json:"basePriceUsd"`
	AppliedDiscountPercent float64 `json:"appliedDiscountPercent"`
	DiscountedPriceUSD     float64 `json:"discountedPriceUsd"`
	ExchangeRate           float64 `json:"exchangeRate"`
	SubtotalTL             float64 `json:"subtotalTl"`
	VATAmountTL            float64 `json:"vatAmountTl"`
	RawTotalTL             float64 `json:"rawTotalTl"`
	FinalPriceTL           float64 `json:"finalPriceTl"`
}

func newPriceBreakdownPayload(b domain.PriceBreakdown) priceBreakdownPayload {
	return priceBreakdownPayload{
		BasePriceUSD:           b.BasePriceUSD,
		AppliedDiscountPercent: b.AppliedDiscountPercent,
		DiscountedPriceUSD:     b.DiscountedPriceUSD,
		ExchangeRate:           b.ExchangeRate,
		SubtotalTL:             b.SubtotalTL,
		VATAmountTL:            b.VATAmountTL,
		RawTotalTL:             b.RawTotalTL,
		FinalPriceTL:           b.FinalPriceTL,
	}
}

type productPayload struct {
	ID          string                `json:"id"`
	SKU         string                `json:"sku"`
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Category    string                `json:"category,omitempty"`
	StockQty    int                   `json:"stockQty"`
	Active      bool                  `json:"active"`
	CreatedAt   string                `json:"createdAt,omitempty"`
	UpdatedAt   string                `json:"updatedAt,omitempty"`
	Pricing     priceBreakdownPayload `json:"pricing"`
}

func newProductPayload(p domain.PricedProduct) productPayload {
	return productPayload{
		ID:          p.Product.ID,
		SKU:         p.Product.SKU,
		Name:        p.Product.Name,
		Description: p.Product.Description,
		Category:    p.Product.Category,
		StockQty:    p.Product.StockQty,
		Active:      p.Product.Active,
		CreatedAt:   formatTime(p.Product.CreatedAt),
		UpdatedAt:   formatTime(p.Product.UpdatedAt),
		Pricing:     newPriceBreakdownPayload(p.Pricing),
	}
}
