package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/teknofix/api/internal/domain"
)

// ErrPricingInvalidInput signals bad pricing inputs such as a non-positive
// exchange rate or a negative base price. The engine rejects these instead of
// propagating NaN or negative amounts downstream.
var ErrPricingInvalidInput = errors.New("pricing: invalid input")

// vatRate is the flat KDV rate applied on top of the discounted subtotal.
// Products carry their own nominal VATRate field but the engine deliberately
// does not consult it; the storefront applies one global rate.
const vatRate = 0.20

// PricingEngine derives display prices from USD base prices, buyer
// eligibility and the call-time exchange rate. It is pure and stateless: no
// I/O, no caching, safe for concurrent use from any number of requests.
type PricingEngine struct {
	logger func(context.Context, string, map[string]any)
}

// PricingEngineDeps bundles optional collaborators for the engine.
type PricingEngineDeps struct {
	// Logger receives structured notices for policy-relevant events such as
	// the zero-price clamp. Optional.
	Logger func(context.Context, string, map[string]any)
}

// NewPricingEngine constructs the engine.
func NewPricingEngine(deps PricingEngineDeps) *PricingEngine {
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &PricingEngine{logger: logger}
}

// PriceProduct computes the full breakdown for one product unit.
//
// The algorithm runs in a fixed order with a single branch, the dealer
// eligibility gate: an approved dealer gets the product's discount percent,
// everyone else gets zero. The discounted USD price is converted to TL, the
// flat VAT rate is added, and the raw total is charm-rounded upward to the
// nearest X9.90 ending.
func (e *PricingEngine) PriceProduct(ctx context.Context, product domain.Product, buyer *domain.Buyer, exchangeRate float64) (domain.PriceBreakdown, error) {
	if err := validatePricingInput(product, exchangeRate); err != nil {
		return domain.PriceBreakdown{}, err
	}

	appliedDiscount := 0.0
	if buyer.DealerEligible() {
		appliedDiscount = product.DealerDiscountPercent
	}

	basePriceUSD := product.PriceUSD
	discountedUSD := basePriceUSD * (1 - appliedDiscount/100)
	subtotalTL := discountedUSD * exchangeRate
	vatAmountTL := subtotalTL * vatRate
	rawTotalTL := subtotalTL + vatAmountTL

	finalTL := ApplyCharmPricing(rawTotalTL)
	if rawTotalTL > 0 && finalTL == 0 {
		e.logger(ctx, "pricing_zero_clamped", map[string]any{"productId": product.ID, "rawTotal": rawTotalTL})
	}

	return domain.PriceBreakdown{
		BasePriceUSD:           basePriceUSD,
		AppliedDiscountPercent: appliedDiscount,
		DiscountedPriceUSD:     discountedUSD,
		ExchangeRate:           exchangeRate,
		SubtotalTL:             subtotalTL,
		VATAmountTL:            vatAmountTL,
		RawTotalTL:             rawTotalTL,
		FinalPriceTL:           finalTL,
	}, nil
}

// QuoteLine is one cart line joined with its product record, ready to price.
type QuoteLine struct {
	Product  domain.Product
	Quantity int
}

// PriceCart prices every line and aggregates the cart totals.
//
// Subtotal and VAT totals accumulate the pre-rounded per-line components.
// The grand total instead sums the charm-rounded per-unit final price times
// quantity, keeping each line consistent with the product card at the cost
// of the components not summing exactly to the grand total.
func (e *PricingEngine) PriceCart(ctx context.Context, lines []QuoteLine, buyer *domain.Buyer, exchangeRate float64) (domain.CartTotals, error) {
	totals := domain.CartTotals{}
	if len(lines) == 0 {
		return totals, nil
	}

	totals.Lines = make([]domain.LinePricing, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return domain.CartTotals{}, fmt.Errorf("%w: product %s quantity must be positive", ErrPricingInvalidInput, line.Product.ID)
		}

		unit, err := e.PriceProduct(ctx, line.Product, buyer, exchangeRate)
		if err != nil {
			return domain.CartTotals{}, err
		}

		qty := float64(line.Quantity)
		priced := domain.LinePricing{
			ProductID:   line.Product.ID,
			Quantity:    line.Quantity,
			Unit:        unit,
			SubtotalTL:  unit.SubtotalTL * qty,
			VATAmountTL: unit.VATAmountTL * qty,
			LineTotalTL: unit.FinalPriceTL * qty,
		}

		totals.SubtotalTL += priced.SubtotalTL
		totals.VATTotalTL += priced.VATAmountTL
		totals.GrandTotalTL += priced.LineTotalTL
		totals.Lines = append(totals.Lines, priced)
	}

	return totals, nil
}

// ApplyCharmPricing rounds a raw TL amount upward to the retail X9.90
// pattern: ceil to the next whole lira, ceil that to the next multiple of
// ten, then subtract ten kurus. An amount already at an exact multiple of
// ten stays on that multiple (350.00 becomes 349.90, not 359.90), so no
// discontinuity is introduced at exact multiples.
//
// The degenerate zero input would produce -0.10; it is clamped to 0.00 so a
// free line can never render a negative price.
func ApplyCharmPricing(rawPrice float64) float64 {
	ceiled := math.Ceil(rawPrice)
	nextTen := math.Ceil(ceiled/10) * 10
	result := math.Round((nextTen-0.10)*100) / 100
	if result < 0 {
		return 0
	}
	return result
}

func validatePricingInput(product domain.Product, exchangeRate float64) error {
	if math.IsNaN(exchangeRate) || math.IsInf(exchangeRate, 0) || exchangeRate <= 0 {
		return fmt.Errorf("%w: exchange rate must be positive, got %v", ErrPricingInvalidInput, exchangeRate)
	}
	if math.IsNaN(product.PriceUSD) || math.IsInf(product.PriceUSD, 0) || product.PriceUSD < 0 {
		return fmt.Errorf("%w: product %s base price cannot be negative", ErrPricingInvalidInput, product.ID)
	}
	if product.DealerDiscountPercent < 0 || product.DealerDiscountPercent > 100 {
		return fmt.Errorf("%w: product %s dealer discount must be within [0,100]", ErrPricingInvalidInput, product.ID)
	}
	return nil
}
