package domain

// PriceBreakdown captures the fully itemised result of pricing a single
// product unit for a given buyer and exchange rate. Every consumer (product
// cards, cart totals, dealer price lists) renders from this value object and
// never recomputes any of its fields independently.
type PriceBreakdown struct {
	BasePriceUSD           float64
	AppliedDiscountPercent float64
	DiscountedPriceUSD     float64
	ExchangeRate           float64
	SubtotalTL             float64
	VATAmountTL            float64
	RawTotalTL             float64
	FinalPriceTL           float64
}

// LinePricing pairs a priced cart line with its quantity-extended amounts.
type LinePricing struct {
	ProductID   string
	Quantity    int
	Unit        PriceBreakdown
	SubtotalTL  float64
	VATAmountTL float64
	LineTotalTL float64
}

// CartTotals aggregates line pricing across a cart. Subtotal and VAT are
// summed on the pre-rounded per-line components; the grand total is composed
// from already charm-rounded per-unit final prices times quantity, so the
// displayed components may differ from the grand total by a few kurus. That
// slack is intended: a cart of N identical items always totals N times the
// price shown on the product card.
type CartTotals struct {
	SubtotalTL   float64
	VATTotalTL   float64
	GrandTotalTL float64
	Lines        []LinePricing
}
