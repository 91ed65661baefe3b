package domain

import "time"

// Product is a catalog entry sold through the storefront and the dealer
// portal. Monetary base data is kept in USD; display prices are derived at
// read time from the current exchange rate.
type Product struct {
	ID                    string
	SKU                   string
	Name                  string
	Description           string
	Category              string
	PriceUSD              float64
	DealerDiscountPercent float64
	// VATRate is the nominal per-product rate carried by the catalog record.
	// The pricing engine does not consult it; a fixed global rate applies.
	VATRate   float64
	StockQty  int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProductFilter narrows catalog listings. Search is matched within each page
// rather than in the store query, so searched pages may come back short; the
// page token still advances through the full ordered set.
type ProductFilter struct {
	Category   string
	ActiveOnly bool
	Search     string
	PageSize   int
	PageToken  string
}

// PricedProduct is the read-model returned by catalog listings: the product
// joined with the breakdown computed for the requesting buyer.
type PricedProduct struct {
	Product Product
	Pricing PriceBreakdown
}
