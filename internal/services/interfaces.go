package services

import (
	"context"
	"time"

	"github.com/teknofix/api/internal/domain"
)

// SettingsReader exposes the call-time settings snapshot used by pricing
// consumers. Implementations may cache briefly; the pricing engine itself
// never holds a rate across calls.
type SettingsReader interface {
	Snapshot(ctx context.Context) (domain.Settings, error)
}

// SettingsService manages the shared storefront settings.
type SettingsService interface {
	SettingsReader
	// Get always reads through to the settings store.
	Get(ctx context.Context) (domain.Settings, error)
	UpdateExchangeRate(ctx context.Context, cmd UpdateExchangeRateCommand) (domain.Settings, error)
}

// UpdateExchangeRateCommand carries an admin exchange-rate update.
type UpdateExchangeRateCommand struct {
	ExchangeRate float64
	RateSource   string
	UpdatedBy    string
}

// ExchangeRateUpdatedMessage is the event payload published after a
// successful rate change.
type ExchangeRateUpdatedMessage struct {
	ExchangeRate float64   `json:"exchangeRate"`
	RateSource   string    `json:"rateSource,omitempty"`
	UpdatedBy    string    `json:"updatedBy,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SettingsEventPublisher emits settings change events.
type SettingsEventPublisher interface {
	PublishExchangeRateUpdated(ctx context.Context, msg ExchangeRateUpdatedMessage) (string, error)
}

// CatalogService manages products and their priced read-models.
type CatalogService interface {
	CreateProduct(ctx context.Context, cmd SaveProductCommand) (domain.Product, error)
	UpdateProduct(ctx context.Context, cmd SaveProductCommand) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string, buyer *domain.Buyer) (domain.PricedProduct, error)
	ListProducts(ctx context.Context, filter domain.ProductFilter, buyer *domain.Buyer) (PricedProductList, error)
}

// SaveProductCommand carries product fields for create and update.
type SaveProductCommand struct {
	ID                    string
	SKU                   string
	Name                  string
	Description           string
	Category              string
	PriceUSD              float64
	DealerDiscountPercent float64
	VATRate               float64
	StockQty              int
	Active                bool
}

// PricedProductList is one page of catalog entries priced for the caller.
type PricedProductList struct {
	Products      []domain.PricedProduct
	NextPageToken string
}

// CartService manages the per-user cart and its priced quote.
type CartService interface {
	GetCart(ctx context.Context, userID string) (domain.Cart, error)
	SetLine(ctx context.Context, cmd SetCartLineCommand) (domain.Cart, error)
	RemoveLine(ctx context.Context, userID, productID string) (domain.Cart, error)
	Clear(ctx context.Context, userID string) error
	Quote(ctx context.Context, userID string, buyer *domain.Buyer) (domain.CartTotals, error)
}

// SetCartLineCommand adds or replaces one cart line.
type SetCartLineCommand struct {
	UserID    string
	ProductID string
	Quantity  int
}

// PriceListExport describes a generated dealer price list.
type PriceListExport struct {
	ObjectPath   string
	SignedURL    string
	ExpiresAt    time.Time
	ProductCount int
	DealerID     string
	GeneratedAt  time.Time
}

// PriceListGeneratedMessage is the event payload published after an export.
type PriceListGeneratedMessage struct {
	DealerID     string    `json:"dealerId"`
	ObjectPath   string    `json:"objectPath"`
	ProductCount int       `json:"productCount"`
	GeneratedAt  time.Time `json:"generatedAt"`
}

// PriceListEventPublisher emits price list export events.
type PriceListEventPublisher interface {
	PublishPriceListGenerated(ctx context.Context, msg PriceListGeneratedMessage) (string, error)
}

// PriceListService generates downloadable dealer price lists.
type PriceListService interface {
	GenerateDealerPriceList(ctx context.Context, buyer *domain.Buyer) (PriceListExport, error)
}
