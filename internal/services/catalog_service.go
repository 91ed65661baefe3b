package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/repositories"
)

// ErrCatalogInvalidInput signals rejected product data.
var ErrCatalogInvalidInput = errors.New("catalog: invalid input")

// ErrProductNotFound is returned when the requested product does not exist.
var ErrProductNotFound = errors.New("catalog: product not found")

type catalogService struct {
	products repositories.ProductRepository
	engine   *PricingEngine
	settings SettingsReader
	policy   *bluemonday.Policy
	now      func() time.Time
	newID    func() string
}

// CatalogServiceDeps bundles collaborators for the catalog service.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
	Engine   *PricingEngine
	Settings SettingsReader
	Now      func() time.Time
	NewID    func() string
}

var _ CatalogService = (*catalogService)(nil)

// NewCatalogService assembles the catalog service.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("catalog service: pricing engine is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("catalog service: settings reader is required")
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string {
			return "prod_" + strings.ToLower(ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String())
		}
	}
	return &catalogService{
		products: deps.Products,
		engine:   deps.Engine,
		settings: deps.Settings,
		policy:   bluemonday.UGCPolicy(),
		now:      func() time.Time { return now().UTC() },
		newID:    newID,
	}, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, cmd SaveProductCommand) (domain.Product, error) {
	product, err := s.productFromCommand(cmd)
	if err != nil {
		return domain.Product{}, err
	}
	if strings.TrimSpace(product.ID) == "" {
		product.ID = s.newID()
	}
	product.CreatedAt = s.now()
	return s.products.Create(ctx, product)
}

func (s *catalogService) UpdateProduct(ctx context.Context, cmd SaveProductCommand) (domain.Product, error) {
	if strings.TrimSpace(cmd.ID) == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	product, err := s.productFromCommand(cmd)
	if err != nil {
		return domain.Product{}, err
	}
	updated, err := s.products.Update(ctx, product)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Product{}, ErrProductNotFound
		}
		return domain.Product{}, err
	}
	return updated, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: product id is required", ErrCatalogInvalidInput)
	}
	return s.products.Delete(ctx, id)
}

// GetProduct returns the product together with the breakdown priced for the
// requesting buyer at the current exchange rate.
func (s *catalogService) GetProduct(ctx context.Context, id string, buyer *domain.Buyer) (domain.PricedProduct, error) {
	product, err := s.products.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.PricedProduct{}, ErrProductNotFound
		}
		return domain.PricedProduct{}, err
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return domain.PricedProduct{}, err
	}

	pricing, err := s.engine.PriceProduct(ctx, product, buyer, settings.ExchangeRate)
	if err != nil {
		return domain.PricedProduct{}, err
	}

	return domain.PricedProduct{Product: product, Pricing: pricing}, nil
}

// ListProducts prices a whole page against one settings snapshot so all rows
// of a listing share the same exchange rate.
func (s *catalogService) ListProducts(ctx context.Context, filter domain.ProductFilter, buyer *domain.Buyer) (PricedProductList, error) {
	page, err := s.products.List(ctx, filter)
	if err != nil {
		return PricedProductList{}, err
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return PricedProductList{}, err
	}

	list := PricedProductList{
		Products:      make([]domain.PricedProduct, 0, len(page.Products)),
		NextPageToken: page.NextPageToken,
	}
	for _, product := range page.Products {
		pricing, err := s.engine.PriceProduct(ctx, product, buyer, settings.ExchangeRate)
		if err != nil {
			return PricedProductList{}, err
		}
		list.Products = append(list.Products, domain.PricedProduct{Product: product, Pricing: pricing})
	}
	return list, nil
}

func (s *catalogService) productFromCommand(cmd SaveProductCommand) (domain.Product, error) {
	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: product name is required", ErrCatalogInvalidInput)
	}
	if math.IsNaN(cmd.PriceUSD) || math.IsInf(cmd.PriceUSD, 0) || cmd.PriceUSD <= 0 {
		return domain.Product{}, fmt.Errorf("%w: price must be positive, got %v", ErrCatalogInvalidInput, cmd.PriceUSD)
	}
	if cmd.DealerDiscountPercent < 0 || cmd.DealerDiscountPercent > 100 {
		return domain.Product{}, fmt.Errorf("%w: dealer discount must be within [0,100]", ErrCatalogInvalidInput)
	}
	if cmd.VATRate < 0 || cmd.VATRate >= 1 {
		return domain.Product{}, fmt.Errorf("%w: vat rate must be a fraction within [0,1)", ErrCatalogInvalidInput)
	}
	if cmd.StockQty < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock quantity cannot be negative", ErrCatalogInvalidInput)
	}

	return domain.Product{
		ID:                    strings.TrimSpace(cmd.ID),
		SKU:                   strings.TrimSpace(cmd.SKU),
		Name:                  name,
		Description:           s.policy.Sanitize(cmd.Description),
		Category:              strings.TrimSpace(cmd.Category),
		PriceUSD:              cmd.PriceUSD,
		DealerDiscountPercent: cmd.DealerDiscountPercent,
		VATRate:               cmd.VATRate,
		StockQty:              cmd.StockQty,
		Active:                cmd.Active,
	}, nil
}
