package handlers

import (
	"context"

	firebaseauth "firebase.google.com/go/v4/auth"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/platform/auth"
	"github.com/teknofix/api/internal/services"
)

// stubTokenVerifier resolves bearer tokens against a fixed table so tests can
// exercise the real authentication middleware.
type stubTokenVerifier struct {
	tokens map[string]*firebaseauth.Token
}

func (s *stubTokenVerifier) VerifyIDToken(_ context.Context, idToken string) (*firebaseauth.Token, error) {
	token, ok := s.tokens[idToken]
	if !ok {
		return nil, auth.ErrTokenInvalid
	}
	return token, nil
}

type stubCatalogService struct {
	createFn func(ctx context.Context, cmd services.SaveProductCommand) (domain.Product, error)
	updateFn func(ctx context.Context, cmd services.SaveProductCommand) (domain.Product, error)
	deleteFn func(ctx context.Context, id string) error
	getFn    func(ctx context.Context, id string, buyer *domain.Buyer) (domain.PricedProduct, error)
	listFn   func(ctx context.Context, filter domain.ProductFilter, buyer *domain.Buyer) (services.PricedProductList, error)
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, cmd services.SaveProductCommand) (domain.Product, error) {
	if s.createFn != nil {
		return s.createFn(ctx, cmd)
	}
	return domain.Product{}, nil
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, cmd services.SaveProductCommand) (domain.Product, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return domain.Product{}, nil
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id string, buyer *domain.Buyer) (domain.PricedProduct, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id, buyer)
	}
	return domain.PricedProduct{}, services.ErrProductNotFound
}

func (s *stubCatalogService) ListProducts(ctx context.Context, filter domain.ProductFilter, buyer *domain.Buyer) (services.PricedProductList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter, buyer)
	}
	return services.PricedProductList{}, nil
}

type stubCartService struct {
	getFn    func(ctx context.Context, userID string) (domain.Cart, error)
	setFn    func(ctx context.Context, cmd services.SetCartLineCommand) (domain.Cart, error)
	removeFn func(ctx context.Context, userID, productID string) (domain.Cart, error)
	clearFn  func(ctx context.Context, userID string) error
	quoteFn  func(ctx context.Context, userID string, buyer *domain.Buyer) (domain.CartTotals, error)
}

func (s *stubCartService) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return domain.Cart{UserID: userID}, nil
}

func (s *stubCartService) SetLine(ctx context.Context, cmd services.SetCartLineCommand) (domain.Cart, error) {
	if s.setFn != nil {
		return s.setFn(ctx, cmd)
	}
	return domain.Cart{UserID: cmd.UserID}, nil
}

func (s *stubCartService) RemoveLine(ctx context.Context, userID, productID string) (domain.Cart, error) {
	if s.removeFn != nil {
		return s.removeFn(ctx, userID, productID)
	}
	return domain.Cart{UserID: userID}, nil
}

func (s *stubCartService) Clear(ctx context.Context, userID string) error {
	if s.clearFn != nil {
		return s.clearFn(ctx, userID)
	}
	return nil
}

func (s *stubCartService) Quote(ctx context.Context, userID string, buyer *domain.Buyer) (domain.CartTotals, error) {
	if s.quoteFn != nil {
		return s.quoteFn(ctx, userID, buyer)
	}
	return domain.CartTotals{}, nil
}

type stubSettingsService struct {
	snapshotFn func(ctx context.Context) (domain.Settings, error)
	getFn      func(ctx context.Context) (domain.Settings, error)
	updateFn   func(ctx context.Context, cmd services.UpdateExchangeRateCommand) (domain.Settings, error)
}

func (s *stubSettingsService) Snapshot(ctx context.Context) (domain.Settings, error) {
	if s.snapshotFn != nil {
		return s.snapshotFn(ctx)
	}
	return domain.Settings{ExchangeRate: 35}, nil
}

func (s *stubSettingsService) Get(ctx context.Context) (domain.Settings, error) {
	if s.getFn != nil {
		return s.getFn(ctx)
	}
	return domain.Settings{ExchangeRate: 35}, nil
}

func (s *stubSettingsService) UpdateExchangeRate(ctx context.Context, cmd services.UpdateExchangeRateCommand) (domain.Settings, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, cmd)
	}
	return domain.Settings{ExchangeRate: cmd.ExchangeRate}, nil
}

type stubPriceListService struct {
	generateFn func(ctx context.Context, buyer *domain.Buyer) (services.PriceListExport, error)
}

func (s *stubPriceListService) GenerateDealerPriceList(ctx context.Context, buyer *domain.Buyer) (services.PriceListExport, error) {
	if s.generateFn != nil {
		return s.generateFn(ctx, buyer)
	}
	return services.PriceListExport{}, nil
}

var (
	_ services.CatalogService   = (*stubCatalogService)(nil)
	_ services.CartService      = (*stubCartService)(nil)
	_ services.SettingsService  = (*stubSettingsService)(nil)
	_ services.PriceListService = (*stubPriceListService)(nil)
)
