package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/repositories"
)

func cartProducts(products ...domain.Product) *stubProductRepo {
	byID := make(map[string]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return &stubProductRepo{
		getFn: func(_ context.Context, id string) (domain.Product, error) {
			if p, ok := byID[id]; ok {
				return p, nil
			}
			return domain.Product{}, repositories.ErrNotFound
		},
	}
}

func newTestCart(t *testing.T, carts repositories.CartRepository, products repositories.ProductRepository, rate float64) CartService {
	t.Helper()
	svc, err := NewCartService(CartServiceDeps{
		Carts:    carts,
		Products: products,
		Engine:   NewPricingEngine(PricingEngineDeps{}),
		Settings: fixedSettings{settings: domain.Settings{ExchangeRate: rate}},
	})
	if err != nil {
		t.Fatalf("NewCartService: %v", err)
	}
	return svc
}

func TestGetCart_EmptyWhenMissing(t *testing.T) {
	svc := newTestCart(t, &stubCartRepo{}, cartProducts(), 35)

	cart, err := svc.GetCart(context.Background(), "user_1")
	if err != nil {
		t.Fatalf("GetCart: %v", err)
	}
	if cart.UserID != "user_1" || len(cart.Lines) != 0 {
		t.Fatalf("expected empty cart for user_1, got %+v", cart)
	}
}

func TestSetLine_AddsAndReplaces(t *testing.T) {
	stored := domain.Cart{UserID: "user_1"}
	carts := &stubCartRepo{
		getFn: func(context.Context, string) (domain.Cart, error) { return stored, nil },
		upsertFn: func(_ context.Context, cart domain.Cart) (domain.Cart, error) {
			stored = cart
			return cart, nil
		},
	}
	products := cartProducts(domain.Product{ID: "prod_1", Name: "Ekran", PriceUSD: 68, Active: true})
	svc := newTestCart(t, carts, products, 35)

	cart, err := svc.SetLine(context.Background(), SetCartLineCommand{UserID: "user_1", ProductID: "prod_1", Quantity: 2})
	if err != nil {
		t.Fatalf("SetLine: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 2 {
		t.Fatalf("unexpected lines after add: %+v", cart.Lines)
	}

	cart, err = svc.SetLine(context.Background(), SetCartLineCommand{UserID: "user_1", ProductID: "prod_1", Quantity: 5})
	if err != nil {
		t.Fatalf("SetLine replace: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].Quantity != 5 {
		t.Fatalf("expected quantity replaced, got %+v", cart.Lines)
	}
}

func TestSetLine_Rejections(t *testing.T) {
	products := cartProducts(
		domain.Product{ID: "prod_active", Name: "A", PriceUSD: 10, Active: true},
		domain.Product{ID: "prod_inactive", Name: "B", PriceUSD: 10, Active: false},
	)
	svc := newTestCart(t, &stubCartRepo{}, products, 35)

	if _, err := svc.SetLine(context.Background(), SetCartLineCommand{UserID: "user_1", ProductID: "prod_active", Quantity: 0}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("zero quantity: expected ErrCartInvalidInput, got %v", err)
	}
	if _, err := svc.SetLine(context.Background(), SetCartLineCommand{UserID: "user_1", ProductID: "prod_missing", Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing product: expected ErrProductNotFound, got %v", err)
	}
	if _, err := svc.SetLine(context.Background(), SetCartLineCommand{UserID: "user_1", ProductID: "prod_inactive", Quantity: 1}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("inactive product: expected ErrCartInvalidInput, got %v", err)
	}
	if _, err := svc.SetLine(context.Background(), SetCartLineCommand{UserID: "", ProductID: "prod_active", Quantity: 1}); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("empty user: expected ErrCartInvalidInput, got %v", err)
	}
}

func TestRemoveLine_DropsOnlyTarget(t *testing.T) {
	stored := domain.Cart{UserID: "user_1", Lines: []domain.CartLine{
		{ProductID: "prod_1", Quantity: 2},
		{ProductID: "prod_2", Quantity: 1},
	}}
	carts := &stubCartRepo{
		getFn: func(context.Context, string) (domain.Cart, error) { return stored, nil },
		upsertFn: func(_ context.Context, cart domain.Cart) (domain.Cart, error) {
			stored = cart
			return cart, nil
		},
	}
	svc := newTestCart(t, carts, cartProducts(), 35)

	cart, err := svc.RemoveLine(context.Background(), "user_1", "prod_1")
	if err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if len(cart.Lines) != 1 || cart.Lines[0].ProductID != "prod_2" {
		t.Fatalf("unexpected lines after removal: %+v", cart.Lines)
	}
}

func TestClear_ToleratesMissingCart(t *testing.T) {
	carts := &stubCartRepo{
		deleteFn: func(context.Context, string) error { return repositories.ErrNotFound },
	}
	svc := newTestCart(t, carts, cartProducts(), 35)

	if err := svc.Clear(context.Background(), "user_1"); err != nil {
		t.Fatalf("Clear on missing cart: %v", err)
	}
}

func TestQuote_SkipsUnavailableProducts(t *testing.T) {
	carts := &stubCartRepo{
		getFn: func(context.Context, string) (domain.Cart, error) {
			return domain.Cart{UserID: "user_1", Lines: []domain.CartLine{
				{ProductID: "prod_live", Quantity: 2},
				{ProductID: "prod_gone", Quantity: 1},
				{ProductID: "prod_off", Quantity: 3},
			}}, nil
		},
	}
	products := cartProducts(
		domain.Product{ID: "prod_live", Name: "A", PriceUSD: 68, Active: true},
		domain.Product{ID: "prod_off", Name: "B", PriceUSD: 10, Active: false},
	)
	svc := newTestCart(t, carts, products, 35)

	totals, err := svc.Quote(context.Background(), "user_1", nil)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if len(totals.Lines) != 1 {
		t.Fatalf("expected only the live product to be quoted, got %d lines", len(totals.Lines))
	}
	// 68 USD at rate 35 prices to 2859.90 per unit on the storefront.
	if got, want := totals.GrandTotalTL, 2*2859.90; math.Abs(got-want) > 1e-9 {
		t.Fatalf("grand total %v, want %v", got, want)
	}
}

func TestQuote_EmptyCart(t *testing.T) {
	svc := newTestCart(t, &stubCartRepo{}, cartProducts(), 35)

	totals, err := svc.Quote(context.Background(), "user_1", nil)
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if totals.GrandTotalTL != 0 || len(totals.Lines) != 0 {
		t.Fatalf("expected zero totals for empty cart, got %+v", totals)
	}
}
