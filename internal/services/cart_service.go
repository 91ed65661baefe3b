package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/repositories"
)

// ErrCartInvalidInput signals a rejected cart mutation.
var ErrCartInvalidInput = errors.New("cart: invalid input")

const maxCartLines = 100

type cartService struct {
	carts    repositories.CartRepository
	products repositories.ProductRepository
	engine   *PricingEngine
	settings SettingsReader
}

// CartServiceDeps bundles collaborators for the cart service.
type CartServiceDeps struct {
	Carts    repositories.CartRepository
	Products repositories.ProductRepository
	Engine   *PricingEngine
	Settings SettingsReader
}

var _ CartService = (*cartService)(nil)

// NewCartService assembles the cart service.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Carts == nil {
		return nil, errors.New("cart service: cart repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("cart service: product repository is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("cart service: pricing engine is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("cart service: settings reader is required")
	}
	return &cartService{
		carts:    deps.Carts,
		products: deps.Products,
		engine:   deps.Engine,
		settings: deps.Settings,
	}, nil
}

// GetCart returns the user's cart, or an empty cart when none exists yet.
func (s *cartService) GetCart(ctx context.Context, userID string) (domain.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Cart{}, fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}

	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Cart{UserID: userID}, nil
		}
		return domain.Cart{}, err
	}
	return cart, nil
}

// SetLine adds or replaces the line for a product. The product must exist
// and be active; quantity must be positive.
func (s *cartService) SetLine(ctx context.Context, cmd SetCartLineCommand) (domain.Cart, error) {
	userID := strings.TrimSpace(cmd.UserID)
	productID := strings.TrimSpace(cmd.ProductID)
	if userID == "" || productID == "" {
		return domain.Cart{}, fmt.Errorf("%w: user id and product id are required", ErrCartInvalidInput)
	}
	if cmd.Quantity <= 0 {
		return domain.Cart{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrCartInvalidInput, cmd.Quantity)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if repositories.IsNotFound(err) {
			return domain.Cart{}, ErrProductNotFound
		}
		return domain.Cart{}, err
	}
	if !product.Active {
		return domain.Cart{}, fmt.Errorf("%w: product %s is not available", ErrCartInvalidInput, productID)
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	replaced := false
	for i, line := range cart.Lines {
		if line.ProductID == productID {
			cart.Lines[i].Quantity = cmd.Quantity
			replaced = true
			break
		}
	}
	if !replaced {
		if len(cart.Lines) >= maxCartLines {
			return domain.Cart{}, fmt.Errorf("%w: cart cannot hold more than %d lines", ErrCartInvalidInput, maxCartLines)
		}
		cart.Lines = append(cart.Lines, domain.CartLine{ProductID: productID, Quantity: cmd.Quantity})
	}

	return s.carts.Upsert(ctx, cart)
}

// RemoveLine drops the line for a product, if present.
func (s *cartService) RemoveLine(ctx context.Context, userID, productID string) (domain.Cart, error) {
	userID = strings.TrimSpace(userID)
	productID = strings.TrimSpace(productID)
	if userID == "" || productID == "" {
		return domain.Cart{}, fmt.Errorf("%w: user id and product id are required", ErrCartInvalidInput)
	}

	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	kept := cart.Lines[:0]
	for _, line := range cart.Lines {
		if line.ProductID != productID {
			kept = append(kept, line)
		}
	}
	cart.Lines = kept

	return s.carts.Upsert(ctx, cart)
}

// Clear removes the user's cart entirely.
func (s *cartService) Clear(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrCartInvalidInput)
	}
	if err := s.carts.Delete(ctx, userID); err != nil && !repositories.IsNotFound(err) {
		return err
	}
	return nil
}

// Quote prices the cart for the given buyer against the current exchange
// rate snapshot. Lines referencing products that have since been removed or
// deactivated are skipped rather than failing the whole quote.
func (s *cartService) Quote(ctx context.Context, userID string, buyer *domain.Buyer) (domain.CartTotals, error) {
	cart, err := s.GetCart(ctx, userID)
	if err != nil {
		return domain.CartTotals{}, err
	}
	if len(cart.Lines) == 0 {
		return domain.CartTotals{}, nil
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return domain.CartTotals{}, err
	}

	lines := make([]QuoteLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		product, err := s.products.GetByID(ctx, line.ProductID)
		if err != nil {
			if repositories.IsNotFound(err) {
				continue
			}
			return domain.CartTotals{}, err
		}
		if !product.Active {
			continue
		}
		lines = append(lines, QuoteLine{Product: product, Quantity: line.Quantity})
	}

	return s.engine.PriceCart(ctx, lines, buyer, settings.ExchangeRate)
}
