package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/teknofix/api/internal/domain"
	pfirestore "github.com/teknofix/api/internal/platform/firestore"
)

const cartCollection = "carts"

type cartDocument struct {
	Lines     []cartLineDocument `firestore:"lines"`
	Notes     string             `firestore:"notes,omitempty"`
	CreatedAt time.Time          `firestore:"createdAt"`
	UpdatedAt time.Time          `firestore:"updatedAt"`
}

type cartLineDocument struct {
	ProductID string `firestore:"productId"`
	Quantity  int    `firestore:"quantity"`
}

// CartRepository persists per-user carts; the document ID is the user ID.
type CartRepository struct {
	base *pfirestore.BaseRepository[cartDocument]
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{
		base: pfirestore.NewBaseRepository[cartDocument](provider, cartCollection, nil, nil),
	}, nil
}

// Get fetches the cart owned by the given user.
func (r *CartRepository) Get(ctx context.Context, userID string) (domain.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{
		UserID:    userID,
		Notes:     doc.Data.Notes,
		CreatedAt: doc.Data.CreatedAt,
		UpdatedAt: doc.Data.UpdatedAt,
	}
	for _, line := range doc.Data.Lines {
		cart.Lines = append(cart.Lines, domain.CartLine{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return cart, nil
}

// Upsert writes the full cart document for the owning user.
func (r *CartRepository) Upsert(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	userID := strings.TrimSpace(cart.UserID)
	if userID == "" {
		return domain.Cart{}, errors.New("cart repository: user id is required")
	}

	now := time.Now().UTC()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	cart.UpdatedAt = now

	doc := cartDocument{
		Lines:     make([]cartLineDocument, 0, len(cart.Lines)),
		Notes:     strings.TrimSpace(cart.Notes),
		CreatedAt: cart.CreatedAt.UTC(),
		UpdatedAt: cart.UpdatedAt.UTC(),
	}
	for _, line := range cart.Lines {
		doc.Lines = append(doc.Lines, cartLineDocument{ProductID: line.ProductID, Quantity: line.Quantity})
	}

	result, err := r.base.Set(ctx, userID, doc)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.UserID = userID
	cart.UpdatedAt = result.UpdateTime
	return cart, nil
}

// Delete removes the cart owned by the given user.
func (r *CartRepository) Delete(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("cart repository: user id is required")
	}
	return r.base.Delete(ctx, userID)
}
