package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	"github.com/teknofix/api/internal/domain"
	pfirestore "github.com/teknofix/api/internal/platform/firestore"
	"github.com/teknofix/api/internal/platform/pagination"
	"github.com/teknofix/api/internal/repositories"
)

const (
	productCollection  = "products"
	defaultProductPage = 50
	maxProductPage     = 200
)

type productDocument struct {
	SKU                   string    `firestore:"sku"`
	Name                  string    `firestore:"name"`
	Description           string    `firestore:"description,omitempty"`
	Category              string    `firestore:"category,omitempty"`
	PriceUSD              float64   `firestore:"priceUsd"`
	DealerDiscountPercent float64   `firestore:"dealerDiscountPercent"`
	VATRate               float64   `firestore:"vatRate"`
	StockQty              int       `firestore:"stockQty"`
	Active                bool      `firestore:"active"`
	CreatedAt             time.Time `firestore:"createdAt"`
	UpdatedAt             time.Time `firestore:"updatedAt"`
}

// ProductRepository stores catalog entries in Firestore.
type ProductRepository struct {
	base *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	return &ProductRepository{
		base: pfirestore.NewBaseRepository[productDocument](provider, productCollection, nil, nil),
	}, nil
}

// Create persists a new product under its pre-assigned ID.
func (r *ProductRepository) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}

	now := time.Now().UTC()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	result, err := r.base.Set(ctx, id, encodeProduct(product))
	if err != nil {
		return domain.Product{}, err
	}
	product.UpdatedAt = result.UpdateTime
	return product, nil
}

// Update overwrites an existing product document.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return domain.Product{}, errors.New("product repository: product id is required")
	}

	// Preserve the original creation timestamp on overwrite.
	existing, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	product.CreatedAt = existing.Data.CreatedAt
	product.UpdatedAt = time.Now().UTC()

	result, err := r.base.Set(ctx, id, encodeProduct(product))
	if err != nil {
		return domain.Product{}, err
	}
	product.UpdatedAt = result.UpdateTime
	return product, nil
}

// GetByID fetches a product document.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (domain.Product, error) {
	doc, err := r.base.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return decodeProduct(doc.ID, doc.Data), nil
}

// List returns one page of products matching the filter, ordered by name.
// Firestore has no substring queries, so Search narrows each fetched page
// after the fact: a searched page may hold fewer than PageSize products, and
// the caller follows NextPageToken until it is empty to see every match.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) (repositories.ProductList, error) {
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = defaultProductPage
	}
	if pageSize > maxProductPage {
		pageSize = maxProductPage
	}

	cursor, err := pagination.DecodeToken(filter.PageToken)
	if err != nil {
		return repositories.ProductList{}, err
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.ActiveOnly {
			q = q.Where("active", "==", true)
		}
		if category := strings.TrimSpace(filter.Category); category != "" {
			q = q.Where("category", "==", category)
		}
		q = q.OrderBy("name", firestore.Asc)
		if len(cursor.StartAfter) > 0 {
			q = q.StartAfter(cursor.StartAfter[0])
		}
		return q.Limit(pageSize + 1)
	})
	if err != nil {
		return repositories.ProductList{}, err
	}

	list := repositories.ProductList{Products: make([]domain.Product, 0, len(docs))}
	for i, doc := range docs {
		if i == pageSize {
			token, err := pagination.EncodeToken(pagination.Cursor{StartAfter: []string{docs[i-1].Data.Name}})
			if err != nil {
				return repositories.ProductList{}, err
			}
			list.NextPageToken = token
			break
		}
		product := decodeProduct(doc.ID, doc.Data)
		if search := strings.TrimSpace(filter.Search); search != "" && !matchesSearch(product, search) {
			continue
		}
		list.Products = append(list.Products, product)
	}
	return list, nil
}

// Delete removes a product document.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	return r.base.Delete(ctx, strings.TrimSpace(id))
}

func matchesSearch(product domain.Product, search string) bool {
	search = strings.ToLower(search)
	return strings.Contains(strings.ToLower(product.Name), search) ||
		strings.Contains(strings.ToLower(product.SKU), search)
}

func encodeProduct(product domain.Product) productDocument {
	return productDocument{
		SKU:                   strings.TrimSpace(product.SKU),
		Name:                  strings.TrimSpace(product.Name),
		Description:           product.Description,
		Category:              strings.TrimSpace(product.Category),
		PriceUSD:              product.PriceUSD,
		DealerDiscountPercent: product.DealerDiscountPercent,
		VATRate:               product.VATRate,
		StockQty:              product.StockQty,
		Active:                product.Active,
		CreatedAt:             product.CreatedAt.UTC(),
		UpdatedAt:             product.UpdatedAt.UTC(),
	}
}

func decodeProduct(id string, doc productDocument) domain.Product {
	return domain.Product{
		ID:                    id,
		SKU:                   doc.SKU,
		Name:                  doc.Name,
		Description:           doc.Description,
		Category:              doc.Category,
		PriceUSD:              doc.PriceUSD,
		DealerDiscountPercent: doc.DealerDiscountPercent,
		VATRate:               doc.VATRate,
		StockQty:              doc.StockQty,
		Active:                doc.Active,
		CreatedAt:             doc.CreatedAt,
		UpdatedAt:             doc.UpdatedAt,
	}
}
