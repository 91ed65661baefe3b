package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/teknofix/api/internal/domain"
	platformstorage "github.com/teknofix/api/internal/platform/storage"
	"github.com/teknofix/api/internal/repositories"
)

// ErrPriceListForbidden is returned when a non-dealer requests an export.
var ErrPriceListForbidden = errors.New("pricelist: approved dealer account required")

const (
	priceListContentType = "text/csv; charset=utf-8"
	priceListPageSize    = 100
	priceListURLExpiry   = 15 * time.Minute
)

// PriceListStorage is the object-store surface the exporter needs.
type PriceListStorage interface {
	Upload(ctx context.Context, bucket, object, contentType string, payload []byte) error
	SignedDownloadURL(ctx context.Context, bucket, object string, expiresIn time.Duration) (platformstorage.SignedURLResult, error)
}

type priceListService struct {
	products  repositories.ProductRepository
	engine    *PricingEngine
	settings  SettingsReader
	storage   PriceListStorage
	bucket    string
	publisher PriceListEventPublisher
	logger    func(context.Context, string, map[string]any)
	now       func() time.Time
	urlExpiry time.Duration
}

// PriceListServiceDeps bundles collaborators for the price list exporter.
type PriceListServiceDeps struct {
	Products  repositories.ProductRepository
	Engine    *PricingEngine
	Settings  SettingsReader
	Storage   PriceListStorage
	Bucket    string
	Publisher PriceListEventPublisher
	Logger    func(context.Context, string, map[string]any)
	Now       func() time.Time
	// URLExpiry bounds the lifetime of signed download URLs. Zero selects
	// the default.
	URLExpiry time.Duration
}

var _ PriceListService = (*priceListService)(nil)

// NewPriceListService assembles the dealer price list exporter.
func NewPriceListService(deps PriceListServiceDeps) (PriceListService, error) {
	if deps.Products == nil {
		return nil, errors.New("pricelist service: product repository is required")
	}
	if deps.Engine == nil {
		return nil, errors.New("pricelist service: pricing engine is required")
	}
	if deps.Settings == nil {
		return nil, errors.New("pricelist service: settings reader is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("pricelist service: storage client is required")
	}
	if deps.Bucket == "" {
		return nil, errors.New("pricelist service: exports bucket is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	urlExpiry := deps.URLExpiry
	if urlExpiry <= 0 {
		urlExpiry = priceListURLExpiry
	}
	return &priceListService{
		products:  deps.Products,
		engine:    deps.Engine,
		settings:  deps.Settings,
		storage:   deps.Storage,
		bucket:    deps.Bucket,
		publisher: deps.Publisher,
		logger:    logger,
		now:       func() time.Time { return now().UTC() },
		urlExpiry: urlExpiry,
	}, nil
}

// GenerateDealerPriceList exports the active catalog priced for the dealer as
// a CSV in the exports bucket and returns a short-lived signed download URL.
func (s *priceListService) GenerateDealerPriceList(ctx context.Context, buyer *domain.Buyer) (PriceListExport, error) {
	if !buyer.DealerEligible() {
		return PriceListExport{}, ErrPriceListForbidden
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return PriceListExport{}, fmt.Errorf("pricelist: load settings: %w", err)
	}

	products, err := s.collectActiveProducts(ctx)
	if err != nil {
		return PriceListExport{}, err
	}

	generatedAt := s.now()
	payload, count, err := s.renderCSV(ctx, products, buyer, settings.ExchangeRate, generatedAt)
	if err != nil {
		return PriceListExport{}, err
	}

	objectPath := fmt.Sprintf("price-lists/%s/%s.csv", buyer.ID, generatedAt.Format("20060102T150405Z"))
	if err := s.storage.Upload(ctx, s.bucket, objectPath, priceListContentType, payload); err != nil {
		return PriceListExport{}, fmt.Errorf("pricelist: upload export: %w", err)
	}

	signed, err := s.storage.SignedDownloadURL(ctx, s.bucket, objectPath, s.urlExpiry)
	if err != nil {
		return PriceListExport{}, fmt.Errorf("pricelist: sign download url: %w", err)
	}

	export := PriceListExport{
		ObjectPath:   objectPath,
		SignedURL:    signed.URL,
		ExpiresAt:    signed.ExpiresAt,
		ProductCount: count,
		DealerID:     buyer.ID,
		GeneratedAt:  generatedAt,
	}

	if s.publisher != nil {
		msg := PriceListGeneratedMessage{
			DealerID:     buyer.ID,
			ObjectPath:   objectPath,
			ProductCount: count,
			GeneratedAt:  generatedAt,
		}
		if _, err := s.publisher.PublishPriceListGenerated(ctx, msg); err != nil {
			s.logger(ctx, "pricelist_event_publish_failed", map[string]any{
				"dealerId": buyer.ID,
				"object":   objectPath,
				"error":    err.Error(),
			})
		}
	}

	return export, nil
}

func (s *priceListService) collectActiveProducts(ctx context.Context) ([]domain.Product, error) {
	var all []domain.Product
	filter := domain.ProductFilter{ActiveOnly: true, PageSize: priceListPageSize}
	for {
		page, err := s.products.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("pricelist: list products: %w", err)
		}
		all = append(all, page.Products...)
		if page.NextPageToken == "" {
			return all, nil
		}
		filter.PageToken = page.NextPageToken
	}
}

// renderCSV writes the Turkish-locale export: semicolon separated because the
// comma is the decimal separator in tr-TR.
func (s *priceListService) renderCSV(ctx context.Context, products []domain.Product, buyer *domain.Buyer, exchangeRate float64, generatedAt time.Time) ([]byte, int, error) {
	printer := message.NewPrinter(language.Turkish)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	header := []string{"SKU", "Ürün", "Kategori", "Liste Fiyatı (TL)", "Bayi Fiyatı (TL)", "İskonto (%)"}
	if err := w.Write(header); err != nil {
		return nil, 0, fmt.Errorf("pricelist: write header: %w", err)
	}

	count := 0
	for _, product := range products {
		dealerPrice, err := s.engine.PriceProduct(ctx, product, buyer, exchangeRate)
		if err != nil {
			s.logger(ctx, "pricelist_product_skipped", map[string]any{
				"productId": product.ID,
				"error":     err.Error(),
			})
			continue
		}
		listPrice, err := s.engine.PriceProduct(ctx, product, nil, exchangeRate)
		if err != nil {
			s.logger(ctx, "pricelist_product_skipped", map[string]any{
				"productId": product.ID,
				"error":     err.Error(),
			})
			continue
		}

		row := []string{
			product.SKU,
			product.Name,
			product.Category,
			printer.Sprintf("%.2f", listPrice.FinalPriceTL),
			printer.Sprintf("%.2f", dealerPrice.FinalPriceTL),
			strconv.FormatFloat(product.DealerDiscountPercent, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, 0, fmt.Errorf("pricelist: write row: %w", err)
		}
		count++
	}

	footer := []string{printer.Sprintf("Oluşturulma: %s", generatedAt.Format(time.RFC3339))}
	if err := w.Write(footer); err != nil {
		return nil, 0, fmt.Errorf("pricelist: write footer: %w", err)
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, 0, fmt.Errorf("pricelist: flush csv: %w", err)
	}
	return buf.Bytes(), count, nil
}
