package services

import (
	"context"
	"errors"
	"time"

	"github.com/teknofix/api/internal/domain"
	platformstorage "github.com/teknofix/api/internal/platform/storage"
	"github.com/teknofix/api/internal/repositories"
)

type stubProductRepo struct {
	createFn func(ctx context.Context, product domain.Product) (domain.Product, error)
	updateFn func(ctx context.Context, product domain.Product) (domain.Product, error)
	getFn    func(ctx context.Context, id string) (domain.Product, error)
	listFn   func(ctx context.Context, filter domain.ProductFilter) (repositories.ProductList, error)
	deleteFn func(ctx context.Context, id string) error
}

func (s *stubProductRepo) Create(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.createFn != nil {
		return s.createFn(ctx, product)
	}
	return product, nil
}

func (s *stubProductRepo) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, product)
	}
	return product, nil
}

func (s *stubProductRepo) GetByID(ctx context.Context, id string) (domain.Product, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id)
	}
	return domain.Product{}, repositories.ErrNotFound
}

func (s *stubProductRepo) List(ctx context.Context, filter domain.ProductFilter) (repositories.ProductList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return repositories.ProductList{}, nil
}

func (s *stubProductRepo) Delete(ctx context.Context, id string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

type stubSettingsRepo struct {
	getFn func(ctx context.Context) (domain.Settings, error)
	putFn func(ctx context.Context, settings domain.Settings) (domain.Settings, error)
}

func (s *stubSettingsRepo) Get(ctx context.Context) (domain.Settings, error) {
	if s.getFn != nil {
		return s.getFn(ctx)
	}
	return domain.Settings{}, errors.New("not configured")
}

func (s *stubSettingsRepo) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if s.putFn != nil {
		return s.putFn(ctx, settings)
	}
	return settings, nil
}

type stubCartRepo struct {
	getFn    func(ctx context.Context, userID string) (domain.Cart, error)
	upsertFn func(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	deleteFn func(ctx context.Context, userID string) error
}

func (s *stubCartRepo) Get(ctx context.Context, userID string) (domain.Cart, error) {
	if s.getFn != nil {
		return s.getFn(ctx, userID)
	}
	return domain.Cart{}, repositories.ErrNotFound
}

func (s *stubCartRepo) Upsert(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, cart)
	}
	return cart, nil
}

func (s *stubCartRepo) Delete(ctx context.Context, userID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, userID)
	}
	return nil
}

// fixedSettings serves a constant snapshot without touching storage.
type fixedSettings struct {
	settings domain.Settings
	err      error
}

func (f fixedSettings) Snapshot(context.Context) (domain.Settings, error) {
	return f.settings, f.err
}

type captureSettingsEvents struct {
	messages []ExchangeRateUpdatedMessage
	err      error
}

func (c *captureSettingsEvents) PublishExchangeRateUpdated(_ context.Context, msg ExchangeRateUpdatedMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, msg)
	return "msg-1", nil
}

type capturePriceListEvents struct {
	messages []PriceListGeneratedMessage
	err      error
}

func (c *capturePriceListEvents) PublishPriceListGenerated(_ context.Context, msg PriceListGeneratedMessage) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	c.messages = append(c.messages, msg)
	return "msg-1", nil
}

type stubPriceListStorage struct {
	uploads  map[string][]byte
	uploadFn func(ctx context.Context, bucket, object, contentType string, payload []byte) error
	signFn   func(ctx context.Context, bucket, object string, expiresIn time.Duration) (platformstorage.SignedURLResult, error)
}

func (s *stubPriceListStorage) Upload(ctx context.Context, bucket, object, contentType string, payload []byte) error {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, bucket, object, contentType, payload)
	}
	if s.uploads == nil {
		s.uploads = make(map[string][]byte)
	}
	s.uploads[bucket+"/"+object] = payload
	return nil
}

func (s *stubPriceListStorage) SignedDownloadURL(ctx context.Context, bucket, object string, expiresIn time.Duration) (platformstorage.SignedURLResult, error) {
	if s.signFn != nil {
		return s.signFn(ctx, bucket, object, expiresIn)
	}
	return platformstorage.SignedURLResult{
		URL:       "https://storage.example.com/" + bucket + "/" + object,
		ExpiresAt: time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC),
	}, nil
}
