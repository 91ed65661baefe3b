package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/teknofix/api/internal/domain"
	pfirestore "github.com/teknofix/api/internal/platform/firestore"
)

const (
	settingsCollection = "settings"
	// The storefront keeps a single shared settings document.
	settingsDocumentID = "storefront"
)

type settingsDocument struct {
	ExchangeRate float64   `firestore:"exchangeRate"`
	RateSource   string    `firestore:"rateSource,omitempty"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
	UpdatedBy    string    `firestore:"updatedBy,omitempty"`
}

// SettingsRepository stores the shared storefront settings document.
type SettingsRepository struct {
	base *pfirestore.BaseRepository[settingsDocument]
}

// NewSettingsRepository constructs a Firestore-backed settings repository.
func NewSettingsRepository(provider *pfirestore.Provider) (*SettingsRepository, error) {
	if provider == nil {
		return nil, errors.New("settings repository requires firestore provider")
	}
	return &SettingsRepository{
		base: pfirestore.NewBaseRepository[settingsDocument](provider, settingsCollection, nil, nil),
	}, nil
}

// Get fetches the settings document.
func (r *SettingsRepository) Get(ctx context.Context) (domain.Settings, error) {
	doc, err := r.base.Get(ctx, settingsDocumentID)
	if err != nil {
		return domain.Settings{}, err
	}
	return domain.Settings{
		ExchangeRate: doc.Data.ExchangeRate,
		RateSource:   doc.Data.RateSource,
		UpdatedAt:    doc.Data.UpdatedAt,
		UpdatedBy:    doc.Data.UpdatedBy,
	}, nil
}

// Put overwrites the settings document.
func (r *SettingsRepository) Put(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	doc := settingsDocument{
		ExchangeRate: settings.ExchangeRate,
		RateSource:   strings.TrimSpace(settings.RateSource),
		UpdatedAt:    settings.UpdatedAt.UTC(),
		UpdatedBy:    strings.TrimSpace(settings.UpdatedBy),
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	result, err := r.base.Set(ctx, settingsDocumentID, doc)
	if err != nil {
		return domain.Settings{}, err
	}

	settings.RateSource = doc.RateSource
	settings.UpdatedBy = doc.UpdatedBy
	settings.UpdatedAt = result.UpdateTime
	return settings, nil
}
