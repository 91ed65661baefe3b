package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/teknofix/api/internal/domain"
	"github.com/teknofix/api/internal/repositories"
)

// ErrSettingsInvalid signals a rejected settings update such as a
// non-positive exchange rate.
var ErrSettingsInvalid = errors.New("settings: invalid input")

const defaultSnapshotTTL = time.Minute

type settingsService struct {
	repo      repositories.SettingsRepository
	publisher SettingsEventPublisher
	logger    func(context.Context, string, map[string]any)
	now       func() time.Time

	ttl     time.Duration
	mu      sync.RWMutex
	cached  domain.Settings
	expires time.Time
}

// SettingsServiceDeps bundles collaborators for the settings service.
type SettingsServiceDeps struct {
	Repository repositories.SettingsRepository
	Publisher  SettingsEventPublisher
	// SnapshotTTL bounds staleness of the cached snapshot served to pricing
	// callers. Zero selects the default.
	SnapshotTTL time.Duration
	Now         func() time.Time
	Logger      func(context.Context, string, map[string]any)
}

var _ SettingsService = (*settingsService)(nil)

// NewSettingsService assembles the settings service.
func NewSettingsService(deps SettingsServiceDeps) (SettingsService, error) {
	if deps.Repository == nil {
		return nil, errors.New("settings service: repository is required")
	}
	ttl := deps.SnapshotTTL
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &settingsService{
		repo:      deps.Repository,
		publisher: deps.Publisher,
		logger:    logger,
		now:       func() time.Time { return now().UTC() },
		ttl:       ttl,
	}, nil
}

// Snapshot serves the exchange-rate snapshot, refreshing from the store when
// the cached copy has aged out. Pricing callers pass the returned rate into
// the engine so a whole request prices against one consistent value.
func (s *settingsService) Snapshot(ctx context.Context) (domain.Settings, error) {
	now := s.now()

	s.mu.RLock()
	if now.Before(s.expires) {
		cached := s.cached
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	settings, err := s.repo.Get(ctx)
	if err != nil {
		return domain.Settings{}, err
	}

	s.mu.Lock()
	s.cached = settings
	s.expires = now.Add(s.ttl)
	s.mu.Unlock()

	return settings, nil
}

// Get always reads through to the settings store.
func (s *settingsService) Get(ctx context.Context) (domain.Settings, error) {
	return s.repo.Get(ctx)
}

// UpdateExchangeRate validates and persists a new rate, drops the cached
// snapshot, and emits a change event. Event publish failures are logged and
// do not fail the update.
func (s *settingsService) UpdateExchangeRate(ctx context.Context, cmd UpdateExchangeRateCommand) (domain.Settings, error) {
	if math.IsNaN(cmd.ExchangeRate) || math.IsInf(cmd.ExchangeRate, 0) || cmd.ExchangeRate <= 0 {
		return domain.Settings{}, fmt.Errorf("%w: exchange rate must be positive, got %v", ErrSettingsInvalid, cmd.ExchangeRate)
	}

	settings := domain.Settings{
		ExchangeRate: cmd.ExchangeRate,
		RateSource:   strings.TrimSpace(cmd.RateSource),
		UpdatedAt:    s.now(),
		UpdatedBy:    strings.TrimSpace(cmd.UpdatedBy),
	}

	saved, err := s.repo.Put(ctx, settings)
	if err != nil {
		return domain.Settings{}, err
	}

	s.mu.Lock()
	s.cached = saved
	s.expires = s.now().Add(s.ttl)
	s.mu.Unlock()

	if s.publisher != nil {
		msg := ExchangeRateUpdatedMessage{
			ExchangeRate: saved.ExchangeRate,
			RateSource:   saved.RateSource,
			UpdatedBy:    saved.UpdatedBy,
			UpdatedAt:    saved.UpdatedAt,
		}
		if _, err := s.publisher.PublishExchangeRateUpdated(ctx, msg); err != nil {
			s.logger(ctx, "settings_event_publish_failed", map[string]any{"error": err.Error()})
		}
	}

	return saved, nil
}
