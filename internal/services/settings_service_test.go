package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/teknofix/api/internal/domain"
)

func TestSettingsSnapshot_CachesWithinTTL(t *testing.T) {
	calls := 0
	repo := &stubSettingsRepo{
		getFn: func(context.Context) (domain.Settings, error) {
			calls++
			return domain.Settings{ExchangeRate: 42}, nil
		},
	}
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewSettingsService(SettingsServiceDeps{
		Repository:  repo,
		SnapshotTTL: time.Minute,
		Now:         func() time.Time { return current },
	})
	if err != nil {
		t.Fatalf("NewSettingsService: %v", err)
	}

	for i := 0; i < 3; i++ {
		settings, err := svc.Snapshot(context.Background())
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if settings.ExchangeRate != 42 {
			t.Fatalf("unexpected rate %v", settings.ExchangeRate)
		}
	}
	if calls != 1 {
		t.Fatalf("expected a single store read within the TTL, got %d", calls)
	}

	current = current.Add(2 * time.Minute)
	if _, err := svc.Snapshot(context.Background()); err != nil {
		t.Fatalf("Snapshot after expiry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a refresh after expiry, got %d reads", calls)
	}
}

func TestUpdateExchangeRate_PersistsAndPublishes(t *testing.T) {
	var stored domain.Settings
	repo := &stubSettingsRepo{
		putFn: func(_ context.Context, settings domain.Settings) (domain.Settings, error) {
			stored = settings
			return settings, nil
		},
	}
	events := &captureSettingsEvents{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewSettingsService(SettingsServiceDeps{
		Repository: repo,
		Publisher:  events,
		Now:        func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("NewSettingsService: %v", err)
	}

	saved, err := svc.UpdateExchangeRate(context.Background(), UpdateExchangeRateCommand{
		ExchangeRate: 41.75,
		RateSource:   " tcmb ",
		UpdatedBy:    "admin_1",
	})
	if err != nil {
		t.Fatalf("UpdateExchangeRate: %v", err)
	}
	if saved.ExchangeRate != 41.75 || saved.RateSource != "tcmb" || saved.UpdatedBy != "admin_1" {
		t.Fatalf("unexpected saved settings: %+v", saved)
	}
	if !stored.UpdatedAt.Equal(now) {
		t.Fatalf("expected UpdatedAt %v, got %v", now, stored.UpdatedAt)
	}
	if len(events.messages) != 1 {
		t.Fatalf("expected one published event, got %d", len(events.messages))
	}
	if events.messages[0].ExchangeRate != 41.75 {
		t.Fatalf("unexpected event payload: %+v", events.messages[0])
	}

	// The updated rate must be served immediately without a store read.
	snapshot, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snapshot.ExchangeRate != 41.75 {
		t.Fatalf("snapshot not refreshed, rate %v", snapshot.ExchangeRate)
	}
}

func TestUpdateExchangeRate_RejectsBadRate(t *testing.T) {
	svc, err := NewSettingsService(SettingsServiceDeps{Repository: &stubSettingsRepo{}})
	if err != nil {
		t.Fatalf("NewSettingsService: %v", err)
	}

	for _, rate := range []float64{0, -1, -0.01} {
		if _, err := svc.UpdateExchangeRate(context.Background(), UpdateExchangeRateCommand{ExchangeRate: rate}); !errors.Is(err, ErrSettingsInvalid) {
			t.Fatalf("rate %v: expected ErrSettingsInvalid, got %v", rate, err)
		}
	}
}

func TestUpdateExchangeRate_PublishFailureDoesNotFailUpdate(t *testing.T) {
	events := &captureSettingsEvents{err: errors.New("broker down")}
	var logged []string
	svc, err := NewSettingsService(SettingsServiceDeps{
		Repository: &stubSettingsRepo{},
		Publisher:  events,
		Logger: func(_ context.Context, event string, _ map[string]any) {
			logged = append(logged, event)
		},
	})
	if err != nil {
		t.Fatalf("NewSettingsService: %v", err)
	}

	if _, err := svc.UpdateExchangeRate(context.Background(), UpdateExchangeRateCommand{ExchangeRate: 40}); err != nil {
		t.Fatalf("UpdateExchangeRate: %v", err)
	}
	if len(logged) != 1 || logged[0] != "settings_event_publish_failed" {
		t.Fatalf("expected publish failure log, got %v", logged)
	}
}
