package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/teknofix/api/internal/services"
)

func newTestTopic(t *testing.T) (*pstest.Server, *pubsub.Topic) {
	t.Helper()
	ctx := context.Background()
	srv := pstest.NewServer()
	t.Cleanup(func() { _ = srv.Close() })

	client, err := pubsub.NewClient(ctx, "test-project",
		option.WithEndpoint(srv.Addr),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	)
	if err != nil {
		t.Fatalf("pubsub.NewClient: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	topic, err := client.CreateTopic(ctx, "storefront-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	return srv, topic
}

func TestPublishExchangeRateUpdated(t *testing.T) {
	ctx := context.Background()
	srv, topic := newTestTopic(t)

	publisher, err := NewPubSubPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubPublisher: %v", err)
	}

	msg := services.ExchangeRateUpdatedMessage{
		ExchangeRate: 41.75,
		RateSource:   "tcmb",
		UpdatedBy:    "admin_1",
		UpdatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if _, err := publisher.PublishExchangeRateUpdated(ctx, msg); err != nil {
		t.Fatalf("PublishExchangeRateUpdated: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	var payload services.ExchangeRateUpdatedMessage
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.ExchangeRate != msg.ExchangeRate || payload.UpdatedBy != msg.UpdatedBy {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if got := messages[0].Attributes["eventType"]; got != "settings.exchange_rate_updated" {
		t.Fatalf("unexpected eventType attribute %q", got)
	}
	if got := messages[0].Attributes["exchangeRate"]; got != "41.75" {
		t.Fatalf("unexpected exchangeRate attribute %q", got)
	}
}

func TestPublishPriceListGenerated(t *testing.T) {
	ctx := context.Background()
	srv, topic := newTestTopic(t)

	publisher, err := NewPubSubPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubPublisher: %v", err)
	}

	msg := services.PriceListGeneratedMessage{
		DealerID:     "dealer_1",
		ObjectPath:   "price-lists/dealer_1/20260301T120000Z.csv",
		ProductCount: 42,
		GeneratedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if _, err := publisher.PublishPriceListGenerated(ctx, msg); err != nil {
		t.Fatalf("PublishPriceListGenerated: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if got := messages[0].Attributes["eventType"]; got != "pricelist.generated" {
		t.Fatalf("unexpected eventType attribute %q", got)
	}
	if got := messages[0].Attributes["dealerId"]; got != "dealer_1" {
		t.Fatalf("unexpected dealerId attribute %q", got)
	}
}
