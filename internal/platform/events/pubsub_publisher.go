package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/teknofix/api/internal/services"
)

// PubSubPublisher publishes storefront domain events to a Pub/Sub topic.
type PubSubPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

var (
	_ services.SettingsEventPublisher  = (*PubSubPublisher)(nil)
	_ services.PriceListEventPublisher = (*PubSubPublisher)(nil)
)

// NewPubSubPublisher constructs a Pub/Sub backed event publisher.
func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub publisher: topic is required")
	}
	return &PubSubPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishExchangeRateUpdated emits the rate change event on the configured topic.
func (p *PubSubPublisher) PublishExchangeRateUpdated(ctx context.Context, message services.ExchangeRateUpdatedMessage) (string, error) {
	attrs := map[string]string{
		"eventType":    "settings.exchange_rate_updated",
		"exchangeRate": strconv.FormatFloat(message.ExchangeRate, 'f', -1, 64),
	}
	setAttr(attrs, "rateSource", message.RateSource)
	setAttr(attrs, "updatedBy", message.UpdatedBy)
	return p.publish(ctx, message, attrs)
}

// PublishPriceListGenerated emits the export event on the configured topic.
func (p *PubSubPublisher) PublishPriceListGenerated(ctx context.Context, message services.PriceListGeneratedMessage) (string, error) {
	attrs := map[string]string{
		"eventType": "pricelist.generated",
	}
	setAttr(attrs, "dealerId", message.DealerID)
	setAttr(attrs, "objectPath", message.ObjectPath)
	return p.publish(ctx, message, attrs)
}

func (p *PubSubPublisher) publish(ctx context.Context, message any, attrs map[string]string) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub publisher: not initialised")
	}

	data, err := p.marshal(message)
	if err != nil {
		return "", fmt.Errorf("marshal event %s: %w", attrs["eventType"], err)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish event %s: %w", attrs["eventType"], err)
	}
	return id, nil
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
