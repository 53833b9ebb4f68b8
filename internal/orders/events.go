package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/glowhaus/storefront-backend/pkg/enums"
)

// EventOrderCreated is published once an order commits.
const EventOrderCreated = "order.created"

// OrderCreatedEvent is the payload of EventOrderCreated.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	UserID        string              `json:"userId"`
	UserEmail     string              `json:"userEmail,omitempty"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus enums.PaymentStatus `json:"paymentStatus"`
	Total         decimal.Decimal     `json:"total"`
	ItemCount     int                 `json:"itemCount"`
	CreatedAt     time.Time           `json:"createdAt"`
}

type envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// Publisher emits order events to downstream consumers.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) PublishOrderCreated(context.Context, OrderCreatedEvent) error { return nil }

type topicPublisher interface {
	Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// TopicPublisher writes events as JSON envelopes to a Pub/Sub topic.
type TopicPublisher struct {
	topic topicPublisher
	now   func() time.Time
}

func NewTopicPublisher(topic topicPublisher) (*TopicPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub topic required")
	}
	return &TopicPublisher{topic: topic, now: time.Now}, nil
}

func (p *TopicPublisher) PublishOrderCreated(ctx context.Context, event OrderCreatedEvent) error {
	data, err := json.Marshal(envelope{
		Type:       EventOrderCreated,
		OccurredAt: p.now().UTC(),
		Data:       event,
	})
	if err != nil {
		return err
	}
	_, err = p.topic.Publish(ctx, data, map[string]string{
		"event_type": EventOrderCreated,
		"order_id":   event.OrderID.String(),
	})
	return err
}
