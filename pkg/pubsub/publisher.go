package pubsub

import (
	"context"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
)

const publishTimeout = 10 * time.Second

// TopicPublisher sends raw payloads to a single topic and waits for the server ack.
type TopicPublisher struct {
	publisher *pubsub.Publisher
}

func NewTopicPublisher(p *pubsub.Publisher) (*TopicPublisher, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return &TopicPublisher{publisher: p}, nil
}

// Publish sends data with attributes and returns the server-assigned message id.
func (t *TopicPublisher) Publish(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	result := t.publisher.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return result.Get(ctx)
}

// Stop flushes pending messages.
func (t *TopicPublisher) Stop() {
	t.publisher.Stop()
}
