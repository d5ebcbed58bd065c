package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"

	"github.com/lacereza/storefront/internal/services"
)

const documentSavedEventType = "store.document.saved"

// PubSubDocumentPublisher announces saved store documents on a Pub/Sub topic.
type PubSubDocumentPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

var _ services.StoreEventPublisher = (*PubSubDocumentPublisher)(nil)

// NewPubSubDocumentPublisher constructs a Pub/Sub backed save-event publisher.
func NewPubSubDocumentPublisher(topic *pubsub.Topic) (*PubSubDocumentPublisher, error) {
	if topic == nil {
		return nil, errors.New("pubsub document publisher: topic is required")
	}
	return &PubSubDocumentPublisher{
		topic:   topic,
		marshal: json.Marshal,
	}, nil
}

// PublishDocumentSaved publishes the event and waits for the server-assigned message id.
func (p *PubSubDocumentPublisher) PublishDocumentSaved(ctx context.Context, event services.DocumentSavedEvent) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("pubsub document publisher: not initialised")
	}

	data, err := p.marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal document saved event: %w", err)
	}

	attrs := map[string]string{"eventType": documentSavedEventType}
	setAttr(attrs, "revision", strconv.FormatInt(event.Revision, 10))
	if !event.SavedAt.IsZero() {
		attrs["savedAt"] = event.SavedAt.UTC().Format(time.RFC3339Nano)
	}

	result := p.topic.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attrs,
	})

	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish document saved event: %w", err)
	}
	return id, nil
}

// Ping reports whether the topic exists.
func (p *PubSubDocumentPublisher) Ping(ctx context.Context) error {
	if p == nil || p.topic == nil {
		return errors.New("pubsub document publisher: not initialised")
	}
	ok, err := p.topic.Exists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("pubsub document publisher: topic %s not found", p.topic.ID())
	}
	return nil
}

// Stop flushes pending messages.
func (p *PubSubDocumentPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
