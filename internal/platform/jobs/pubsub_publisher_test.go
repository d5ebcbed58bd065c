package jobs

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

	"github.com/lacereza/storefront/internal/services"
)

func newTestPubSubClient(t *testing.T, ctx context.Context) (*pstest.Server, *pubsub.Client) {
	t.Helper()
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
	return srv, client
}

func TestPubSubDocumentPublisherPublishesMessage(t *testing.T) {
	ctx := context.Background()
	srv, client := newTestPubSubClient(t, ctx)

	topic, err := client.CreateTopic(ctx, "store-events")
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}

	publisher, err := NewPubSubDocumentPublisher(topic)
	if err != nil {
		t.Fatalf("NewPubSubDocumentPublisher: %v", err)
	}
	defer publisher.Stop()

	if err := publisher.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	savedAt := time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC)
	event := services.DocumentSavedEvent{
		Revision:   3,
		SavedAt:    savedAt,
		Bytes:      2048,
		Categories: 2,
		Products:   3,
	}

	if _, err := publisher.PublishDocumentSaved(ctx, event); err != nil {
		t.Fatalf("PublishDocumentSaved: %v", err)
	}

	messages := srv.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}

	var payload services.DocumentSavedEvent
	if err := json.Unmarshal(messages[0].Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Revision != 3 || payload.Products != 3 || !payload.SavedAt.Equal(savedAt) {
		t.Fatalf("unexpected payload %#v", payload)
	}
	if attr := messages[0].Attributes["eventType"]; attr != "store.document.saved" {
		t.Fatalf("unexpected eventType attribute %q", attr)
	}
	if attr := messages[0].Attributes["revision"]; attr != "3" {
		t.Fatalf("unexpected revision attribute %q", attr)
	}
}

func TestPubSubDocumentPublisherPingMissingTopic(t *testing.T) {
	ctx := context.Background()
	_, client := newTestPubSubClient(t, ctx)

	publisher, err := NewPubSubDocumentPublisher(client.Topic("absent"))
	if err != nil {
		t.Fatalf("NewPubSubDocumentPublisher: %v", err)
	}
	if err := publisher.Ping(ctx); err == nil {
		t.Fatalf("expected missing topic error")
	}
}

func TestNewPubSubDocumentPublisherRequiresTopic(t *testing.T) {
	if _, err := NewPubSubDocumentPublisher(nil); err == nil {
		t.Fatalf("expected error for nil topic")
	}
}
