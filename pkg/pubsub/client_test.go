package pubsub

import (
	"testing"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

func TestResourceNames(t *testing.T) {
	c := &Client{projectID: "storefront-local"}

	if got := c.topicResourceName("sf-order-events"); got != "projects/storefront-local/topics/sf-order-events" {
		t.Fatalf("unexpected topic name %q", got)
	}
	if got := c.topicResourceName("projects/other/topics/t"); got != "projects/other/topics/t" {
		t.Fatalf("full topic names must pass through, got %q", got)
	}
	if got := c.subscriptionResourceName(" sf-sub "); got != "projects/storefront-local/subscriptions/sf-sub" {
		t.Fatalf("unexpected subscription name %q", got)
	}
	if got := c.subscriptionResourceName(""); got != "" {
		t.Fatalf("empty names resolve to empty, got %q", got)
	}
}

func TestSubscriptionNamesSkipsBlank(t *testing.T) {
	if names := subscriptionNames(config.PubSubConfig{OrdersSubscription: "  "}); len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
	if names := subscriptionNames(config.PubSubConfig{OrdersSubscription: "orders"}); len(names) != 1 {
		t.Fatalf("expected one name, got %v", names)
	}
}

func TestClientOptions(t *testing.T) {
	if opts := clientOptions(config.GCPConfig{PubSubEmulatorHost: "localhost:8085", CredentialsJSON: "{}"}); len(opts) != 0 {
		t.Fatalf("emulator must not receive credentials")
	}
	if opts := clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`}); len(opts) != 1 {
		t.Fatalf("expected json credentials option")
	}
	if opts := clientOptions(config.GCPConfig{}); len(opts) != 0 {
		t.Fatalf("expected default credentials")
	}
}

func TestTopicNamesCoverOrdersAndCarts(t *testing.T) {
	names := topicNames(config.PubSubConfig{OrdersTopic: "orders", CartsTopic: " carts "})
	if len(names) != 2 || names[0] != "orders" || names[1] != "carts" {
		t.Fatalf("unexpected topics %v", names)
	}
	if names := topicNames(config.PubSubConfig{}); len(names) != 0 {
		t.Fatalf("expected no topics, got %v", names)
	}
}
