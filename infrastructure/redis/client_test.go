package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonesrussell/north-crm/infrastructure/redis"
)

func TestNewClient_ReturnsErrorWhenAddressEmpty(t *testing.T) {
	client, err := redis.NewClient(context.Background(), redis.Config{Address: ""})

	if err == nil {
		t.Error("expected error for empty address")
	}
	if client != nil {
		t.Error("expected nil client for invalid config")
	}
}

func TestNewClient_PingsServer(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := redis.NewClient(context.Background(), redis.Config{Address: mr.Addr()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer client.Close()

	probe := redis.Probe(client)
	if probeErr := probe(context.Background()); probeErr != nil {
		t.Errorf("probe failed: %v", probeErr)
	}

	mr.Close()
	if probeErr := probe(context.Background()); probeErr == nil {
		t.Error("expected probe error after server shutdown")
	}
}

func TestNewClient_UnreachableServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	if _, err := redis.NewClient(context.Background(), redis.Config{Address: addr}); err == nil {
		t.Error("expected ping error for closed server")
	}
}
