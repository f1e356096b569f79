package daemon

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestShutdownEndpoint(t *testing.T) {
	called := make(chan struct{}, 1)
	api := newTestAPI(newStubSampler("idle", nil))
	api.Shutdown = func(ctx context.Context) error {
		called <- struct{}{}
		return nil
	}
	server := newTestServer(t, api)

	resp, err := http.Post(server.URL+"/v1/shutdown", "application/json", nil)
	if err != nil {
		t.Fatalf("shutdown request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	select {
	case <-called:
	case <-time.After(1 * time.Second):
		t.Fatalf("shutdown not called")
	}
}

func TestShutdownEndpointRequiresPost(t *testing.T) {
	api := newTestAPI(newStubSampler("idle", nil))
	api.Shutdown = func(context.Context) error {
		t.Errorf("shutdown should not be called")
		return nil
	}
	server := newTestServer(t, api)

	resp, err := http.Get(server.URL + "/v1/shutdown")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}
