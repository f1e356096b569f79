package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"statusd/internal/broadcast"
	"statusd/internal/daemon"
	"statusd/internal/types"
)

type settableSampler struct {
	mu     sync.Mutex
	sample types.StatusSample
}

func (s *settableSampler) Sample(context.Context) types.StatusSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample
}

func (s *settableSampler) set(sample types.StatusSample) {
	s.mu.Lock()
	s.sample = sample
	s.mu.Unlock()
}

func newDaemonServer(t *testing.T, sampler broadcast.Sampler) (*httptest.Server, *broadcast.Broadcaster) {
	t.Helper()
	b := broadcast.New(sampler)
	api := &daemon.API{Version: "test", Broadcaster: b}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	server := httptest.NewServer(daemon.LoggingMiddleware(nil, mux))
	t.Cleanup(func() {
		api.CloseStreams()
		server.Close()
	})
	return server, b
}

func receive(t *testing.T, ch <-chan types.StatusUpdate) types.StatusUpdate {
	t.Helper()
	select {
	case update, ok := <-ch:
		if !ok {
			t.Fatalf("stream closed")
		}
		return update
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for update")
	}
	return types.StatusUpdate{}
}

func waitCount(t *testing.T, b *broadcast.Broadcaster, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.Count() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d subscribers, got %d", want, b.Count())
}

func TestWatchReceivesSnapshotAndChanges(t *testing.T) {
	sampler := &settableSampler{sample: types.StatusSample{Label: "Elden Ring", Temperature: types.Celsius(45)}}
	server, b := newDaemonServer(t, sampler)
	b.Tick(context.Background())

	ch, stop, err := NewWithBaseURL(server.URL).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()

	snapshot := receive(t, ch)
	if snapshot.Status == nil || *snapshot.Status != "Elden Ring" || snapshot.Temperature == nil || *snapshot.Temperature != 45 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	sampler.set(types.StatusSample{Label: "idle", Temperature: types.Celsius(45)})
	b.Tick(context.Background())

	update := receive(t, ch)
	if update.Status == nil || *update.Status != "idle" {
		t.Fatalf("unexpected status %v", update.Status)
	}
	if update.HasTemperature {
		t.Fatalf("expected temperature to be omitted, got %+v", update)
	}

	stop()
	waitCount(t, b, 0)
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatalf("channel not closed after stop")
		}
	}
}

func TestWatchLostTemperatureIsExplicitNull(t *testing.T) {
	sampler := &settableSampler{sample: types.StatusSample{Label: "idle", Temperature: types.Celsius(50)}}
	server, b := newDaemonServer(t, sampler)
	b.Tick(context.Background())

	ch, stop, err := NewWithBaseURL(server.URL).Watch(context.Background())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer stop()
	receive(t, ch)

	sampler.set(types.StatusSample{Label: "idle"})
	b.Tick(context.Background())

	update := receive(t, ch)
	if update.Status != nil || !update.HasTemperature || update.Temperature != nil {
		t.Fatalf("expected explicit null temperature, got %+v", update)
	}
}

func TestWatchUnreachableDaemon(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, _, err := NewWithBaseURL("http://127.0.0.1:1").Watch(ctx); err == nil {
		t.Fatalf("expected dial error")
	}
}

func TestEventStreamReceivesUpdates(t *testing.T) {
	sampler := &settableSampler{sample: types.StatusSample{Label: "dolphin"}}
	server, b := newDaemonServer(t, sampler)
	b.Tick(context.Background())

	ch, stop, err := NewWithBaseURL(server.URL).EventStream(context.Background())
	if err != nil {
		t.Fatalf("EventStream: %v", err)
	}
	defer stop()

	snapshot := receive(t, ch)
	if snapshot.Status == nil || *snapshot.Status != "dolphin" || snapshot.HasTemperature {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	sampler.set(types.StatusSample{Label: "dolphin", Temperature: types.Celsius(61.5)})
	b.Tick(context.Background())

	update := receive(t, ch)
	if update.Status != nil || update.Temperature == nil || *update.Temperature != 61.5 {
		t.Fatalf("unexpected update %+v", update)
	}

	stop()
	waitCount(t, b, 0)
}
