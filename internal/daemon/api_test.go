package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"statusd/internal/broadcast"
	"statusd/internal/types"
)

type stubSampler struct {
	mu     sync.Mutex
	sample types.StatusSample
}

func newStubSampler(label string, temp *float64) *stubSampler {
	return &stubSampler{sample: types.StatusSample{Label: label, Temperature: temp}}
}

func (s *stubSampler) Sample(context.Context) types.StatusSample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sample
}

func (s *stubSampler) set(label string, temp *float64) {
	s.mu.Lock()
	s.sample = types.StatusSample{Label: label, Temperature: temp}
	s.mu.Unlock()
}

func newTestAPI(sampler broadcast.Sampler) *API {
	return &API{
		Version:     "test-version",
		Broadcaster: broadcast.New(sampler),
	}
}

func newTestServer(t *testing.T, api *API) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	server := httptest.NewServer(LoggingMiddleware(nil, mux))
	t.Cleanup(func() {
		api.CloseStreams()
		server.Close()
	})
	return server
}

func TestHealth(t *testing.T) {
	recorder := httptest.NewRecorder()
	api := newTestAPI(newStubSampler("idle", nil))

	api.Health(recorder, httptest.NewRequest("GET", "/health", nil))

	var resp types.HealthResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if !resp.OK {
		t.Fatalf("expected ok=true")
	}
	if resp.Version != "test-version" {
		t.Fatalf("expected version 'test-version', got %q", resp.Version)
	}
	if resp.PID <= 0 {
		t.Fatalf("expected pid to be positive, got %d", resp.PID)
	}
	if resp.Subscribers != 0 {
		t.Fatalf("expected no subscribers, got %d", resp.Subscribers)
	}
}

func TestRoot(t *testing.T) {
	api := newTestAPI(newStubSampler("idle", nil))
	server := newTestServer(t, api)

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("get root: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body types.InfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if body.Message != "statusd running" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestUnknownPathIsNotFound(t *testing.T) {
	api := newTestAPI(newStubSampler("idle", nil))
	server := newTestServer(t, api)

	resp, err := http.Get(server.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStatusSnapshot(t *testing.T) {
	sampler := newStubSampler("Elden Ring", types.Celsius(45))
	api := newTestAPI(sampler)

	recorder := httptest.NewRecorder()
	api.Status(recorder, httptest.NewRequest("GET", "/v1/status", nil))
	var before types.StatusSnapshot
	if err := json.NewDecoder(recorder.Body).Decode(&before); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if before.Sampled || before.Status != nil || before.CPUTemperature != nil {
		t.Fatalf("expected empty snapshot before first sample, got %+v", before)
	}

	api.Broadcaster.Tick(context.Background())

	recorder = httptest.NewRecorder()
	api.Status(recorder, httptest.NewRequest("GET", "/v1/status", nil))
	var after types.StatusSnapshot
	if err := json.NewDecoder(recorder.Body).Decode(&after); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if !after.Sampled {
		t.Fatalf("expected sampled snapshot")
	}
	if after.Status == nil || *after.Status != "Elden Ring" {
		t.Fatalf("unexpected status %v", after.Status)
	}
	if after.CPUTemperature == nil || *after.CPUTemperature != 45 {
		t.Fatalf("unexpected temperature %v", after.CPUTemperature)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	api := newTestAPI(newStubSampler("idle", nil))
	recorder := httptest.NewRecorder()
	api.Status(recorder, httptest.NewRequest("POST", "/v1/status", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
}

func TestCloseStreamsClosesDoneOnce(t *testing.T) {
	api := newTestAPI(newStubSampler("idle", nil))

	api.CloseStreams()
	api.CloseStreams()

	select {
	case <-api.streamsDone():
	default:
		t.Fatalf("expected streams done to be closed")
	}
}
