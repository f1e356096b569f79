package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"statusd/internal/types"
)

type fakePower struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *fakePower) Start(_ context.Context, command string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, command)
	return p.err
}

func (p *fakePower) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func postCommand(t *testing.T, api *API, body string) types.CommandResponse {
	t.Helper()
	recorder := httptest.NewRecorder()
	api.Command(recorder, httptest.NewRequest("POST", "/command", strings.NewReader(body)))
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	var resp types.CommandResponse
	if err := json.NewDecoder(recorder.Body).Decode(&resp); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return resp
}

func TestCommandRelay(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []string
	}{
		{name: "shutdown", body: `{"command":"shutdown"}`, want: []string{"shutdown"}},
		{name: "sleep", body: `{"command":"sleep"}`, want: []string{"sleep"}},
		{name: "unknown", body: `{"command":"noop"}`, want: nil},
		{name: "case sensitive", body: `{"command":"Shutdown"}`, want: nil},
		{name: "missing command", body: `{}`, want: nil},
		{name: "not json", body: `shutdown`, want: nil},
		{name: "empty body", body: ``, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			power := &fakePower{}
			api := &API{Power: power}

			resp := postCommand(t, api, tt.body)
			if resp.Result != "ok" {
				t.Fatalf("expected result ok, got %q", resp.Result)
			}
			calls := power.Calls()
			if len(calls) != len(tt.want) {
				t.Fatalf("expected calls %v, got %v", tt.want, calls)
			}
			for i := range calls {
				if calls[i] != tt.want[i] {
					t.Fatalf("expected calls %v, got %v", tt.want, calls)
				}
			}
		})
	}
}

func TestCommandScenario(t *testing.T) {
	power := &fakePower{}
	api := &API{Power: power}

	if resp := postCommand(t, api, `{"command":"shutdown"}`); resp.Result != "ok" {
		t.Fatalf("expected ok, got %q", resp.Result)
	}
	if calls := power.Calls(); len(calls) != 1 || calls[0] != types.CommandShutdown {
		t.Fatalf("expected exactly one poweroff, got %v", calls)
	}
	if resp := postCommand(t, api, `{"command":"noop"}`); resp.Result != "ok" {
		t.Fatalf("expected ok, got %q", resp.Result)
	}
	if calls := power.Calls(); len(calls) != 1 {
		t.Fatalf("expected no further power calls, got %v", calls)
	}
}

func TestCommandLaunchFailureStillOK(t *testing.T) {
	power := &fakePower{err: errors.New("systemctl not found")}
	metrics := NewMetrics(prometheus.NewRegistry())
	api := &API{Power: power, Metrics: metrics}

	if resp := postCommand(t, api, `{"command":"sleep"}`); resp.Result != "ok" {
		t.Fatalf("expected ok, got %q", resp.Result)
	}
	if got := testutil.ToFloat64(metrics.commands.WithLabelValues("sleep", "failed")); got != 1 {
		t.Fatalf("expected one failed sleep, got %v", got)
	}
}

func TestCommandWithoutPowerController(t *testing.T) {
	api := &API{}
	if resp := postCommand(t, api, `{"command":"shutdown"}`); resp.Result != "ok" {
		t.Fatalf("expected ok, got %q", resp.Result)
	}
}

func TestCommandRejectsGet(t *testing.T) {
	power := &fakePower{}
	api := &API{Power: power}
	recorder := httptest.NewRecorder()
	api.Command(recorder, httptest.NewRequest("GET", "/command", nil))
	if recorder.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", recorder.Code)
	}
	if len(power.Calls()) != 0 {
		t.Fatalf("expected no power calls")
	}
}
