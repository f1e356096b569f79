package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"statusd/internal/logging"
	"statusd/internal/types"
)

const streamWriteTimeout = 10 * time.Second

// sseSubscriber writes updates to an open event-stream response. It is only
// valid while the handler that created it is running.
type sseSubscriber struct {
	id      string
	w       http.ResponseWriter
	rc      *http.ResponseController
	flusher http.Flusher
}

func (s *sseSubscriber) ID() string { return s.id }

func (s *sseSubscriber) Send(ctx context.Context, update types.StatusUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	if err := s.rc.SetWriteDeadline(writeDeadline(ctx)); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	if _, err := s.w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	if _, err := s.w.Write([]byte("\n\n")); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Events streams status updates as server-sent events.
func (a *API) Events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if a.Broadcaster == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "broadcaster not available"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	_, _ = w.Write([]byte(":\n\n"))
	flusher.Flush()

	sub := &sseSubscriber{
		id:      uuid.NewString(),
		w:       w,
		rc:      http.NewResponseController(w),
		flusher: flusher,
	}
	logger := a.logger().With(logging.F("subscriber", sub.id), logging.F("transport", "sse"))
	ctx := r.Context()
	if err := a.Broadcaster.Subscribe(ctx, sub); err != nil {
		logger.Debug("subscribe_failed", logging.F("error", err))
		return
	}
	defer a.Broadcaster.Unsubscribe(sub.id)

	reason := "client_closed"
	select {
	case <-ctx.Done():
	case <-a.streamsDone():
		reason = "daemon_stopping"
	}
	logger.Debug("events_stream_close", logging.F("reason", reason))
}

// writeDeadline bounds a single send by the stream write timeout or an
// earlier context deadline.
func writeDeadline(ctx context.Context) time.Time {
	deadline := time.Now().Add(streamWriteTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}
