package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"statusd/internal/logging"
	"statusd/internal/types"
)

const (
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4 << 10
)

// Subscribers are not authenticated, so any origin may connect.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type wsSubscriber struct {
	id   string
	conn *websocket.Conn
}

func (s *wsSubscriber) ID() string { return s.id }

// Send writes one text frame. Data frames are only written from here and
// the broadcaster serializes sends per subscriber.
func (s *wsSubscriber) Send(ctx context.Context, update types.StatusUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	if err := s.conn.SetWriteDeadline(writeDeadline(ctx)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// WebSocket accepts a subscriber connection. Inbound frames are read and
// discarded; a read error is the disconnect signal.
func (a *API) WebSocket(w http.ResponseWriter, r *http.Request) {
	if a.Broadcaster == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "broadcaster not available"})
		return
	}
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		a.logger().Debug("websocket_upgrade_failed", logging.F("error", err))
		return
	}
	defer conn.Close()

	sub := &wsSubscriber{id: uuid.NewString(), conn: conn}
	logger := a.logger().With(logging.F("subscriber", sub.id), logging.F("transport", "websocket"))
	if err := a.Broadcaster.Subscribe(r.Context(), sub); err != nil {
		logger.Debug("subscribe_failed", logging.F("error", err))
		return
	}
	defer a.Broadcaster.Unsubscribe(sub.id)

	stop := make(chan struct{})
	defer close(stop)
	go a.keepAlive(conn, stop)

	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket_read_failed", logging.F("error", err))
			}
			return
		}
	}
}

// keepAlive pings the peer until stop is closed and closes the connection
// when the daemon stops. WriteControl may run concurrently with Send.
func (a *API) keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-a.streamsDone():
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "daemon stopping")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = conn.Close()
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}
