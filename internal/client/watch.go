package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"statusd/internal/types"
)

const wsHandshakeTimeout = 5 * time.Second

// Watch subscribes over WebSocket. The first update is the daemon's current
// snapshot when it has sampled at least once. The channel is closed when the
// connection ends or stop is called.
func (c *Client) Watch(ctx context.Context) (<-chan types.StatusUpdate, func(), error) {
	endpoint, err := c.wsURL("/ws")
	if err != nil {
		return nil, nil, err
	}
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: wsHandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			defer resp.Body.Close()
			return nil, nil, decodeAPIError(resp)
		}
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan types.StatusUpdate, 16)
	go func() {
		<-ctx.Done()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	}()
	go func() {
		defer close(ch)
		defer cancel()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var update types.StatusUpdate
			if err := json.Unmarshal(data, &update); err != nil {
				continue
			}
			select {
			case ch <- update:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, cancel, nil
}

func (c *Client) wsURL(path string) (string, error) {
	parsed, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("unsupported daemon url scheme: " + parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + path
	return parsed.String(), nil
}
