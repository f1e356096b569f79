package client

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"statusd/internal/types"
)

// EventStream subscribes over server-sent events. It delivers the same
// updates as Watch.
func (c *Client) EventStream(ctx context.Context) (<-chan types.StatusUpdate, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/events", nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout: the stream stays open until cancelled.
	streamClient := &http.Client{}
	if c.http != nil {
		streamClient.Transport = c.http.Transport
	}
	resp, err := streamClient.Do(req)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		cancel()
		return nil, nil, decodeAPIError(resp)
	}

	ch := make(chan types.StatusUpdate, 16)
	go func() {
		defer close(ch)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 4096), 64*1024)
		var data strings.Builder
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if data.Len() == 0 {
					continue
				}
				var update types.StatusUpdate
				err := json.Unmarshal([]byte(data.String()), &update)
				data.Reset()
				if err != nil {
					continue
				}
				select {
				case ch <- update:
				case <-ctx.Done():
					return
				}
				continue
			}
			if strings.HasPrefix(line, ":") {
				continue
			}
			if payload, ok := strings.CutPrefix(line, "data:"); ok {
				if data.Len() > 0 {
					data.WriteByte('\n')
				}
				data.WriteString(strings.TrimPrefix(payload, " "))
			}
		}
	}()
	return ch, cancel, nil
}
