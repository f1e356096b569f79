package sampler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultSteamLocalURL = "http://localhost:27060/clients/status.json"
	defaultSteamStoreURL = "https://store.steampowered.com/api/appdetails"
	steamLocalTimeout    = 1 * time.Second
	steamStoreTimeout    = 2 * time.Second
)

// SteamClient talks to the Steam client's local status endpoint and the
// public store API. Resolved app names are cached for the process lifetime.
type SteamClient struct {
	http     *http.Client
	localURL string
	storeURL string

	mu    sync.Mutex
	names map[string]string
}

func NewSteamClient() *SteamClient {
	return NewSteamClientWithURLs(defaultSteamLocalURL, defaultSteamStoreURL, nil)
}

func NewSteamClientWithURLs(localURL, storeURL string, httpClient *http.Client) *SteamClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &SteamClient{
		http:     httpClient,
		localURL: strings.TrimSpace(localURL),
		storeURL: strings.TrimSpace(storeURL),
		names:    make(map[string]string),
	}
}

// appID accepts both "1245620" and 1245620.
type appID string

func (a *appID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = appID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = appID(n.String())
	return nil
}

type steamLocalStatus struct {
	Players []struct {
		GameID appID `json:"gameid"`
	} `json:"players"`
}

type steamAppDetails struct {
	Success bool `json:"success"`
	Data    struct {
		Name string `json:"name"`
	} `json:"data"`
}

// RunningAppID returns the app id of the game the first local player is
// running, or "" when none is.
func (c *SteamClient) RunningAppID(ctx context.Context) (string, error) {
	if c == nil || c.localURL == "" {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctx, steamLocalTimeout)
	defer cancel()

	var status steamLocalStatus
	if err := c.getJSON(ctx, c.localURL, &status); err != nil {
		return "", fmt.Errorf("steam local api: %w", err)
	}
	if len(status.Players) == 0 {
		return "", nil
	}
	id := string(status.Players[0].GameID)
	if id == "" || id == "0" {
		return "", nil
	}
	return id, nil
}

// AppName resolves id through the store API. Lookups that fail fall back to
// "SteamApp <id>" and are retried on the next call.
func (c *SteamClient) AppName(ctx context.Context, id string) string {
	id = strings.TrimSpace(id)
	fallback := "SteamApp " + id
	if c == nil {
		return fallback
	}
	c.mu.Lock()
	if name, ok := c.names[id]; ok {
		c.mu.Unlock()
		return name
	}
	c.mu.Unlock()
	if c.storeURL == "" {
		return fallback
	}

	ctx, cancel := context.WithTimeout(ctx, steamStoreTimeout)
	defer cancel()

	endpoint := c.storeURL + "?appids=" + url.QueryEscape(id)
	var details map[string]steamAppDetails
	if err := c.getJSON(ctx, endpoint, &details); err != nil {
		return fallback
	}
	app, ok := details[id]
	if !ok || !app.Success {
		return fallback
	}
	name := strings.TrimSpace(app.Data.Name)
	if name == "" {
		return fallback
	}
	c.mu.Lock()
	c.names[id] = name
	c.mu.Unlock()
	return name
}

func (c *SteamClient) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
