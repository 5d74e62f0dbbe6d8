package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"villagefeed/config"
)

// EdgeConfigStore writes keys as items of a Vercel Edge Config through the
// management REST API.
type EdgeConfigStore struct {
	endpoint string
	id       string
	token    string
	client   *http.Client
}

func NewEdgeConfigStore(cfg config.EdgeConfigConfig, client *http.Client) *EdgeConfigStore {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "https://api.vercel.com/v1/edge-config"
	}
	return &EdgeConfigStore{
		endpoint: strings.TrimRight(endpoint, "/"),
		id:       cfg.ID,
		token:    cfg.Token,
		client:   client,
	}
}

type edgeConfigItem struct {
	Operation string          `json:"operation"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
}

type edgeConfigPatch struct {
	Items []edgeConfigItem `json:"items"`
}

// edgeConfigEntry is the body of a single item read.
type edgeConfigEntry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (s *EdgeConfigStore) Get(ctx context.Context, key string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/item/%s", s.endpoint, url.PathEscape(s.id), url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("edge config error %d: %s", resp.StatusCode, string(body))
	}

	var entry edgeConfigEntry
	if err := json.Unmarshal(body, &entry); err != nil {
		return nil, fmt.Errorf("edge config item %s: %w", key, err)
	}
	if len(entry.Value) == 0 || string(entry.Value) == "null" {
		return nil, ErrNotFound
	}
	return entry.Value, nil
}

// Set upserts one item. value must be valid JSON.
func (s *EdgeConfigStore) Set(ctx context.Context, key string, value []byte) error {
	data, err := json.Marshal(edgeConfigPatch{
		Items: []edgeConfigItem{{Operation: "upsert", Key: key, Value: json.RawMessage(value)}},
	})
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/%s/items", s.endpoint, url.PathEscape(s.id))
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("edge config error %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (s *EdgeConfigStore) Close() error {
	return nil
}
