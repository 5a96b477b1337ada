package source

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

// PayloadShape names where in a status payload the player count was found.
// Status endpoints are heterogeneous; the count may sit at the top level or
// under one of two known wrapper keys.
type PayloadShape string

const (
	ShapeTopLevel PayloadShape = "players"
	ShapeCurrent  PayloadShape = "current.players"
	ShapeData     PayloadShape = "data.players"
)

// ExtractPlayers pulls a player count out of a status payload, reporting
// which shape matched. Anything that is not a finite number at one of the
// known locations is "no data", not an error.
func ExtractPlayers(payload map[string]interface{}) (float64, PayloadShape, bool) {
	if payload == nil {
		return 0, "", false
	}
	if v, ok := finiteNumber(payload["players"]); ok {
		return v, ShapeTopLevel, true
	}
	if nested, ok := payload["current"].(map[string]interface{}); ok {
		if v, ok := finiteNumber(nested["players"]); ok {
			return v, ShapeCurrent, true
		}
	}
	if nested, ok := payload["data"].(map[string]interface{}); ok {
		if v, ok := finiteNumber(nested["players"]); ok {
			return v, ShapeData, true
		}
	}
	return 0, "", false
}

func finiteNumber(v interface{}) (float64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// StatusClient queries individual per-server status endpoints. Every query
// is bounded by the configured timeout; a timeout, a non-success response
// or a malformed body all count as "no data" for that server only.
type StatusClient struct {
	client  *http.Client
	timeout time.Duration
}

// NewStatusClient creates a status client with the given per-query timeout.
func NewStatusClient(timeout time.Duration) *StatusClient {
	return &StatusClient{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// Query fetches one status endpoint and extracts its player count.
// The bool result reports whether usable data came back.
func (s *StatusClient) Query(ctx context.Context, url string, headers map[string]string) (model.Reading, bool) {
	if url == "" {
		return model.Reading{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.Reading{}, false
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return model.Reading{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Reading{}, false
	}

	var payload map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.Reading{}, false
	}

	players, _, ok := ExtractPlayers(payload)
	if !ok {
		return model.Reading{}, false
	}
	return model.Reading{Players: clampCount(players), Online: true}, true
}
