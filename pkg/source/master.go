package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

// MasterClient fetches the shared bulk listing of game servers. The listing
// maps server id to an object carrying a numeric player count; a server that
// is absent, or whose count cannot be read as a finite number, is offline.
type MasterClient struct {
	url    string
	client *http.Client
}

// NewMasterClient creates a client for the bulk listing at url.
func NewMasterClient(url string, timeout time.Duration) *MasterClient {
	return &MasterClient{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// masterEntry decodes one listing entry leniently: a single entry with an
// unreadable players field degrades that entry to offline instead of
// failing the whole listing.
type masterEntry struct {
	Players *float64 `json:"players"`
}

// Fetch downloads and decodes the full listing. Any failure here is an
// aggregate source failure: the caller abandons the tick.
func (m *MasterClient) Fetch(ctx context.Context) (map[string]model.Reading, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build master list request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch master list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("master list status: %d", resp.StatusCode)
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode master list: %w", err)
	}

	listing := make(map[string]model.Reading, len(raw))
	for id, entry := range raw {
		var e masterEntry
		if err := json.Unmarshal(entry, &e); err != nil || e.Players == nil {
			continue
		}
		players := *e.Players
		if math.IsNaN(players) || math.IsInf(players, 0) {
			continue
		}
		listing[id] = model.Reading{Players: clampCount(players), Online: true}
	}
	return listing, nil
}
