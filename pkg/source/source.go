// Package source gathers per-server player counts for one poll tick. Each
// server is fed by the shared master list, by its own status endpoint, or
// by neither, in which case it is reported offline. Per-server failures
// never block other servers; only a master list failure aborts the tick.
package source

import (
	"context"
	"log"
	"math"
	"sync"

	"github.com/dsputnikov/meta/pkg/config"
	"github.com/dsputnikov/meta/pkg/model"
)

const userAgent = "meta-monitoring"

// Aggregator normalizes heterogeneous status sources into one reading per
// configured server.
type Aggregator struct {
	servers []config.ServerConfig
	master  *MasterClient
	status  *StatusClient
}

// NewAggregator builds an aggregator over the configured servers.
func NewAggregator(cfg *config.Config) *Aggregator {
	return &Aggregator{
		servers: cfg.Servers,
		master:  NewMasterClient(cfg.MasterURL, cfg.StatusTimeout),
		status:  NewStatusClient(cfg.StatusTimeout),
	}
}

// Collect produces a reading for every configured server. Status endpoints
// are queried concurrently, each with its own timeout; a failed endpoint
// degrades that server to its fallback source. A master list failure is
// returned as an error so the caller can abandon the tick without touching
// state.
func (a *Aggregator) Collect(ctx context.Context) (map[string]model.Reading, error) {
	var listing map[string]model.Reading
	if a.needsMasterList() {
		var err error
		listing, err = a.master.Fetch(ctx)
		if err != nil {
			return nil, err
		}
	}

	overrides := a.collectStatus(ctx)

	readings := make(map[string]model.Reading, len(a.servers))
	for _, srv := range a.servers {
		if r, ok := overrides[srv.ID]; ok {
			readings[srv.ID] = r
			continue
		}
		if srv.UseMasterList {
			if r, ok := listing[srv.ID]; ok {
				readings[srv.ID] = r
			} else {
				readings[srv.ID] = model.Reading{}
			}
			continue
		}
		// No enabled source: offline with zero players.
		readings[srv.ID] = model.Reading{}
	}
	return readings, nil
}

// collectStatus fans out to every configured status endpoint and gathers
// the servers that answered with a usable player count.
func (a *Aggregator) collectStatus(ctx context.Context) map[string]model.Reading {
	results := make(map[string]model.Reading)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, srv := range a.servers {
		if srv.StatusURL == "" {
			continue
		}
		wg.Add(1)
		go func(srv config.ServerConfig) {
			defer wg.Done()
			reading, ok := a.status.Query(ctx, srv.StatusURL, srv.StatusHeaders)
			if !ok {
				log.Printf("Status endpoint for %s returned no data", srv.ID)
				return
			}
			mu.Lock()
			results[srv.ID] = reading
			mu.Unlock()
		}(srv)
	}
	wg.Wait()

	return results
}

func (a *Aggregator) needsMasterList() bool {
	for _, srv := range a.servers {
		if srv.UseMasterList {
			return true
		}
	}
	return false
}

// clampCount converts a raw numeric count to a non-negative integer,
// truncating fractions the way the upstream listings do.
func clampCount(v float64) int {
	if v < 0 {
		return 0
	}
	return int(math.Floor(v))
}
