// Package poller drives the poll loop: one tick at a time, each tick
// collecting every server's player count and committing one state update.
package poller

import (
	"context"
	"log"
	"time"

	"github.com/dsputnikov/meta/pkg/model"
	"github.com/dsputnikov/meta/pkg/server/monitor"
	"github.com/dsputnikov/meta/pkg/source"
	"github.com/dsputnikov/meta/pkg/store"
)

// Collector is the tick-level view of the status aggregator.
type Collector interface {
	Collect(ctx context.Context) (map[string]model.Reading, error)
}

// Poller runs ticks on a fixed interval. Ticks never overlap: the loop is
// a single goroutine, and a tick that runs past its interval simply makes
// the ticker drop the missed fire instead of queueing a second tick over
// the shared state.
type Poller struct {
	collector Collector
	store     *store.Store
	interval  time.Duration
	metrics   *Metrics
	health    *monitor.PollMonitor
}

// New creates a poller over the given aggregator and store.
func New(agg *source.Aggregator, st *store.Store, interval time.Duration, metrics *Metrics, health *monitor.PollMonitor) *Poller {
	return &Poller{
		collector: agg,
		store:     st,
		interval:  interval,
		metrics:   metrics,
		health:    health,
	}
}

// Run polls until the context is canceled. The first tick fires
// immediately so a fresh start has data before the first interval ends.
func (p *Poller) Run(ctx context.Context) {
	log.Printf("Poller started (interval %v)", p.interval)

	p.tick(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Poller stopped")
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

// tick runs one poll cycle. A master list failure abandons the whole tick
// with no state mutation; everything else degrades per server inside the
// aggregator.
func (p *Poller) tick(ctx context.Context) {
	start := time.Now()

	readings, err := p.collector.Collect(ctx)
	if err != nil {
		log.Printf("Tick abandoned, will retry next interval: %v", err)
		p.metrics.recordTick(false, time.Since(start).Seconds())
		p.health.RecordFailure(err)
		return
	}

	now := time.Now().UTC().Truncate(time.Second)
	if err := p.store.Ingest(now, readings); err != nil {
		// State is updated in memory; only the snapshot write failed.
		log.Printf("Snapshot write failed: %v", err)
		p.health.RecordFailure(err)
	} else {
		p.health.RecordSuccess()
	}

	for id, reading := range readings {
		p.metrics.recordServer(id, reading.Players, reading.Online)
	}
	p.metrics.recordTick(true, time.Since(start).Seconds())
}
