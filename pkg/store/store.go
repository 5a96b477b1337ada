// Package store owns the monitor state: per-server history, derived
// aggregates and the on-disk snapshot. A single Store instance is the only
// writer; readers get deep copies.
package store

import (
	"log"
	"math"
	"sync"
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

// Store is the single-writer time-series store. All mutation goes through
// Ingest, which is serialized by the mutex; HTTP handlers and tests read
// through Snapshot.
type Store struct {
	mu        sync.Mutex
	state     *model.State
	path      string
	retention time.Duration
	ids       []string
}

// Open loads the snapshot at path, falling back to a freshly initialized
// state when the file is absent or unreadable. Startup never fails on a
// bad snapshot; the monitor rebuilds history from live polls instead.
func Open(path string, ids []string, retention time.Duration) *Store {
	now := time.Now().UTC()

	state, err := readSnapshot(path)
	if err != nil {
		log.Printf("Snapshot %s unusable, starting fresh: %v", path, err)
		state = nil
	}
	if state == nil {
		state = model.NewState(ids, now)
	} else {
		// Servers added to the config since the snapshot was written
		// get zeroed records.
		for _, id := range ids {
			state.Ensure(id, now)
		}
	}

	return &Store{
		state:     state,
		path:      path,
		retention: retention,
		ids:       ids,
	}
}

// Ingest applies one poll tick: for every configured server it appends the
// tick's sample, trims samples older than the retention window, recomputes
// the derived aggregates and finally rewrites the snapshot. Readings absent
// from the map count as offline with zero players.
func (s *Store) Ingest(now time.Time, readings map[string]model.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cutoff time.Time
	if s.retention > 0 {
		cutoff = now.Add(-s.retention)
	}

	for _, id := range s.ids {
		rec := s.state.Ensure(id, now)
		reading := readings[id]

		rec.History = append(rec.History, model.Sample{TS: now, Players: reading.Players})
		if !cutoff.IsZero() {
			rec.History = trimBefore(rec.History, cutoff)
		}

		rec.Avg = model.Sample{TS: now, Players: meanPlayers(rec.History)}
		rec.Max = maxSample(rec.History, now)
		rec.Current = model.Sample{TS: now, Players: reading.Players}
		if reading.Online {
			rec.Status = model.StatusOnline
		} else {
			rec.Status = model.StatusOffline
		}
	}
	s.state.UpdatedAt = now

	return writeSnapshot(s.path, s.state)
}

// Snapshot returns a deep copy of the current state for read-only use.
func (s *Store) Snapshot() *model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// trimBefore drops samples strictly older than the cutoff. History is
// append-only and time-ordered, so the survivors are one contiguous tail.
func trimBefore(history []model.Sample, cutoff time.Time) []model.Sample {
	idx := 0
	for idx < len(history) && history[idx].TS.Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return history
	}
	kept := make([]model.Sample, len(history)-idx)
	copy(kept, history[idx:])
	return kept
}

// meanPlayers is the rounded mean over the retained history, ties away
// from zero.
func meanPlayers(history []model.Sample) int {
	if len(history) == 0 {
		return 0
	}
	sum := 0
	for _, sample := range history {
		sum += sample.Players
	}
	return int(math.Round(float64(sum) / float64(len(history))))
}

// maxSample picks the retained sample with the highest player count; on a
// tie the later-occurring sample wins.
func maxSample(history []model.Sample, now time.Time) model.Sample {
	best := model.Sample{TS: now}
	for _, sample := range history {
		if sample.Players >= best.Players {
			best = sample
		}
	}
	return best
}
