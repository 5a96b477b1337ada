// Package model defines the shared data shapes for the monitor: samples,
// per-server records and the persisted state snapshot.
package model

import (
	"math"
	"time"
)

// Status is the reachability of a monitored server as of the last poll.
type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
	StatusUnknown Status = "unknown"
)

// Sample is one player-count observation at an instant. The same shape is
// used for derived values (current, avg, max) where ts marks the instant
// the value refers to.
type Sample struct {
	TS      time.Time `json:"ts"`
	Players int       `json:"players"`
}

// Record is the full tracked state of one server. Current, Avg and Max are
// derived from History on every ingest and are kept only for O(1) reads.
type Record struct {
	ID      string   `json:"id"`
	Status  Status   `json:"status"`
	Current Sample   `json:"current"`
	Avg     Sample   `json:"avg"`
	Max     Sample   `json:"max"`
	History []Sample `json:"history"`
}

// State is the persisted snapshot: everything the monitor knows, keyed by
// server id. It is created once, mutated once per poll tick and rewritten
// whole to disk; it is never partially updated on disk.
type State struct {
	UpdatedAt time.Time          `json:"updatedAt"`
	Servers   map[string]*Record `json:"servers"`
}

// Point is a render-time projection of a Sample into a chart window.
// Points are derived per request and never persisted.
type Point struct {
	Time    time.Time `json:"time"`
	Players int       `json:"players"`
}

// Reading is one server's best-effort result for a poll tick, as produced
// by the status aggregator. The zero value means offline with no players.
type Reading struct {
	Players int
	Online  bool
}

// NewRecord returns a zeroed record for a server that has no data yet.
func NewRecord(id string, now time.Time) *Record {
	return &Record{
		ID:      id,
		Status:  StatusUnknown,
		Current: Sample{TS: now},
		Avg:     Sample{TS: now},
		Max:     Sample{TS: now},
		History: []Sample{},
	}
}

// NewState builds a default state covering the configured server ids.
func NewState(ids []string, now time.Time) *State {
	servers := make(map[string]*Record, len(ids))
	for _, id := range ids {
		servers[id] = NewRecord(id, now)
	}
	return &State{UpdatedAt: now, Servers: servers}
}

// Ensure returns the record for id, creating a zeroed one if the snapshot
// predates the server being added to the configuration.
func (s *State) Ensure(id string, now time.Time) *Record {
	if s.Servers == nil {
		s.Servers = make(map[string]*Record)
	}
	rec, ok := s.Servers[id]
	if !ok {
		rec = NewRecord(id, now)
		s.Servers[id] = rec
	}
	return rec
}

// Clone deep-copies the state so readers never share history slices with
// the single writer.
func (s *State) Clone() *State {
	out := &State{
		UpdatedAt: s.UpdatedAt,
		Servers:   make(map[string]*Record, len(s.Servers)),
	}
	for id, rec := range s.Servers {
		out.Servers[id] = rec.Clone()
	}
	return out
}

// Clone deep-copies a record including its history.
func (r *Record) Clone() *Record {
	cp := *r
	cp.History = make([]Sample, len(r.History))
	copy(cp.History, r.History)
	return &cp
}

// SanitizePlayers normalizes an untrusted player count: non-finite or
// negative values collapse to 0, fractional counts round to nearest.
func SanitizePlayers(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int(math.Round(v))
}
