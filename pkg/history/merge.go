// Package history reconciles player-count series from different origins:
// the live history accumulated by the store and a one-time bulk import of
// pre-existing long-term history.
package history

import (
	"sort"

	"github.com/dsputnikov/meta/pkg/model"
)

// Merge combines two series into one deduplicated, time-ordered series.
// Samples are keyed by their instant, not their textual timestamp, so two
// encodings of the same moment collapse to one sample. When both series
// carry a sample for the same instant the overlay wins.
func Merge(base, overlay []model.Sample) []model.Sample {
	merged := make(map[int64]model.Sample, len(base)+len(overlay))
	for _, sample := range base {
		merged[sample.TS.UnixNano()] = clean(sample)
	}
	for _, sample := range overlay {
		merged[sample.TS.UnixNano()] = clean(sample)
	}

	out := make([]model.Sample, 0, len(merged))
	for _, sample := range merged {
		out = append(out, sample)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].TS.Before(out[j].TS)
	})
	return out
}

// MergeAll overlays the live per-server history onto the bulk import,
// keeping bulk-only servers so long-term history survives config changes.
func MergeAll(bulk map[string][]model.Sample, state *model.State) map[string][]model.Sample {
	out := make(map[string][]model.Sample, len(bulk)+len(state.Servers))
	for id, series := range bulk {
		out[id] = Merge(series, nil)
	}
	for id, rec := range state.Servers {
		out[id] = Merge(out[id], rec.History)
	}
	return out
}

func clean(s model.Sample) model.Sample {
	if s.Players < 0 {
		s.Players = 0
	}
	return s
}
