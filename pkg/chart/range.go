// Package chart turns merged player-count history into render geometry:
// window projection, peak-preserving downsampling, axis layout and
// pointer-hover resolution.
package chart

import (
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

// Range is a named visible window ending at the anchor instant.
type Range string

const (
	RangeDay   Range = "day"
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
	RangeYear  Range = "year"
	RangeAll   Range = "all"
)

// ParseRange maps a request parameter to a Range, defaulting to month the
// way the dashboard does for an unknown tab.
func ParseRange(s string) Range {
	switch Range(s) {
	case RangeDay, RangeWeek, RangeMonth, RangeYear, RangeAll:
		return Range(s)
	default:
		return RangeMonth
	}
}

// Duration returns the window length and whether the range is bounded.
func (r Range) Duration() (time.Duration, bool) {
	switch r {
	case RangeDay:
		return 24 * time.Hour, true
	case RangeWeek:
		return 7 * 24 * time.Hour, true
	case RangeMonth:
		return 30 * 24 * time.Hour, true
	case RangeYear:
		return 365 * 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Anchor resolves the reference "now" for the window. The fallback order is
// fixed: the latest sample observed across all series keeps the chart
// aligned with actual data, then the snapshot's updatedAt, then wall-clock
// time when there is no data at all.
func Anchor(series map[string][]model.Sample, updatedAt time.Time, wallClock time.Time) time.Time {
	var latest time.Time
	for _, samples := range series {
		if len(samples) == 0 {
			continue
		}
		last := samples[len(samples)-1].TS
		if last.After(latest) {
			latest = last
		}
	}
	if !latest.IsZero() {
		return latest
	}
	if !updatedAt.IsZero() {
		return updatedAt
	}
	return wallClock
}

// Window computes the visible [start, anchor] interval for a range. An
// unbounded range starts at the earliest retained sample; with no data the
// window collapses to the anchor instant.
func Window(r Range, series map[string][]model.Sample, updatedAt time.Time, wallClock time.Time) (start, anchor time.Time) {
	anchor = Anchor(series, updatedAt, wallClock)

	if dur, bounded := r.Duration(); bounded {
		return anchor.Add(-dur), anchor
	}

	start = anchor
	for _, samples := range series {
		if len(samples) == 0 {
			continue
		}
		if first := samples[0].TS; first.Before(start) {
			start = first
		}
	}
	return start, anchor
}

// Project filters each series into the window, converting samples to
// render points. Servers with no samples in the window contribute an empty
// series rather than disappearing.
func Project(series map[string][]model.Sample, start, end time.Time) map[string][]model.Point {
	out := make(map[string][]model.Point, len(series))
	for id, samples := range series {
		points := make([]model.Point, 0, len(samples))
		for _, sample := range samples {
			if sample.TS.Before(start) || sample.TS.After(end) {
				continue
			}
			points = append(points, model.Point{Time: sample.TS, Players: sample.Players})
		}
		out[id] = points
	}
	return out
}
