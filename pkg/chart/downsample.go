package chart

import (
	"math"
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

// Downsample reduces a point sequence to at most limit points while keeping
// input order. Points are grouped into contiguous index buckets of
// ceil(len/limit) and each bucket is represented by its highest player
// count, first occurrence winning ties. Taking the bucket maximum keeps
// population spikes visible that a stride sample or average would smooth
// away.
func Downsample(points []model.Point, limit int) []model.Point {
	if limit <= 0 || len(points) <= limit {
		return points
	}

	bucketSize := (len(points) + limit - 1) / limit
	out := make([]model.Point, 0, limit)
	for i := 0; i < len(points); i += bucketSize {
		end := i + bucketSize
		if end > len(points) {
			end = len(points)
		}
		best := points[i]
		for _, p := range points[i+1 : end] {
			if p.Players > best.Players {
				best = p
			}
		}
		out = append(out, best)
	}
	return out
}

// Summary holds the window-scoped aggregates shown on a server card.
type Summary struct {
	AvgPlayers int       `json:"avgPlayers"`
	AvgTime    time.Time `json:"avgTime"`
	MaxPlayers int       `json:"maxPlayers"`
	MaxTime    time.Time `json:"maxTime"`
}

// Summarize computes the rounded mean and the peak over the projected
// points. The mean is stamped with the last point's time; the peak ties
// toward the later sample, matching the store's aggregate rule.
func Summarize(points []model.Point) Summary {
	if len(points) == 0 {
		return Summary{}
	}

	total := 0
	best := points[0]
	for _, p := range points {
		total += p.Players
		if p.Players >= best.Players {
			best = p
		}
	}

	return Summary{
		AvgPlayers: int(math.Round(float64(total) / float64(len(points)))),
		AvgTime:    points[len(points)-1].Time,
		MaxPlayers: best.Players,
		MaxTime:    best.Time,
	}
}
