package chart

import (
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

// HoverPoint is one series' value at the resolved hover timestamp.
type HoverPoint struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
	Color   string `json:"color"`
}

// Hover is the tooltip state for a pointer position: the resolved sample
// timestamp, its pixel x for the cursor line, and every series' value at
// that timestamp.
type Hover struct {
	Time   time.Time    `json:"time"`
	X      float64      `json:"x"`
	Points []HoverPoint `json:"points"`
}

// Resolve maps a pointer position to a hover state. Positions outside the
// plot area resolve to nothing. Inside, the pointer x is inverted to a
// target time and snapped to the nearest sample of the primary series (the
// first series with any points); every other series then reports its own
// nearest sample at that shared timestamp so the tooltip stays consistent
// across differing sample grids.
func Resolve(l *Layout, x, y float64) (*Hover, bool) {
	if l == nil || l.Empty || !l.Contains(x, y) {
		return nil, false
	}

	primary := primarySeries(l)
	if primary == nil {
		return nil, false
	}

	target := l.TimeForX(x)
	nearest := primary.Points[nearestIndex(primary.Points, target)]
	hoverTime := nearest.Time

	hover := &Hover{
		Time:   hoverTime,
		X:      l.XForTime(hoverTime),
		Points: make([]HoverPoint, 0, len(l.Series)),
	}
	for _, s := range l.Series {
		if len(s.Points) == 0 {
			continue
		}
		p := s.Points[nearestIndex(s.Points, hoverTime)]
		hover.Points = append(hover.Points, HoverPoint{
			ID:      s.ID,
			Players: p.Players,
			Color:   s.Color,
		})
	}
	return hover, true
}

// Revalidate checks a held hover against a refreshed layout. A refresh
// that moves the window out from under the hover clears it. This is for
// the rendering client's refresh loop, which holds the hover between
// frames; the HTTP handlers resolve fresh on every request.
func Revalidate(h *Hover, l *Layout) *Hover {
	if h == nil || l == nil || l.Empty {
		return nil
	}
	if h.Time.Before(l.Start) || h.Time.After(l.End) {
		return nil
	}
	return h
}

func primarySeries(l *Layout) *SeriesLayout {
	for i := range l.Series {
		if len(l.Series[i].Points) > 0 {
			return &l.Series[i]
		}
	}
	return nil
}

// nearestIndex binary-searches ascending points for the sample closest to
// target; on an exact distance tie the earlier sample wins.
func nearestIndex(points []model.Point, target time.Time) int {
	left, right := 0, len(points)-1
	for left < right {
		mid := (left + right) / 2
		if points[mid].Time.Before(target) {
			left = mid + 1
		} else {
			right = mid
		}
	}

	idx := left
	if idx > 0 {
		prev := absDuration(points[idx-1].Time.Sub(target))
		curr := absDuration(points[idx].Time.Sub(target))
		if prev <= curr {
			idx--
		}
	}
	return idx
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
