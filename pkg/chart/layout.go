package chart

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/dsputnikov/meta/pkg/model"
)

// Fixed plot padding in pixels: room for value labels on the left and time
// labels underneath.
const (
	PaddingTop    = 28.0
	PaddingRight  = 32.0
	PaddingBottom = 48.0
	PaddingLeft   = 64.0
)

// axisSteps are the candidate vertical steps, scaled by powers of ten until
// four steps cover the observed maximum.
var axisSteps = []int{50, 100, 200, 250, 500, 1000, 2000, 5000}

// yAxisTicks is fixed: the axis always shows 0..4·step.
const yAxisTicks = 4

// NeutralColor is the series color of last resort.
const NeutralColor = "#9aa0a6"

// palette is the fallback color set for servers without a declared legend
// color; assignment is stable per id via hashing.
var palette = []string{
	"#3284ff", "#1aae39", "#f2a33c", "#e25563",
	"#8e6cef", "#2bb8c4", "#d968b6", "#97a93c",
}

// Axis is the vertical scale: 5 ticks at 0, step .. 4·step.
type Axis struct {
	Step  int   `json:"step"`
	Max   int   `json:"max"`
	Ticks []int `json:"ticks"`
}

// TimeTick is one horizontal axis mark.
type TimeTick struct {
	Time  time.Time `json:"time"`
	X     float64   `json:"x"`
	Label string    `json:"label"`
}

// Series pairs a server id with its projected, downsampled points.
type Series struct {
	ID     string
	Points []model.Point
}

// SeriesLayout is one series with its resolved color and pixel path.
type SeriesLayout struct {
	ID     string        `json:"id"`
	Color  string        `json:"color"`
	Points []model.Point `json:"points"`
	Path   []Coord       `json:"path"`
}

// Coord is a pixel position inside the chart.
type Coord struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Layout is the full deterministic render geometry for one chart frame.
type Layout struct {
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	PlotWidth  float64        `json:"plotWidth"`
	PlotHeight float64        `json:"plotHeight"`
	Start      time.Time      `json:"start"`
	End        time.Time      `json:"end"`
	YAxis      Axis           `json:"yAxis"`
	YLabels    []string       `json:"yLabels"`
	TimeTicks  []TimeTick     `json:"timeTicks"`
	Series     []SeriesLayout `json:"series"`
	Empty      bool           `json:"empty"`
}

// NiceScale picks the vertical step: the smallest candidate, scaled by
// powers of ten when needed, whose four steps cover max(1, observedMax).
// The overshoot on values just past a boundary (437 selects step 200, an
// 800 axis) is deliberate and observable behavior.
func NiceScale(observedMax int) Axis {
	target := observedMax
	if target < 1 {
		target = 1
	}

	step := 0
	for scale := 1; step == 0; scale *= 10 {
		for _, candidate := range axisSteps {
			s := candidate * scale
			if s*yAxisTicks >= target {
				step = s
				break
			}
		}
	}

	ticks := make([]int, 0, yAxisTicks+1)
	for i := 0; i <= yAxisTicks; i++ {
		ticks = append(ticks, i*step)
	}
	return Axis{Step: step, Max: step * yAxisTicks, Ticks: ticks}
}

// FormatValue renders an axis value, abbreviating thousands ("2k", "1.5k").
func FormatValue(v int) string {
	if v < 1000 {
		return fmt.Sprintf("%d", v)
	}
	thousands := float64(v) / 1000
	if thousands == float64(int(thousands)) {
		return fmt.Sprintf("%dk", int(thousands))
	}
	return fmt.Sprintf("%.1fk", thousands)
}

// NewLayout computes the chart geometry for the given series, window and
// canvas size. The result is deterministic for identical inputs. A canvas
// too small to plot in, or a frame with no renderable points, yields an
// explicit empty layout rather than an error.
func NewLayout(seriesList []Series, start, end time.Time, width, height float64, legend map[string]string) *Layout {
	l := &Layout{
		Width:  width,
		Height: height,
		Start:  start,
		End:    end,
	}

	l.PlotWidth = width - PaddingLeft - PaddingRight
	l.PlotHeight = height - PaddingTop - PaddingBottom
	if l.PlotWidth <= 0 || l.PlotHeight <= 0 {
		l.Empty = true
		return l
	}

	maxPlayers := 0
	hasPoints := false
	for _, s := range seriesList {
		for _, p := range s.Points {
			hasPoints = true
			if p.Players > maxPlayers {
				maxPlayers = p.Players
			}
		}
	}
	if !hasPoints {
		l.Empty = true
		return l
	}

	l.YAxis = NiceScale(maxPlayers)
	l.YLabels = make([]string, 0, len(l.YAxis.Ticks))
	for _, tick := range l.YAxis.Ticks {
		l.YLabels = append(l.YLabels, FormatValue(tick))
	}

	l.TimeTicks = l.buildTimeTicks()

	l.Series = make([]SeriesLayout, 0, len(seriesList))
	for _, s := range seriesList {
		sl := SeriesLayout{
			ID:     s.ID,
			Color:  ResolveColor(s.ID, legend),
			Points: s.Points,
			Path:   make([]Coord, 0, len(s.Points)),
		}
		for _, p := range s.Points {
			sl.Path = append(sl.Path, Coord{X: l.XForTime(p.Time), Y: l.YForPlayers(p.Players)})
		}
		l.Series = append(l.Series, sl)
	}
	return l
}

// XForTime maps an instant linearly onto the plot width.
func (l *Layout) XForTime(t time.Time) float64 {
	progress := float64(t.Sub(l.Start)) / float64(l.span())
	return PaddingLeft + progress*l.PlotWidth
}

// TimeForX inverts the horizontal mapping.
func (l *Layout) TimeForX(x float64) time.Time {
	progress := (x - PaddingLeft) / l.PlotWidth
	return l.Start.Add(time.Duration(progress * float64(l.span())))
}

// YForPlayers maps a player count onto the plot height, zero at the bottom.
func (l *Layout) YForPlayers(players int) float64 {
	ratio := float64(players) / float64(l.YAxis.Max)
	return PaddingTop + (1-ratio)*l.PlotHeight
}

// Contains reports whether a pixel position falls inside the plot area.
func (l *Layout) Contains(x, y float64) bool {
	return x >= PaddingLeft && x <= l.Width-PaddingRight &&
		y >= PaddingTop && y <= l.Height-PaddingBottom
}

func (l *Layout) span() time.Duration {
	span := l.End.Sub(l.Start)
	if span <= 0 {
		return time.Millisecond
	}
	return span
}

// buildTimeTicks spaces ticks evenly in time, roughly one per 120px but
// never fewer than 4 or more than 8, endpoints included. Ticks are not
// snapped to calendar boundaries.
func (l *Layout) buildTimeTicks() []TimeTick {
	count := int(l.PlotWidth / 120)
	if count < 4 {
		count = 4
	}
	if count > 8 {
		count = 8
	}

	span := l.span()
	step := span / time.Duration(count-1)
	ticks := make([]TimeTick, 0, count)
	for i := 0; i < count; i++ {
		t := l.Start.Add(step * time.Duration(i))
		if i == count-1 {
			t = l.End
		}
		ticks = append(ticks, TimeTick{
			Time:  t,
			X:     l.XForTime(t),
			Label: t.Format("2 Jan"),
		})
	}
	return ticks
}

// ResolveColor picks a series color: the declared legend color wins, then
// a stable palette slot hashed from the id, then neutral gray.
func ResolveColor(id string, legend map[string]string) string {
	if c, ok := legend[id]; ok && c != "" {
		return c
	}
	if id == "" {
		return NeutralColor
	}
	return palette[xxhash.Sum64String(id)%uint64(len(palette))]
}
