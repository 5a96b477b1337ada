package server

import (
	"time"

	"github.com/dsputnikov/meta/pkg/chart"
	"github.com/dsputnikov/meta/pkg/config"
	"github.com/dsputnikov/meta/pkg/history"
	"github.com/dsputnikov/meta/pkg/model"
	"github.com/dsputnikov/meta/pkg/store"
)

// ChartService assembles chart frames: it merges the one-time bulk history
// import with live store history, projects the active range and runs the
// layout engine. Everything here works on snapshots; the service never
// mutates store state.
type ChartService struct {
	store  *store.Store
	bulk   map[string][]model.Sample
	legend map[string]string
	order  []string
}

// NewChartService wires the chart pipeline over the store. The bulk
// history map may be nil when no import file exists.
func NewChartService(st *store.Store, bulk map[string][]model.Sample, cfg *config.Config) *ChartService {
	return &ChartService{
		store:  st,
		bulk:   bulk,
		legend: cfg.LegendColors(),
		order:  cfg.ServerIDs(),
	}
}

// DateRange is the span of rendered samples, shown above the chart.
type DateRange struct {
	Earliest *time.Time `json:"earliest"`
	Latest   *time.Time `json:"latest"`
}

// ChartFrame is one fully computed chart response.
type ChartFrame struct {
	Range     chart.Range              `json:"range"`
	Layout    *chart.Layout            `json:"layout"`
	Summaries map[string]chart.Summary `json:"summaries"`
	DateRange DateRange                `json:"dateRange"`
}

// MergedHistory returns every known series with the live history overlaid
// on the bulk import, including servers no longer in the configuration.
func (c *ChartService) MergedHistory() map[string][]model.Sample {
	return history.MergeAll(c.bulk, c.store.Snapshot())
}

// BuildFrame computes the chart for a named range at the given canvas
// size. The frame is deterministic for a fixed store state and clock.
func (c *ChartService) BuildFrame(r chart.Range, width, height float64) *ChartFrame {
	state := c.store.Snapshot()
	merged := history.MergeAll(c.bulk, state)

	windowStart, anchor := chart.Window(r, merged, state.UpdatedAt, time.Now().UTC())
	projected := chart.Project(merged, windowStart, anchor)

	frame := &ChartFrame{
		Range:     r,
		Summaries: make(map[string]chart.Summary, len(c.order)),
	}

	var earliest, latest time.Time
	seriesList := make([]chart.Series, 0, len(c.order))
	for _, id := range c.order {
		points := projected[id]
		frame.Summaries[id] = chart.Summarize(points)

		if len(points) > 0 {
			first, last := points[0].Time, points[len(points)-1].Time
			if earliest.IsZero() || first.Before(earliest) {
				earliest = first
			}
			if last.After(latest) {
				latest = last
			}
		}

		seriesList = append(seriesList, chart.Series{
			ID:     id,
			Points: chart.Downsample(points, config.MaxChartPoints),
		})
	}

	// The drawn window clamps to the data actually present so a sparse
	// range does not render mostly dead space.
	chartStart, chartEnd := windowStart, anchor
	if !earliest.IsZero() {
		if earliest.After(chartStart) {
			chartStart = earliest
		}
		chartEnd = latest
		frame.DateRange = DateRange{Earliest: &earliest, Latest: &latest}
	}

	frame.Layout = chart.NewLayout(seriesList, chartStart, chartEnd, width, height, c.legend)
	return frame
}

// ResolveHover recomputes the frame for the given parameters and resolves
// the pointer position against it.
func (c *ChartService) ResolveHover(r chart.Range, width, height, x, y float64) (*chart.Hover, bool) {
	frame := c.BuildFrame(r, width, height)
	return chart.Resolve(frame.Layout, x, y)
}
