package chart

import (
	"testing"
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

func hoverLayout(t *testing.T) *Layout {
	t.Helper()
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	series := []Series{
		{ID: "alpha", Points: []model.Point{
			{Time: base, Players: 10},
			{Time: base.Add(1 * time.Hour), Players: 20},
			{Time: base.Add(2 * time.Hour), Players: 30},
		}},
		{ID: "beta", Points: []model.Point{
			{Time: base.Add(30 * time.Minute), Players: 5},
			{Time: base.Add(90 * time.Minute), Players: 15},
		}},
	}
	l := NewLayout(series, base, base.Add(2*time.Hour), 960, 360, nil)
	if l.Empty {
		t.Fatal("Layout unexpectedly empty")
	}
	return l
}

func TestResolve_OutsidePlot(t *testing.T) {
	l := hoverLayout(t)

	if _, ok := Resolve(l, PaddingLeft-5, 100); ok {
		t.Error("Hover left of the plot should resolve to nothing")
	}
	if _, ok := Resolve(l, 500, 5); ok {
		t.Error("Hover above the plot should resolve to nothing")
	}
	if _, ok := Resolve(nil, 500, 100); ok {
		t.Error("Nil layout should resolve to nothing")
	}
}

func TestResolve_SnapsToNearestSample(t *testing.T) {
	l := hoverLayout(t)
	base := l.Start

	// Point just right of the middle sample snaps back to it.
	x := l.XForTime(base.Add(70 * time.Minute))
	hover, ok := Resolve(l, x, 100)
	if !ok {
		t.Fatal("Expected a hover inside the plot")
	}
	if !hover.Time.Equal(base.Add(1 * time.Hour)) {
		t.Errorf("Hover time = %v, want the nearest alpha sample", hover.Time)
	}
	if hover.X != l.XForTime(hover.Time) {
		t.Errorf("Hover X = %v, want the snapped sample's x", hover.X)
	}
}

func TestResolve_CrossSeriesValues(t *testing.T) {
	l := hoverLayout(t)
	base := l.Start

	x := l.XForTime(base.Add(1 * time.Hour))
	hover, ok := Resolve(l, x, 100)
	if !ok {
		t.Fatal("Expected a hover")
	}
	if len(hover.Points) != 2 {
		t.Fatalf("Expected 2 hover points, got %d", len(hover.Points))
	}

	byID := make(map[string]HoverPoint)
	for _, p := range hover.Points {
		byID[p.ID] = p
	}
	if byID["alpha"].Players != 20 {
		t.Errorf("alpha = %d, want 20", byID["alpha"].Players)
	}
	// beta has no sample at 1h; its nearest neighbors at 30m and 90m are
	// equidistant and the earlier one wins.
	if byID["beta"].Players != 5 {
		t.Errorf("beta = %d, want 5 (earlier of the tied neighbors)", byID["beta"].Players)
	}
	if byID["alpha"].Color == "" || byID["beta"].Color == "" {
		t.Error("Hover points should carry resolved colors")
	}
}

func TestNearestIndex(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	points := []model.Point{
		{Time: base},
		{Time: base.Add(10 * time.Minute)},
		{Time: base.Add(20 * time.Minute)},
	}

	tests := []struct {
		target time.Time
		want   int
	}{
		{base.Add(-time.Hour), 0},           // before the series
		{base.Add(4 * time.Minute), 0},      // closer to the first
		{base.Add(6 * time.Minute), 1},      // closer to the second
		{base.Add(5 * time.Minute), 0},      // exact midpoint ties earlier
		{base.Add(15 * time.Minute), 1},     // tie again, earlier wins
		{base.Add(20 * time.Minute), 2},     // exact hit
		{base.Add(time.Hour), 2},            // past the series
	}
	for _, tt := range tests {
		if got := nearestIndex(points, tt.target); got != tt.want {
			t.Errorf("nearestIndex(%v) = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestResolve_SkipsEmptyPrimary(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	series := []Series{
		{ID: "empty"},
		{ID: "full", Points: []model.Point{{Time: base, Players: 3}, {Time: base.Add(time.Hour), Players: 9}}},
	}
	l := NewLayout(series, base, base.Add(time.Hour), 960, 360, nil)

	hover, ok := Resolve(l, PaddingLeft+10, 100)
	if !ok {
		t.Fatal("Expected a hover from the non-empty series")
	}
	if len(hover.Points) != 1 || hover.Points[0].ID != "full" {
		t.Errorf("Hover points = %+v, want only the full series", hover.Points)
	}
}

func TestRevalidate(t *testing.T) {
	l := hoverLayout(t)

	held := &Hover{Time: l.Start.Add(time.Hour)}
	if got := Revalidate(held, l); got != held {
		t.Error("Hover inside the window should survive revalidation")
	}

	stale := &Hover{Time: l.Start.Add(-time.Hour)}
	if got := Revalidate(stale, l); got != nil {
		t.Error("Hover before the window should clear")
	}

	future := &Hover{Time: l.End.Add(time.Minute)}
	if got := Revalidate(future, l); got != nil {
		t.Error("Hover past the window should clear")
	}

	if got := Revalidate(held, &Layout{Empty: true}); got != nil {
		t.Error("Hover over an empty layout should clear")
	}
	if got := Revalidate(nil, l); got != nil {
		t.Error("Nil hover stays nil")
	}
}
