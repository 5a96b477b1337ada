package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

func tempSnapshot(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "data.json")
}

func TestOpen_FreshState(t *testing.T) {
	st := Open(tempSnapshot(t), []string{"alpha", "beta"}, 0)

	state := st.Snapshot()
	if len(state.Servers) != 2 {
		t.Fatalf("Expected 2 servers, got %d", len(state.Servers))
	}
	rec := state.Servers["alpha"]
	if rec.Status != model.StatusUnknown {
		t.Errorf("Fresh record status = %q, want unknown", rec.Status)
	}
	if len(rec.History) != 0 {
		t.Errorf("Fresh record should have no history, got %d samples", len(rec.History))
	}
}

func TestOpen_CorruptSnapshotStartsFresh(t *testing.T) {
	path := tempSnapshot(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	st := Open(path, []string{"alpha"}, 0)
	state := st.Snapshot()
	if len(state.Servers) != 1 {
		t.Fatalf("Expected fresh state with 1 server, got %d", len(state.Servers))
	}
	if state.Servers["alpha"].Status != model.StatusUnknown {
		t.Errorf("Status = %q, want unknown", state.Servers["alpha"].Status)
	}
}

func TestIngest_Aggregates(t *testing.T) {
	st := Open(tempSnapshot(t), []string{"alpha"}, 0)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	// History 10, 50, 5: avg rounds to 22, max is 50 at t+60s.
	ticks := []struct {
		offset  time.Duration
		players int
	}{
		{0, 10},
		{60 * time.Second, 50},
		{120 * time.Second, 5},
	}
	for _, tick := range ticks {
		err := st.Ingest(base.Add(tick.offset), map[string]model.Reading{
			"alpha": {Players: tick.players, Online: true},
		})
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	rec := st.Snapshot().Servers["alpha"]
	if rec.Avg.Players != 22 {
		t.Errorf("Avg = %d, want 22", rec.Avg.Players)
	}
	if rec.Max.Players != 50 {
		t.Errorf("Max = %d, want 50", rec.Max.Players)
	}
	if want := base.Add(60 * time.Second); !rec.Max.TS.Equal(want) {
		t.Errorf("Max.TS = %v, want %v", rec.Max.TS, want)
	}
	if rec.Current.Players != 5 {
		t.Errorf("Current = %d, want the last tick's 5", rec.Current.Players)
	}
	if rec.Status != model.StatusOnline {
		t.Errorf("Status = %q, want online", rec.Status)
	}
	if len(rec.History) != 3 {
		t.Errorf("History length = %d, want 3", len(rec.History))
	}
}

func TestIngest_MaxTieTakesLater(t *testing.T) {
	st := Open(tempSnapshot(t), []string{"alpha"}, 0)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, players := range []int{30, 30, 10} {
		now := base.Add(time.Duration(i) * time.Minute)
		if err := st.Ingest(now, map[string]model.Reading{"alpha": {Players: players, Online: true}}); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	rec := st.Snapshot().Servers["alpha"]
	if want := base.Add(time.Minute); !rec.Max.TS.Equal(want) {
		t.Errorf("Max.TS = %v, want the later tied sample %v", rec.Max.TS, want)
	}
}

func TestIngest_MissingReadingIsOffline(t *testing.T) {
	st := Open(tempSnapshot(t), []string{"alpha", "beta"}, 0)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := st.Ingest(now, map[string]model.Reading{"alpha": {Players: 7, Online: true}}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	beta := st.Snapshot().Servers["beta"]
	if beta.Status != model.StatusOffline {
		t.Errorf("Status = %q, want offline", beta.Status)
	}
	if beta.Current.Players != 0 {
		t.Errorf("Current = %d, want 0", beta.Current.Players)
	}
	// The offline tick still lands in history so the chart shows the dip.
	if len(beta.History) != 1 || beta.History[0].Players != 0 {
		t.Errorf("History = %+v, want one zero sample", beta.History)
	}
}

func TestIngest_RetentionTrims(t *testing.T) {
	st := Open(tempSnapshot(t), []string{"alpha"}, 24*time.Hour)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	offsets := []time.Duration{0, 12 * time.Hour, 25 * time.Hour}
	for i, off := range offsets {
		err := st.Ingest(base.Add(off), map[string]model.Reading{"alpha": {Players: i + 1, Online: true}})
		if err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	rec := st.Snapshot().Servers["alpha"]
	// The first sample fell out of the 24h window on the last tick.
	if len(rec.History) != 2 {
		t.Fatalf("History length = %d, want 2", len(rec.History))
	}
	if rec.History[0].Players != 2 {
		t.Errorf("Oldest retained sample = %d, want 2", rec.History[0].Players)
	}
	// Aggregates cover only the retained window.
	if rec.Avg.Players != 3 {
		t.Errorf("Avg = %d, want 3 (mean of 2 and 3 rounds up)", rec.Avg.Players)
	}
}

func TestIngest_ZeroRetentionKeepsEverything(t *testing.T) {
	st := Open(tempSnapshot(t), []string{"alpha"}, 0)
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		now := base.Add(time.Duration(i) * 365 * 24 * time.Hour)
		if err := st.Ingest(now, map[string]model.Reading{"alpha": {Players: 1, Online: true}}); err != nil {
			t.Fatalf("Ingest failed: %v", err)
		}
	}

	if got := len(st.Snapshot().Servers["alpha"].History); got != 5 {
		t.Errorf("History length = %d, want all 5", got)
	}
}

func TestIngest_PersistsAcrossOpen(t *testing.T) {
	path := tempSnapshot(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	st := Open(path, []string{"alpha"}, 0)
	if err := st.Ingest(now, map[string]model.Reading{"alpha": {Players: 42, Online: true}}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	reopened := Open(path, []string{"alpha"}, 0)
	rec := reopened.Snapshot().Servers["alpha"]
	if rec.Current.Players != 42 {
		t.Errorf("Reopened current = %d, want 42", rec.Current.Players)
	}
	if !rec.Current.TS.Equal(now) {
		t.Errorf("Reopened TS = %v, want %v", rec.Current.TS, now)
	}
	if rec.Status != model.StatusOnline {
		t.Errorf("Reopened status = %q, want online", rec.Status)
	}
}

func TestOpen_NewServerJoinsOldSnapshot(t *testing.T) {
	path := tempSnapshot(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	st := Open(path, []string{"alpha"}, 0)
	if err := st.Ingest(now, map[string]model.Reading{"alpha": {Players: 1, Online: true}}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	// Config grew a server since the snapshot was written.
	grown := Open(path, []string{"alpha", "beta"}, 0)
	state := grown.Snapshot()
	if len(state.Servers) != 2 {
		t.Fatalf("Expected 2 servers, got %d", len(state.Servers))
	}
	if state.Servers["beta"].Status != model.StatusUnknown {
		t.Errorf("New server status = %q, want unknown", state.Servers["beta"].Status)
	}
	if state.Servers["alpha"].Current.Players != 1 {
		t.Errorf("Existing server lost its data")
	}
}

func TestSnapshot_IsDeepCopy(t *testing.T) {
	st := Open(tempSnapshot(t), []string{"alpha"}, 0)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := st.Ingest(now, map[string]model.Reading{"alpha": {Players: 9, Online: true}}); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}

	snap := st.Snapshot()
	snap.Servers["alpha"].History[0].Players = 9999
	snap.Servers["alpha"].Current.Players = 9999

	rec := st.Snapshot().Servers["alpha"]
	if rec.History[0].Players != 9 || rec.Current.Players != 9 {
		t.Error("Mutating a snapshot leaked into the store")
	}
}

func TestTrimBefore(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	history := []model.Sample{
		{TS: base, Players: 1},
		{TS: base.Add(time.Hour), Players: 2},
		{TS: base.Add(2 * time.Hour), Players: 3},
	}

	// Cutoff exactly on a sample keeps it.
	kept := trimBefore(history, base.Add(time.Hour))
	if len(kept) != 2 || kept[0].Players != 2 {
		t.Errorf("trimBefore kept %+v, want the last two samples", kept)
	}

	// Cutoff before everything is a no-op returning the same slice.
	all := trimBefore(history, base.Add(-time.Hour))
	if len(all) != 3 {
		t.Errorf("trimBefore dropped samples it should keep: %d", len(all))
	}

	// Cutoff past everything empties the history.
	none := trimBefore(history, base.Add(3*time.Hour))
	if len(none) != 0 {
		t.Errorf("trimBefore kept %d samples, want none", len(none))
	}
}
