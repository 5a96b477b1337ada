package history

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

// EncodeBulk writes per-server series as a bulk history document, the same
// shape DecodeBulk reads. The label column is the sorted union of every
// series' timestamps; a server with no sample at a shared instant exports a
// zero, which round-trips through DecodeBulk's missing-index rule.
func EncodeBulk(w io.Writer, series map[string][]model.Sample) error {
	labels, columns := columnize(series)

	doc := bulkDocument{Labels: labels}
	for _, id := range sortedIDs(series) {
		doc.Datasets = append(doc.Datasets, bulkDataset{
			Label: id,
			Data:  columns[id],
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode bulk history: %w", err)
	}
	return nil
}

// EncodeCSV writes the same export as a flat table: one row per instant,
// one column per server.
func EncodeCSV(w io.Writer, series map[string][]model.Sample) error {
	labels, columns := columnize(series)
	ids := sortedIDs(series)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"timestamp"}, ids...)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, label := range labels {
		row := make([]string, 0, len(ids)+1)
		row = append(row, label)
		for _, id := range ids {
			row = append(row, strconv.FormatFloat(columns[id][i], 'f', -1, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// columnize aligns every series onto one shared, sorted timestamp column.
func columnize(series map[string][]model.Sample) ([]string, map[string][]float64) {
	instants := make(map[int64]time.Time)
	for _, samples := range series {
		for _, s := range samples {
			instants[s.TS.UnixNano()] = s.TS
		}
	}

	keys := make([]int64, 0, len(instants))
	for k := range instants {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	labels := make([]string, len(keys))
	index := make(map[int64]int, len(keys))
	for i, k := range keys {
		labels[i] = instants[k].UTC().Format(time.RFC3339)
		index[k] = i
	}

	columns := make(map[string][]float64, len(series))
	for id, samples := range series {
		col := make([]float64, len(keys))
		for _, s := range samples {
			col[index[s.TS.UnixNano()]] = float64(s.Players)
		}
		columns[id] = col
	}
	return labels, columns
}

func sortedIDs(series map[string][]model.Sample) []string {
	ids := make([]string, 0, len(series))
	for id := range series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
