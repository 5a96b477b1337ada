package history

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dsputnikov/meta/pkg/model"
)

// bulkDocument is the shape of the one-time history export: timestamps and
// dataset values are parallel arrays, with data[i] belonging to labels[i].
type bulkDocument struct {
	Labels   []string      `json:"labels"`
	Datasets []bulkDataset `json:"datasets"`
}

type bulkDataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// DecodeBulk parses a bulk history document into per-server series. A
// dataset index past the end of its data array counts as zero players; a
// label that does not parse as a timestamp drops that column for every
// dataset. A document without the expected arrays yields no history.
func DecodeBulk(data []byte) (map[string][]model.Sample, error) {
	var doc bulkDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bulk history: %w", err)
	}
	if len(doc.Labels) == 0 || len(doc.Datasets) == 0 {
		return nil, nil
	}

	// Parse the shared timestamp column once.
	instants := make([]time.Time, len(doc.Labels))
	valid := make([]bool, len(doc.Labels))
	for i, label := range doc.Labels {
		ts, err := time.Parse(time.RFC3339, label)
		if err != nil {
			continue
		}
		instants[i] = ts
		valid[i] = true
	}

	out := make(map[string][]model.Sample, len(doc.Datasets))
	for _, dataset := range doc.Datasets {
		if dataset.Label == "" {
			continue
		}
		series := make([]model.Sample, 0, len(doc.Labels))
		for i := range doc.Labels {
			if !valid[i] {
				continue
			}
			var value float64
			if i < len(dataset.Data) {
				value = dataset.Data[i]
			}
			series = append(series, model.Sample{
				TS:      instants[i],
				Players: model.SanitizePlayers(value),
			})
		}
		out[dataset.Label] = series
	}
	return out, nil
}

// LoadBulk reads the bulk history file at path. A missing file simply
// means there is no imported history; the monitor shows live data only.
func LoadBulk(path string) (map[string][]model.Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read bulk history: %w", err)
	}
	return DecodeBulk(data)
}
