package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dsputnikov/meta/pkg/history"
	"github.com/dsputnikov/meta/pkg/httpx"
)

// handleExport serves the merged history as a downloadable document: the
// bulk JSON shape the importer reads back, or a flat CSV table.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		httpx.RespondError(w, http.StatusBadRequest, fmt.Errorf("format must be json or csv, got %q", format))
		return
	}

	merged := s.charts.MergedHistory()
	stamp := time.Now().UTC().Format("20060102-150405")

	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=players-%s.csv", stamp))
		if err := history.EncodeCSV(w, merged); err != nil {
			httpx.RespondError(w, http.StatusInternalServerError, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=players-%s.json", stamp))
	if err := history.EncodeBulk(w, merged); err != nil {
		httpx.RespondError(w, http.StatusInternalServerError, err)
	}
}
