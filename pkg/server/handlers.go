// Package server exposes the monitor over HTTP: the state snapshot, the
// computed chart geometry, hover resolution and operational endpoints.
package server

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dsputnikov/meta/pkg/chart"
	"github.com/dsputnikov/meta/pkg/config"
	"github.com/dsputnikov/meta/pkg/httpx"
	"github.com/dsputnikov/meta/pkg/server/monitor"
	"github.com/dsputnikov/meta/pkg/store"
)

const (
	defaultChartWidth  = 960
	defaultChartHeight = 360
)

// Server bundles the monitor's HTTP handlers.
type Server struct {
	store   *store.Store
	charts  *ChartService
	health  *monitor.PollMonitor
	webDir  string
	refresh time.Duration
}

// New creates the HTTP server facade. refresh is the re-poll interval the
// dashboard is told to use.
func New(st *store.Store, charts *ChartService, health *monitor.PollMonitor, webDir string, refresh time.Duration) *Server {
	return &Server{
		store:   st,
		charts:  charts,
		health:  health,
		webDir:  webDir,
		refresh: refresh,
	}
}

// Router builds the route table. The API is read-only; all mutation
// happens in the poll loop.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	router.Use(logRequests)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/servers", s.handleServers).Methods("GET")
	api.HandleFunc("/chart", s.handleChart).Methods("GET")
	api.HandleFunc("/chart/hover", s.handleHover).Methods("GET")
	api.HandleFunc("/export", s.handleExport).Methods("GET")
	api.HandleFunc("/meta", s.handleMeta).Methods("GET")

	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// The dashboard itself: plain static files, no templating.
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.webDir)))

	return router
}

// handleServers serves the raw state snapshot the dashboard polls.
func (s *Server) handleServers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	httpx.RespondJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleChart serves the computed chart frame for a range and canvas size.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	rng, width, height := chartParams(r)
	frame := s.charts.BuildFrame(rng, width, height)
	httpx.RespondJSON(w, http.StatusOK, frame)
}

// metaResponse is the dashboard bootstrap: how often to re-poll and which
// color each configured server renders with.
type metaResponse struct {
	RefreshMillis int64        `json:"refreshMillis"`
	Servers       []metaServer `json:"servers"`
}

type metaServer struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	resp := metaResponse{
		RefreshMillis: s.refresh.Milliseconds(),
		Servers:       make([]metaServer, 0, len(s.charts.order)),
	}
	for _, id := range s.charts.order {
		resp.Servers = append(resp.Servers, metaServer{
			ID:    id,
			Color: chart.ResolveColor(id, s.charts.legend),
		})
	}
	httpx.RespondJSON(w, http.StatusOK, resp)
}

// hoverResponse wraps the hover state; a pointer outside the plot area or
// a chart with no data yields a null hover, not an error.
type hoverResponse struct {
	Hover *chart.Hover `json:"hover"`
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	rng, width, height := chartParams(r)
	x := floatParam(r, "x", -1)
	y := floatParam(r, "y", -1)

	hover, ok := s.charts.ResolveHover(rng, width, height, x, y)
	if !ok {
		httpx.RespondJSON(w, http.StatusOK, hoverResponse{})
		return
	}
	httpx.RespondJSON(w, http.StatusOK, hoverResponse{Hover: hover})
}

// HealthResponse reports service health for probes.
type HealthResponse struct {
	Status string             `json:"status"`
	Poll   monitor.PollStatus `json:"poll"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if !s.health.IsHealthy() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	httpx.RespondJSON(w, code, HealthResponse{
		Status: status,
		Poll:   s.health.Status(),
	})
}

// chartParams reads the shared chart query parameters, clamping the canvas
// to the minimum renderable size.
func chartParams(r *http.Request) (chart.Range, float64, float64) {
	rng := chart.ParseRange(r.URL.Query().Get("range"))

	width := floatParam(r, "width", defaultChartWidth)
	if width < config.ChartMinWidth {
		width = config.ChartMinWidth
	}
	height := floatParam(r, "height", defaultChartHeight)
	if height < config.ChartMinHeight {
		height = config.ChartMinHeight
	}
	return rng, width, height
}

func floatParam(r *http.Request, name string, fallback float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		// ParseFloat accepts "NaN" and "Inf"; a non-finite canvas size or
		// pointer position would poison every pixel computation downstream.
		return fallback
	}
	return v
}
