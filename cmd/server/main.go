package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dsputnikov/meta/pkg/config"
	"github.com/dsputnikov/meta/pkg/history"
	"github.com/dsputnikov/meta/pkg/poller"
	"github.com/dsputnikov/meta/pkg/server"
	"github.com/dsputnikov/meta/pkg/server/monitor"
	"github.com/dsputnikov/meta/pkg/source"
	"github.com/dsputnikov/meta/pkg/store"
)

var configPath = flag.String("config", "./config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	log.Println("Starting meta monitoring server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if len(cfg.Servers) == 0 {
		log.Println("No servers configured; the API will serve an empty snapshot")
	}

	st := store.Open(cfg.SnapshotPath, cfg.ServerIDs(), cfg.RetentionWindow())
	log.Printf("State loaded (%d servers, snapshot %s)", len(cfg.Servers), cfg.SnapshotPath)

	bulk, err := history.LoadBulk(cfg.BulkHistoryPath)
	if err != nil {
		// Malformed bulk history means live data only, never a dead server.
		log.Printf("Bulk history unusable, continuing without it: %v", err)
		bulk = nil
	} else if bulk != nil {
		log.Printf("Bulk history loaded for %d servers", len(bulk))
	}

	pollHealth := monitor.NewPollMonitor(3 * cfg.PollInterval)
	agg := source.NewAggregator(cfg)
	p := poller.New(agg, st, cfg.PollInterval, poller.NewMetrics(), pollHealth)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(ctx)
	}()

	charts := server.NewChartService(st, bulk, cfg)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.New(st, charts, pollHealth, cfg.WebDir, cfg.DashboardRefresh()).Router(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown warning: %v", err)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Println("Poller stopped cleanly")
	case <-time.After(5 * time.Second):
		log.Println("Poller did not stop in time (forcing exit)")
	}

	log.Println("Server exited cleanly")
}
