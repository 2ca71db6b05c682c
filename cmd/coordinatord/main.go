// coordinatord is the coordinator daemon: it loads configuration, opens
// the Postgres connection, wires the trading pipeline, collaborative
// revert protocol, and notification hub together, and serves the
// HTTP/JSON + WebSocket API described in SPEC_FULL.md §6. Grounded on
// lnd.go's lndMain/main split (nested entrypoint so deferred cleanups run
// before os.Exit) and server.go's Start/Stop/WaitForShutdown lifecycle,
// generalized from lnd's gRPC+P2P server to a single HTTP listener since
// the coordinator has no peer-to-peer wire protocol of its own (see
// DESIGN.md's dropped-htlcswitch/lnwire entry).
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/dlc-coordinator/coordinator/internal/api"
	"github.com/dlc-coordinator/coordinator/internal/build"
	"github.com/dlc-coordinator/coordinator/internal/config"
	"github.com/dlc-coordinator/coordinator/internal/health"
	"github.com/dlc-coordinator/coordinator/internal/metrics"
	"github.com/dlc-coordinator/coordinator/internal/notifier"
	"github.com/dlc-coordinator/coordinator/internal/orchestrator"
	"github.com/dlc-coordinator/coordinator/internal/revert"
	"github.com/dlc-coordinator/coordinator/internal/storage"
	"github.com/dlc-coordinator/coordinator/internal/wallet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = build.NewSubLogger("MAIN")

// connectWallet is the coordinator's boundary with its out-of-scope
// collaborator (spec.md §1): the on-chain/Lightning wallet backend. No
// concrete implementation is retrievable from the pack (btcwallet's full
// RPC-driven controller is lnd-specific and not generalizable to a DLC
// sub-channel wallet without fabricating an interface we can't ground),
// so it is left as an explicit extension point rather than a fake. A
// production deployment links in a real wallet.Backend at build time.
var connectWallet = func(cfg *config.Config) (wallet.Backend, error) {
	return nil, fmt.Errorf("coordinatord: no wallet.Backend wired in; this build has no on-chain wallet")
}

func coordinatorMain() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return err
	}

	logFile := cfg.DataDir + "/coordinatord.log"
	if err := build.InitLogRotator(logFile, cfg.MaxLogFileSizeKB, cfg.MaxLogFiles); err != nil {
		return fmt.Errorf("coordinatord: initializing log rotator: %w", err)
	}
	defer build.Flush()
	build.SetLogLevels(cfg.LogLevel)

	log.Infof("coordinatord starting, network=%s", cfg.Network)

	chainParams, err := cfg.ChainParams()
	if err != nil {
		return fmt.Errorf("coordinatord: %w", err)
	}

	oracleRaw, err := hex.DecodeString(cfg.OraclePubkey)
	if err != nil || len(oracleRaw) != 32 {
		return fmt.Errorf("coordinatord: oraclepubkey must be 32 bytes of hex")
	}
	var oraclePubkey [32]byte
	copy(oraclePubkey[:], oracleRaw)

	ctx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelBoot()

	db, err := storage.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("coordinatord: opening storage: %w", err)
	}
	defer db.Close()

	backend, err := connectWallet(cfg)
	if err != nil {
		log.Warnf("no wallet backend wired: %v; trade and revert endpoints will error", err)
	}

	hub := notifier.NewHub()
	pipeline := orchestrator.New(db, hub, oraclePubkey, chainParams)
	pipeline.Start()
	defer pipeline.Stop()

	revertProto := &revert.Protocol{
		Wallet:    backend,
		Positions: db,
		Reverts:   db,
		Notifier:  hub,
	}

	initialSettings := config.DefaultSettings()
	initialSettings.NewOrderFeeRateSatPerVByte = cfg.DefaultFeeRateSatPerVByte
	settings := config.NewStore(initialSettings)

	registry := prometheus.NewRegistry()
	metrics.MustRegister(registry)

	monitor := health.New(db, cfg.DataDir, diskFreeRatio, 0.1, func(format string, args ...interface{}) {
		log.Errorf(format, args...)
		os.Exit(1)
	})
	if err := monitor.Start(); err != nil {
		return fmt.Errorf("coordinatord: starting health monitor: %w", err)
	}
	defer monitor.Stop()

	server := api.NewServer(pipeline, revertProto, db, hub, settings, backend)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", server)

	httpServer := &http.Server{
		Addr:    cfg.HTTPListenAddr,
		Handler: mux,
	}

	serveErrors := make(chan error, 1)
	go func() {
		log.Infof("HTTP/JSON + WebSocket API listening on %s", cfg.HTTPListenAddr)
		if cfg.TLSCertPath != "" && cfg.TLSKeyPath != "" {
			serveErrors <- httpServer.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		serveErrors <- httpServer.ListenAndServe()
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-interrupt:
		log.Infof("received %v, shutting down gracefully", sig)
	case err := <-serveErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("coordinatord: HTTP server: %w", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("error during HTTP server shutdown: %v", err)
	}

	log.Info("coordinatord shutdown complete")
	return nil
}

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := coordinatorMain(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
