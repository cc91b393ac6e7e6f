// Command pacserver serves IPv4-prefix-scoped PAC files over HTTP.
package main

import (
	"context"
	"os"
	"sync/atomic"

	"github.com/TimeForANinja/pacserver/config"
	"github.com/TimeForANinja/pacserver/httpapi"
	"github.com/TimeForANinja/pacserver/logging"
	"github.com/TimeForANinja/pacserver/metrics"
	"github.com/TimeForANinja/pacserver/pacache"
	"github.com/TimeForANinja/pacserver/router"
	"github.com/TimeForANinja/pacserver/server"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const listenAddr = "0.0.0.0:8080"

func main() {
	os.Exit(run())
}

// run performs three fatal-on-failure steps: load config, build
// caches, launch the server.
func run() int {
	bootLog := logging.BootstrapLogger()
	defer func() { _ = bootLog.Sync() }()

	configPath := config.ConfigFlag()
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLog.Error("unable to load config, exiting", zap.String("path", *configPath), zap.Error(err))
		return 1
	}

	eventLog := logging.MustBuild(cfg.EventLogFile)
	defer func() { _ = eventLog.Sync() }()
	accessLog := logging.MustBuild(cfg.AccessLogFile)
	defer func() { _ = accessLog.Sync() }()

	metrics.RegisterDefault(eventLog)

	cache := pacache.New(pacache.Config{
		IPMapFile:     cfg.IPMapFile,
		PACRoot:       cfg.PACRoot,
		ContactInfo:   cfg.ContactInfo,
		MaxCacheAge:   cfg.MaxCacheAge,
		DoAutoRefresh: cfg.DoAutoRefresh,
	}, eventLog)

	ctx, cancel := server.WithShutdownSignals(context.Background(), eventLog)
	defer cancel()

	if err := cache.Init(ctx); err != nil {
		eventLog.Error("unable to initialise caches by loading zones and templates, closing server since we're unable to recover from this", zap.Error(err))
		return 1
	}
	defer cache.Stop()

	var ready atomic.Bool
	ready.Store(true)

	query := httpapi.New(cache, eventLog)
	r := router.New(query, eventLog, accessLog, &ready)

	if err := server.ListenAndServeWithContext(ctx, listenAddr, server.DefaultTimeouts(), r, eventLog); err != nil {
		eventLog.Error("server error", zap.Error(err))
		return 1
	}

	return 0
}
