package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmuriuki/soko/internal/config"
	"github.com/dmuriuki/soko/internal/marketdata"
	"github.com/dmuriuki/soko/internal/marketdata/extapi"
	"github.com/dmuriuki/soko/internal/marketdata/scrape"
	"github.com/dmuriuki/soko/internal/marketdata/synthetic"
	"github.com/dmuriuki/soko/internal/modules/analysis"
	"github.com/dmuriuki/soko/internal/scheduler"
	"github.com/dmuriuki/soko/internal/server"
	"github.com/dmuriuki/soko/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; bail the plain way.
		println("failed to load configuration:", err.Error())
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting soko")

	// Acquisition tiers in strict fallback order: scrape, provider API,
	// synthetic backstop.
	sources := []marketdata.Source{
		scrape.New(cfg.ScrapeURL, cfg.TierTimeout, log),
	}
	if cfg.ProviderBaseURL != "" {
		sources = append(sources, extapi.New(cfg.ProviderBaseURL, cfg.ProviderAPIKey, marketdata.CatalogSymbols(), cfg.TierTimeout, log))
	} else {
		log.Warn().Msg("No provider API configured, running scrape and synthetic tiers only")
	}
	sources = append(sources, synthetic.New(marketdata.Catalog, nil, log))

	market := marketdata.NewOrchestrator(sources, marketdata.OrchestratorConfig{
		TierTimeout:    cfg.TierTimeout,
		MaxRetries:     cfg.MaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay,
		QuoteTTL:       cfg.QuoteTTL,
	}, log)

	facade := analysis.New(market, analysis.Config{
		RiskFreeRate:   cfg.RiskFreeRate,
		DriftThreshold: cfg.RebalanceDriftPct,
		ResultTTL:      cfg.AnalysisTTL,
	}, log)

	refresher := scheduler.NewRefreshJob(market, cfg.TierTimeout*3, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(scheduler.EverySchedule(cfg.RefreshInterval), refresher); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
	}, market, facade, refresher, log)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
