// Package main runs the sniper pipeline: mention and launch ingestion,
// trend and safety scoring, and trade execution with exit supervision.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"memecoin-sniper/internal/config"
	"memecoin-sniper/internal/domain"
	"memecoin-sniper/internal/engine"
	"memecoin-sniper/internal/feeds"
	"memecoin-sniper/internal/launch"
	"memecoin-sniper/internal/market"
	"memecoin-sniper/internal/notify"
	"memecoin-sniper/internal/observability"
	"memecoin-sniper/internal/safety"
	"memecoin-sniper/internal/storage"
	chstore "memecoin-sniper/internal/storage/clickhouse"
	"memecoin-sniper/internal/storage/memory"
	"memecoin-sniper/internal/storage/migrations"
	pgstore "memecoin-sniper/internal/storage/postgres"
	"memecoin-sniper/internal/trader"
	"memecoin-sniper/internal/trend"
)

// allStores holds the storage implementations in use.
type allStores struct {
	launchStore  storage.LaunchStore
	tradeStore   storage.TradeRecordStore
	archiveStore storage.MentionArchiveStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[sniper] %v", err)
	}

	priceAPI := flag.String("price-api", os.Getenv("PRICE_API_URL"), "Price API base URL")
	auditAPI := flag.String("audit-api", os.Getenv("AUDIT_API_URL"), "Token audit API base URL")
	mentionAPI := flag.String("mention-api", os.Getenv("MENTION_API_URL"), "Mention API base URL")
	launchAPI := flag.String("launch-api", os.Getenv("LAUNCH_API_URL"), "Launch listing API base URL")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")
	metricsAddr := flag.String("metrics-addr", fmt.Sprintf(":%d", cfg.PrometheusPort), "Prometheus metrics HTTP address")
	flag.Parse()

	logger := log.New(os.Stdout, "[sniper] ", log.LstdFlags|log.Lshortfile)

	if *priceAPI == "" {
		logger.Fatal("--price-api is required")
	}
	if *auditAPI == "" {
		logger.Fatal("--audit-api is required")
	}
	if !*useMemory && (cfg.PostgresDSN == "" || cfg.ClickhouseDSN == "") {
		logger.Fatal("POSTGRES_DSN and CLICKHOUSE_DSN are required (use --use-memory for in-memory storage)")
	}

	logger.Printf("Mode: %s, telegram token: %s", cfg.Mode, cfg.MaskedTelegramToken())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Alerting: log sink always, Telegram when configured.
	dispatcher := notify.NewDispatcher(logger, notify.NewLogNotifier(logger))
	if cfg.TelegramToken != "" {
		tg, err := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Fatalf("Failed to create telegram notifier: %v", err)
		}
		dispatcher.Add(tg)
	}

	// Market data and safety features.
	priceSource := market.NewHTTPPriceSource(*priceAPI)
	loadProbe := market.NewRPCLoadProbe(cfg.RPCEndpoint)
	featureSource := safety.NewHTTPFeatureSource(*auditAPI)

	// Scoring.
	ledger := trend.NewLedger(cfg.ArchivalWindow)
	trendCfg := trend.DefaultScorerConfig()
	trendCfg.Window = cfg.TrendWindow
	trendCfg.MentionCap = float64(cfg.MentionCap)
	trendCfg.FollowerCap = float64(cfg.FollowerCap)
	trendCfg.EngagementCap = float64(cfg.EngagementCap)
	trendCfg.StrongThreshold = cfg.StrongThreshold
	trendCfg.DensityWeight = cfg.TrendDensityWeight
	trendCfg.InfluenceWeight = cfg.TrendInfluenceWeight
	trendCfg.EngagementWeight = cfg.TrendEngagementWeight
	trendScorer := trend.NewScorer(ledger, trendCfg)

	safetyCfg := safety.DefaultScorerConfig()
	safetyCfg.CacheTTL = cfg.SafetyCacheTTL
	safetyCfg.ContractWeight = cfg.RiskContractWeight
	safetyCfg.OwnershipWeight = cfg.RiskOwnershipWeight
	safetyCfg.LiquidityWeight = cfg.RiskLiquidityWeight
	safetyCfg.SafeBelow = cfg.RiskSafeBelow
	safetyCfg.MediumBelow = cfg.RiskMediumBelow
	safetyScorer := safety.NewScorer(featureSource, safetyCfg)

	// Trading.
	traderCfg := trader.DefaultConfig()
	traderCfg.DefaultSlippage = cfg.DefaultSlippage
	traderCfg.BasePriorityFee = cfg.BasePriorityFee
	traderCfg.HighLoadTxCount = cfg.HighLoadTxCount
	traderCfg.HighLoadMultiplier = cfg.HighLoadMultiplier
	traderCfg.FillLatency = cfg.FillLatency
	traderCfg.StopLossMult = cfg.StopLossMult
	traderCfg.TakeProfitMult = cfg.TakeProfitMult

	var eng *engine.Engine
	trd := trader.New(trader.Options{
		MarketData: priceSource,
		LoadProbe:  loadProbe,
		Trades:     stores.tradeStore,
		Config:     traderCfg,
		Logger:     log.New(os.Stdout, "[trader] ", log.LstdFlags),
		OnFill: func(ctx context.Context, record *domain.TradeRecord) {
			observability.RecordOrderFilled(record.Action.String())
			if record.Reason != "" {
				observability.RecordPositionExit(record.Reason)
			}
			eng.HandleFill(ctx, record)
		},
	})

	eng = engine.New(engine.Options{
		Trend:     trendScorer,
		Safety:    safetyScorer,
		Trader:    trd,
		Notifier:  dispatcher,
		Mode:      engine.Mode(cfg.Mode),
		BuyAmount: cfg.BuyAmount,
		Logger:    log.New(os.Stdout, "[engine] ", log.LstdFlags),
	})

	// Launch deduplication feeding the engine.
	deduper := launch.NewDeduper(stores.launchStore, func(ctx context.Context, record *domain.LaunchRecord) {
		observability.RecordLaunchDetected(record.Source)
		observability.DefaultMetrics.LastLaunchDetected.SetToCurrentTime()
		eng.HandleLaunch(ctx, record)
	}, log.New(os.Stdout, "[launch] ", log.LstdFlags))

	// Ingestion.
	feedCfg := feeds.DefaultConfig()
	feedCfg.PollInterval = cfg.PollInterval

	var mentionSources []feeds.MentionSource
	if *mentionAPI != "" {
		mentionSources = append(mentionSources, feeds.NewHTTPMentionSource("mention_api", *mentionAPI, nil))
	}

	var launchSources []feeds.LaunchSource
	if *launchAPI != "" {
		launchSources = append(launchSources, feeds.NewHTTPLaunchSource("launch_api", *launchAPI, nil))
	}

	runner := feeds.NewRunner(feeds.Options{
		Mentions: mentionSources,
		Launches: launchSources,
		Ledger:   ledger,
		Engine:   eng,
		Deduper:  deduper,
		Safety:   safetyScorer,
		Archive:  stores.archiveStore,
		Config:   feedCfg,
		Logger:   log.New(os.Stdout, "[feeds] ", log.LstdFlags),
	})

	// Shutdown handling: first signal cancels, second forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	go startHTTPServer(*metricsAddr, logger, trd)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		runner.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		trd.Run(ctx)
	}()

	if cfg.LaunchWSURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stream := feeds.NewWSLaunchStream("launch_ws", cfg.LaunchWSURL, deduper, feeds.DefaultWSConfig(), logger)
			stream.Run(ctx)
		}()
	}

	logger.Println("Pipeline started")
	wg.Wait()
	logger.Println("Shutdown complete")
}

// createStores creates the storage backends.
func createStores(ctx context.Context, cfg *config.Config, useMemory bool) (*allStores, func(), error) {
	if useMemory {
		stores := &allStores{
			launchStore:  memory.NewLaunchStore(),
			tradeStore:   memory.NewTradeRecordStore(),
			archiveStore: memory.NewMentionArchiveStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	stores := &allStores{
		launchStore:  pgstore.NewLaunchStore(pool),
		tradeStore:   pgstore.NewTradeRecordStore(pool),
		archiveStore: chstore.NewMentionArchiveStore(conn),
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// startHTTPServer serves health, metrics, and status endpoints.
func startHTTPServer(addr string, logger *log.Logger, trd *trader.Trader) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		resp := struct {
			Status        string `json:"status"`
			OpenPositions int    `json:"open_positions"`
			PendingOrders int    `json:"pending_orders"`
		}{
			Status:        "running",
			OpenPositions: len(trd.Positions()),
			PendingOrders: len(trd.PendingOrders()),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("HTTP server error: %v", err)
	}
}
