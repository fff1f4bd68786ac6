package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solana-trade-relay/internal/batch"
	"solana-trade-relay/internal/config"
	"solana-trade-relay/internal/dedup"
	"solana-trade-relay/internal/extract"
	"solana-trade-relay/internal/helius"
	"solana-trade-relay/internal/ingestion"
	"solana-trade-relay/internal/notify"
	"solana-trade-relay/internal/observability"
	"solana-trade-relay/internal/ratelimit"
	"solana-trade-relay/internal/solana"
	"solana-trade-relay/internal/storage"
	chstore "solana-trade-relay/internal/storage/clickhouse"
	"solana-trade-relay/internal/storage/memory"
	"solana-trade-relay/internal/storage/migrations"
	pgstore "solana-trade-relay/internal/storage/postgres"
)

// Helius serves both JSON-RPC and logsSubscribe on the same host.
const (
	heliusRPCFormat = "https://mainnet.helius-rpc.com/?api-key=%s"
	heliusWSFormat  = "wss://mainnet.helius-rpc.com/?api-key=%s"
)

func main() {
	mode := flag.String("mode", "poll", "Delivery mode: poll, push, or stream")
	rpcEndpoint := flag.String("rpc-endpoint", "", "Solana RPC HTTP endpoint (defaults to Helius mainnet)")
	wsEndpoint := flag.String("ws-endpoint", "", "Solana WebSocket endpoint for stream mode (defaults to Helius mainnet)")
	webhookURL := flag.String("webhook-url", "", "Public webhook URL to self-register in push mode (empty skips registration)")
	flag.Parse()

	logger := log.New(os.Stdout, "[relay] ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Config error: %v", err)
	}
	if *mode != "poll" && *mode != "push" && *mode != "stream" {
		logger.Fatalf("Unknown mode: %s", *mode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals with graceful timeout
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan error, 1)

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
		case <-done:
		}
	}()

	err = run(ctx, logger, cfg, *mode, *rpcEndpoint, *wsEndpoint, *webhookURL)
	done <- err
	cancel()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Error: %v", err)
	}
	logger.Println("Shutdown complete")
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, mode, rpcEndpoint, wsEndpoint, webhookURL string) error {
	if rpcEndpoint == "" {
		rpcEndpoint = fmt.Sprintf(heliusRPCFormat, cfg.HeliusAPIKey)
	}
	if wsEndpoint == "" {
		wsEndpoint = fmt.Sprintf(heliusWSFormat, cfg.HeliusAPIKey)
	}

	metrics := observability.NewMetrics("")

	// One queue fronts every outbound call: Helius, RPC and Telegram all
	// share the per-minute budget.
	queue := ratelimit.New(ratelimit.Options{
		MaxPerWindow: cfg.MaxCallsPerMinute,
		Window:       time.Minute,
		Logger:       logger,
	})
	queue.Start()
	defer queue.Stop()

	extractor := extract.New(extract.Options{
		TrackedMint:         cfg.TrackedMint,
		TrackedDecimals:     cfg.TokenDecimals,
		BaseAssets:          cfg.BaseAssetMints,
		LargeTradeThreshold: cfg.LargeTradeThreshold,
		Logger:              logger,
	})

	var window *batch.Window
	if cfg.BatchWindowSeconds > 0 {
		window = batch.New(batch.Options{
			WindowSeconds: cfg.BatchWindowSeconds,
			Logger:        logger,
		})
		defer window.Stop()
		logger.Printf("Batching enabled, window %ds", cfg.BatchWindowSeconds)
	}

	notifier := notify.NewTelegram(notify.TelegramOptions{
		BotToken:    cfg.TelegramBotToken,
		ChatID:      cfg.TelegramChatID,
		ErrorChatID: cfg.TelegramErrorChatID,
		TokenSymbol: cfg.TokenSymbol,
	})

	heliusClient := helius.NewClient(cfg.HeliusAPIKey)
	rpc := solana.NewHTTPClient(rpcEndpoint)

	// Stores fall back to memory when no DSN is configured.
	var tradeStore storage.TradeStore = memory.NewTradeStore()
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
		tradeStore = pgstore.NewTradeStore(pool)
		logger.Println("Journaling notified trades to PostgreSQL")
	}

	var statsStore storage.WindowStatsStore = memory.NewWindowStatsStore()
	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()
		statsStore = chstore.NewWindowStatsStore(conn)
		logger.Println("Archiving window summaries to ClickHouse")
	}

	pipeline := ingestion.NewPipeline(ingestion.PipelineOptions{
		TrackedMint:  cfg.TrackedMint,
		Extractor:    extractor,
		Dedup:        dedup.New(cfg.DedupCapacity),
		Queue:        queue,
		Window:       window,
		Notifier:     notifier,
		HolderSource: rpc,
		Source:       &helius.AddressSource{Client: heliusClient, Address: cfg.TrackedMint},
		Registrar:    heliusClient,
		TradeStore:   tradeStore,
		StatsStore:   statsStore,
		Metrics:      metrics,
		Logger:       logger,
		PollInterval: time.Duration(cfg.PollIntervalSeconds) * time.Second,
	})

	srv := startHTTPServer(cfg.HTTPAddr, mode, pipeline, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	// Announce startup through the queue like every other outbound call.
	announcement := notify.FormatStartup(cfg.TokenSymbol, mode, time.Now())
	if err := queue.Do(ctx, "startup announcement", func(ctx context.Context) error {
		return notifier.Startup(ctx, announcement)
	}); err != nil {
		logger.Printf("Error sending startup announcement: %v", err)
	}

	logger.Printf("Relay started, mode %s, tracking %s (%s)",
		mode, solana.ShortAddress(cfg.TrackedMint), cfg.TokenSymbol)

	switch mode {
	case "poll":
		pipeline.StartPolling(ctx)
		defer pipeline.StopPolling()
		<-ctx.Done()
		return ctx.Err()

	case "push":
		if webhookURL != "" {
			if err := pipeline.EnsureWebhook(ctx, webhookURL); err != nil {
				return fmt.Errorf("register webhook: %w", err)
			}
		} else {
			logger.Println("No --webhook-url given, assuming the webhook is already registered")
		}
		<-ctx.Done()
		return ctx.Err()

	case "stream":
		stream, err := solana.OpenLogStream(ctx, wsEndpoint, cfg.TrackedMint, nil, logger)
		if err != nil {
			return fmt.Errorf("open log stream: %w", err)
		}
		defer stream.Close()
		return pipeline.RunStream(ctx, stream.Events(), heliusClient)
	}
	return nil
}

// startHTTPServer serves health, status and metrics; push mode adds the
// webhook receiver.
func startHTTPServer(addr, mode string, pipeline *ingestion.Pipeline, logger *log.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pipeline.Status())
	})

	if mode == "push" {
		mux.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			txs, err := helius.DecodeWebhookPayload(r.Body)
			if err != nil {
				logger.Printf("Rejected webhook payload: %v", err)
				http.Error(w, "bad payload", http.StatusBadRequest)
				return
			}
			processed := pipeline.ProcessWebhookBatch(r.Context(), txs)
			logger.Printf("Webhook batch: %d transactions, %d trades accepted", len(txs), processed)
			w.WriteHeader(http.StatusOK)
		})
	}

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Printf("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("HTTP server error: %v", err)
		}
	}()
	return srv
}
