package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	wlhttp "github.com/Huzai911/workspaced/internal/adapter/http"
	"github.com/Huzai911/workspaced/internal/adapter/litellm"
	wlnats "github.com/Huzai911/workspaced/internal/adapter/nats"
	"github.com/Huzai911/workspaced/internal/adapter/otel"
	"github.com/Huzai911/workspaced/internal/adapter/postgres"
	"github.com/Huzai911/workspaced/internal/adapter/ristretto"
	"github.com/Huzai911/workspaced/internal/adapter/stripe"
	"github.com/Huzai911/workspaced/internal/adapter/ws"
	"github.com/Huzai911/workspaced/internal/config"
	"github.com/Huzai911/workspaced/internal/logger"
	"github.com/Huzai911/workspaced/internal/middleware"
	"github.com/Huzai911/workspaced/internal/resilience"
	"github.com/Huzai911/workspaced/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx := context.Background()

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := wlnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Drain() }()

	// In-process cache for hot organization reads
	orgCache, err := ristretto.New(cfg.Cache.MaxSizeMB << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer orgCache.Close()

	// Telemetry
	var metrics *otel.Metrics
	if cfg.Telemetry.Enabled {
		shutdownMeter, err := otel.InitMeter(ctx, cfg.Logging.Service, cfg.Telemetry.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownMeter(shutdownCtx)
		}()

		metrics, err = otel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		slog.Info("telemetry enabled", "endpoint", cfg.Telemetry.OTLPEndpoint)
	}

	// --- External collaborators ---

	llmClient := litellm.NewClient(cfg.LiteLLM.URL, cfg.LiteLLM.APIKey)
	llmClient.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	stripeClient := stripe.NewClient(cfg.Stripe.URL, cfg.Stripe.SecretKey)
	stripeClient.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	// --- Services ---

	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	usageSvc := service.NewUsageService(metrics)
	workspaceSvc := service.NewWorkspaceService(store, orgCache, queue, hub, metrics, cfg.Cache.TTL)
	chatSvc := service.NewChatService(llmClient, workspaceSvc, usageSvc, service.ChatConfig{
		Model:         cfg.LiteLLM.ChatModel,
		MaxTokens:     cfg.LiteLLM.ChatMaxTokens,
		HistoryWindow: cfg.Chat.HistoryWindow,
	})
	onboardingSvc := service.NewOnboardingService(llmClient, workspaceSvc, usageSvc, service.OnboardingConfig{
		Model:     cfg.LiteLLM.AnalysisModel,
		MaxTokens: cfg.LiteLLM.AnalysisMaxTokens,
	})
	boostSvc := service.NewBoostService(llmClient, stripeClient, workspaceSvc, usageSvc, service.BoostConfig{
		Model:      cfg.LiteLLM.BoostModel,
		CostUSD:    cfg.Stripe.BoostCostUSD,
		MaxTargets: cfg.Boost.MaxTargets,
		MaxRounds:  cfg.Boost.MaxRounds,
	})

	// --- HTTP ---

	handlers := &wlhttp.Handlers{
		Workspace:  workspaceSvc,
		Onboarding: onboardingSvc,
		Chat:       chatSvc,
		Boost:      boostSvc,
		Usage:      usageSvc,
		LiteLLM:    llmClient,
		Hub:        hub,
	}

	limiter := middleware.NewRateLimiter(cfg.Rate.RPS, cfg.Rate.Burst)
	stopCleanup := limiter.StartCleanup(time.Minute, 10*time.Minute)
	defer stopCleanup()

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(wlhttp.SecurityHeaders)
	r.Use(wlhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(wlhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(limiter.Handler)
	if cfg.Telemetry.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}

	// Health endpoint with collaborator status
	r.Get("/healthz", healthHandler(queue, llmClient))

	wlhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// healthHandler reports overall service health plus collaborator reachability.
func healthHandler(queue *wlnats.Queue, llmClient *litellm.Client) http.HandlerFunc {
	type healthStatus struct {
		Status  string `json:"status"`
		NATS    string `json:"nats"`
		LiteLLM string `json:"litellm"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", NATS: "connected", LiteLLM: "reachable"}
		if !queue.IsConnected() {
			status.NATS = "disconnected"
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if healthy, err := llmClient.Health(ctx); !healthy || err != nil {
			status.LiteLLM = "unreachable"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}
