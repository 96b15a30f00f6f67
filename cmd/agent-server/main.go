// cmd/agent-server/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"household-agent/internal/agent/convo"
	"household-agent/internal/agent/core"
	"household-agent/internal/agent/datetime"
	"household-agent/internal/agent/dispatch"
	"household-agent/internal/agent/gate"
	"household-agent/internal/agent/intent"
	"household-agent/internal/agent/meals"
	"household-agent/internal/agent/notify"
	"household-agent/internal/agent/pending"
	"household-agent/internal/agent/prefs"
	"household-agent/internal/agent/tasks"
	"household-agent/internal/common/aws"
	"household-agent/internal/common/config"
	"household-agent/internal/common/database"
	"household-agent/internal/common/logger"
	"household-agent/internal/common/observability"
	"household-agent/internal/tools"
	"household-agent/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting agent server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("agent-server")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry (only used for the pending store and the
	// preference cache; a memory pending store skips it entirely) ---
	var redis *database.RedisClient
	if cfg.Agent.PendingStore == "redis" || cfg.Database.Redis.Address != "" {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			// Test the connection with context
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	}

	// --- Load tool registry ---
	var reg *registry.Registry
	if cfg.Agent.RegistryPath != "" {
		reg, err = registry.Load(cfg.Agent.RegistryPath)
		if err != nil {
			zapLog.Fatal("tool registry load failed", zap.Error(err), zap.String("path", cfg.Agent.RegistryPath))
		}
		zapLog.Info("Tool registry loaded", zap.String("path", cfg.Agent.RegistryPath), zap.Int("tools", len(reg.IDs())))
	} else {
		reg = registry.Builtin()
		zapLog.Info("Using built-in tool registry", zap.Int("tools", len(reg.IDs())))
	}

	// --- Init notification clients ---
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		notifier = notify.NewAWSNotifier(cfg.Notifications, sesClient, snsClient, log)
		zapLog.Info("Notification clients initialized", zap.String("region", cfg.Notifications.AWS.Region))
	}

	clock := core.SystemClock{}
	pendingTTL := config.GetDuration(cfg.Agent.PendingTTL)
	contextTTL := config.GetDuration(cfg.Agent.ContextTTL)

	// --- Build the pipeline ---
	var pendingStore pending.Store
	if cfg.Agent.PendingStore == "redis" {
		pendingStore = pending.NewRedisStore(redis.GetClient(), clock, pendingTTL, log)
	} else {
		pendingStore = pending.NewMemoryStore(clock, pendingTTL, log)
	}
	contexts := convo.NewStore(clock, contextTTL, log)

	var prefStore prefs.Store
	if redis != nil {
		prefStore = prefs.NewPostgresStore(pg.GetDB(), redis.GetClient(), config.GetDuration(cfg.Agent.PrefsCacheTTL), log)
	} else {
		prefStore = prefs.NewPostgresStore(pg.GetDB(), nil, 0, log)
	}

	resolver := datetime.NewResolver()
	decider := gate.NewDecider(reg, cfg.Agent.ConfidenceThreshold)
	executor := tools.NewPostgresExecutor(pg.GetDB(), reg, clock, log)

	agentCfg := tasks.Config{
		PendingTTL:      pendingTTL,
		ContextTTL:      contextTTL,
		DefaultTimezone: cfg.Agent.DefaultTimezone,
	}
	taskHandler := tasks.NewHandler(
		agentCfg,
		intent.NewTaskParser(resolver, clock),
		resolver,
		prefStore,
		decider,
		pendingStore,
		contexts,
		executor,
		notifier,
		clock,
		log,
	)
	mealHandler := meals.NewHandler(
		meals.Config{
			PendingTTL:      pendingTTL,
			ContextTTL:      contextTTL,
			DefaultTimezone: cfg.Agent.DefaultTimezone,
		},
		intent.NewMealParser(resolver, clock),
		prefStore,
		decider,
		pendingStore,
		contexts,
		executor,
		log,
	)

	coordinator := dispatch.NewCoordinator(
		[]dispatch.DomainHandler{taskHandler, mealHandler},
		pendingStore,
		contexts,
		executor,
		obs,
		clock,
		contextTTL,
		log,
	)

	zapLog.Info("Agent pipeline assembled",
		zap.Float64("confidenceThreshold", cfg.Agent.ConfidenceThreshold),
		zap.String("pendingStore", cfg.Agent.PendingStore),
	)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.Handle("/api/agent/message", messageHandler(coordinator, cfg, log))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pg.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	server := &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      mux,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.ListenAddress))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// pprof on a side port, never exposed with the API
	go func() {
		zapLog.Info("pprof listening on :6060")
		if err := http.ListenAndServe(":6060", nil); err != nil {
			zapLog.Warn("pprof server stopped", zap.Error(err))
		}
	}()

	// --- Wait for shutdown signal ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLog.Info("Shutdown signal received", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Agent server stopped")
}

// messageHandler decodes one agent request, resolves the caller identity
// from the gateway headers, and runs it through the coordinator.
func messageHandler(coordinator *dispatch.Coordinator, cfg *config.Config, log logger.Logger) http.Handler {
	requestTimeout := config.GetDuration(cfg.Server.RequestTimeout)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := dispatch.Identity{
			UserID:         r.Header.Get("X-User-ID"),
			FamilyID:       r.Header.Get("X-Family-ID"),
			FamilyMemberID: r.Header.Get("X-Family-Member-ID"),
			Timezone:       r.Header.Get("X-Timezone"),
		}
		if id.UserID == "" || id.FamilyID == "" {
			http.Error(w, "missing identity headers", http.StatusUnauthorized)
			return
		}
		if id.Timezone == "" {
			id.Timezone = cfg.Agent.DefaultTimezone
		}

		var req core.AgentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed request body", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
		defer cancel()

		resp := coordinator.Process(ctx, &req, id)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.WithError(err).Error("response encoding failed", map[string]interface{}{
				"request_id": resp.RequestID,
			})
		}
	})
}
