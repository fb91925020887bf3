// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lease-risk-workers/internal/clients/complyadvantage"
	"lease-risk-workers/internal/clients/creditsafe"
	"lease-risk-workers/internal/clients/vies"
	"lease-risk-workers/internal/common/aws"
	"lease-risk-workers/internal/common/camunda"
	"lease-risk-workers/internal/common/config"
	"lease-risk-workers/internal/common/database"
	httpclient "lease-risk-workers/internal/common/http"
	"lease-risk-workers/internal/common/logger"
	"lease-risk-workers/internal/common/metrics"
	"lease-risk-workers/internal/common/observability"
	"lease-risk-workers/internal/common/validation"
	"lease-risk-workers/internal/decision/engine"
	"lease-risk-workers/internal/decision/enrichment"
	"lease-risk-workers/internal/decision/rules"
	"lease-risk-workers/internal/decision/scoring"
	"lease-risk-workers/internal/decision/thresholds"

	ecd "lease-risk-workers/internal/workers/leasing/enrich-company-data"
	elr "lease-risk-workers/internal/workers/leasing/evaluate-lease-risk"
	nu "lease-risk-workers/internal/workers/leasing/notify-underwriting"
	rld "lease-risk-workers/internal/workers/leasing/record-lease-decision"
	"lease-risk-workers/pkg/registry"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	defer obs.Shutdown()
	metrics.SetJobRecorder(obs)

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, camunda.ConfigFrom(cfg.Camunda))
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("postgres schema failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Decision engine ---
	orchestrator := buildOrchestrator(cfg, redis, log)

	th := thresholds.Default()
	calc, err := scoring.NewCalculator(scoring.DefaultTables(), th)
	if err != nil {
		zapLog.Fatal("score tables invalid", zap.Error(err))
	}
	eng := engine.New(orchestrator, calc, rules.DefaultRegistry(), th, log).WithObservability(obs)

	validator, err := validation.NewLeaseApplicationValidator()
	if err != nil {
		zapLog.Fatal("application schema invalid", zap.Error(err))
	}

	// --- Workers ---
	var started []string
	start := func(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) {
		if zeebe.StartWorker(taskType, wcfg, handler, log) {
			started = append(started, taskType)
		}
	}

	if wcfg := config.GetWorkerConfig(cfg, elr.TaskType); wcfg.Enabled {
		handler := elr.NewHandler(&elr.Config{Timeout: config.GetDuration(wcfg.Timeout)}, eng, validator, log)
		start(elr.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, ecd.TaskType); wcfg.Enabled {
		handler := ecd.NewHandler(&ecd.Config{Timeout: config.GetDuration(wcfg.Timeout)}, orchestrator, log)
		start(ecd.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, rld.TaskType); wcfg.Enabled {
		handler := rld.NewHandler(&rld.Config{Timeout: config.GetDuration(wcfg.Timeout)}, pg.GetDB(), log)
		start(rld.TaskType, wcfg, handler.Handle)
	}

	if wcfg := config.GetWorkerConfig(cfg, nu.TaskType); wcfg.Enabled {
		handler, err := buildNotifier(ctx, cfg, wcfg, log)
		if err != nil {
			zapLog.Fatal("failed to create notify-underwriting handler", zap.Error(err))
		}
		start(nu.TaskType, wcfg, handler.Handle)
	}

	checkActivityRegistry(cfg.App.ActivityRegistry, started, zapLog)
	zapLog.Info("Workers started", zap.Strings("taskTypes", started))

	// --- Health & Metrics Server ---
	server := &http.Server{Addr: cfg.Observability.HTTPAddress, Handler: healthMux(pg, redis, zeebe)}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func buildOrchestrator(cfg *config.Config, redis *database.RedisClient, log logger.Logger) *enrichment.Orchestrator {
	ec := cfg.Enrichment
	ic := cfg.Integrations

	// per-call deadlines come from the orchestrator; this is a backstop
	hc := httpclient.NewClient(60 * time.Second)

	bureau := creditsafe.NewClient(creditsafe.Config{
		BaseURL:  ic.Creditsafe.BaseURL,
		Username: ic.Creditsafe.Username,
		Password: ic.Creditsafe.Password,
		Country:  ic.Creditsafe.Country,
		TokenTTL: config.GetDuration(ic.Creditsafe.TokenTTL),
	}, hc)
	cached := creditsafe.NewCachedBureau(bureau, redis, config.GetDuration(ec.BureauCacheTTL), log)

	vat := vies.NewClient(ic.VIES.BaseURL, hc)
	screening := complyadvantage.NewClient(complyadvantage.Config{
		BaseURL:   ic.ComplyAdvantage.BaseURL,
		APIKey:    ic.ComplyAdvantage.APIKey,
		Fuzziness: ic.ComplyAdvantage.Fuzziness,
	}, hc)

	return enrichment.NewOrchestrator(cached, vat, screening, enrichment.Config{
		BureauTimeout:     config.GetDuration(ec.BureauTimeout),
		VATAttemptTimeout: config.GetDuration(ec.VATAttemptTimeout),
		ScreeningTimeout:  config.GetDuration(ec.ScreeningTimeout),
		VATMaxAttempts:    ec.VATMaxAttempts,
		VATBackoffBase:    config.GetDuration(ec.VATBackoffBase),
		VATBackoffCap:     config.GetDuration(ec.VATBackoffCap),
		VATMaxJitter:      config.GetDuration(ec.VATMaxJitter),
	}, log)
}

func buildNotifier(ctx context.Context, cfg *config.Config, wcfg config.WorkerConfig, log logger.Logger) (*nu.Handler, error) {
	nc := cfg.Notifications
	ncfg := &nu.Config{
		Timeout:      config.GetDuration(wcfg.Timeout),
		EmailEnabled: nc.Email.Enabled,
		ToEmail:      splitAddresses(nc.Email.ToEmail),
		SNSEnabled:   nc.SNS.Enabled,
	}

	var mailer nu.Mailer
	if nc.Email.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region, nc.Email.FromEmail)
		if err != nil {
			return nil, err
		}
		mailer = ses
	}

	var publisher nu.Publisher
	if nc.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region, nc.SNS.TopicARN)
		if err != nil {
			return nil, err
		}
		publisher = sns
	}

	return nu.NewHandler(ncfg, mailer, publisher, log), nil
}

func splitAddresses(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type pinger interface {
	Ping(ctx context.Context) error
}

type zeebeChecker interface {
	HealthCheck(ctx context.Context) error
}

func healthMux(pg, redis pinger, zeebe zeebeChecker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true
		for name, check := range map[string]func(context.Context) error{
			"postgres": pg.Ping,
			"redis":    redis.Ping,
			"zeebe":    zeebe.HealthCheck,
		} {
			if err := check(ctx); err != nil {
				checks[name] = err.Error()
				ready = false
			} else {
				checks[name] = "ok"
			}
		}

		status := http.StatusOK
		checks["status"] = "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			checks["status"] = "not_ready"
		}
		checks["time"] = time.Now().Format(time.RFC3339)
		writeStatus(w, status, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, status int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// checkActivityRegistry warns when a running worker has no catalogue entry.
func checkActivityRegistry(path string, started []string, log *zap.Logger) {
	if path == "" {
		return
	}
	reg, err := registry.LoadRegistry(path)
	if err == nil {
		err = reg.Validate()
	}
	if err != nil {
		log.Warn("activity registry unusable", zap.String("path", path), zap.Error(err))
		return
	}
	if missing := reg.Undeclared(started); len(missing) > 0 {
		log.Warn("workers missing from activity registry", zap.Strings("taskTypes", missing))
	}
}
