package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/joho/godotenv/autoload"

	"lead-dedup-service/internal/api"
	"lead-dedup-service/internal/auth"
	"lead-dedup-service/internal/constants"
	"lead-dedup-service/internal/domain"
	"lead-dedup-service/internal/infrastructure/repository"
	"lead-dedup-service/internal/matcher"
	"lead-dedup-service/internal/merger"
	"lead-dedup-service/internal/scanner"
	"lead-dedup-service/pkg/config"
	"lead-dedup-service/pkg/container"
	"lead-dedup-service/pkg/database"
	"lead-dedup-service/pkg/events"
	"lead-dedup-service/pkg/health"
	"lead-dedup-service/pkg/logging"
	metricsPkg "lead-dedup-service/pkg/metrics"
	"lead-dedup-service/pkg/monitoring"
)

func main() {
	// Build container and register providers
	c := container.New()

	// Config (singleton)
	_ = c.Provide(func() *config.Config { return config.Load() }, true)

	// Logger (singleton)
	_ = c.Provide(func(cfg *config.Config) (*logging.Logger, error) {
		return logging.NewLogger(logging.LogConfig{
			Level:      logging.ParseLevel(cfg.LogLevel),
			Format:     cfg.LogFormat,
			Output:     "stdout",
			EnableFile: cfg.EnableFileLogging,
			FilePath:   cfg.LogFile,
		})
	}, true)

	// Database (singleton)
	_ = c.Provide(func(cfg *config.Config) (*database.DB, error) {
		return database.NewWithConfig(cfg.DatabaseURL, cfg)
	}, true)

	// Repository and UoW factory (singletons)
	_ = c.Provide(func(db *database.DB) domain.Repository { return repository.NewSQLRepository(db) }, true)
	_ = c.Provide(func(db *database.DB) domain.UnitOfWorkFactory { return repository.NewSQLUnitOfWorkFactory(db) }, true)

	// Event store (singleton)
	_ = c.Provide(func(db *database.DB) (events.EventStore, error) { return events.NewSQLEventStore(db.Conn()) }, true)

	// Matching components (singletons)
	_ = c.Provide(func(cfg *config.Config) *matcher.Classifier {
		mc := matcher.DefaultConfig()
		if cfg.MatchThreshold > 0 {
			mc.MatchThreshold = cfg.MatchThreshold
		}
		return matcher.NewClassifier(mc)
	}, true)
	_ = c.Provide(func() *matcher.Selector { return matcher.NewDefaultSelector() }, true)

	// Scanner and merger (singletons)
	_ = c.Provide(func(repo domain.Repository, cls *matcher.Classifier, sel *matcher.Selector, es events.EventStore, lg *logging.Logger) *scanner.Engine {
		return scanner.NewEngine(repo, cls, sel, es, lg)
	}, true)
	_ = c.Provide(func(repo domain.Repository, uowf domain.UnitOfWorkFactory, es events.EventStore, lg *logging.Logger) *merger.Executor {
		return merger.NewExecutor(repo, uowf, es, lg)
	}, true)

	// Resolve config early for monitoring setup
	var cfg *config.Config
	if err := c.Resolve(&cfg); err != nil {
		log.Fatal("config resolve:", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	monitoring.EnableProfiling(cfg.ProfilingEnabled)

	var (
		logger *logging.Logger
		db     *database.DB
		repo   domain.Repository
		eng    *scanner.Engine
		exec   *merger.Executor
		store  events.EventStore
	)
	if err := c.Resolve(&logger); err != nil {
		log.Fatal("logger resolve:", err)
	}
	defer logger.Close()
	if err := c.Resolve(&db); err != nil {
		logger.Fatal("database connection failed", err)
	}
	defer db.Close()
	if err := c.Resolve(&repo); err != nil {
		logger.Fatal("repository resolve failed", err)
	}
	if err := c.Resolve(&eng); err != nil {
		logger.Fatal("scanner resolve failed", err)
	}
	if err := c.Resolve(&exec); err != nil {
		logger.Fatal("merger resolve failed", err)
	}
	if err := c.Resolve(&store); err != nil {
		logger.Fatal("event store resolve failed", err)
	}

	logger.Info("Starting lead deduplication service",
		logging.String("env", cfg.Env),
		logging.String("port", cfg.Port))

	// Mutable runtime settings, swapped by the config watcher. Startup-only
	// settings (ports, pool sizes) keep reading the boot config.
	var (
		cfgMu  sync.RWMutex
		curCfg = cfg
	)
	scanTimeout := func() time.Duration {
		cfgMu.RLock()
		defer cfgMu.RUnlock()
		return curCfg.ScanTimeout
	}

	// Config watcher for hot-reload (applies match threshold and scan timeout)
	cw := config.NewWatcher(time.Duration(cfg.ConfigReloadIntervalSeconds) * time.Second)
	cw.Start()
	defer cw.Close()
	chgCh := cw.Subscribe()
	go func() {
		for chg := range chgCh {
			if chg.Err != nil {
				logger.Warn("config reload failed", logging.String("error", chg.Err.Error()))
				continue
			}
			eng.ApplyConfig(chg.New.MatchThreshold)
			cfgMu.Lock()
			curCfg = chg.New
			cfgMu.Unlock()
			logger.Info("config applied", logging.Any("changed_fields", chg.Fields))
		}
	}()

	// Graceful shutdown context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Info("received shutdown signal, initiating graceful shutdown")
		cancel()
	}()

	// Operator IP-based authentication for destructive endpoints
	operatorResolver := auth.NewOperatorResolver(cfg.OperatorsYAMLPath)
	operatorAuth := auth.NewOperatorAuthMiddleware(operatorResolver)

	// HTTP routing
	router := mux.NewRouter()

	var reqMetrics *monitoring.Metrics
	if cfg.MetricsEnabled {
		reqMetrics = monitoring.NewMetrics(512)
		router.Use(monitoring.Middleware(reqMetrics))
	}

	router.HandleFunc("/duplicates/scan", api.ScanHandler(eng, scanTimeout)).Methods("POST")
	router.HandleFunc("/import/check", api.ImportCheckHandler(eng)).Methods("POST")
	router.Handle("/leads/{id}/merge", operatorAuth.Handler(api.MergeHandler(exec))).Methods("POST")
	router.HandleFunc("/leads/{id}/events", api.LeadEventsHandler(store)).Methods("GET")
	router.HandleFunc("/leads/{id}", api.LeadHandler(repo)).Methods("GET")
	router.HandleFunc("/api/stats", api.StatsHandler(repo)).Methods("GET")

	server := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	// Health server on its own port
	hm := health.NewHealthManager(health.HealthConfig{
		Timeout: constants.HealthTimeoutDefault,
		Version: "1.0.0",
	}, logger)
	hm.RegisterChecker(health.NewDatabaseHealthChecker(db.Conn(), "mysql"))
	hm.RegisterChecker(health.NewScannerHealthChecker("scanner", func() interface{} {
		if stats := eng.LastScan(); stats != nil {
			return *stats
		}
		return nil
	}))
	healthServer := health.NewHealthServer(hm, ":"+cfg.HealthCheckPort, logger)
	_ = healthServer.Start()

	// Admin server (pprof + Prometheus metrics + JSON snapshot)
	var adminServer *http.Server
	if cfg.ProfilingEnabled || cfg.MetricsEnabled {
		adminMux := http.NewServeMux()
		if cfg.ProfilingEnabled {
			monitoring.RegisterPprof(adminMux)
		}
		if cfg.MetricsEnabled {
			adminMux.Handle(cfg.MetricsPath, metricsPkg.Handler())
			if reqMetrics != nil && cfg.MetricsPath != "/metrics.json" {
				adminMux.Handle("/metrics.json", monitoring.MetricsHandler(reqMetrics))
			}
		}
		adminServer = &http.Server{Addr: ":" + cfg.ProfilingPort, Handler: adminMux}
		go func() {
			fmt.Printf("Admin server (pprof/metrics) starting on port %s\n", cfg.ProfilingPort)
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("admin HTTP server error", err)
			}
		}()
	}

	go func() {
		fmt.Printf("Server starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.GracefulShutdownTimeoutDefault)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", err)
	}
	if adminServer != nil {
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin HTTP server shutdown error", err)
		}
	}
	if err := healthServer.Stop(shutdownCtx); err != nil {
		logger.Error("health server shutdown error", err)
	}
	logger.Info("application shutdown complete")
}
