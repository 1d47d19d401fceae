package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"simfinder/internal/coordinator"
	"simfinder/internal/filesystem"
	"simfinder/internal/handlers"
	"simfinder/internal/indexer"
	"simfinder/internal/logging"
	"simfinder/internal/memory"
	"simfinder/internal/metrics"
	"simfinder/internal/middleware"
	"simfinder/internal/search"
	"simfinder/internal/startup"
	"simfinder/internal/store"

	"github.com/gorilla/mux"
)

// collectorInterval is how often index inventory metrics are refreshed.
const collectorInterval = 60 * time.Second

func main() {
	startTime := time.Now()

	// Set GOMEMLIMIT before anything allocates in earnest.
	memResult := memory.ConfigureFromEnv()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	startup.LogMemoryConfig(startup.MemoryConfigFrom(memResult))

	// Open the store directory. Listing it up front validates access
	// and reports how many indexes survive a restart.
	storeStart := time.Now()
	manager := store.NewManager(config.DataDir)
	infos, err := manager.List(context.Background())
	if err != nil {
		startup.LogFatal("Failed to read store directory: %v", err)
	}
	startup.LogStoreInit(len(infos), time.Since(storeStart))

	// Memory monitor throttles hash workers under pressure
	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()

	// Search engine with its query fingerprint cache
	engine := search.New(config.SearchCacheSize)

	// Coordinator owns jobs, writer locks, and search generations
	indexConfig := indexer.DefaultConfig()
	indexConfig.Workers = config.HashWorkers
	coord := coordinator.New(manager, engine, monitor, indexConfig)
	startup.LogCoordinatorInit(config.HashWorkers, config.SearchCacheSize)

	// Initialize handlers
	h := handlers.New(coord, config)
	startup.LogThumbnailInit(config.ThumbnailsEnabled)

	// Setup router
	router := setupRouter(h)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	// Apply metrics middleware
	metricsHandler := middleware.Metrics(middleware.DefaultMetricsConfig())(router)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(metricsHandler)

	// Apply compression middleware
	compressionConfig := middleware.DefaultCompressionConfig()
	handler := middleware.Compression(compressionConfig)(loggedHandler)

	// Metrics exporter and its collector run beside the main server
	var collector *metrics.Collector
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
		metrics.InitializeMetrics()
		filesystem.SetObserver(metrics.NewFilesystemObserver())

		collector = metrics.NewCollector(manager, collectorInterval)
		collector.Start()

		metricsSrv = startMetricsServer(config.MetricsPort, h)
	}

	// Create server. WriteTimeout stays 0 so progress streams can
	// outlive any fixed deadline; the event writer enforces its own.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, coord, manager, monitor, collector)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Probe and version routes stay outside /api
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods("GET")
	api.HandleFunc("/indexes", h.CreateIndex).Methods("POST")
	api.HandleFunc("/indexes", h.ListIndexes).Methods("GET")
	api.HandleFunc("/indexes/{name}", h.DeleteIndex).Methods("DELETE")
	api.HandleFunc("/indexes/{name}/run", h.RunIndex).Methods("POST")
	api.HandleFunc("/indexes/{name}/prune", h.PruneIndex).Methods("POST")
	api.HandleFunc("/indexes/{name}/search", h.Search).Methods("POST")
	api.HandleFunc("/jobs/{id}", h.GetJob).Methods("GET")
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods("GET")

	return r
}

// metricsRouter serves the Prometheus endpoint plus the probe routes,
// so a scraper confined to the metrics port can still check health.
func metricsRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", h.MetricsHandler()).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")

	return r
}

func startMetricsServer(port string, h *handlers.Handlers) *http.Server {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      metricsRouter(h),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("Metrics server error: %v", err)
		}
	}()

	return srv
}

func handleShutdown(srv, metricsSrv *http.Server, coord *coordinator.Coordinator, manager *store.Manager, monitor *memory.Monitor, collector *metrics.Collector) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if collector != nil {
		startup.LogShutdownStep("Stopping metrics collector")
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	// Cancelling the coordinator aborts running jobs and searches,
	// which also unblocks any progress streams still attached.
	startup.LogShutdownStep("Stopping coordinator")
	coord.Close()
	startup.LogShutdownStepComplete("Coordinator stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Closing stores")
	if err := manager.Close(); err != nil {
		logging.Warn("Store close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Stores closed")
	}

	startup.LogShutdownComplete()
}
