// Package server provides the main server initialization and run logic.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AthlureSolutions/sitelure/internal/api"
	"github.com/AthlureSolutions/sitelure/internal/api/handlers"
	"github.com/AthlureSolutions/sitelure/internal/auth"
	"github.com/AthlureSolutions/sitelure/internal/build"
	"github.com/AthlureSolutions/sitelure/internal/config"
	"github.com/AthlureSolutions/sitelure/internal/db"
	"github.com/AthlureSolutions/sitelure/internal/generator"
	"github.com/AthlureSolutions/sitelure/internal/hosting"
	"github.com/AthlureSolutions/sitelure/internal/llm"
	"github.com/AthlureSolutions/sitelure/internal/logger"
	"github.com/AthlureSolutions/sitelure/internal/logstream"
	"github.com/AthlureSolutions/sitelure/internal/metrics"
	"github.com/AthlureSolutions/sitelure/internal/pipeline"
	"github.com/AthlureSolutions/sitelure/internal/queue"
	"github.com/AthlureSolutions/sitelure/internal/service"
	"github.com/AthlureSolutions/sitelure/internal/store"
	"github.com/AthlureSolutions/sitelure/internal/uploads"
	"github.com/AthlureSolutions/sitelure/internal/worker"
	"github.com/AthlureSolutions/sitelure/internal/workspace"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

// Run modes
const (
	ModeServer = "server"
	ModeWorker = "worker"
	ModeBoth   = "both"
)

// Config holds the server configuration options.
type Config struct {
	Port    int    // Port to run the server on (0 = use config default)
	Mode    string // Run mode: server, worker, or both
	Version string // Version string to report
}

// components is everything Run wires together.
type components struct {
	db       *gorm.DB
	queue    queue.Queue
	valkey   valkey.Client
	registry *prometheus.Registry
	sites    *store.Store
	pipeline *pipeline.Orchestrator
	service  *service.SiteService
	uploads  *uploads.Store
}

// Run starts the server with the given configuration and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}

	logCloser := logger.Init(appCfg.Log.Format, appCfg.Log.Level, appCfg.Log.File)
	defer logCloser.Close()
	slog.Info("Starting sitelure", "version", cfg.Version, "mode", appCfg.Server.Mode)

	mode := cfg.Mode
	if mode == "" {
		mode = ModeBoth
	}
	runServer := mode == ModeServer || mode == ModeBoth
	runWorker := mode == ModeWorker || mode == ModeBoth
	if !runServer && !runWorker {
		return fmt.Errorf("invalid mode %q: valid modes are server, worker, both", mode)
	}

	c, err := wire(appCfg)
	if err != nil {
		return err
	}
	defer c.queue.Close()

	var w *worker.Worker
	var srv *http.Server
	var workerCancel context.CancelFunc
	workerDone := make(chan struct{})

	if runWorker {
		w = worker.New(c.db, c.queue, c.sites, c.pipeline, appCfg.Worker.Concurrency, slog.Default(), c.valkey)
		// The memory queue does not survive a restart, so its pending jobs are lost too.
		if err := w.RecoverInterrupted(ctx, appCfg.Queue.Type == "memory"); err != nil {
			return fmt.Errorf("failed to recover interrupted jobs: %w", err)
		}

		workerCtx, cancel := context.WithCancel(ctx)
		workerCancel = cancel
		go func() {
			defer close(workerDone)
			if err := w.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Worker failed", "error", err)
			}
		}()
	} else {
		close(workerDone)
	}

	if runServer {
		router := api.NewRouter(api.Deps{
			Config:        appCfg,
			Authenticator: auth.NewPasswordAuthenticator(c.db, appCfg.Auth),
			Sites:         c.service,
			Uploads:       c.uploads,
			Logs:          logSubscriber(c.valkey, w),
			Gatherer:      c.registry,
			Logger:        slog.Default(),
		})

		addr := fmt.Sprintf(":%d", appCfg.Server.Port)
		srv = &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			slog.Info("Server listening", "address", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Server failed", "error", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("Shutting down...")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("Server stopped")
	}

	if workerCancel != nil {
		workerCancel()
	}
	<-workerDone

	slog.Info("sitelure exited")
	return nil
}

// wire builds every component from configuration.
func wire(appCfg *config.Config) (*components, error) {
	database, err := db.New(appCfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Database initialized", "driver", appCfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	jobQueue, err := createQueue(appCfg, database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize job queue: %w", err)
	}
	slog.Info("Job queue initialized", "type", appCfg.Queue.Type)

	var valkeyClient valkey.Client
	if vq, ok := jobQueue.(*queue.ValkeyQueue); ok {
		valkeyClient = vq.Client()
		slog.Info("Valkey client available for log streaming")
	}

	completer, err := llm.New(appCfg.Generator, llm.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation client: %w", err)
	}
	if appCfg.Generator.APIKey == "" {
		slog.Warn("No generation API key configured; runs will fail at the generating stage")
	}

	materializer, err := workspace.New(appCfg.Storage, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize workspaces: %w", err)
	}

	builder, err := build.NewRunner(appCfg.Build, build.ExecRunner{}, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize build runner: %w", err)
	}

	provider := hosting.NewNetlify(appCfg.Hosting, hosting.WithLogger(slog.Default()))
	if appCfg.Hosting.APIToken == "" {
		slog.Warn("No hosting API token configured; deployments will fail and teardown is skipped")
	}
	deployer := hosting.NewDeployer(provider, slog.Default())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	sites := store.New(database)
	orchestrator, err := pipeline.New(pipeline.Deps{
		Store:        sites,
		Generator:    generator.New(completer, appCfg.Generator.Temperature, slog.Default()),
		Materializer: materializer,
		Builder:      builder,
		Deployer:     deployer,
		Metrics:      metrics.New(registry),
		Logger:       slog.Default(),
		DevMode:      appCfg.Server.IsDevelopment(),
	})
	if err != nil {
		return nil, err
	}

	uploadStore, err := uploads.New(appCfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize uploads: %w", err)
	}

	return &components{
		db:       database,
		queue:    jobQueue,
		valkey:   valkeyClient,
		registry: registry,
		sites:    sites,
		pipeline: orchestrator,
		service:  service.New(sites, jobQueue, deployer, materializer, slog.Default()),
		uploads:  uploadStore,
	}, nil
}

// logSubscriber picks where SSE clients read job logs from. Valkey reaches
// workers in any process; the in-process broker only this one's.
func logSubscriber(client valkey.Client, w *worker.Worker) logstream.Subscriber {
	if client != nil {
		return logstream.NewValkeySubscriber(client)
	}
	if w != nil {
		return w.Broker()
	}
	slog.Warn("No worker in this process and no Valkey; live log streaming is unavailable")
	return logstream.NewBroker()
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, cfg)
}

// createQueue creates a queue based on configuration.
func createQueue(cfg *config.Config, database *gorm.DB) (queue.Queue, error) {
	switch cfg.Queue.Type {
	case "memory":
		return queue.NewMemoryQueue(100), nil
	case "valkey":
		if cfg.Queue.ValkeyAddr == "" {
			return nil, fmt.Errorf("valkey address is required when queue type is valkey")
		}
		return queue.NewValkeyQueue(cfg.Queue.ValkeyAddr, database)
	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: memory, valkey)", cfg.Queue.Type)
	}
}
