package api

import (
	"log/slog"

	"github.com/AthlureSolutions/sitelure/internal/api/handlers"
	"github.com/AthlureSolutions/sitelure/internal/api/middleware"
	"github.com/AthlureSolutions/sitelure/internal/auth"
	"github.com/AthlureSolutions/sitelure/internal/config"
	"github.com/AthlureSolutions/sitelure/internal/logstream"
	"github.com/AthlureSolutions/sitelure/internal/service"
	"github.com/AthlureSolutions/sitelure/internal/uploads"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP API is built from
type Deps struct {
	Config        *config.Config
	Authenticator auth.Authenticator
	Sites         *service.SiteService
	Uploads       *uploads.Store
	Logs          logstream.Subscriber
	Gatherer      prometheus.Gatherer
	Logger        *slog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(d Deps) *gin.Engine {
	if !d.Config.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(d.Config.Server.CORSOrigins))

	router.MaxMultipartMemory = d.Uploads.MaxBytes()
	router.Static(uploads.URLPrefix, d.Uploads.Dir())
	metrics := gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.GET("/metrics", metrics)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.GET("/health", handlers.HealthCheck)
		public.GET("/version", handlers.GetVersion)
		public.GET("/metrics", metrics)
		public.POST("/auth/register", handlers.Register(d.Authenticator))
		public.POST("/auth/login", handlers.Login(d.Authenticator))
	}

	siteHandler := handlers.NewSiteHandler(d.Sites)
	jobHandler := handlers.NewJobHandler(d.Sites, d.Logs)
	uploadHandler := handlers.NewUploadHandler(d.Uploads)

	// Protected routes (require authentication)
	protected := router.Group("/api/v1")
	protected.Use(d.Authenticator.Middleware())
	{
		protected.POST("/sites", siteHandler.CreateSite)
		protected.GET("/sites", siteHandler.ListSites)
		protected.GET("/sites/:id", siteHandler.GetSite)
		protected.DELETE("/sites/:id", siteHandler.DeleteSite)
		protected.GET("/sites/:id/jobs", siteHandler.ListSiteJobs)

		protected.POST("/uploads", uploadHandler.Upload)

		protected.GET("/jobs/:id", jobHandler.GetJob)
		protected.GET("/jobs/:id/logs/stream", jobHandler.StreamJobLogs)
	}

	logger.Info("API router initialized", "mode", d.Config.Server.Mode)
	return router
}
