package app

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	_ "gamelibrary/api/swagger" // swagger docs
	"gamelibrary/internal/catalog"
	"gamelibrary/internal/config"
	"gamelibrary/internal/handler"
	"gamelibrary/internal/logger"
	"gamelibrary/internal/middleware"
	"gamelibrary/internal/repository"
	"gamelibrary/internal/service"
	"gamelibrary/internal/token"
	"gamelibrary/internal/validation"
	"gamelibrary/internal/websocket"
)

const healthPath = "/health"

// Server owns the router and the background workers of the API.
type Server struct {
	cfg     config.Config
	router  *gin.Engine
	hub     *websocket.Hub
	catalog service.CatalogService
	roles   service.RoleService
}

// NewServer wires repositories, services and handlers on top of db.
func NewServer(cfg config.Config, db *gorm.DB) *Server {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	validation.RegisterGin()

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	libraryRepo := repository.NewLibraryRepository(db)
	gameRepo := repository.NewGameRepository(db)

	hub := websocket.NewHub()
	issuer := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	rawg := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey, cfg.Catalog.Timeout)

	authService := service.NewAuthService(userRepo, roleRepo, txManager, issuer, cfg.Auth.AdminRole)
	roleService := service.NewRoleService(roleRepo, userRepo, txManager)
	userService := service.NewUserService(userRepo, txManager)
	libraryService := service.NewLibraryService(libraryRepo, gameRepo, txManager, hub)
	reviewService := service.NewReviewService(repository.NewReviewRepository(db), libraryRepo, txManager, hub)
	catalogService := service.NewCatalogService(rawg, gameRepo, cfg.Catalog.PageSize)
	auditService := service.NewAuditService(repository.NewAuditRepository(db))
	guard := middleware.NewGuard(authService)

	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(registry)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.AccessLog(logger.NewAccessLogger(cfg.Log), healthPath))
	router.Use(metrics.Handler())
	router.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	if cfg.Server.EnableSwagger {
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, registry},
		promhttp.HandlerOpts{},
	)))

	router.GET(healthPath, func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	router.GET("/ws", websocket.ServeWs(hub, authService, cfg.Server.AllowedOrigins))

	api := router.Group("")
	handler.NewAuthHandler(authService, auditService).RegisterRoutes(api)
	handler.NewGameHandler(catalogService).RegisterRoutes(api)
	handler.NewLibraryHandler(libraryService, auditService, guard).RegisterRoutes(api)
	handler.NewReviewHandler(reviewService, auditService, guard).RegisterRoutes(api)
	handler.NewRoleHandler(roleService, auditService, guard).RegisterRoutes(api)
	handler.NewUserHandler(userService, authService, auditService, guard).RegisterRoutes(api)
	handler.NewAuditHandler(auditService, guard).RegisterRoutes(api)

	return &Server{
		cfg:     cfg,
		router:  router,
		hub:     hub,
		catalog: catalogService,
		roles:   roleService,
	}
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP and runs the hub and catalog refresh until ctx is done or one of them fails.
func (s *Server) Run(ctx context.Context) error {
	var scheduler *cron.Cron
	if s.cfg.Catalog.RefreshSchedule != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(s.cfg.Catalog.RefreshSchedule, func() { s.refreshCatalog(ctx) }); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(s.cfg.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		s.hub.Run(ctx)
		return nil
	})

	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if scheduler != nil {
		g.Go(func() error {
			scheduler.Start()
			<-ctx.Done()
			<-scheduler.Stop().Done()
			return nil
		})
	}

	return g.Wait()
}

func (s *Server) refreshCatalog(ctx context.Context) {
	inserted, err := s.catalog.Seed(ctx, s.cfg.Catalog.SeedPages, s.cfg.Catalog.SeedPageSize)
	if err != nil {
		log.Warn().Err(err).Int64("inserted", inserted).Msg("catalog refresh failed")
		return
	}
	log.Info().Int64("inserted", inserted).Msg("catalog refreshed")
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
	c.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	c.ExposeHeaders = []string{middleware.RequestIDHeader}

	allowAll := len(origins) == 0
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
	}

	if allowAll {
		c.AllowAllOrigins = true
		return c
	}

	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}
