package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/config"
	"github.com/dafibh/ledger/ledger-backend/internal/handler"
	"github.com/dafibh/ledger/ledger-backend/internal/middleware"
	"github.com/dafibh/ledger/ledger-backend/internal/repository/postgres"
	"github.com/dafibh/ledger/ledger-backend/internal/repository/storage"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var runMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  `Serve the ledger API until SIGINT or SIGTERM, then drain in-flight requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			setLogLevel(cfg.LogLevel)

			if runMigrations {
				if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
					return err
				}
			}

			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&runMigrations, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	// Connect to database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	categoryRepo := postgres.NewCategoryRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)

	// Initialize services
	authService := service.NewAuthService(userRepo)
	enforcer := service.NewConsistencyEnforcer(categoryRepo)
	categoryService := service.NewCategoryService(categoryRepo, transactionRepo)
	transactionService := service.NewTransactionService(transactionRepo, enforcer)
	summaryService := service.NewSummaryService(transactionRepo)

	var exportService *service.ExportService
	if cfg.S3.Enabled() {
		exportRepo, err := storage.NewS3ExportRepository(ctx, cfg.S3)
		if err != nil {
			return fmt.Errorf("initialize export storage: %w", err)
		}
		exportService = service.NewExportService(transactionRepo, exportRepo)
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("CSV export enabled")
	} else {
		log.Info().Msg("S3_BUCKET not set, CSV export disabled")
	}

	// Initialize middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		return fmt.Errorf("create auth middleware: %w", err)
	}
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	transactionHandler := handler.NewTransactionHandler(transactionService, summaryService, exportService)

	e := newEcho(cfg)
	handler.RegisterRoutes(e, authMiddleware, rateLimiter, authHandler, categoryHandler, transactionHandler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	log.Info().Msg("Server exited")
	return nil
}

// newEcho builds the server with the global middleware stack and the unauthenticated routes
func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// The swagger UI serves its own inline assets, so CSP stays off for /swagger
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		Skipper:               func(c echo.Context) bool { return strings.HasPrefix(c.Path(), "/swagger") },
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(middleware.RequestLogger())

	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", handler.NewOpenAPI3Handler(cfg.PublicURL))

	return e
}
