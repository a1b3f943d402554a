package main

import (
	"context"
	crypto_rand "crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/config"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/intake"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/pharmacy"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/queue"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/ai"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/auth"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/blobstore"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/db"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/dispatch"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/docstore"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/inventory"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-server",
		Short: "Clinic intake API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

// seedDoctors is the demo roster: one doctor per specialization, plaintext
// passwords as the dashboard login expects.
var seedDoctors = []struct {
	name     string
	spec     registry.Specialization
	password string
}{
	{"Dr. Sharma", registry.Cardiology, "sharma123"},
	{"Dr. Iyer", registry.Neurology, "iyer123"},
	{"Dr. Khan", registry.Orthopedic, "khan123"},
	{"Dr. Bose", registry.Dermatology, "bose123"},
	{"Dr. Nair", registry.Pediatrics, "nair123"},
	{"Dr. Verma", registry.General, "verma123"},
	{"Dr. Rao", registry.ENT, "rao123"},
	{"Dr. Mehta", registry.Gynecology, "mehta123"},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo doctor roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			repo := registry.NewRepoPG(pool)
			for _, d := range seedDoctors {
				if _, err := repo.GetByName(ctx, d.name); err == nil {
					fmt.Printf("skip %s (exists)\n", d.name)
					continue
				}
				doc := &registry.Doctor{
					Name:           d.name,
					Specialization: d.spec,
					Password:       d.password,
				}
				if err := repo.Create(ctx, doc); err != nil {
					return fmt.Errorf("seed %s: %w", d.name, err)
				}
				fmt.Printf("created %s (%s)\n", d.name, d.spec)
			}
			return nil
		},
	}
}

// noopDispatcher stands in when no pharmacy endpoint is configured. Approvals
// still record an outcome per item so the review flow stays usable in dev.
type noopDispatcher struct{}

func (noopDispatcher) Send(context.Context, dispatch.Order) dispatch.Result {
	return dispatch.Result{Sent: false, Error: "pharmacy endpoint not configured"}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Postgres
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to postgres")

	// Mongo (prescription scans)
	mongoDB, err := docstore.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoDB.Client().Disconnect(disconnectCtx)
	}()
	logger.Info().Msg("connected to mongo")

	// Medicine inventory
	inv, err := inventory.Load(cfg.InventoryCSV)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.InventoryCSV).Msg("failed to load inventory")
	}

	// Pharmacy dispatch
	var dispatcher pharmacy.Dispatcher = noopDispatcher{}
	if cfg.PharmacyURL != "" {
		client, err := dispatch.NewClient(cfg.PharmacyURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid pharmacy endpoint")
		}
		dispatcher = client
	} else {
		logger.Warn().Msg("PHARMACY_URL not set, approvals will not be forwarded")
	}

	// AI client (OpenAI-compatible endpoint)
	aiClient := ai.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIChatModel, cfg.AIVisionModel)

	// Dashboard sessions. Dev falls back to a per-boot random key; production
	// refuses to start without an explicit secret (config.Validate).
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := crypto_rand.Read(secret); err != nil {
			logger.Fatal().Err(err).Msg("failed to generate session secret")
		}
		logger.Warn().Msg("SESSION_SECRET not set, using a per-boot random key")
	}
	sessions := auth.NewSessions(secret, time.Duration(cfg.SessionTTLHours)*time.Hour)

	// Intake photos
	photos := blobstore.NewInMemoryStore()

	// Domain wiring. The windows scheduler is the single owner of the doctor
	// availability flag; both the registry (login/logout) and the queue
	// (admissions, expiries) go through it.
	doctorRepo := registry.NewRepoPG(pool)
	visitRepo := queue.NewRepoPG(pool)
	intakeRepo := intake.NewRepoPG(pool)
	scanRepo := pharmacy.NewRepoMongo(mongoDB)

	windows := queue.NewServiceWindows(doctorRepo, time.Duration(cfg.ServiceSlotMinutes)*time.Minute, logger)
	defer windows.Stop()

	registrySvc := registry.NewService(doctorRepo, windows, sessions)
	queueSvc := queue.NewService(visitRepo, registrySvc, windows, aiClient, cfg.ServiceSlotMinutes, logger)
	intakeSvc := intake.NewService(intakeRepo, registrySvc, aiClient, photos, logger)
	pharmacySvc := pharmacy.NewService(scanRepo, aiClient, inv, dispatcher, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	apiV1 := e.Group("/api/v1")
	registry.NewHandler(registrySvc, sessions).RegisterRoutes(apiV1)
	queue.NewHandler(queueSvc).RegisterRoutes(apiV1)
	intake.NewHandler(intakeSvc).RegisterRoutes(apiV1)
	pharmacy.NewHandler(pharmacySvc).RegisterRoutes(apiV1)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
