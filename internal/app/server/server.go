package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"salarizare/internal/domain/employee"
	"salarizare/internal/domain/payroll"
	"salarizare/internal/domain/settings"
	"salarizare/internal/domain/tac"
	"salarizare/internal/domain/workingdays"
	"salarizare/internal/platform/config"
	"salarizare/internal/platform/db"
	"salarizare/internal/platform/jobs"
	"salarizare/internal/platform/metrics"
	"salarizare/internal/platform/querier"
	"salarizare/internal/platform/storage"
	"salarizare/internal/transport/http/api"
	payrollhandler "salarizare/internal/transport/http/handlers/payroll"
	settingshandler "salarizare/internal/transport/http/handlers/settings"
	tachandler "salarizare/internal/transport/http/handlers/tac"
	"salarizare/internal/transport/http/middleware"
)

// Services bundles the domain services built on one database handle.
type Services struct {
	Settings    *settings.Service
	WorkingDays *workingdays.Service
	Payroll     *payroll.Service
	TACs        *tac.Service
}

func NewServices(q querier.Querier, files storage.Store, collector *metrics.Collector) Services {
	settingsSvc := settings.NewService(settings.NewStore(q))
	calendar := workingdays.NewService(workingdays.NewStore(q))
	return Services{
		Settings:    settingsSvc,
		WorkingDays: calendar,
		Payroll:     payroll.NewService(employee.NewStore(q), settingsSvc, calendar, files, collector),
		TACs:        tac.NewService(tac.NewStore(q), collector),
	}
}

// Seeders lists the startup seeding steps. Sample transactions are only
// recorded when withSamples is set.
func (s Services) Seeders(withSamples bool) []db.Seeder {
	steps := []db.Seeder{{
		Name: "legal_settings",
		Run: func(ctx context.Context) (int, error) {
			current, err := s.Settings.Load(ctx)
			return len(current), err
		},
	}}
	if withSamples {
		steps = append(steps, db.Seeder{Name: "sample_transactions", Run: s.TACs.SeedSamples})
	}
	return steps
}

// NewFileStore picks S3 when a bucket is configured and the local disk
// otherwise.
func NewFileStore(ctx context.Context, cfg config.Config) (storage.Store, error) {
	if cfg.UseS3() {
		return storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	}
	return storage.NewLocalStore(cfg.PayslipDir, cfg.FilesBaseURL)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps is everything the router needs besides configuration.
type Deps struct {
	Services    Services
	Jobs        payrollhandler.JobRunner
	Metrics     *metrics.Collector
	Limiter     *middleware.Limiter
	Idempotency middleware.IdempotencyStoreAPI
	DB          Pinger
}

func NewRouter(cfg config.Config, deps Deps) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(deps.Metrics))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader, middleware.IdempotencyKeyHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(deps.Limiter))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := deps.DB.Ping(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, deps.Metrics.Snapshot(), middleware.GetRequestID(r))
		})
	}

	if !cfg.UseS3() && cfg.PayslipDir != "" && strings.HasPrefix(cfg.FilesBaseURL, "/") {
		prefix := strings.TrimRight(cfg.FilesBaseURL, "/")
		router.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.PayslipDir))))
	}

	router.Route("/api/v1", func(r chi.Router) {
		payrollhandler.NewHandler(deps.Services.Payroll, deps.Jobs).RegisterRoutes(r)
		settingshandler.NewHandler(deps.Services.Settings, deps.Services.WorkingDays).RegisterRoutes(r)
		tachandler.NewHandler(deps.Services.TACs, deps.Idempotency).RegisterRoutes(r)
	})

	return router
}

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Jobs   *jobs.Service

	cancel context.CancelFunc
	stop   chan struct{}
}

// New connects to the database, runs migrations and seeds as configured,
// starts the background jobs and builds the router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if _, err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	files, err := NewFileStore(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("file storage: %w", err)
	}

	collector := metrics.New()
	services := NewServices(pool, files, collector)

	if cfg.RunSeed {
		if err := db.Seed(ctx, services.Seeders(cfg.SeedSamples)...); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	jobService := jobs.New(pool, services.Payroll, cfg.RecomputeInterval)
	jobService.Start(jobCtx)

	services.Settings.AfterUpdate = func(context.Context, settings.Key) {
		jobService.EnqueueRecompute()
	}
	services.WorkingDays.AfterUpdate = func(context.Context) {
		jobService.EnqueueRecompute()
	}

	limiter := middleware.NewLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	stop := make(chan struct{})
	go limiter.Run(stop)

	router := NewRouter(cfg, Deps{
		Services:    services,
		Jobs:        jobService,
		Metrics:     collector,
		Limiter:     limiter,
		Idempotency: middleware.NewIdempotencyStore(pool),
		DB:          pool,
	})

	return &App{Config: cfg, DB: pool, Router: router, Jobs: jobService, cancel: cancel, stop: stop}, nil
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config) error {
	app, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("env", cfg.Environment).Msg("salarizare server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
