// Command server runs the POS backend HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/possale/backend/internal/application/catalog"
	identityapp "github.com/possale/backend/internal/application/identity"
	reportapp "github.com/possale/backend/internal/application/report"
	salesapp "github.com/possale/backend/internal/application/sale"
	"github.com/possale/backend/internal/domain/catalog"
	"github.com/possale/backend/internal/domain/identity"
	"github.com/possale/backend/internal/domain/inventory"
	"github.com/possale/backend/internal/domain/sale"
	"github.com/possale/backend/internal/infrastructure/auth"
	"github.com/possale/backend/internal/infrastructure/cache"
	"github.com/possale/backend/internal/infrastructure/config"
	"github.com/possale/backend/internal/infrastructure/event"
	"github.com/possale/backend/internal/infrastructure/logger"
	"github.com/possale/backend/internal/infrastructure/migration"
	"github.com/possale/backend/internal/infrastructure/persistence"
	"github.com/possale/backend/internal/infrastructure/persistence/memory"
	"github.com/possale/backend/internal/infrastructure/scheduler"
	"github.com/possale/backend/internal/infrastructure/telemetry"
	"github.com/possale/backend/internal/interfaces/http/handler"
	"github.com/possale/backend/internal/interfaces/http/middleware"
	"github.com/possale/backend/internal/interfaces/http/router"
	"github.com/possale/backend/migrations"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownTimeout = 30 * time.Second

// productStore is a product repository that also feeds the out-of-stock gauge
type productStore interface {
	catalog.ProductRepository
	telemetry.StockLevelSource
}

// storage is the repository set chosen by database.driver
type storage struct {
	products productStore
	users    identity.UserRepository
	sales    sale.Repository
	ledger   inventory.Ledger
	scope    salesapp.TransactionScope
	db       *persistence.Database

	// stockOverlay is set when stock lives outside the products table
	stockOverlay bool
	evicter      cache.Evicter
	checks       map[string]handler.HealthCheck
	closers      []func() error
}

func (s *storage) Close(log *zap.Logger) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Error("Error closing storage", zap.Error(err))
		}
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx := context.Background()
	tel := setupTelemetry(ctx, cfg, log)
	log = tel.logger
	defer tel.Shutdown(log)

	log.Info("Starting POS backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
		zap.String("ledger", cfg.Inventory.Ledger),
	)

	location, err := cfg.Report.Location()
	if err != nil {
		log.Fatal("Invalid report timezone", zap.String("timezone", cfg.Report.Timezone), zap.Error(err))
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close(log)

	// Token revocation shares the Redis instance when one is configured
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store.closers = append(store.closers, client.Close)
		store.checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
		blacklist = auth.NewRedisTokenBlacklist(client)

		if cfg.Inventory.Ledger == config.LedgerRedis && store.db != nil {
			redisLedger := cache.NewRedisInventoryLedger(client, store.ledger, cache.WithLogger(log))
			store.ledger = redisLedger
			store.scope = persistence.NewGormTransactionScopeWithLedger(store.db.DB, redisLedger)
			store.stockOverlay = true
			store.evicter = redisLedger
		} else if cfg.Inventory.Ledger == config.LedgerRedis {
			log.Warn("Redis ledger needs a SQL database, keeping the in-memory ledger")
		}
	}

	bus := event.NewBus(log, event.Async())
	lowStock := salesapp.NewLowStockAlertHandler(store.ledger, cfg.Inventory.LowStockThreshold, log)
	bus.Subscribe(lowStock, lowStock.EventTypes()...)
	if store.evicter != nil {
		eviction := cache.NewLedgerEvictionHandler(store.evicter, log)
		bus.Subscribe(eviction, eviction.EventTypes()...)
	}
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	jwtService := auth.NewJWTService(cfg.JWT)

	productService := catalogapp.NewProductService(store.products, store.ledger, log)
	productService.SetEventPublisher(bus)
	productService.SetStockOverlay(store.stockOverlay)

	processor := salesapp.NewProcessor(store.scope, log)
	processor.SetEventPublisher(bus)
	if tel.meter != nil {
		saleMetrics, err := telemetry.NewSaleMetrics(tel.meter, store.products, log)
		if err != nil {
			log.Warn("Sale metrics disabled", zap.Error(err))
		} else {
			processor.SetSaleMetrics(saleMetrics)
		}
	}

	query := salesapp.NewQueryService(store.sales, store.products, store.users)
	userService := identityapp.NewUserService(store.users, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	userService.SetEventPublisher(bus)

	reports := reportapp.NewSalesReportService(store.sales, query, location, log)

	closeHour, closeMinute, err := scheduler.ParseCronSchedule(cfg.Report.DailyCloseSchedule)
	if err != nil {
		log.Fatal("Invalid daily close schedule", zap.String("schedule", cfg.Report.DailyCloseSchedule), zap.Error(err))
	}
	dailyClose := scheduler.NewDailyCloseScheduler(scheduler.DailyCloseConfig{
		Enabled:    cfg.Report.DailyCloseEnabled,
		Hour:       closeHour,
		Minute:     closeMinute,
		Location:   location,
		JobTimeout: 5 * time.Minute,
	}, reports, log)
	if err := dailyClose.Start(ctx); err != nil {
		log.Fatal("Failed to start daily close scheduler", zap.Error(err))
	}

	health := handler.NewHealthHandler(cfg.App.Name, cfg.App.Version)
	for name, check := range store.checks {
		health.AddCheck(name, check)
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger:         log,
		HTTP:           cfg.HTTP,
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		RequestTimeout: cfg.HTTP.WriteTimeout,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter:     tel.meter,
		Profiling: cfg.Profiling.Enabled,
	}, router.Handlers{
		Auth:    handler.NewAuthHandler(identityapp.NewAuthService(store.users, jwtService, blacklist, log)),
		User:    handler.NewUserHandler(userService),
		Product: handler.NewProductHandler(productService),
		Sale:    handler.NewSaleHandler(processor, query),
		Report:  handler.NewReportHandler(reports),
		Health:  health,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := dailyClose.Stop(shutdownCtx); err != nil {
		log.Error("Daily close scheduler did not stop", zap.Error(err))
	}
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// openStorage connects the configured database and builds the repositories
// and stock ledger on top of it.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("Using in-memory storage, data is lost on restart")
		mem := memory.NewStore()
		return &storage{
			products: memory.NewProductRepository(mem),
			users:    memory.NewUserRepository(mem),
			sales:    memory.NewSaleRepository(mem),
			ledger:   memory.NewLedger(mem),
			scope:    memory.NewTransactionScope(mem),
			checks:   map[string]handler.HealthCheck{},
		}, nil
	}

	gormLog := logger.NewGormLogger(log, logger.GormConfig{
		Level:         logger.MapGormLogLevel(cfg.Log.Level),
		SlowThreshold: cfg.Telemetry.DBSlowQueryThresh,
	})
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}
	log.Info("Database connected successfully")

	store := &storage{
		products: persistence.NewGormProductRepository(db.DB),
		users:    persistence.NewGormUserRepository(db.DB),
		sales:    persistence.NewGormSaleRepository(db.DB),
		ledger:   persistence.NewGormInventoryLedger(db.DB),
		scope:    persistence.NewGormTransactionScope(db.DB),
		checks: map[string]handler.HealthCheck{
			"database": db.Ping,
		},
		db:      db,
		closers: []func() error{db.Close},
	}

	if err := migrateSchema(cfg, db, log); err != nil {
		store.Close(log)
		return nil, err
	}

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.DBTraceEnabled,
		DBName:          cfg.Database.DBName,
		IncludeSQLVars:  cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
	}, log); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}
	return store, nil
}

// migrateSchema applies the embedded SQL migrations on postgres and lets gorm
// build the schema on sqlite.
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == config.DriverSQLite {
		return db.AutoMigrate()
	}
	if !cfg.Database.AutoMigrate {
		return nil
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, log)
	if err != nil {
		return err
	}
	// Closing the migrator would close the shared connection pool
	return m.Up()
}

// telemetryStack holds the OpenTelemetry providers and the profiler
type telemetryStack struct {
	tracer   *telemetry.TracerProvider
	meters   *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
	meter    metric.Meter
	logger   *zap.Logger
}

// setupTelemetry starts tracing, metrics, OTLP logs and profiling. Failures
// are logged and leave the affected signal disabled.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) *telemetryStack {
	t := &telemetryStack{logger: log}
	tc := cfg.Telemetry

	col := telemetry.Collector{
		Endpoint:       tc.CollectorEndpoint,
		Insecure:       tc.Insecure,
		ServiceName:    tc.ServiceName,
		ServiceVersion: cfg.App.Version,
	}

	tracer, err := telemetry.NewTracerProvider(ctx, col, telemetry.TracesConfig{
		Enabled:       tc.Enabled,
		SamplingRatio: tc.SamplingRatio,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize tracing", zap.Error(err))
	} else {
		t.tracer = tracer
	}

	meters, err := telemetry.NewMeterProvider(ctx, col, telemetry.MetricsConfig{
		Enabled:        tc.MetricsEnabled,
		ExportInterval: tc.MetricsInterval,
	}, log)
	if err != nil {
		log.Warn("Failed to initialize metrics", zap.Error(err))
	} else {
		t.meters = meters
		if meters.IsEnabled() {
			t.meter = meters.Meter(tc.ServiceName)
		}
	}

	logs, err := telemetry.NewLoggerProvider(ctx, col, telemetry.LogsConfig{Enabled: tc.LogsEnabled}, log)
	if err != nil {
		log.Warn("Failed to initialize OTLP logs", zap.Error(err))
	} else {
		t.logs = logs
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		t.logger = logs.Bridge(log, tc.ServiceName, level)
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   tc.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
	}, log)
	if err != nil {
		log.Warn("Failed to start profiler", zap.Error(err))
	} else {
		t.profiler = profiler
		if cfg.Profiling.SpanProfiles && t.tracer != nil && profiler.IsEnabled() {
			t.tracer.EnableSpanProfiles()
		}
	}
	return t
}

// Shutdown flushes every provider
func (t *telemetryStack) Shutdown(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if t.profiler != nil {
		if err := t.profiler.Stop(); err != nil {
			log.Error("Failed to stop profiler", zap.Error(err))
		}
	}
	if t.meters != nil {
		if err := t.meters.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown meter provider", zap.Error(err))
		}
	}
	if t.tracer != nil {
		if err := t.tracer.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if t.logs != nil {
		if err := t.logs.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown logger provider", zap.Error(err))
		}
	}
}
