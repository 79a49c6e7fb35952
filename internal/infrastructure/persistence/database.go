package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/possale/backend/internal/infrastructure/config"
	"github.com/possale/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// sqliteParams enforces foreign keys and waits on a locked file instead of
// failing the statement
const sqliteParams = "?_foreign_keys=on&_busy_timeout=5000"

// Database is the gorm handle of a SQL-backed store
type Database struct {
	DB     *gorm.DB
	Driver string
}

// NewDatabase opens cfg with gorm's logger silenced
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	return NewDatabaseWithLogger(cfg, logger.Default.LogMode(logger.Silent))
}

// NewDatabaseWithLogger opens cfg, sizes the pool for the driver and pings
// the server before returning.
func NewDatabaseWithLogger(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		}
		dialector = sqlite.Open(path + sqliteParams)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.Driver == config.DriverPostgres,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	d := &Database{DB: db, Driver: cfg.Driver}
	pool, err := d.pool()
	if err != nil {
		return nil, err
	}
	configurePool(pool, cfg)

	if err := pool.Ping(); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s database: %w", cfg.Driver, err)
	}
	return d, nil
}

// configurePool pins SQLite to one connection so concurrent checkouts queue
// on the pool rather than fail with SQLITE_BUSY
func configurePool(pool *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.Driver == config.DriverSQLite {
		pool.SetMaxOpenConns(1)
		pool.SetMaxIdleConns(1)
		return
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
}

func (d *Database) pool() (*sql.DB, error) {
	pool, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("database pool: %w", err)
	}
	return pool, nil
}

// AutoMigrate brings the tables in line with the persistence models. Only
// SQLite relies on it; Postgres runs the SQL migrations.
func (d *Database) AutoMigrate() error {
	if err := d.DB.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}
	return nil
}

// Ping reports whether the database answers. Used by the health endpoint.
func (d *Database) Ping(ctx context.Context) error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

// Stats returns the connection pool counters
func (d *Database) Stats() (sql.DBStats, error) {
	pool, err := d.pool()
	if err != nil {
		return sql.DBStats{}, err
	}
	return pool.Stats(), nil
}

// Close releases every pooled connection
func (d *Database) Close() error {
	pool, err := d.pool()
	if err != nil {
		return err
	}
	return pool.Close()
}

// Transaction runs fn in a transaction bound to ctx, committing when fn
// returns nil
func (d *Database) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return d.DB.WithContext(ctx).Transaction(fn)
}
