// Package config loads the server settings from config.toml, a dotenv file
// and POS_* environment variables.
package config

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Inventory ledger backends
const (
	LedgerDatabase = "database"
	LedgerRedis    = "redis"
)

const (
	envPrefix        = "POS"
	envFileVar       = "POS_ENV_FILE"
	productionEnv    = "production"
	defaultJWTSecret = "change-me-in-production"
)

// Config is the full server configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Report    ReportConfig    `mapstructure:"report"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Profiling ProfilingConfig `mapstructure:"profiling"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Port    string `mapstructure:"port"`
	Version string `mapstructure:"version"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// Path is the sqlite file; ":memory:" keeps the database in RAM
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	// AutoMigrate applies the embedded postgres migrations at startup
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret                 string        `mapstructure:"secret"`
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration"`
	Issuer                 string        `mapstructure:"issuer"`
	MaxRefreshCount        int           `mapstructure:"max_refresh_count"`
}

// LogConfig selects level, encoding and destination. File outputs rotate.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type HTTPConfig struct {
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	MaxBodySize    int64         `mapstructure:"max_body_size"`
	// An empty origin list blocks every cross-origin request
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string `mapstructure:"trusted_proxies"`
}

// InventoryConfig selects the stock ledger backend
type InventoryConfig struct {
	Ledger            string `mapstructure:"ledger"`
	LowStockThreshold int64  `mapstructure:"low_stock_threshold"`
}

// ReportConfig sets the business day used by reports and the daily close
type ReportConfig struct {
	Timezone           string `mapstructure:"timezone"`
	DailyCloseEnabled  bool   `mapstructure:"daily_close_enabled"`
	DailyCloseSchedule string `mapstructure:"daily_close_schedule"` // "minute hour * * *"
}

// TelemetryConfig configures the OTLP exporters and gorm tracing
type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`
}

// ProfilingConfig configures the pyroscope agent
type ProfilingConfig struct {
	Enabled           bool     `mapstructure:"enabled"`
	ServerAddress     string   `mapstructure:"server_address"`
	BasicAuthUser     string   `mapstructure:"basic_auth_user"`
	BasicAuthPassword string   `mapstructure:"basic_auth_password"`
	ProfileTypes      []string `mapstructure:"profile_types"`
	SpanProfiles      bool     `mapstructure:"span_profiles"`
}

// defaults lists every key. Viper only maps environment variables onto
// keys it knows, so keys without a useful default are listed empty.
var defaults = map[string]any{
	"app.name":    "pos-backend",
	"app.env":     "development",
	"app.port":    "8080",
	"app.version": "dev",

	"database.driver":             DriverPostgres,
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "pos",
	"database.sslmode":            "disable",
	"database.path":               "pos.db",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  time.Hour,
	"database.conn_max_idle_time": 30 * time.Minute,
	"database.auto_migrate":       false,

	"redis.enabled":  false,
	"redis.addr":     "localhost:6379",
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                   defaultJWTSecret,
	"jwt.refresh_secret":           "",
	"jwt.access_token_expiration":  8 * time.Hour,
	"jwt.refresh_token_expiration": 7 * 24 * time.Hour,
	"jwt.issuer":                   "pos-backend",
	"jwt.max_refresh_count":        10,

	"log.level":        "info",
	"log.format":       "console",
	"log.output":       "stdout",
	"log.max_size_mb":  100,
	"log.max_backups":  5,
	"log.max_age_days": 30,
	"log.compress":     false,

	"http.read_timeout":       15 * time.Second,
	"http.write_timeout":      15 * time.Second,
	"http.idle_timeout":       time.Minute,
	"http.max_header_bytes":   1 << 20,
	"http.max_body_size":      1 << 20,
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":    []string{},

	"inventory.ledger":              LedgerDatabase,
	"inventory.low_stock_threshold": 5,

	"report.timezone":             "UTC",
	"report.daily_close_enabled":  false,
	"report.daily_close_schedule": "5 0 * * *",

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

	"profiling.enabled":             false,
	"profiling.server_address":      "http://localhost:4040",
	"profiling.basic_auth_user":     "",
	"profiling.basic_auth_password": "",
	"profiling.profile_types":       []string{},
	"profiling.span_profiles":       false,
}

// Load builds the configuration. Later sources win:
//  1. built-in defaults
//  2. config.toml in ., ./config or /etc/pos
//  3. the dotenv file named by POS_ENV_FILE (default .env), which never
//     overrides variables already set
//  4. POS_* environment variables, e.g. POS_DATABASE_PASSWORD
func Load() (*Config, error) {
	if err := loadEnvFile(cmp.Or(os.Getenv(envFileVar), ".env")); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pos")
	if err := v.ReadInConfig(); err != nil {
		var missing viper.ConfigFileNotFoundError
		if !errors.As(err, &missing) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("read env file %s: %w", path, err)
}

func (c *Config) normalize() {
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Inventory.Ledger = strings.ToLower(strings.TrimSpace(c.Inventory.Ledger))
	c.Telemetry.ServiceName = cmp.Or(c.Telemetry.ServiceName, c.App.Name)
}

func (c *Config) validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	db := c.Database
	if !slices.Contains([]string{DriverPostgres, DriverSQLite, DriverMemory}, db.Driver) {
		fail("database.driver must be one of postgres, sqlite, memory, got %q", db.Driver)
	}
	switch {
	case db.MaxOpenConns <= 0:
		fail("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		fail("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		fail("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)
	}

	switch c.Inventory.Ledger {
	case LedgerDatabase:
	case LedgerRedis:
		if !c.Redis.Enabled {
			fail("inventory.ledger=redis requires redis.enabled=true")
		}
		// the single sqlite connection is held by the checkout transaction
		if db.Driver == DriverSQLite {
			fail("inventory.ledger=redis is not supported with database.driver=sqlite")
		}
	default:
		fail("inventory.ledger must be database or redis, got %q", c.Inventory.Ledger)
	}
	if c.Inventory.LowStockThreshold < 0 {
		fail("inventory.low_stock_threshold cannot be negative")
	}

	if _, err := c.Report.Location(); err != nil {
		fail("report.timezone: %w", err)
	}
	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		fail("telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", r)
	}

	if c.IsProduction() {
		errs = append(errs, c.validateProduction()...)
	}
	return errors.Join(errs...)
}

// validateProduction rejects development shortcuts
func (c *Config) validateProduction() []error {
	var errs []error
	switch secret := c.JWT.Secret; {
	case secret == defaultJWTSecret:
		errs = append(errs, errors.New("jwt.secret must be set in production"))
	case len(secret) < 32:
		errs = append(errs, errors.New("jwt.secret must be at least 32 characters in production"))
	}
	switch c.Database.Driver {
	case DriverMemory:
		errs = append(errs, errors.New("database.driver=memory is not allowed in production"))
	case DriverPostgres:
		if c.Database.Password == "" {
			errs = append(errs, errors.New("database.password is required in production"))
		}
	}
	if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
		errs = append(errs, errors.New("http.cors_allow_origins cannot contain '*' in production"))
	}
	if c.Telemetry.DBLogFullSQL {
		errs = append(errs, errors.New("telemetry.db_log_full_sql must be false in production, traces would carry customer data"))
	}
	return errs
}

// IsProduction reports whether app.env is production
func (c *Config) IsProduction() bool {
	return c.App.Env == productionEnv
}

// Location resolves the report timezone
func (r ReportConfig) Location() (*time.Location, error) {
	return time.LoadLocation(r.Timezone)
}

// DSN is the postgres URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
