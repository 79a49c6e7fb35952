// Command migrate manages the postgres schema of the POS backend.
package main

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/possale/backend/internal/infrastructure/config"
	"github.com/possale/backend/internal/infrastructure/logger"
	"github.com/possale/backend/internal/infrastructure/migration"
	"github.com/possale/backend/migrations"
	"go.uber.org/zap"
)

const usage = `POS database migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the applied version
  force <version>       Mark a version as applied (fixes a dirty state)
  drop -confirm         Drop every table
  create <name> [desc]  Create the next migration pair in -path (default ./migrations)
  list                  List available migrations

Flags:
  -path string          Migrations directory; the embedded set is used when empty
  -log-level string     debug, info, warn, error (default: info)

The database is configured like the server, e.g. POS_DATABASE_HOST and
POS_DATABASE_PASSWORD.
`

var errUsage = errors.New("invalid arguments")

// schemaCommand runs against a connected migrator
type schemaCommand func(m *migration.Migrator, args []string, log *zap.Logger) error

var schemaCommands = map[string]schemaCommand{
	"up":   func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() },
	"down": func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() },
	"step": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return m.Steps(n)
	},
	"goto": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return fmt.Errorf("%w: version cannot be negative", errUsage)
		}
		return m.GoTo(uint(v))
	},
	"force": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return m.Force(v)
	},
	"version": func(m *migration.Migrator, _ []string, log *zap.Logger) error {
		v, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("Schema version", zap.Uint("version", v), zap.Bool("dirty", dirty))
		return nil
	},
	"drop": func(m *migration.Migrator, args []string, _ *zap.Logger) error {
		if len(args) == 0 || (args[0] != "-confirm" && args[0] != "--confirm") {
			return fmt.Errorf("%w: drop needs -confirm", errUsage)
		}
		return m.Drop()
	},
}

func main() {
	dir := flag.String("path", "", "Read migrations from this directory instead of the embedded set")
	level := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{Level: *level, Format: "console", Output: "stdout", TimeFormat: time.DateTime})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	if err := dispatch(args[0], args[1:], *dir, log); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func dispatch(name string, args []string, dir string, log *zap.Logger) error {
	switch name {
	case "create":
		return create(cmp.Or(dir, "migrations"), args, log)
	case "list":
		return list(source(dir))
	}

	cmd, ok := schemaCommands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}

	m, closeDB, err := connect(source(dir), log)
	if err != nil {
		return err
	}
	defer closeDB()
	return cmd(m, args, log)
}

func source(dir string) fs.FS {
	if dir == "" {
		return migrations.FS
	}
	return os.DirFS(dir)
}

func create(dir string, args []string, log *zap.Logger) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: create needs a name", errUsage)
	}
	var description string
	if len(args) > 1 {
		description = args[1]
	}
	mf, err := migration.CreateMigration(dir, args[0], description)
	if err != nil {
		return err
	}
	log.Info("Migration created",
		zap.String("version", mf.Version),
		zap.String("up_file", mf.UpPath),
		zap.String("down_file", mf.DownPath),
	)
	return nil
}

func list(fsys fs.FS) error {
	names, err := migration.ListMigrations(fsys)
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println("  -", name)
	}
	return nil
}

// connect opens the configured postgres database and a migrator on it
func connect(fsys fs.FS, log *zap.Logger) (*migration.Migrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, nil, fmt.Errorf("database.driver is %s: SQL migrations only apply to postgres, sqlite schemas are created at startup", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.NewFromFS(db, fsys, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	// Close also closes db
	return m, func() { _ = m.Close() }, nil
}

func intArg(args []string, what string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: %s required", errUsage, what)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errUsage, what, args[0])
	}
	return n, nil
}
