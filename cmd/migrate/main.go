package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/angelmondragon/stockledger-backend/pkg/config"
	"github.com/angelmondragon/stockledger-backend/pkg/db"
	"github.com/angelmondragon/stockledger-backend/pkg/logger"
	"github.com/angelmondragon/stockledger-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	cmd      string
	dir      string
	embedded bool
	name     string
	version  string
}

func (o options) source() migrate.Source {
	if o.embedded {
		return migrate.EmbeddedSource()
	}
	return migrate.DirSource(o.dir)
}

// offline commands never open a database connection
var offline = map[string]func(options) (string, error){
	"create": func(o options) (string, error) {
		if o.name == "" {
			return "", fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err != nil {
			return "", err
		}
		return "created migration: " + path, nil
	},
	"validate": func(o options) (string, error) {
		if err := migrate.Validate(o.source()); err != nil {
			return "", err
		}
		return "migration validation passed", nil
	},
}

var online = map[string]func(context.Context, *sql.DB, options) error{
	"up":      gooseCommand("up"),
	"down":    gooseCommand("down"),
	"status":  gooseCommand("status"),
	"version": migrateToVersion,
}

func migrateToVersion(ctx context.Context, sqlDB *sql.DB, o options) error {
	if o.version == "" {
		return fmt.Errorf("missing -version for version command")
	}
	return migrate.MigrateToVersion(ctx, sqlDB, o.source(), o.version)
}

func gooseCommand(name string) func(context.Context, *sql.DB, options) error {
	return func(ctx context.Context, sqlDB *sql.DB, o options) error {
		return migrate.Run(ctx, sqlDB, o.source(), name)
	}
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into the binary instead of -dir")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version YYYYMMDDHHMMSS (for version)")
	flag.Parse()

	if run, ok := offline[opts.cmd]; ok {
		msg, err := run(opts)
		if err != nil {
			fail("%s failed: %v", opts.cmd, err)
		}
		fmt.Println(msg)
		return
	}
	run, ok := online[opts.cmd]
	if !ok {
		fail("unknown -cmd value: %s", opts.cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		fail("config: %v", err)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"source": opts.source().String(),
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	// goose files are postgres DDL; sqlite schemas come from the models
	if cfg.DB.IsSQLite() {
		if opts.cmd != "up" {
			fail("sqlite only supports -cmd=up")
		}
		requireResource(ctx, logg, "sqlite schema", dbClient.AutoMigrate(ctx))
		logg.Info(ctx, "migrate.sqlite_done")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate.start")
	if err := run(ctx, sqlDB, opts); err != nil {
		logg.Error(ctx, "migrate.failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migrate.done")
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource unavailable: "+resource, err)
	os.Exit(1)
}
