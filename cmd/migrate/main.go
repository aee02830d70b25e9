package main

import (
	"errors"
	"flag"

	"doodleit/internal/config"
	"doodleit/internal/logging"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	dir := flag.String("dir", "db/migrations", "migrations directory")
	down := flag.Bool("down", false, "roll back the most recent migration")
	flag.Parse()

	logger := logging.NewLogger(false).Named("migrate")
	defer func() { _ = logger.Sync() }()

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Warnw("failed to load .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("invalid configuration", "error", err)
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+*dir, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("migration setup failed", "error", err)
	}
	defer func() { _, _ = m.Close() }()

	if *down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatalw("database migration failed", "error", err, "down", *down)
	}
	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		logger.Warnw("read migration version", "error", verr)
	}
	logger.Infow("database migrations applied", "version", version, "dirty", dirty)
}
