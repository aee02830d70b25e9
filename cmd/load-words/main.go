package main

import (
	"flag"

	"doodleit/internal/config"
	"doodleit/internal/db"
	"doodleit/internal/logging"
)

func main() {
	filePath := flag.String("file", "words.csv", "path to words csv")
	flag.Parse()

	logger := logging.NewLogger(false).Named("load-words")
	defer func() { _ = logger.Sync() }()

	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Warnw("failed to load .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("invalid configuration", "error", err)
	}

	conn, err := db.Open(cfg.DatabaseURL, db.PoolConfig{MaxOpenConns: cfg.DBMaxOpenConns, MaxIdleConns: cfg.DBMaxIdleConns})
	if err != nil {
		logger.Fatalw("database connection failed", "error", err)
	}
	defer func() { _ = db.Close(conn) }()
	if err := db.Migrate(conn); err != nil {
		logger.Fatalw("migrate words table", "error", err)
	}

	loaded, err := db.LoadWordLibrary(conn, *filePath)
	if err != nil {
		logger.Fatalw("failed to load words", "error", err, "loaded", loaded)
	}
	logger.Infow("loaded words", "count", loaded, "file", *filePath)
}
