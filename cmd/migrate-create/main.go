package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"doodleit/internal/logging"
)

var migrationName = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

func main() {
	name := flag.String("name", "", "migration name, snake_case")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()

	logger := logging.NewLogger(false).Named("migrate-create")
	defer func() { _ = logger.Sync() }()

	if !migrationName.MatchString(*name) {
		logger.Fatalw("migration name must be snake_case", "name", *name)
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		logger.Fatalw("create migrations dir", "dir", *dir, "error", err)
	}

	version := time.Now().UTC().Format("20060102150405")
	paths := make([]string, 0, 2)
	for _, direction := range []string{"up", "down"} {
		path := filepath.Join(*dir, fmt.Sprintf("%s_%s.%s.sql", version, *name, direction))
		header := fmt.Sprintf("-- %s: %s\n", *name, direction)
		if err := createExclusive(path, header); err != nil {
			logger.Fatalw("create migration", "direction", direction, "error", err)
		}
		paths = append(paths, path)
	}
	logger.Infow("created migration", "version", version, "files", paths)
}

func createExclusive(path, content string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(content); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
