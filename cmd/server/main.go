package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"doodleit/internal/config"
	"doodleit/internal/db"
	"doodleit/internal/game"
	"doodleit/internal/logging"
	"doodleit/internal/roomstore"
	"doodleit/internal/server"
	"doodleit/internal/words"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		logging.DefaultLogger().Warnw("failed to load .env", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		logging.DefaultLogger().Fatalw("invalid configuration", "error", err)
	}
	logger := logging.NewLogger(cfg.Debug).Named("doodleit")
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithLogger(ctx, logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatalw("server stopped", "error", err)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) error {
	var conn *gorm.DB
	if cfg.NeedsDatabase() {
		var err error
		conn, err = db.Open(cfg.DatabaseURL, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return err
		}
		defer func() { _ = db.Close(conn) }()
		if err := db.Migrate(conn); err != nil {
			return err
		}
	}

	store, closeStore, err := openStore(cfg, conn)
	if err != nil {
		return err
	}
	defer func() {
		if closeStore != nil {
			_ = closeStore.Close()
		}
	}()
	source, err := openWords(cfg, conn)
	if err != nil {
		return err
	}

	var ping server.PingFunc
	if conn != nil {
		ping = func(context.Context) error { return db.Ping(conn) }
	}
	srv := server.New(game.NewEngine(store, source), cfg, logger, ping)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort("0.0.0.0", cfg.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Infow("server listening", "addr", httpServer.Addr, "store", cfg.StoreBackend, "words", cfg.WordsSource)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return srv.RunSweeper(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		srv.Close()
		return err
	})
	return group.Wait()
}

func openStore(cfg config.Config, conn *gorm.DB) (game.Store, io.Closer, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		store, err := roomstore.NewCached(roomstore.NewGorm(conn), cfg.CacheSize)
		return store, nil, err
	case config.BackendBolt:
		bolt, err := roomstore.OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		store, err := roomstore.NewCached(bolt, cfg.CacheSize)
		if err != nil {
			_ = bolt.Close()
			return nil, nil, err
		}
		return store, bolt, nil
	default:
		return game.NewMemoryStore(), nil, nil
	}
}

func openWords(cfg config.Config, conn *gorm.DB) (game.WordSource, error) {
	switch cfg.WordsSource {
	case config.WordsFile:
		return words.FromFile(cfg.WordsFile)
	case config.WordsPostgres:
		return words.NewDB(conn, words.Builtin()), nil
	default:
		return words.Builtin(), nil
	}
}
