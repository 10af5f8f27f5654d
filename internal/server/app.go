// Package server assembles the AgriTrust application: storage backends,
// services and the HTTP API, and runs it until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/agritrust/internal/dbx"
	"github.com/dmitrijs2005/agritrust/internal/logging"
	"github.com/dmitrijs2005/agritrust/internal/server/chatbot"
	"github.com/dmitrijs2005/agritrust/internal/server/config"
	"github.com/dmitrijs2005/agritrust/internal/server/httpapi"
	"github.com/dmitrijs2005/agritrust/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/agritrust/internal/server/services"
	"github.com/dmitrijs2005/agritrust/internal/server/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	database, rm, sqlDB, err := openDatabase(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := openStorage(ctx, c)
	if err != nil {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	us := services.NewUserService(database, rm, c, logger)
	fs := services.NewFileService(database, rm, store, logger)
	bot := chatbot.NewResponder(chatbot.MockAnalyzer{}, logger)

	srv := httpapi.NewServer(httpapi.Options{
		Address:       c.EndpointAddrHTTP,
		SecretKey:     c.SecretKey,
		CORSOrigins:   c.CORSOrigins,
		MaxUploadSize: c.MaxUploadSize,
	}, logger, us, fs, bot)

	return &App{config: c, logger: logger, db: sqlDB, server: srv}, nil
}

func openDatabase(ctx context.Context, c *config.Config) (dbx.Database, repomanager.RepositoryManager, *sql.DB, error) {
	switch c.DatabaseMode {
	case config.DatabaseModeMemory:
		return dbx.NopDatabase{}, repomanager.NewMemoryRepositoryManager(), nil, nil
	case config.DatabaseModePostgres:
		db, err := openDB(c.DatabaseDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, err
		}
		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return dbx.NewSQLDatabase(db), rm, db, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown database mode %q", c.DatabaseMode)
	}
}

func openStorage(ctx context.Context, c *config.Config) (storage.Store, error) {
	switch c.StorageMode {
	case config.StorageModeMemory:
		return storage.NewMemoryStore(), nil
	case config.StorageModeS3:
		return storage.NewS3Store(ctx, storage.S3Options{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
	default:
		return nil, fmt.Errorf("unknown storage mode %q", c.StorageMode)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "database_mode", app.config.DatabaseMode, "storage_mode", app.config.StorageMode)

	app.initSignalHandler(cancelFunc)

	err := app.server.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, err.Error())
	}

	if app.db != nil {
		if cerr := app.db.Close(); cerr != nil {
			app.logger.Warn(ctx, "error closing database", "error", cerr)
		}
	}

	app.logger.Info(ctx, "App stopped")
	return err
}
