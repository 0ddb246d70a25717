package config

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/deep-dholariya/backend/store"
	"github.com/deep-dholariya/backend/store/memstore"
	"github.com/deep-dholariya/backend/store/mongostore"
	"github.com/deep-dholariya/backend/store/sqlstore"
)

func ConnectDB(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	return client, nil
}

func OpenSQL(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}
	return db, nil
}

// OpenStore builds the store handle selected by cfg and initializes it.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var s store.Store
	switch cfg.StoreDriver {
	case DriverMongo:
		client, err := ConnectDB(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		s = mongostore.New(client, cfg.MongoDB,
			mongostore.WithTransactions(cfg.MongoTransactions),
			mongostore.WithLogger(logger))
	case DriverPostgres, DriverSQLite:
		dsn := cfg.PostgresDSN
		if cfg.StoreDriver == DriverSQLite {
			dsn = cfg.SQLitePath
		}
		db, err := OpenSQL(cfg.StoreDriver, dsn)
		if err != nil {
			return nil, err
		}
		s = sqlstore.New(db, logger)
	case DriverMemory:
		s = memstore.New()
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.Init(initCtx); err != nil {
		_ = s.Close(context.Background())
		return nil, err
	}
	logger.Info("store connected", "driver", cfg.StoreDriver)
	return s, nil
}
