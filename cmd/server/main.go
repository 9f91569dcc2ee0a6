package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/mytheresa/inventory/app/auth"
	"github.com/mytheresa/inventory/app/cache"
	"github.com/mytheresa/inventory/app/categories"
	"github.com/mytheresa/inventory/app/database"
	"github.com/mytheresa/inventory/app/products"
	"github.com/mytheresa/inventory/app/storage"
	"github.com/mytheresa/inventory/app/upload"
	"github.com/mytheresa/inventory/config"
	"github.com/mytheresa/inventory/models"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}

	log, err := cfg.Logger()
	if err != nil {
		logrus.WithError(err).Fatal("invalid logging configuration")
	}

	ctx := context.Background()

	db, err := database.Open(database.Config{
		Driver: cfg.DBDriver,
		DSN:    cfg.DatabaseURL,
		Debug:  cfg.DBDebug,
	}, log)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.WithError(err).Fatal("failed to get sql.DB")
	}
	if err := models.Migrate(ctx, sqlDB); err != nil {
		log.WithError(err).Fatal("failed to migrate database")
	}

	files, closeFiles, err := openStorage(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to open object storage")
	}

	lists, closeCache := openCache(ctx, cfg, log)

	verifier, err := auth.NewVerifier(cfg.AuthSecret)
	if err != nil {
		log.WithError(err).Fatal("failed to create session verifier")
	}

	svc := products.NewService(
		models.NewProductsRepository(db),
		models.NewImagesRepository(db),
		files,
		lists,
		log,
	)

	handler := routes(handlers{
		products:   products.NewProductsHandler(svc, cfg.DisplayLocale, cfg.DisplayCurrency, log),
		categories: categories.NewCategoryHandler(models.NewCategoriesRepository(db), log),
		upload:     upload.NewUploadHandler(files, models.NewImagesRepository(db), cfg.R2.PublicURL, cfg.MaxUploadBytes, log),
	}, auth.Middleware(verifier, cfg.SignInPath, log), sqlDB, log)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    cfg.HTTPAddr,
			"db":      cfg.DBDriver,
			"storage": cfg.StorageBackend,
			"cache":   cfg.RedisAddr != "",
		}).Info("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				log.Info("graceful shutdown initiated")
				// in-flight requests finish before their dependencies close
				err := srv.Shutdown(ctx)
				return errors.Join(err, closeFiles(), closeCache(), sqlDB.Close())
			},
		},
	)

	exitCode := <-wait
	log.WithField("exit_code", exitCode).Info("server stopped")
	os.Exit(exitCode)
}

func openStorage(ctx context.Context, cfg config.Config) (storage.ObjectStore, func() error, error) {
	switch cfg.StorageBackend {
	case config.StorageNATS:
		store, err := storage.NewJetStreamStore(ctx, cfg.NATSURL, cfg.NATSBucket)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.StorageR2:
		store, err := storage.NewR2Store(storage.R2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			Bucket:          cfg.R2.Bucket,
			Endpoint:        cfg.R2.Endpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() error { return nil }, nil
	}
	return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
}

// openCache falls back to no caching when Redis is not configured or unreachable.
func openCache(ctx context.Context, cfg config.Config, log *logrus.Logger) (cache.ProductLists, func() error) {
	noop := func() error { return nil }
	if cfg.RedisAddr == "" {
		return cache.Disabled{}, noop
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable, product list cache disabled")
		client.Close()
		return cache.Disabled{}, noop
	}
	return cache.NewRedisProductLists(client, "inventory:products:", cfg.CacheTTL), client.Close
}
