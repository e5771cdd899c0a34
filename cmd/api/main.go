package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/plateful/backend/config"
	"github.com/plateful/backend/internal/database"
	"github.com/plateful/backend/internal/logger"
	"github.com/plateful/backend/internal/router"
	"github.com/plateful/backend/internal/server"
	"github.com/plateful/backend/internal/service"
	"github.com/plateful/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	rdb, err := database.ConnectRedis(cfg.Redis)
	if err != nil {
		// The denylist degrades gracefully: logout becomes a no-op.
		log.Warn("redis unavailable, token revocation disabled", zap.Error(err))
		rdb = nil
	}

	images, err := newImageStore(cfg.Media)
	if err != nil {
		log.Fatal("image store setup failed", zap.Error(err))
	}

	svcs := router.Services{
		Auth:    service.NewAuthService(db, rdb, cfg.JWT.Secret, cfg.JWT.TokenTTL, log),
		Users:   service.NewUserService(db),
		Recipes: service.NewRecipeService(db, images, log),
		Catalog: service.NewCatalogService(db),
	}

	engine := router.Setup(cfg, log, svcs)
	srv := server.New(engine, cfg.App.Port, log)
	if err := srv.Run(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func newImageStore(cfg config.MediaConfig) (storage.Store, error) {
	if cfg.Backend == "s3" {
		return storage.NewS3Store(context.Background(), storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			BaseURL:   cfg.BaseURL,
		})
	}
	return storage.NewLocalStore(cfg.LocalDir, cfg.BaseURL)
}
