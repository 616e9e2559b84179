package app

import (
	"context"
	"log/slog"

	httpapp "atelier/internal/app/http"
	"atelier/internal/config"
	"atelier/internal/repository"
	mediaservice "atelier/internal/services/media_service"
	productservice "atelier/internal/services/product_service"
	"atelier/internal/storage/postgresql"
	"atelier/internal/transcoder"
	httprouters "atelier/internal/transport/http"
)

type App struct {
	HTTPServer *httpapp.Server
	Storage    *postgresql.Storage
}

func New(log *slog.Logger, cfg *config.Config) *App {
	store, err := postgresql.New(context.Background(), cfg.DSN)
	if err != nil {
		panic(err)
	}

	executor := repository.NewExecutor(log, store)
	productRepo := repository.NewProductRepository(log, store.Pool(), executor)

	mediaService := mediaservice.NewMediaService(log, transcoder.New(log))
	productService := productservice.NewProductService(log, productRepo, mediaService, cfg.ListCacheTTL)

	routers := httprouters.NewRouter(log, productService, httprouters.UploadLimits{
		MaxFiles:    cfg.Upload.MaxFiles,
		MaxFileSize: cfg.Upload.MaxFileSize,
	})

	server := httpapp.New(log, cfg.SessionSecret, cfg.HTTP.Host, cfg.HTTP.Port, routers)

	return &App{
		HTTPServer: server,
		Storage:    store,
	}
}
