package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quackextractor/wordrush/internal/api"
	"github.com/quackextractor/wordrush/internal/factory"
)

func serve(ctx context.Context, cfg *Config) error {
	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	app, err := factory.New(factory.Config{
		DictionaryPath:      cfg.dictionary,
		BlocklistPath:       cfg.blocklist,
		DatamuseURL:         cfg.datamuseURL,
		DefinitionCacheSize: cfg.cacheSize,
		DefinitionCacheTTL:  cfg.cacheTTL,
		RedisURL:            cfg.redisURL,
		Logger:              logger,
	})
	if err != nil {
		return err
	}
	defer app.Close()

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Directory:      app.Directory,
		Dispatcher:     app.Dispatcher,
		BaseURL:        cfg.baseURL,
		AllowedOrigins: cfg.allowedOrigins,
	})

	serverCfg := api.DefaultServerConfig()
	serverCfg.Host = cfg.bind
	serverCfg.Port = cfg.port
	server := api.NewServer(router, serverCfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("received signal, shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	return server.Shutdown(context.Background())
}
