package factory

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/quackextractor/wordrush/internal/dependencies/clock"
	"github.com/quackextractor/wordrush/internal/dependencies/random"
	"github.com/quackextractor/wordrush/internal/services/definition"
	"github.com/quackextractor/wordrush/internal/services/room"
	"github.com/quackextractor/wordrush/internal/services/words"
	"github.com/quackextractor/wordrush/internal/session"
	"github.com/quackextractor/wordrush/internal/ws"
)

// App contains all wired application components
type App struct {
	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Judge       *words.Judge
	Source      *words.Source
	Definitions *definition.Cache
	Engine      *room.Engine
	Directory   *session.Directory
	Dispatcher  *ws.Dispatcher

	redisStore *definition.RedisStore
}

// Config holds configuration for the application factory
type Config struct {
	// DictionaryPath is the path to the word list (required)
	DictionaryPath string
	// BlocklistPath is the path to the blocklist file (optional)
	BlocklistPath string
	// DatamuseURL overrides the definition lookup endpoint (optional)
	DatamuseURL string
	// DefinitionCacheSize and DefinitionCacheTTL bound the in-process
	// definition cache; zero values take the package defaults
	DefinitionCacheSize int
	DefinitionCacheTTL  time.Duration
	// RedisURL enables a shared second-level definition store (optional)
	RedisURL string
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	judge := words.NewJudge()
	if err := judge.LoadDictionary(cfg.DictionaryPath); err != nil {
		return nil, fmt.Errorf("loading dictionary: %w", err)
	}
	if cfg.BlocklistPath != "" {
		if err := judge.LoadBlocklist(cfg.BlocklistPath); err != nil {
			return nil, fmt.Errorf("loading blocklist: %w", err)
		}
	}
	logger.Info("dictionary loaded", slog.Int("words", judge.DictionarySize()))

	fetcher := definition.NewDatamuseFetcher(cfg.DatamuseURL)
	cache := definition.NewCache(fetcher, cfg.DefinitionCacheSize, cfg.DefinitionCacheTTL, logger)

	var redisStore *definition.RedisStore
	if cfg.RedisURL != "" {
		store, err := definition.NewRedisStore(cfg.RedisURL, cfg.DefinitionCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		cache = cache.WithStore(store)
		redisStore = store
		logger.Info("redis definition store enabled")
	}

	app := newWithDependencies(judge, cache, clock.New(), random.New(), logger)
	app.redisStore = redisStore
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(judge *words.Judge, definitions *definition.Cache, clk clock.Clock, rnd random.Random, logger *slog.Logger) *App {
	source := words.NewSource(rnd)
	engine := room.NewEngine(source, judge, clk, rnd, logger)
	directory := session.NewDirectory(engine, definitions, rnd, logger)
	dispatcher := ws.NewDispatcher(directory, logger)

	return &App{
		Clock:       clk,
		Random:      rnd,
		Judge:       judge,
		Source:      source,
		Definitions: definitions,
		Engine:      engine,
		Directory:   directory,
		Dispatcher:  dispatcher,
	}
}

// Close stops all rooms and releases external connections
func (a *App) Close() error {
	a.Directory.Shutdown()
	if a.redisStore != nil {
		return a.redisStore.Close()
	}
	return nil
}
