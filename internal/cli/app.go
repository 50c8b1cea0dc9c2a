package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/amterp/postdeck/internal/config"
	pderr "github.com/amterp/postdeck/internal/errors"
	"github.com/amterp/postdeck/internal/logger"
	"github.com/amterp/postdeck/internal/model"
	"github.com/amterp/postdeck/internal/seed"
	"github.com/amterp/postdeck/internal/store"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Environment variables that override the config file.
const (
	EnvPort       = "POSTDECK_PORT"
	EnvLogLevel   = "POSTDECK_LOG_LEVEL"
	EnvSeed       = "POSTDECK_SEED"
	EnvDebounceMs = "POSTDECK_DEBOUNCE_MS"
)

// App holds all the dependencies for the CLI.
type App struct {
	Paths       *config.Paths
	ConfigStore store.ConfigStore
	Config      *model.Config
	Logger      zerolog.Logger
}

// NewApp loads .env, the config file and env overrides, then builds the logger.
func NewApp() (*App, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	paths := config.DefaultPaths()
	configStore := store.NewConfigStore(paths.ConfigPath())

	cfg, err := configStore.Load()
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}

	return &App{
		Paths:       paths,
		ConfigStore: configStore,
		Config:      cfg,
		Logger:      logger.New(cfg.Log.Level, cfg.Log.Pretty),
	}, nil
}

// applyEnv writes POSTDECK_* overrides over cfg.
func applyEnv(cfg *model.Config, getenv func(string) string) error {
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return pderr.InvalidField(EnvPort, fmt.Sprintf("%q is not a valid port", v))
		}
		cfg.Server.Port = port
	}
	if v := getenv(EnvDebounceMs); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return pderr.InvalidField(EnvDebounceMs, fmt.Sprintf("%q is not a valid duration in milliseconds", v))
		}
		cfg.Search.DebounceMillis = ms
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := getenv(EnvSeed); v != "" {
		cfg.Seed.Path = v
	}
	return nil
}

// SeedPath returns the seed file to load: the flag when given, else the config.
// Empty means the built-in dataset.
func (a *App) SeedPath(flagValue string) string {
	if flagValue != "" {
		return a.Paths.ResolveSeedPath(flagValue)
	}
	return a.Paths.ResolveSeedPath(a.Config.Seed.Path)
}

// LoadSeed loads the dataset selected by SeedPath.
func (a *App) LoadSeed(flagValue string) (*seed.Dataset, error) {
	return seed.LoadOrDefault(a.SeedPath(flagValue))
}

// DebounceDelay is the configured search debounce.
func (a *App) DebounceDelay() time.Duration {
	return time.Duration(a.Config.Search.DebounceMillis) * time.Millisecond
}

// SessionTTL is how long idle browser sessions are kept.
func (a *App) SessionTTL() time.Duration {
	return time.Duration(a.Config.Session.TTLMinutes) * time.Minute
}

// Fatal prints an error and exits.
func Fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
