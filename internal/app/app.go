package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/specialistvlad/doop/internal/config"
	"github.com/specialistvlad/doop/internal/ctxlog"
	"github.com/specialistvlad/doop/internal/loader"
	"github.com/specialistvlad/doop/internal/manifest"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger  *slog.Logger
	model   *config.Model
	index   manifest.Settings
	cache   *loader.Cache
	logFile io.Closer

	closeOnce sync.Once
}

// NewApp loads the project configuration, applies the overrides from
// appConfig and returns a ready App. Logs go to logW and, when configured,
// to the log file.
func NewApp(logW io.Writer, appConfig *Config, cfgLoader config.Loader) (*App, error) {
	writers := []io.Writer{logW}
	var logFile *os.File
	if appConfig.LogFile != "" {
		f, err := os.OpenFile(appConfig.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		writers = append(writers, f)
	}

	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, writers...)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := cfgLoader.Load(ctx, appConfig.ConfigPaths...)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	applyOverrides(model, appConfig)
	logger.Debug("Configuration loaded.", "orphans", model.Orphans, "aliases", len(model.Aliases))

	index, err := model.IndexSettings()
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, err
	}

	a := &App{
		logger: logger,
		model:  model,
		index:  index,
		cache: loader.New(loader.Options{
			Parser: model.ParserOptions(),
			Index: loader.IndexOptions{
				GlobalEmitter: model.Index.GlobalEmitter,
				Template:      model.Index.Template,
			},
		}),
	}
	if logFile != nil {
		a.logFile = logFile
	}
	return a, nil
}

func applyOverrides(model *config.Model, appConfig *Config) {
	if appConfig.Orphans != nil {
		model.Orphans = *appConfig.Orphans
	}
	if appConfig.URL != nil {
		model.Index.URL = *appConfig.URL
	}
	if appConfig.GlobalEmitter != "" {
		model.Index.GlobalEmitter = appConfig.GlobalEmitter
	}
}

// Logger returns the application's logger.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Model returns the effective project configuration.
func (a *App) Model() *config.Model {
	return a.model
}

// Context returns ctx carrying the application's logger.
func (a *App) Context(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}

// Close releases the log file, if any.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		if a.logFile != nil {
			err = a.logFile.Close()
		}
	})
	return err
}
