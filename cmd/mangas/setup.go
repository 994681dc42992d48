package cmd

import (
	"errors"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/kerbaras/mangaread/pkg/cache"
	"github.com/kerbaras/mangaread/pkg/config"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/logging"
	"github.com/kerbaras/mangaread/pkg/reader"
	"github.com/kerbaras/mangaread/pkg/services"
	"github.com/kerbaras/mangaread/pkg/sources"
	"github.com/spf13/cobra"
)

// runtime holds everything a command needs, built from the loaded config.
type runtime struct {
	cfg        config.Config
	log        *slog.Logger
	logCloser  io.Closer
	cache      *cache.InMemory
	source     sources.Source
	repo       *data.Repository
	controller *services.MangaController
	reading    *services.ReadingBackend
}

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	overrides := map[string]*string{
		"source":    &cfg.Source,
		"language":  &cfg.Language,
		"log-level": &cfg.LogLevel,
	}
	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
	return cfg, cfg.Validate()
}

func setup(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}

	log, logCloser, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log, logCloser: logCloser}

	rt.cache = cache.NewInMemory(
		cache.WithCapacity(cfg.CacheCapacity),
		cache.WithSweepInterval(cfg.CacheSweepInterval),
	)

	rt.source, err = sources.New(cfg.Source, sources.Options{
		Quality:           cfg.ImageQuality,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Timeout:           cfg.HTTPTimeout,
		Cache:             rt.cache,
		Logger:            log,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.repo, err = data.NewDuckDBRepository(cfg.DatabasePath)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.controller, err = services.NewMangaController(services.ControllerConfig{
		Source:      rt.source,
		Repo:        rt.repo,
		DownloadDir: cfg.DownloadDir,
		Language:    cfg.Language,
		Logger:      log,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.reading = services.NewReadingBackend(rt.source, rt.repo, log)
	log.Debug("runtime ready",
		slog.String("source", cfg.Source),
		slog.String("language", cfg.Language),
		slog.String("database", cfg.DatabasePath))
	return rt, nil
}

func (rt *runtime) readerConfig() reader.Config {
	return reader.Config{
		Radius:               rt.cfg.PrefetchRadius,
		MaxConcurrentFetches: rt.cfg.MaxConcurrentFetches,
	}
}

func (rt *runtime) Close() error {
	var errs []error
	if rt.controller != nil {
		errs = append(errs, rt.controller.Close())
	}
	if rt.repo != nil {
		errs = append(errs, rt.repo.Close())
	}
	if rt.cache != nil {
		errs = append(errs, rt.cache.Close())
	}
	if rt.logCloser != nil {
		errs = append(errs, rt.logCloser.Close())
	}
	return errors.Join(errs...)
}

func truncateString(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}
