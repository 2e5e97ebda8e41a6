package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/translator/internal/cli"
	"horse.fit/translator/internal/config"
	"horse.fit/translator/internal/db"
	"horse.fit/translator/internal/i18n"
	"horse.fit/translator/internal/logging"
	"horse.fit/translator/internal/settings"
	"horse.fit/translator/internal/stats"
	"horse.fit/translator/internal/translation"
)

// runtime holds everything a command needs once configuration is loaded.
type runtime struct {
	cfg      *config.Config
	logger   zerolog.Logger
	store    *settings.FileStore
	registry *translation.Registry
	manager  *translation.Manager
	messages *i18n.Translator
	pool     *db.Pool
}

type runtimeOptions struct {
	// skipLocal avoids spawning the local engine for commands that never
	// translate with it.
	skipLocal bool
}

func loadConfig(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

func openRuntime(ctx context.Context, envLoader *cli.EnvLoader, opts runtimeOptions) (*runtime, error) {
	cfg, logger, err := loadConfig(envLoader)
	if err != nil {
		return nil, err
	}

	store, err := openSettings(cfg, logger)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		messages: i18n.NewTranslator(cfg.Locale, logger),
	}

	registry, err := translation.NewDefaultRegistry(ctx, store, logger, translation.Options{
		HTTP: translation.HTTPOptions{
			Timeout: cfg.HTTPTimeout,
			Proxy:   cfg.HTTPProxy,
		},
		GoogleURL:    cfg.GoogleURL,
		DeeplFreeURL: cfg.DeeplFreeURL,
		DeeplProURL:  cfg.DeeplProURL,
		YandexURL:    cfg.YandexURL,
		Local:        translation.LocalOptions{Binary: cfg.LocalBinary},
		SkipLocal:    opts.skipLocal,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register providers: %w", err)
	}
	rt.registry = registry
	registry.OnChange(rt.logProviderChange)
	if err := registry.Enable(); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to enable providers: %w", err)
	}

	var usage stats.Store = stats.NewSettingsStore(store)
	if cfg.UsesDatabase() {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		rt.pool = pool
		usage = db.NewUsageRepo(pool)
	}

	rt.manager = translation.NewManager(registry, usage, logger)
	return rt, nil
}

func openSettings(cfg *config.Config, logger zerolog.Logger) (*settings.FileStore, error) {
	path := strings.TrimSpace(cfg.SettingsPath)
	if path == "" {
		defaultPath, err := settings.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve settings path: %w", err)
		}
		path = defaultPath
	}

	store, err := settings.OpenFileStore(path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	return store, nil
}

func (rt *runtime) logProviderChange(event translation.ChangeEvent) {
	data := map[string]any{
		"Previous": event.Previous,
		"Current":  event.Current,
	}

	switch event.Reason {
	case translation.ReasonUnavailable:
		rt.logger.Warn().
			Str("previous", event.Previous).
			Str("current", event.Current).
			Msg(rt.messages.T("", i18n.MsgTranslatorUnavailable, data))
	case translation.ReasonStartup:
		rt.logger.Debug().
			Str("current", event.Current).
			Msg(rt.messages.T("", i18n.MsgTranslatorSwitched, data))
	default:
		rt.logger.Info().
			Str("reason", string(event.Reason)).
			Str("previous", event.Previous).
			Str("current", event.Current).
			Msg(rt.messages.T("", i18n.MsgTranslatorSwitched, data))
	}
}

func (rt *runtime) Close() {
	if rt == nil {
		return
	}

	var errs []error
	if rt.registry != nil {
		errs = append(errs, rt.registry.Close())
	}
	if rt.pool != nil {
		errs = append(errs, rt.pool.Close())
	}
	if err := errors.Join(errs...); err != nil {
		rt.logger.Warn().Err(err).Msg("shutdown finished with errors")
	}
}

// provider resolves --provider, defaulting to the current provider.
func (rt *runtime) provider(name string) (translation.Provider, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return rt.registry.Current(), nil
	}
	provider := rt.registry.ByName(trimmed)
	if provider == nil {
		return nil, fmt.Errorf("unknown provider %q (known: %s)", trimmed, strings.Join(rt.registry.Names(), ", "))
	}
	return provider, nil
}
