package translation

import (
	"context"

	"github.com/rs/zerolog"

	"horse.fit/translator/internal/settings"
)

// Options configures the built-in providers.
type Options struct {
	HTTP         HTTPOptions
	GoogleURL    string
	DeeplFreeURL string
	DeeplProURL  string
	YandexURL    string
	Local        LocalOptions
	// SkipLocal leaves the local engine out, e.g. on hosts without it.
	SkipLocal bool
}

// NewDefaultRegistry registers Google, DeepL, Yandex and, when its binary
// and models can be found, the local engine. The registry is not enabled.
func NewDefaultRegistry(ctx context.Context, store settings.Store, logger zerolog.Logger, opts Options) (*Registry, error) {
	registry := NewRegistry(store, logger)

	remote := []Provider{
		NewGoogleProvider(opts.GoogleURL, store, logger, opts.HTTP),
		NewDeeplProvider(opts.DeeplFreeURL, opts.DeeplProURL, store, logger, opts.HTTP),
		NewYandexProvider(opts.YandexURL, store, logger, opts.HTTP),
	}
	for _, provider := range remote {
		if err := registry.Register(provider); err != nil {
			_ = registry.Close()
			return nil, err
		}
	}

	if opts.SkipLocal {
		return registry, nil
	}
	local, err := NewLocalProvider(ctx, store, logger, opts.Local)
	if err != nil {
		logger.Warn().Err(err).Str("provider", LocallyName).Msg("local translation engine not loaded")
		return registry, nil
	}
	if err := registry.Register(local); err != nil {
		_ = local.Close()
		_ = registry.Close()
		return nil, err
	}
	return registry, nil
}
