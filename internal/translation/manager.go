package translation

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/translator/internal/language"
	"horse.fit/translator/internal/stats"
)

// Manager runs translations through the registry and keeps the per-provider
// bookkeeping around them: effective languages, last pair and usage counts.
type Manager struct {
	registry *Registry
	usage    stats.Store
	logger   zerolog.Logger
}

// NewManager accepts a nil usage store, in which case nothing is counted.
func NewManager(registry *Registry, usage stats.Store, logger zerolog.Logger) *Manager {
	return &Manager{
		registry: registry,
		usage:    usage,
		logger:   logger,
	}
}

func (m *Manager) Registry() *Registry {
	return m.registry
}

// Translate uses the current provider.
func (m *Manager) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	return m.TranslateWith(ctx, "", req)
}

// TranslateWith uses the named provider, or the current one when name is
// blank. A named provider must be registered and available.
func (m *Manager) TranslateWith(ctx context.Context, name string, req TranslateRequest) (*TranslateResponse, error) {
	provider, err := m.resolve(name)
	if err != nil {
		return nil, err
	}

	req = m.fill(provider, req)
	logger := m.logger.With().
		Str("provider", provider.Name()).
		Str("request_id", req.RequestID).
		Logger()

	result := run(ctx, provider, req)
	if result.Err != nil {
		logger.Debug().
			Str("kind", KindName(result.Err)).
			Err(result.Err).
			Msg("translation failed")
		return nil, result.Err
	}
	resp := result.Response
	if resp.RequestID == "" {
		resp.RequestID = req.RequestID
	}

	m.remember(ctx, provider, req, resp, logger)
	logger.Debug().
		Str("source_lang", resp.SourceLang).
		Str("target_lang", resp.TargetLang).
		Int64("latency_ms", resp.LatencyMs).
		Msg("translation completed")
	return resp, nil
}

// Go is TranslateWith on its own goroutine; the channel yields one Result.
func (m *Manager) Go(ctx context.Context, name string, req TranslateRequest) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		resp, err := m.TranslateWith(ctx, name, req)
		results <- Result{Response: resp, Err: err}
	}()
	return results
}

// MostUsed lists the most used languages of a provider, current when blank.
// Unavailable providers keep their history.
func (m *Manager) MostUsed(ctx context.Context, name string, kind stats.Kind, limit int) ([]stats.Entry, error) {
	if m.usage == nil {
		return []stats.Entry{}, nil
	}
	provider := m.registry.Current()
	if strings.TrimSpace(name) != "" {
		provider = m.registry.ByName(name)
	}
	if provider == nil {
		return nil, newError(ErrNotConfigured, strings.TrimSpace(name), nil, "translation provider %q is not registered", strings.TrimSpace(name))
	}
	return m.usage.MostUsed(ctx, provider.Name(), kind, limit)
}

func (m *Manager) resolve(name string) (Provider, error) {
	if strings.TrimSpace(name) == "" {
		provider := m.registry.Current()
		if provider == nil {
			return nil, newError(ErrNotConfigured, "", nil, "no translation provider is selected")
		}
		return provider, nil
	}
	provider := m.registry.ByName(name)
	if provider == nil {
		return nil, newError(ErrNotConfigured, strings.TrimSpace(name), nil,
			"translation provider %q is not registered (available: %s)", strings.TrimSpace(name), strings.Join(m.registry.Names(), ", "))
	}
	if !provider.IsAvailable() {
		return nil, newError(ErrNotConfigured, provider.Name(), nil, "translation provider %s is not configured", provider.Name())
	}
	return provider, nil
}

func (m *Manager) fill(provider Provider, req TranslateRequest) TranslateRequest {
	if strings.TrimSpace(req.RequestID) == "" {
		req.RequestID = uuid.NewString()
	}
	if strings.TrimSpace(req.SourceLang) != "" && strings.TrimSpace(req.TargetLang) != "" {
		return req
	}
	source, target := prefsPair(provider)
	if strings.TrimSpace(req.SourceLang) == "" {
		req.SourceLang = source
	}
	if strings.TrimSpace(req.TargetLang) == "" {
		req.TargetLang = target
	}
	return req
}

func (m *Manager) remember(ctx context.Context, provider Provider, req TranslateRequest, resp *TranslateResponse, logger zerolog.Logger) {
	if p := provider.Preferences(); p != nil {
		if err := p.SetLastPair(req.SourceLang, req.TargetLang); err != nil {
			logger.Warn().Err(err).Msg("store last language pair")
		}
	}
	if m.usage == nil {
		return
	}

	source := resp.SourceLang
	if language.IsAuto(source) || strings.TrimSpace(source) == "" {
		source = req.SourceLang
	}
	target := resp.TargetLang
	if strings.TrimSpace(target) == "" {
		target = req.TargetLang
	}
	for _, usage := range []struct {
		kind stats.Kind
		code string
	}{
		{kind: stats.KindSource, code: source},
		{kind: stats.KindTarget, code: target},
	} {
		code := strings.ToLower(strings.TrimSpace(usage.code))
		if err := m.usage.Increment(ctx, provider.Name(), usage.kind, code, LanguageName(code)); err != nil {
			logger.Warn().Err(err).Str("kind", string(usage.kind)).Msg("record language usage")
		}
	}
}

func prefsPair(provider Provider) (string, string) {
	p := provider.Preferences()
	if p == nil {
		return language.Auto, "en"
	}
	return p.EffectivePair()
}
