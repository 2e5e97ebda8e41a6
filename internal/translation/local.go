package translation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"horse.fit/translator/internal/langdetect"
	"horse.fit/translator/internal/language"
	"horse.fit/translator/internal/prefs"
	"horse.fit/translator/internal/settings"
)

const (
	LocallyName         = "Locally"
	localCharacterLimit = 5000
)

// LocalOptions configures the local engine provider.
type LocalOptions struct {
	// Binary is looked up on PATH when Runner is nil.
	Binary string
	Runner Runner
	// Detect resolves "auto" among candidate codes; "" means undetected.
	Detect func(text string, candidates []string) string
}

// LocalProvider translates with locally installed language-pair models,
// bridging through English when no direct model exists.
type LocalProvider struct {
	runner    Runner
	catalog   *Catalog
	languages []Language
	detect    func(string, []string) string
	prefs     *prefs.Preferences
	logger    zerolog.Logger

	closeOnce sync.Once
}

// NewLocalProvider fails when the engine binary cannot be resolved or its
// model listing cannot be read; such a provider is never registered.
func NewLocalProvider(ctx context.Context, store settings.Store, logger zerolog.Logger, opts LocalOptions) (*LocalProvider, error) {
	providerLogger := logger.With().Str("provider", LocallyName).Logger()

	runner := opts.Runner
	if runner == nil {
		execRunner, err := NewExecRunner(opts.Binary, providerLogger)
		if err != nil {
			return nil, err
		}
		runner = execRunner
	}

	listing, err := runner.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("load local models: %w", err)
	}
	catalog := ParseCatalog(listing)
	providerLogger.Info().Int("models", catalog.Len()).Strs("languages", catalog.Codes()).Msg("local models loaded")

	detect := opts.Detect
	if detect == nil {
		detect = langdetect.DetectAmong
	}

	languages := make([]Language, 0, len(catalog.Codes()))
	for _, code := range catalog.Codes() {
		name := catalog.label(code)
		if name == "" {
			name = LanguageName(code)
		}
		languages = append(languages, Language{Code: code, Name: name})
	}

	return &LocalProvider{
		runner:    runner,
		catalog:   catalog,
		languages: languages,
		detect:    detect,
		prefs:     prefs.New(LocallyName, store, logger),
		logger:    providerLogger,
	}, nil
}

func (p *LocalProvider) Name() string {
	return LocallyName
}

func (p *LocalProvider) EngineID() string {
	return strings.ToLower(LocallyName)
}

func (p *LocalProvider) CharacterLimit() int {
	return localCharacterLimit
}

func (p *LocalProvider) Languages() []Language {
	return cloneLanguages(p.languages)
}

// LanguagePairs returns only targets reachable from source with installed models.
func (p *LocalProvider) LanguagePairs(source string) []Language {
	code := language.NormalizeTag(source)

	var targets []string
	if code == language.Auto {
		seen := map[string]struct{}{}
		for _, src := range p.catalog.Sources() {
			for _, target := range p.catalog.Targets(src) {
				if _, ok := seen[target]; !ok {
					seen[target] = struct{}{}
					targets = append(targets, target)
				}
			}
		}
	} else {
		targets = p.catalog.Targets(code)
	}

	names := make(map[string]string, len(p.languages))
	for _, lang := range p.languages {
		names[lang.Code] = lang.Name
	}
	pairs := make([]Language, 0, len(targets))
	for _, target := range targets {
		pairs = append(pairs, Language{Code: target, Name: names[target]})
	}
	return pairs
}

// IsAvailable reports whether at least one model is installed.
func (p *LocalProvider) IsAvailable() bool {
	return p.catalog.Len() > 0
}

func (p *LocalProvider) Preferences() *prefs.Preferences {
	return p.prefs
}

// Catalog exposes the parsed model listing.
func (p *LocalProvider) Catalog() *Catalog {
	return p.catalog
}

func (p *LocalProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if !p.IsAvailable() {
		return nil, newError(ErrNotConfigured, LocallyName, nil, "no local models are installed")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, newError(ErrEmptyInput, LocallyName, nil, "text is required")
	}
	if utf8.RuneCountInString(text) > localCharacterLimit {
		return nil, newError(ErrInputTooLong, LocallyName, map[string]any{"Limit": localCharacterLimit},
			"text exceeds the %d character limit", localCharacterLimit)
	}

	source := language.NormalizeTag(req.SourceLang)
	target := language.NormalizeTag(req.TargetLang)
	if target == "" || target == language.Auto {
		return nil, unsupportedLanguage(LocallyName, "target", req.TargetLang)
	}
	if source == "" || source == language.Auto {
		source = p.detect(text, p.catalog.Sources())
		if source == "" {
			return nil, newError(ErrUnsupportedLanguage, LocallyName, map[string]any{"Role": "source", "Code": language.Auto},
				"could not detect the source language")
		}
		p.logger.Debug().Str("source", source).Msg("detected source language")
	}

	route, ok := p.catalog.Route(source, target)
	if !ok {
		return nil, newError(ErrNoRoute, LocallyName, map[string]any{"Source": source, "Target": target},
			"no model available to translate from %s to %s", source, target)
	}

	started := time.Now()
	output := text
	modelIDs := make([]string, 0, len(route))
	for _, model := range route {
		result, err := p.runner.Run(ctx, model.ID, output)
		if err != nil {
			return nil, wrapError(ErrTransport, LocallyName, err, "model %s failed", model.ID)
		}
		if strings.TrimSpace(result) == "" {
			return nil, newError(ErrMalformedResponse, LocallyName, nil, "model %s produced no output", model.ID)
		}
		output = result
		modelIDs = append(modelIDs, model.ID)
	}

	p.logger.Debug().
		Str("source", source).
		Str("target", target).
		Strs("models", modelIDs).
		Str("request_id", req.RequestID).
		Msg("local translation finished")

	return &TranslateResponse{
		Text:         output,
		SourceLang:   source,
		TargetLang:   target,
		ProviderName: LocallyName,
		Models:       modelIDs,
		RequestID:    req.RequestID,
		LatencyMs:    time.Since(started).Milliseconds(),
	}, nil
}

func (p *LocalProvider) Close() error {
	p.closeOnce.Do(func() {
		p.prefs.Close()
	})
	return nil
}
