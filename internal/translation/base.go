package translation

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"horse.fit/translator/internal/language"
	"horse.fit/translator/internal/prefs"
	"horse.fit/translator/internal/settings"
)

const (
	DefaultHTTPTimeout = 60 * time.Second
	defaultUserAgent   = "translator/1.0 (+https://horse.fit/translator)"
)

// HTTPOptions configures the session a remote provider reuses across requests.
type HTTPOptions struct {
	Timeout   time.Duration
	Proxy     string
	UserAgent string
}

// remoteProvider holds what the HTTP-backed providers share: identity,
// language validation, one lazily created session and credential tracking.
type remoteProvider struct {
	name      string
	limit     int
	upper     bool
	languages []Language
	index     map[string]string
	prefs     *prefs.Preferences
	logger    zerolog.Logger
	opts      HTTPOptions

	mu      sync.Mutex
	client  *resty.Client
	apiKey  string
	cancels []func()

	closeOnce sync.Once
}

type preparedRequest struct {
	text   string
	source string
	target string
	auto   bool
}

func newRemoteProvider(name string, limit int, upper bool, langs []Language, store settings.Store, logger zerolog.Logger, opts HTTPOptions) *remoteProvider {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultHTTPTimeout
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = defaultUserAgent
	}
	providerLogger := logger.With().Str("provider", name).Logger()
	return &remoteProvider{
		name:      name,
		limit:     limit,
		upper:     upper,
		languages: langs,
		index:     languageIndex(langs),
		prefs:     prefs.New(name, store, logger),
		logger:    providerLogger,
		opts:      opts,
	}
}

func (b *remoteProvider) Name() string {
	return b.name
}

func (b *remoteProvider) EngineID() string {
	return strings.ToLower(b.name)
}

func (b *remoteProvider) CharacterLimit() int {
	return b.limit
}

func (b *remoteProvider) Languages() []Language {
	return cloneLanguages(b.languages)
}

func (b *remoteProvider) Preferences() *prefs.Preferences {
	return b.prefs
}

// LanguagePairs returns the full list: remote backends translate any pair.
func (b *remoteProvider) LanguagePairs(string) []Language {
	return b.Languages()
}

func (b *remoteProvider) Close() error {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		cancels := b.cancels
		b.cancels = nil
		if b.client != nil {
			b.client.GetClient().CloseIdleConnections()
			b.client = nil
		}
		b.mu.Unlock()

		for _, cancel := range cancels {
			cancel()
		}
		b.prefs.Close()
	})
	return nil
}

// session returns the provider's HTTP client, creating it on first use.
// Without an explicit proxy resty honours the *_PROXY environment variables.
func (b *remoteProvider) session() *resty.Client {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.client == nil {
		client := resty.New().
			SetTimeout(b.opts.Timeout).
			SetHeader("User-Agent", b.opts.UserAgent).
			SetHeader("Accept", "application/json, */*")
		if proxy := strings.TrimSpace(b.opts.Proxy); proxy != "" {
			client.SetProxy(proxy)
		}
		b.client = client
	}
	return b.client
}

// bindCredential loads the API key stored under key and re-validates it on
// every change. An invalid key is kept as "".
func (b *remoteProvider) bindCredential(store settings.Store, key string, valid func(string) bool) {
	load := func(string) {
		raw := strings.TrimSpace(store.GetString(key))
		ok := valid(raw)

		b.mu.Lock()
		if ok {
			b.apiKey = raw
		} else {
			b.apiKey = ""
		}
		b.mu.Unlock()

		switch {
		case ok:
			b.logger.Debug().Str("key", key).Msg("credential loaded")
		case raw == "":
			b.logger.Debug().Str("key", key).Msg("credential not configured")
		default:
			b.logger.Warn().Str("key", key).Msg("credential is invalid")
		}
	}

	load(key)
	cancel := store.Subscribe(key, load)

	b.mu.Lock()
	b.cancels = append(b.cancels, cancel)
	b.mu.Unlock()
}

func (b *remoteProvider) credential() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.apiKey
}

func (b *remoteProvider) normalize(code string) string {
	if b.upper {
		return language.Upper(code)
	}
	return language.NormalizeTag(code)
}

func (b *remoteProvider) autoCode() string {
	if b.upper {
		return strings.ToUpper(language.Auto)
	}
	return language.Auto
}

// prepare validates text and languages before any network call.
func (b *remoteProvider) prepare(req TranslateRequest) (preparedRequest, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return preparedRequest{}, newError(ErrEmptyInput, b.name, nil, "text is required")
	}
	if b.limit > 0 && utf8.RuneCountInString(text) > b.limit {
		return preparedRequest{}, newError(ErrInputTooLong, b.name, map[string]any{"Limit": b.limit},
			"text exceeds the %d character limit", b.limit)
	}

	prepared := preparedRequest{text: text}

	if strings.TrimSpace(req.SourceLang) == "" || language.IsAuto(req.SourceLang) {
		prepared.source = b.autoCode()
		prepared.auto = true
	} else {
		source, ok := b.index[strings.ToLower(b.normalize(req.SourceLang))]
		if !ok {
			return preparedRequest{}, unsupportedLanguage(b.name, "source", req.SourceLang)
		}
		prepared.source = source
	}

	target, ok := b.index[strings.ToLower(b.normalize(req.TargetLang))]
	if !ok || language.IsAuto(req.TargetLang) {
		return preparedRequest{}, unsupportedLanguage(b.name, "target", req.TargetLang)
	}
	prepared.target = target
	return prepared, nil
}

func (b *remoteProvider) notConfigured() error {
	return newError(ErrNotConfigured, b.name, nil, "API key is missing or invalid")
}

func (b *remoteProvider) sendError(err error) error {
	return wrapError(ErrTransport, b.name, err, "send request")
}

// statusError reports a non-2xx reply, preferring the backend's own message.
func (b *remoteProvider) statusError(resp *resty.Response, message string) error {
	status := resp.StatusCode()
	params := map[string]any{"Status": status}
	if msg := strings.TrimSpace(message); msg != "" {
		return newError(ErrTransport, b.name, params, "HTTP status %d: %s", status, msg)
	}
	return newError(ErrTransport, b.name, params, "HTTP status %d", status)
}

func (b *remoteProvider) response(prepared preparedRequest, text string, started time.Time, req TranslateRequest) *TranslateResponse {
	return &TranslateResponse{
		Text:         text,
		SourceLang:   prepared.source,
		TargetLang:   prepared.target,
		ProviderName: b.name,
		RequestID:    req.RequestID,
		LatencyMs:    time.Since(started).Milliseconds(),
	}
}

func unsupportedLanguage(provider, role, code string) error {
	return newError(ErrUnsupportedLanguage, provider, map[string]any{"Role": role, "Code": code},
		"%s language %q is not supported", role, code)
}

func isSuccess(resp *resty.Response) bool {
	status := resp.StatusCode()
	return status >= 200 && status < 300
}
