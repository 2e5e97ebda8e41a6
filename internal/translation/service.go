package translation

import (
	"context"

	"horse.fit/translator/internal/prefs"
)

// Provider is one translation backend behind a uniform contract.
type Provider interface {
	// Name is the stable, unique display name ("Google", "Locally").
	Name() string
	// EngineID is the lowercase backend identifier.
	EngineID() string
	// CharacterLimit caps the input length in runes.
	CharacterLimit() int
	// Languages returns every supported language in a stable order.
	Languages() []Language
	// LanguagePairs returns the targets reachable from source.
	LanguagePairs(source string) []Language
	// IsAvailable is cheap and reflects the current configuration.
	IsAvailable() bool
	Preferences() *prefs.Preferences
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error)
	// Close releases sessions and subscriptions. Idempotent.
	Close() error
}

// Language is one selectable language of a provider.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// TranslateRequest describes one translation request.
type TranslateRequest struct {
	Text       string
	SourceLang string // "auto" lets the backend detect it
	TargetLang string
	RequestID  string
}

// TranslateResponse contains translated text and provider metadata.
type TranslateResponse struct {
	Text         string   `json:"text"`
	SourceLang   string   `json:"source_lang"`
	TargetLang   string   `json:"target_lang"`
	ProviderName string   `json:"provider"`
	Models       []string `json:"models,omitempty"`
	RequestID    string   `json:"request_id,omitempty"`
	LatencyMs    int64    `json:"latency_ms"`
}
