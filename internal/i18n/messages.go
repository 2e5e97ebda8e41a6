// Package i18n renders user-facing messages in the configured locale.
package i18n

import (
	"embed"
	"errors"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"horse.fit/translator/internal/translation"
)

//go:embed active.*.toml
var localeFS embed.FS

var localeFiles = []string{"active.en.toml", "active.it.toml"}

const (
	MsgTranslatorSwitched    = "translator.switched"
	MsgTranslatorUnavailable = "translator.unavailable"
	MsgInputClipped          = "input.clipped"
)

// Translator is a thin wrapper around go-i18n's Bundle/Localizer.
type Translator struct {
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
	logger          zerolog.Logger
}

// NewTranslator loads the embedded catalogs. Unknown locales fall back to English.
func NewTranslator(defaultLocale string, logger zerolog.Logger) *Translator {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		tag = language.English
	}
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, file := range localeFiles {
		if _, err := bundle.LoadMessageFileFS(localeFS, file); err != nil {
			logger.Warn().Err(err).Str("file", file).Msg("load message catalog")
		}
	}

	return &Translator{
		bundle:          bundle,
		defaultLanguage: tag,
		logger:          logger,
	}
}

// Locale returns the default locale tag.
func (t *Translator) Locale() string {
	return t.defaultLanguage.String()
}

// T renders the message identified by key. locale may be a tag or an
// Accept-Language header value; the default locale is tried next, then the
// key itself is returned.
func (t *Translator) T(locale, key string, data map[string]any) string {
	if key == "" {
		return ""
	}
	msg, err := t.localize(locale, key, data)
	if err != nil {
		t.logger.Debug().Err(err).Str("key", key).Str("locale", locale).Msg("localize message")
		return key
	}
	return msg
}

// Error renders a translation failure for humans. Errors without a kind and
// kinds without a catalog entry use the error text.
func (t *Translator) Error(locale string, err error) string {
	if err == nil {
		return ""
	}
	var typed *translation.Error
	if !errors.As(err, &typed) {
		return err.Error()
	}

	data := map[string]any{"Provider": typed.Provider}
	for key, value := range typed.Params {
		data[key] = value
	}
	msg, localizeErr := t.localize(locale, "error."+translation.KindName(err), data)
	if localizeErr != nil {
		return err.Error()
	}
	return msg
}

func (t *Translator) localize(locale, key string, data map[string]any) (string, error) {
	languages := []string{}
	if locale != "" {
		languages = append(languages, locale)
	}
	languages = append(languages, t.defaultLanguage.String())

	localizer := i18n.NewLocalizer(t.bundle, languages...)
	return localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
}
