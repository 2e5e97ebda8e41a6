package translation

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/translator/internal/settings"
)

const (
	DeeplName           = "Deepl"
	DefaultDeeplFreeURL = "https://api-free.deepl.com/v2/translate"
	DefaultDeeplProURL  = "https://api.deepl.com/v2/translate"
	deeplFreeKeySuffix  = ":fx"
	deeplCharacterLimit = 5000
)

var deeplKeyPattern = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}(:fx)?$`)

// ValidDeeplKey reports whether key has the shape of a pro or free DeepL key.
func ValidDeeplKey(key string) bool {
	return deeplKeyPattern.MatchString(key)
}

// DeeplProvider routes free-tier keys (":fx" suffix) to the free endpoint.
type DeeplProvider struct {
	*remoteProvider
	freeURL string
	proURL  string
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

type deeplErrorResponse struct {
	Message string `json:"message"`
}

func NewDeeplProvider(freeURL, proURL string, store settings.Store, logger zerolog.Logger, opts HTTPOptions) *DeeplProvider {
	if strings.TrimSpace(freeURL) == "" {
		freeURL = DefaultDeeplFreeURL
	}
	if strings.TrimSpace(proURL) == "" {
		proURL = DefaultDeeplProURL
	}
	p := &DeeplProvider{
		remoteProvider: newRemoteProvider(DeeplName, deeplCharacterLimit, true, languagesFromCodes(deeplCodes), store, logger, opts),
		freeURL:        strings.TrimSpace(freeURL),
		proURL:         strings.TrimSpace(proURL),
	}
	p.bindCredential(store, settings.KeyDeeplAPIKey, ValidDeeplKey)
	return p
}

func (p *DeeplProvider) IsAvailable() bool {
	return p.credential() != ""
}

func (p *DeeplProvider) endpoint(key string) string {
	if strings.HasSuffix(key, deeplFreeKeySuffix) {
		return p.freeURL
	}
	return p.proURL
}

func (p *DeeplProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	key := p.credential()
	if key == "" {
		return nil, p.notConfigured()
	}

	prepared, err := p.prepare(req)
	if err != nil {
		return nil, err
	}

	form := map[string]string{
		"text":        prepared.text,
		"target_lang": prepared.target,
	}
	if !prepared.auto {
		form["source_lang"] = prepared.source
	}

	started := time.Now()
	resp, err := p.session().R().
		SetContext(ctx).
		SetHeader("Authorization", "DeepL-Auth-Key "+key).
		SetFormData(form).
		Post(p.endpoint(key))
	if err != nil {
		return nil, p.sendError(err)
	}
	if !isSuccess(resp) {
		var errPayload deeplErrorResponse
		_ = json.Unmarshal(resp.Body(), &errPayload)
		return nil, p.statusError(resp, errPayload.Message)
	}

	var parsed deeplResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, wrapError(ErrMalformedResponse, p.name, err, "decode translation response")
	}
	if len(parsed.Translations) == 0 {
		return nil, newError(ErrMalformedResponse, p.name, nil, "translation response missing translations")
	}
	if strings.TrimSpace(parsed.Translations[0].Text) == "" {
		return nil, newError(ErrMalformedResponse, p.name, nil, "translation response contained empty translation")
	}

	result := p.response(prepared, parsed.Translations[0].Text, started, req)
	if prepared.auto && parsed.Translations[0].DetectedSourceLanguage != "" {
		result.SourceLang = parsed.Translations[0].DetectedSourceLanguage
	}
	return result, nil
}
