package translation

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/translator/internal/settings"
)

const (
	YandexName           = "Yandex"
	DefaultYandexURL     = "https://translate.yandex.net/api/v1.5/tr.json/translate"
	yandexCharacterLimit = 10000
)

// YandexProvider needs a non-empty API key.
type YandexProvider struct {
	*remoteProvider
	endpoint string
}

type yandexResponse struct {
	Code int      `json:"code"`
	Lang string   `json:"lang"`
	Text []string `json:"text"`
}

type yandexErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewYandexProvider(endpoint string, store settings.Store, logger zerolog.Logger, opts HTTPOptions) *YandexProvider {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultYandexURL
	}
	p := &YandexProvider{
		remoteProvider: newRemoteProvider(YandexName, yandexCharacterLimit, false, languagesFromCodes(yandexCodes), store, logger, opts),
		endpoint:       strings.TrimSpace(endpoint),
	}
	p.bindCredential(store, settings.KeyYandexAPIKey, func(key string) bool { return key != "" })
	return p
}

func (p *YandexProvider) IsAvailable() bool {
	return p.credential() != ""
}

func (p *YandexProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	key := p.credential()
	if key == "" {
		return nil, p.notConfigured()
	}

	prepared, err := p.prepare(req)
	if err != nil {
		return nil, err
	}

	direction := prepared.source + "-" + prepared.target
	if prepared.auto {
		direction = prepared.target
	}

	started := time.Now()
	resp, err := p.session().R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"key":    key,
			"text":   prepared.text,
			"lang":   direction,
			"format": "plain",
		}).
		Post(p.endpoint)
	if err != nil {
		return nil, p.sendError(err)
	}
	if !isSuccess(resp) {
		var errPayload yandexErrorResponse
		_ = json.Unmarshal(resp.Body(), &errPayload)
		return nil, p.statusError(resp, errPayload.Message)
	}

	var parsed yandexResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, wrapError(ErrMalformedResponse, p.name, err, "decode translation response")
	}
	if len(parsed.Text) == 0 {
		return nil, newError(ErrMalformedResponse, p.name, nil, "translation response missing text")
	}

	translated := strings.TrimSpace(strings.Join(parsed.Text, " "))
	if translated == "" {
		return nil, newError(ErrMalformedResponse, p.name, nil, "translation response contained empty translation")
	}

	result := p.response(prepared, translated, started, req)
	if prepared.auto {
		if detected, _, ok := strings.Cut(parsed.Lang, "-"); ok && detected != "" {
			result.SourceLang = detected
		}
	}
	return result, nil
}
