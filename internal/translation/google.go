package translation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"horse.fit/translator/internal/settings"
)

const (
	GoogleName             = "Google"
	DefaultGoogleURL       = "https://translate.googleapis.com/translate_a/single"
	googleCharacterLimit   = 5000
	googleBrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// GoogleProvider uses the keyless translate_a endpoint. It is always available.
type GoogleProvider struct {
	*remoteProvider
	endpoint string
}

func NewGoogleProvider(endpoint string, store settings.Store, logger zerolog.Logger, opts HTTPOptions) *GoogleProvider {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultGoogleURL
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = googleBrowserUserAgent
	}
	return &GoogleProvider{
		remoteProvider: newRemoteProvider(GoogleName, googleCharacterLimit, false, cloneLanguages(googleLanguages), store, logger, opts),
		endpoint:       strings.TrimSpace(endpoint),
	}
}

func (p *GoogleProvider) IsAvailable() bool {
	return true
}

func (p *GoogleProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	prepared, err := p.prepare(req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	resp, err := p.session().R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     prepared.source,
			"tl":     prepared.target,
			"dt":     "t",
			"q":      prepared.text,
		}).
		Get(p.endpoint)
	if err != nil {
		return nil, p.sendError(err)
	}
	if !isSuccess(resp) {
		return nil, p.statusError(resp, "")
	}

	translated, err := parseGoogleResponse(resp.Body())
	if err != nil {
		return nil, wrapError(ErrMalformedResponse, p.name, err, "decode translation response")
	}

	result := p.response(prepared, translated, started, req)
	if prepared.auto {
		if detected := gjson.GetBytes(resp.Body(), "2"); detected.Type == gjson.String && detected.Str != "" {
			result.SourceLang = detected.Str
		}
	}
	return result, nil
}

// parseGoogleResponse concatenates the translated segments found at [0][i][0].
func parseGoogleResponse(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("response is not valid JSON")
	}

	segments := gjson.GetBytes(body, "0")
	if !segments.IsArray() || len(segments.Array()) == 0 {
		return "", fmt.Errorf("response has no translated segments")
	}

	var builder strings.Builder
	for _, segment := range segments.Array() {
		if part := segment.Get("0"); part.Type == gjson.String {
			builder.WriteString(part.Str)
		}
	}

	translated := strings.TrimSpace(builder.String())
	if translated == "" {
		return "", fmt.Errorf("response contained empty translation")
	}
	return translated, nil
}
