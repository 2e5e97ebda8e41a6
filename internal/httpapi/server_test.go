package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"horse.fit/translator/internal/i18n"
	"horse.fit/translator/internal/settings"
	"horse.fit/translator/internal/stats"
	"horse.fit/translator/internal/translation"
)

const testListing = `it-en type: base version: 1; To invoke do -m it-en-base
en-de type: base version: 1; To invoke do -m en-de-base
`

type echoRunner struct{}

func (echoRunner) ListModels(context.Context) (string, error) {
	return testListing, nil
}

func (echoRunner) Run(_ context.Context, modelID, text string) (string, error) {
	return modelID + ":" + text, nil
}

type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, tokenHash string) (*echo.Echo, *settings.MemoryStore) {
	t.Helper()

	google := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[[["Ciao","Hello",null,null,1]],null,"en"]`))
	}))
	t.Cleanup(google.Close)

	store := settings.NewMemoryStore()
	logger := zerolog.Nop()
	registry, err := translation.NewDefaultRegistry(context.Background(), store, logger, translation.Options{
		GoogleURL: google.URL,
		Local:     translation.LocalOptions{Runner: echoRunner{}},
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := registry.Enable(); err != nil {
		t.Fatalf("enable registry: %v", err)
	}
	t.Cleanup(func() { _ = registry.Close() })

	manager := translation.NewManager(registry, stats.NewSettingsStore(store), logger)
	server := NewServer(manager, i18n.NewTranslator("en", logger), logger, Options{TokenHash: tokenHash})
	return server.Handler(), store
}

func doRequest(t *testing.T, e *echo.Echo, method, path, body string, headers map[string]string) (int, apiResponse) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, resp
}

func TestTokenGuardsAPIButNotHealth(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash token: %v", err)
	}
	e, _ := newTestServer(t, string(hash))

	if code, _ := doRequest(t, e, http.MethodGet, "/api/v1/health", "", nil); code != http.StatusOK {
		t.Fatalf("expected open health endpoint, got %d", code)
	}
	if code, _ := doRequest(t, e, http.MethodGet, "/api/v1/providers", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	wrong := map[string]string{"Authorization": "Bearer nope"}
	if code, _ := doRequest(t, e, http.MethodGet, "/api/v1/providers", "", wrong); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong token, got %d", code)
	}
	right := map[string]string{"Authorization": "Bearer letmein"}
	for i := 0; i < 2; i++ {
		if code, _ := doRequest(t, e, http.MethodGet, "/api/v1/providers", "", right); code != http.StatusOK {
			t.Fatalf("expected 200 with token, got %d", code)
		}
	}
}

func TestProvidersListing(t *testing.T) {
	t.Parallel()

	e, _ := newTestServer(t, "")
	code, resp := doRequest(t, e, http.MethodGet, "/api/v1/providers", "", nil)
	if code != http.StatusOK || resp.Status != "success" {
		t.Fatalf("unexpected response: %d %+v", code, resp)
	}

	var data providersResponse
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Current != translation.GoogleName || data.Default != translation.GoogleName {
		t.Fatalf("unexpected selection: %+v", data)
	}
	if len(data.Providers) != 4 {
		t.Fatalf("expected four providers, got %+v", data.Providers)
	}
	available := map[string]bool{}
	for _, item := range data.Providers {
		available[item.Name] = item.Available
	}
	if !available[translation.GoogleName] || !available[translation.LocallyName] || available[translation.DeeplName] {
		t.Fatalf("unexpected availability: %+v", available)
	}
}

func TestSetCurrentFallsBackForUnavailableProvider(t *testing.T) {
	t.Parallel()

	e, store := newTestServer(t, "")

	code, resp := doRequest(t, e, http.MethodPut, "/api/v1/providers/current", `{"name":"deepl"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", code, resp)
	}
	var data selectProviderResponse
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Current != translation.GoogleName || !data.Fallback {
		t.Fatalf("expected fallback to Google, got %+v", data)
	}

	code, resp = doRequest(t, e, http.MethodPut, "/api/v1/providers/current", `{"name":"Locally"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", code, resp)
	}
	if got := store.GetString(settings.KeyLastTranslator); got != translation.LocallyName {
		t.Fatalf("expected last translator persisted, got %q", got)
	}

	if code, _ := doRequest(t, e, http.MethodPut, "/api/v1/providers/current", `{"name":""}`, nil); code != http.StatusBadRequest {
		t.Fatalf("expected validation failure, got %d", code)
	}
	if code, _ := doRequest(t, e, http.MethodPut, "/api/v1/providers/current", `{"nam":"x"}`, nil); code != http.StatusBadRequest {
		t.Fatalf("expected unknown field to be rejected, got %d", code)
	}
}

func TestTranslateEndpoint(t *testing.T) {
	t.Parallel()

	e, _ := newTestServer(t, "")

	code, resp := doRequest(t, e, http.MethodPost, "/api/v1/translate", `{"text":"Hello","source_lang":"en","target_lang":"it"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", code, resp)
	}
	var data translation.TranslateResponse
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Text != "Ciao" || data.ProviderName != translation.GoogleName || data.RequestID == "" {
		t.Fatalf("unexpected translation: %+v", data)
	}

	code, resp = doRequest(t, e, http.MethodPost, "/api/v1/translate", `{"text":"Buongiorno","source_lang":"it","target_lang":"de","provider":"locally"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", code, resp)
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Text != "en-de-base:it-en-base:Buongiorno" || len(data.Models) != 2 {
		t.Fatalf("expected bridged local translation, got %+v", data)
	}
}

func TestTranslateEndpointLocalizesErrors(t *testing.T) {
	t.Parallel()

	e, _ := newTestServer(t, "")

	code, resp := doRequest(t, e, http.MethodPost, "/api/v1/translate",
		`{"text":"Hallo","source_lang":"de","target_lang":"it","provider":"Locally"}`,
		map[string]string{"Accept-Language": "it-IT,it;q=0.9"})
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing route, got %d: %+v", code, resp)
	}
	if resp.Message != "Locally non ha un modello installato per tradurre da de a it." {
		t.Fatalf("unexpected localized message: %q", resp.Message)
	}
	if !strings.Contains(string(resp.Data), `"kind":"no_route"`) {
		t.Fatalf("expected kind in data, got %s", resp.Data)
	}

	code, resp = doRequest(t, e, http.MethodPost, "/api/v1/translate", `{"text":"Hello","target_lang":"it","provider":"Deepl"}`, nil)
	if code != http.StatusServiceUnavailable || resp.Status != "error" {
		t.Fatalf("expected 503 for unconfigured provider, got %d: %+v", code, resp)
	}

	code, _ = doRequest(t, e, http.MethodPost, "/api/v1/translate", `{"text":"   ","target_lang":"it"}`, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty input, got %d", code)
	}
}

func TestLanguagesEndpoint(t *testing.T) {
	t.Parallel()

	e, _ := newTestServer(t, "")

	code, resp := doRequest(t, e, http.MethodGet, "/api/v1/providers/locally/languages?source=it", "", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	var data languagesResponse
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	codes := make([]string, 0, len(data.Languages))
	for _, lang := range data.Languages {
		codes = append(codes, lang.Code)
	}
	if strings.Join(codes, ",") != "de,en" {
		t.Fatalf("unexpected targets from it: %v", codes)
	}

	if code, _ := doRequest(t, e, http.MethodGet, "/api/v1/providers/bing/languages", "", nil); code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown provider, got %d", code)
	}
}

func TestPrefsEndpoints(t *testing.T) {
	t.Parallel()

	e, _ := newTestServer(t, "")

	code, resp := doRequest(t, e, http.MethodPut, "/api/v1/providers/google/prefs", `{"default_source":"de","default_target":"fr"}`, nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", code, resp)
	}
	var data prefsResponse
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.EffectivePair != [2]string{"de", "fr"} {
		t.Fatalf("unexpected effective pair: %v", data.EffectivePair)
	}

	code, resp = doRequest(t, e, http.MethodPost, "/api/v1/providers/google/prefs/swap", "", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", code, resp)
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.EffectivePair != [2]string{"fr", "de"} {
		t.Fatalf("expected swapped pair, got %v", data.EffectivePair)
	}

	if code, _ := doRequest(t, e, http.MethodPut, "/api/v1/providers/google/prefs", `{"default_target":""}`, nil); code != http.StatusBadRequest {
		t.Fatalf("expected blank default target to be rejected, got %d", code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	t.Parallel()

	e, _ := newTestServer(t, "")
	for i := 0; i < 2; i++ {
		if code, resp := doRequest(t, e, http.MethodPost, "/api/v1/translate", `{"text":"Hello","source_lang":"en","target_lang":"it"}`, nil); code != http.StatusOK {
			t.Fatalf("translate: %d %+v", code, resp)
		}
	}

	code, resp := doRequest(t, e, http.MethodGet, "/api/v1/stats?provider=google&limit=3", "", nil)
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	var data statsResponse
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data.Sources) != 1 || data.Sources[0].Code != "en" || data.Sources[0].Count != 2 {
		t.Fatalf("unexpected sources: %+v", data.Sources)
	}
	if len(data.Targets) != 1 || data.Targets[0].Code != "it" {
		t.Fatalf("unexpected targets: %+v", data.Targets)
	}

	if code, _ := doRequest(t, e, http.MethodGet, "/api/v1/stats?limit=0", "", nil); code != http.StatusBadRequest {
		t.Fatalf("expected invalid limit to fail, got %d", code)
	}
}

func TestStatusForError(t *testing.T) {
	t.Parallel()

	cases := map[error]int{
		translation.ErrEmptyInput:          http.StatusBadRequest,
		translation.ErrUnsupportedLanguage: http.StatusBadRequest,
		translation.ErrInputTooLong:        http.StatusRequestEntityTooLarge,
		translation.ErrNoRoute:             http.StatusUnprocessableEntity,
		translation.ErrNotConfigured:       http.StatusServiceUnavailable,
		translation.ErrTransport:           http.StatusBadGateway,
		translation.ErrMalformedResponse:   http.StatusBadGateway,
		errors.New("other"):                http.StatusInternalServerError,
	}
	for err, want := range cases {
		wrapped := &translation.Error{Kind: err}
		if translation.KindOf(err) == nil {
			if got := statusForError(err); got != want {
				t.Fatalf("statusForError(%v) = %d, want %d", err, got, want)
			}
			continue
		}
		if got := statusForError(wrapped); got != want {
			t.Fatalf("statusForError(%v) = %d, want %d", err, got, want)
		}
	}
}
