package prefs

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/translator/internal/settings"
)

func TestNewCreatesDefaultEntryLazily(t *testing.T) {
	t.Parallel()

	store := settings.NewMemoryStore()
	p := New("Google", store, zerolog.Nop())
	defer p.Close()

	if got := p.Record(); got != DefaultRecord() {
		t.Fatalf("unexpected default record: %+v", got)
	}

	entries, err := DecodeBlob(store.GetString(settings.KeyTranslatorsPrefs))
	if err != nil {
		t.Fatalf("decode blob failed: %v", err)
	}
	raw, ok := entries["Google"]
	if !ok {
		t.Fatalf("expected Google entry to be persisted, blob=%s", store.GetString(settings.KeyTranslatorsPrefs))
	}
	var stored Record
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("unmarshal entry failed: %v", err)
	}
	if !stored.RememberLastLang || stored.DefaultSource != "en" || stored.DefaultTarget != "it" {
		t.Fatalf("unexpected stored entry: %+v", stored)
	}
}

func TestSettersRoundTripThroughBlob(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := settings.OpenFileStore(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("open store failed: %v", err)
	}

	p := New("Deepl", store, zerolog.Nop())
	for _, code := range []string{"de", "pt-br", "zh", "auto"} {
		if err := p.SetDefaultSource(code); err != nil {
			t.Fatalf("set default source %q failed: %v", code, err)
		}
		reopened, err := settings.OpenFileStore(path, zerolog.Nop())
		if err != nil {
			t.Fatalf("reopen store failed: %v", err)
		}
		reloaded := New("Deepl", reopened, zerolog.Nop())
		if got := reloaded.DefaultSource(); got != code {
			t.Fatalf("unexpected default source after reload: got %q want %q", got, code)
		}
		reloaded.Close()
	}
	p.Close()
}

func TestSaveKeepsOtherProvidersAndUnknownFields(t *testing.T) {
	t.Parallel()

	store := settings.NewMemoryStore()
	if err := store.SetString(settings.KeyTranslatorsPrefs, `{"Yandex":{"default_source":"ru","custom":"keep"}}`); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	yandex := New("Yandex", store, zerolog.Nop())
	google := New("Google", store, zerolog.Nop())
	defer yandex.Close()
	defer google.Close()

	if got := yandex.DefaultSource(); got != "ru" {
		t.Fatalf("unexpected Yandex default source: %q", got)
	}
	if got := yandex.DefaultTarget(); got != "it" {
		t.Fatalf("expected missing default target to fall back to it, got %q", got)
	}
	if yandex.RememberLastLang() {
		t.Fatalf("expected missing remember flag to read as false")
	}

	if err := google.SetLastTarget("fr"); err != nil {
		t.Fatalf("set last target failed: %v", err)
	}

	entries, err := DecodeBlob(store.GetString(settings.KeyTranslatorsPrefs))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	var yandexRaw map[string]any
	if err := json.Unmarshal(entries["Yandex"], &yandexRaw); err != nil {
		t.Fatalf("unmarshal Yandex entry failed: %v", err)
	}
	if yandexRaw["custom"] != "keep" {
		t.Fatalf("unknown field was dropped: %v", yandexRaw)
	}
}

func TestInvalidBlobIsTreatedAsEmpty(t *testing.T) {
	t.Parallel()

	for _, blob := range []string{`not json`, `{"Google":{"remember_last_lang":"yes"}}`, `[]`} {
		store := settings.NewMemoryStore()
		if err := store.SetString(settings.KeyTranslatorsPrefs, blob); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		p := New("Google", store, zerolog.Nop())
		if got := p.Record(); got != DefaultRecord() {
			t.Fatalf("blob %q: unexpected record %+v", blob, got)
		}
		if _, err := DecodeBlob(store.GetString(settings.KeyTranslatorsPrefs)); err != nil {
			t.Fatalf("blob %q: expected rewritten blob to be valid, got %v", blob, err)
		}
		p.Close()
	}
}

func TestEffectivePairSwapAndReset(t *testing.T) {
	t.Parallel()

	store := settings.NewMemoryStore()
	p := New("Google", store, zerolog.Nop())
	defer p.Close()

	if source, target := p.EffectivePair(); source != "en" || target != "it" {
		t.Fatalf("unexpected initial pair: %s -> %s", source, target)
	}

	if err := p.SetLastPair("de", "fr"); err != nil {
		t.Fatalf("set last pair failed: %v", err)
	}
	if source, target := p.EffectivePair(); source != "de" || target != "fr" {
		t.Fatalf("unexpected remembered pair: %s -> %s", source, target)
	}

	source, target, err := p.Swap()
	if err != nil {
		t.Fatalf("swap failed: %v", err)
	}
	if source != "fr" || target != "de" || p.LastSource() != "fr" || p.LastTarget() != "de" {
		t.Fatalf("unexpected swapped pair: %s -> %s (%+v)", source, target, p.Record())
	}

	if err := p.SetRememberLastLang(false); err != nil {
		t.Fatalf("set remember failed: %v", err)
	}
	if source, target := p.EffectivePair(); source != "en" || target != "it" {
		t.Fatalf("expected defaults when remember is off, got %s -> %s", source, target)
	}

	if _, _, err := p.Reset(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if p.LastSource() != "en" || p.LastTarget() != "it" {
		t.Fatalf("unexpected pair after reset: %+v", p.Record())
	}
}

func TestSwapRejectsAutoSource(t *testing.T) {
	t.Parallel()

	p := New("Google", settings.NewMemoryStore(), zerolog.Nop())
	defer p.Close()

	if err := p.SetLastSource("auto"); err != nil {
		t.Fatalf("set last source failed: %v", err)
	}
	if _, _, err := p.Swap(); !errors.Is(err, ErrSwapAuto) {
		t.Fatalf("expected ErrSwapAuto, got %v", err)
	}
}

func TestSetterRejectsInvalidCode(t *testing.T) {
	t.Parallel()

	p := New("Google", settings.NewMemoryStore(), zerolog.Nop())
	defer p.Close()

	if err := p.SetDefaultTarget("en_123"); err == nil {
		t.Fatalf("expected invalid code error")
	}
	if err := p.SetDefaultTarget(""); err == nil {
		t.Fatalf("expected blank default to be rejected")
	}
	if err := p.SetLastTarget(""); err != nil {
		t.Fatalf("expected blank last target to be accepted, got %v", err)
	}
}

func TestExternalBlobChangeReloads(t *testing.T) {
	t.Parallel()

	store := settings.NewMemoryStore()
	p := New("Google", store, zerolog.Nop())
	defer p.Close()

	if err := store.SetString(settings.KeyTranslatorsPrefs, `{"Google":{"default_source":"ja","default_target":"ko","remember_last_lang":true}}`); err != nil {
		t.Fatalf("external write failed: %v", err)
	}
	if p.DefaultSource() != "ja" || p.DefaultTarget() != "ko" {
		t.Fatalf("expected reload after external change, got %+v", p.Record())
	}
}
