package i18n

import (
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"horse.fit/translator/internal/translation"
)

func TestErrorLocalizesByKind(t *testing.T) {
	t.Parallel()

	tr := NewTranslator("en", zerolog.Nop())
	err := fmt.Errorf("translate: %w", &translation.Error{
		Kind:     translation.ErrNoRoute,
		Provider: "Locally",
		Message:  "no model available to translate from fr to it",
		Params:   map[string]any{"Source": "fr", "Target": "it"},
	})

	if got := tr.Error("", err); got != "Locally has no installed model to translate from fr to it." {
		t.Fatalf("unexpected english message: %q", got)
	}
	if got := tr.Error("it", err); got != "Locally non ha un modello installato per tradurre da fr a it." {
		t.Fatalf("unexpected italian message: %q", got)
	}
	if got := tr.Error("it-IT,it;q=0.9,en;q=0.8", err); got != "Locally non ha un modello installato per tradurre da fr a it." {
		t.Fatalf("expected Accept-Language value to resolve italian, got %q", got)
	}
}

func TestErrorFallsBackToRawMessage(t *testing.T) {
	t.Parallel()

	tr := NewTranslator("en", zerolog.Nop())
	raw := errors.New("boom")
	if got := tr.Error("en", raw); got != "boom" {
		t.Fatalf("expected raw message, got %q", got)
	}
	if got := tr.Error("en", nil); got != "" {
		t.Fatalf("expected empty string for nil error, got %q", got)
	}
}

func TestTFallsBackToDefaultLocaleThenKey(t *testing.T) {
	t.Parallel()

	tr := NewTranslator("it", zerolog.Nop())
	if tr.Locale() != "it" {
		t.Fatalf("unexpected locale %q", tr.Locale())
	}
	got := tr.T("fr", MsgTranslatorSwitched, map[string]any{"Current": "Google"})
	if got != "Ora si traduce con Google." {
		t.Fatalf("expected default locale fallback, got %q", got)
	}
	if got := tr.T("en", "missing.key", nil); got != "missing.key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestNewTranslatorInvalidLocale(t *testing.T) {
	t.Parallel()

	tr := NewTranslator("???", zerolog.Nop())
	if tr.Locale() != "en" {
		t.Fatalf("expected english fallback, got %q", tr.Locale())
	}
}
