package translation

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"horse.fit/translator/internal/stats"
)

func newManagerFixture(t *testing.T) (*registryFixture, *Manager) {
	t.Helper()

	f := newRegistryFixture(t, nil, true)
	if err := f.registry.Enable(); err != nil {
		t.Fatalf("enable: %v", err)
	}
	return f, NewManager(f.registry, stats.NewSettingsStore(f.store), zerolog.Nop())
}

func TestManagerFillsEffectivePair(t *testing.T) {
	t.Parallel()

	f, manager := newManagerFixture(t)
	f.google.resp = TranslateResponse{Text: "Ciao", SourceLang: "en", TargetLang: "it"}

	resp, err := manager.Translate(context.Background(), TranslateRequest{Text: "Hello"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	requests := f.google.requests()
	if len(requests) != 1 {
		t.Fatalf("expected one provider call, got %d", len(requests))
	}
	req := requests[0]
	if req.SourceLang != "en" || req.TargetLang != "it" {
		t.Fatalf("expected default pair en->it, got %s->%s", req.SourceLang, req.TargetLang)
	}
	if _, err := uuid.Parse(req.RequestID); err != nil {
		t.Fatalf("expected uuid request id, got %q", req.RequestID)
	}
	if resp.RequestID != req.RequestID {
		t.Fatalf("expected response to carry the request id")
	}

	prefs := f.google.Preferences()
	if prefs.LastSource() != "en" || prefs.LastTarget() != "it" {
		t.Fatalf("expected last pair stored, got %s->%s", prefs.LastSource(), prefs.LastTarget())
	}

	sources, err := manager.MostUsed(context.Background(), "", stats.KindSource, 5)
	if err != nil {
		t.Fatalf("most used: %v", err)
	}
	if len(sources) != 1 || sources[0].Code != "en" || sources[0].Count != 1 {
		t.Fatalf("unexpected source stats: %+v", sources)
	}
	targets, _ := manager.MostUsed(context.Background(), GoogleName, stats.KindTarget, 5)
	if len(targets) != 1 || targets[0].Code != "it" || targets[0].Name != "Italian" {
		t.Fatalf("unexpected target stats: %+v", targets)
	}
}

func TestManagerKeepsExplicitLanguages(t *testing.T) {
	t.Parallel()

	f, manager := newManagerFixture(t)
	f.local.resp = TranslateResponse{Text: "Hallo", SourceLang: "en", TargetLang: "de"}

	if _, err := manager.TranslateWith(context.Background(), "locally", TranslateRequest{
		Text:       "Hello",
		SourceLang: "auto",
		TargetLang: "de",
		RequestID:  "req-1",
	}); err != nil {
		t.Fatalf("translate: %v", err)
	}
	req := f.local.requests()[0]
	if req.SourceLang != "auto" || req.TargetLang != "de" || req.RequestID != "req-1" {
		t.Fatalf("explicit request fields must be kept, got %+v", req)
	}
	if got := f.local.Preferences().LastSource(); got != "auto" {
		t.Fatalf("expected the requested source stored, got %q", got)
	}

	sources, _ := manager.MostUsed(context.Background(), LocallyName, stats.KindSource, 5)
	if len(sources) != 1 || sources[0].Code != "en" {
		t.Fatalf("expected the detected source counted, got %+v", sources)
	}
	if len(f.google.requests()) != 0 {
		t.Fatalf("current provider must not be used for a named request")
	}
}

func TestManagerRejectsUnknownOrUnavailableProvider(t *testing.T) {
	t.Parallel()

	_, manager := newManagerFixture(t)

	if _, err := manager.TranslateWith(context.Background(), "bing", TranslateRequest{Text: "Hello"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected not configured for unknown provider, got %v", err)
	}
	if _, err := manager.TranslateWith(context.Background(), DeeplName, TranslateRequest{Text: "Hello"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected not configured for unavailable provider, got %v", err)
	}
}

func TestManagerFailureSkipsBookkeeping(t *testing.T) {
	t.Parallel()

	f, manager := newManagerFixture(t)
	f.google.err = newError(ErrUnsupportedLanguage, GoogleName, nil, "nope")

	result := <-manager.Go(context.Background(), "", TranslateRequest{Text: "Hello", SourceLang: "fr", TargetLang: "xx"})
	if !errors.Is(result.Err, ErrUnsupportedLanguage) {
		t.Fatalf("expected provider error, got %v", result.Err)
	}
	if f.google.Preferences().LastTarget() != "" {
		t.Fatalf("failed translations must not update the last pair")
	}
	entries, _ := manager.MostUsed(context.Background(), "", stats.KindTarget, 0)
	if len(entries) != 0 {
		t.Fatalf("failed translations must not be counted, got %+v", entries)
	}
}
