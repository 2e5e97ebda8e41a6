package translation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"horse.fit/translator/internal/settings"
)

func TestGoDeliversExactlyOnce(t *testing.T) {
	t.Parallel()

	provider := newStubProvider("Stub", true, settings.NewMemoryStore())
	provider.resp = TranslateResponse{Text: "Ciao"}

	results := Go(context.Background(), provider, TranslateRequest{Text: "Hello", TargetLang: "it"})
	first, ok := <-results
	if !ok {
		t.Fatalf("expected one result")
	}
	if first.Err != nil || first.Response.Text != "Ciao" {
		t.Fatalf("unexpected result: %+v", first)
	}
	if first.Response.ProviderName != "Stub" {
		t.Fatalf("expected provider name filled in, got %q", first.Response.ProviderName)
	}
	if _, ok := <-results; ok {
		t.Fatalf("expected channel to be closed after one result")
	}
}

func TestTranslateAsyncCallbackOnce(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		setup    func(*stubProvider)
		wantText string
		wantKind error
	}{
		{
			name:     "success",
			setup:    func(p *stubProvider) { p.resp = TranslateResponse{Text: "Hallo"} },
			wantText: "Hallo",
		},
		{
			name:     "failure",
			setup:    func(p *stubProvider) { p.err = newError(ErrTransport, "Stub", nil, "offline") },
			wantKind: ErrTransport,
		},
		{
			name:     "panic",
			setup:    func(p *stubProvider) { p.panicky = true },
			wantKind: ErrTransport,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			provider := newStubProvider("Stub", true, settings.NewMemoryStore())
			tc.setup(provider)

			var (
				mu    sync.Mutex
				calls int
				text  string
				err   error
			)
			done := make(chan struct{})
			TranslateAsync(context.Background(), provider, TranslateRequest{Text: "Hello", TargetLang: "de"}, func(gotText string, gotErr error) {
				mu.Lock()
				calls++
				text, err = gotText, gotErr
				mu.Unlock()
				close(done)
			})

			select {
			case <-done:
			case <-time.After(2 * time.Second):
				t.Fatalf("callback was not invoked")
			}
			time.Sleep(20 * time.Millisecond)

			mu.Lock()
			defer mu.Unlock()
			if calls != 1 {
				t.Fatalf("expected exactly one callback, got %d", calls)
			}
			if tc.wantKind != nil {
				if !errors.Is(err, tc.wantKind) || text != "" {
					t.Fatalf("expected %v with no text, got %q %v", tc.wantKind, text, err)
				}
				return
			}
			if err != nil || text != tc.wantText {
				t.Fatalf("expected %q, got %q %v", tc.wantText, text, err)
			}
		})
	}
}

func TestGoWithoutProvider(t *testing.T) {
	t.Parallel()

	result := <-Go(context.Background(), nil, TranslateRequest{Text: "Hello"})
	if !errors.Is(result.Err, ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", result.Err)
	}
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := wrapError(ErrTransport, GoogleName, cause, "send request")

	if !errors.Is(err, ErrTransport) || !errors.Is(err, cause) {
		t.Fatalf("expected error to match both kind and cause")
	}
	if KindOf(err) != ErrTransport || KindName(err) != "transport" {
		t.Fatalf("unexpected kind: %v %s", KindOf(err), KindName(err))
	}
	if got := err.Error(); got != "Google: send request: connection refused" {
		t.Fatalf("unexpected message: %q", got)
	}

	var typed *Error
	if !errors.As(err, &typed) || typed.Provider != GoogleName {
		t.Fatalf("expected *Error with provider")
	}
	if KindName(errors.New("other")) != "internal" {
		t.Fatalf("expected unclassified errors to be internal")
	}
	if KindName(unsupportedLanguage(DeeplName, "target", "xx")) != "unsupported_language" {
		t.Fatalf("unexpected kind name for unsupported language")
	}
}
