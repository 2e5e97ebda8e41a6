package translation

import (
	"context"
	"time"
)

// Result is the single value delivered by Go.
type Result struct {
	Response *TranslateResponse
	Err      error
}

// Go runs the translation on its own goroutine. The returned channel yields
// exactly one Result and is then closed.
func Go(ctx context.Context, provider Provider, req TranslateRequest) <-chan Result {
	results := make(chan Result, 1)
	go func() {
		defer close(results)
		results <- run(ctx, provider, req)
	}()
	return results
}

// TranslateAsync invokes callback exactly once with either the translated
// text or an error, never both.
func TranslateAsync(ctx context.Context, provider Provider, req TranslateRequest, callback func(text string, err error)) {
	if callback == nil {
		return
	}
	go func() {
		result := run(ctx, provider, req)
		if result.Err != nil {
			callback("", result.Err)
			return
		}
		callback(result.Response.Text, nil)
	}()
}

func run(ctx context.Context, provider Provider, req TranslateRequest) (result Result) {
	if provider == nil {
		return Result{Err: newError(ErrNotConfigured, "", nil, "no translation provider is selected")}
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			result = Result{Err: newError(ErrTransport, provider.Name(), nil, "translation panicked: %v", recovered)}
		}
	}()

	started := time.Now()
	resp, err := provider.Translate(ctx, req)
	if err != nil {
		return Result{Err: err}
	}
	if resp == nil {
		return Result{Err: newError(ErrMalformedResponse, provider.Name(), nil, "provider returned no response")}
	}
	if resp.LatencyMs == 0 {
		resp.LatencyMs = time.Since(started).Milliseconds()
	}
	if resp.ProviderName == "" {
		resp.ProviderName = provider.Name()
	}
	return Result{Response: resp}
}
