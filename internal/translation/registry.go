package translation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"horse.fit/translator/internal/settings"
)

// FallbackOrder lists the providers preferred when the current one is unusable.
var FallbackOrder = []string{GoogleName, LocallyName}

// ChangeReason explains why the current provider changed.
type ChangeReason string

const (
	ReasonStartup     ChangeReason = "startup"
	ReasonSelected    ChangeReason = "selected"
	ReasonFallback    ChangeReason = "fallback"
	ReasonUnavailable ChangeReason = "unavailable"
)

// ChangeEvent is passed to the OnChange callback.
type ChangeEvent struct {
	Previous string       `json:"previous,omitempty"`
	Current  string       `json:"current"`
	Reason   ChangeReason `json:"reason"`
}

// Registry tracks every provider, the available subset and the current and
// default selections. Lifecycle: NewRegistry, Register, Enable, Close.
type Registry struct {
	store  settings.Store
	logger zerolog.Logger

	mu              sync.RWMutex
	providers       []Provider
	available       []Provider
	current         Provider
	defaultProvider Provider
	onChange        func(ChangeEvent)
	cancels         []func()
	enabled         bool
	closed          bool
}

func NewRegistry(store settings.Store, logger zerolog.Logger) *Registry {
	return &Registry{
		store:  store,
		logger: logger,
	}
}

// Register adds one provider. Names are unique, compared case-insensitively.
func (r *Registry) Register(provider Provider) error {
	if r == nil {
		return fmt.Errorf("registry is nil")
	}
	if provider == nil {
		return fmt.Errorf("provider is nil")
	}
	name := normalizeProviderName(provider.Name())
	if name == "" {
		return fmt.Errorf("provider name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("registry is closed")
	}
	for _, existing := range r.providers {
		if normalizeProviderName(existing.Name()) == name {
			return fmt.Errorf("translation provider %q is already registered", provider.Name())
		}
	}
	r.providers = append(r.providers, provider)
	if r.enabled {
		r.recomputeLocked()
	}
	r.logger.Info().Str("provider", provider.Name()).Bool("available", provider.IsAvailable()).Msg("translation provider loaded")
	return nil
}

// OnChange sets the callback invoked after the current provider changes.
func (r *Registry) OnChange(fn func(ChangeEvent)) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Enable picks the initial provider and starts following settings changes:
// the last-used provider when remembered and still available, else the
// configured default, else the fallback chain.
func (r *Registry) Enable() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return fmt.Errorf("registry is closed")
	}
	if r.enabled {
		r.mu.Unlock()
		return nil
	}
	if len(r.providers) == 0 {
		r.mu.Unlock()
		return fmt.Errorf("no translation providers are registered")
	}

	r.recomputeLocked()
	r.defaultProvider = r.resolveDefaultLocked()
	r.current = r.defaultProvider
	if r.store.GetBool(settings.KeyRememberLastTranslator) {
		if last := r.lastUsedLocked(); last != nil {
			r.current = last
		}
	}
	r.enabled = true

	for _, key := range []string{settings.KeyDeeplAPIKey, settings.KeyYandexAPIKey, settings.KeyDefaultTranslator} {
		r.cancels = append(r.cancels, r.store.Subscribe(key, func(string) { r.Refresh() }))
	}
	event := ChangeEvent{Current: r.current.Name(), Reason: ReasonStartup}
	r.mu.Unlock()

	r.logger.Info().
		Str("current", event.Current).
		Strs("available", r.AvailableNames()).
		Msg("translation providers enabled")
	r.emit(event)
	return nil
}

// Refresh recomputes availability and moves away from a current provider
// that is no longer available.
func (r *Registry) Refresh() {
	r.mu.Lock()
	if !r.enabled || r.closed {
		r.mu.Unlock()
		return
	}

	r.recomputeLocked()
	r.defaultProvider = r.resolveDefaultLocked()

	previous := r.current
	if previous == nil || !r.isAvailableLocked(previous) {
		r.current = r.fallbackLocked()
	}
	changed := previous != r.current
	var event ChangeEvent
	if changed {
		event = ChangeEvent{Previous: providerName(previous), Current: providerName(r.current), Reason: ReasonUnavailable}
	}
	r.mu.Unlock()

	if changed {
		r.logger.Warn().
			Str("previous", event.Previous).
			Str("current", event.Current).
			Msg("translation provider became unavailable, switched to fallback")
		r.emit(event)
	}
}

// SetCurrent selects a provider by name and persists it as last used. An
// unknown or unavailable name silently resolves to the fallback chain.
func (r *Registry) SetCurrent(name string) (Provider, error) {
	r.mu.Lock()
	if !r.enabled || r.closed {
		r.mu.Unlock()
		return nil, fmt.Errorf("registry is not enabled")
	}

	r.recomputeLocked()
	target := r.byNameLocked(name)
	reason := ReasonSelected
	if target == nil || !r.isAvailableLocked(target) {
		target = r.fallbackLocked()
		reason = ReasonFallback
	}
	previous := r.current
	r.current = target
	r.mu.Unlock()

	if reason == ReasonFallback {
		r.logger.Info().Str("requested", name).Str("current", target.Name()).Msg("requested provider unavailable, using fallback")
	}
	if err := r.store.SetString(settings.KeyLastTranslator, target.Name()); err != nil {
		return target, fmt.Errorf("persist last translator: %w", err)
	}
	if previous != target {
		r.emit(ChangeEvent{Previous: providerName(previous), Current: target.Name(), Reason: reason})
	}
	return target, nil
}

// Select is SetCurrent for a provider value.
func (r *Registry) Select(provider Provider) (Provider, error) {
	if provider == nil {
		return r.SetCurrent("")
	}
	return r.SetCurrent(provider.Name())
}

// SetDefault stores the configured default provider name.
func (r *Registry) SetDefault(name string) error {
	provider := r.ByName(name)
	if provider == nil {
		return fmt.Errorf("translation provider %q is not registered (available: %s)", strings.TrimSpace(name), strings.Join(r.Names(), ", "))
	}
	return r.store.SetString(settings.KeyDefaultTranslator, provider.Name())
}

func (r *Registry) Current() Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

func (r *Registry) Default() Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultProvider
}

// LastUsed returns the persisted last provider, or nil when it is unknown
// or unavailable.
func (r *Registry) LastUsed() Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastUsedLocked()
}

// ByName looks a provider up case-insensitively. Returns nil when unknown.
func (r *Registry) ByName(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byNameLocked(name)
}

// Providers returns all providers in registration order.
func (r *Registry) Providers() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.providers...)
}

// Available returns the providers usable right now, in registration order.
func (r *Registry) Available() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Provider(nil), r.available...)
}

func (r *Registry) Names() []string {
	return providerNames(r.Providers())
}

func (r *Registry) AvailableNames() []string {
	return providerNames(r.Available())
}

// Close stops following settings and closes every provider. Idempotent.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	cancels := r.cancels
	providers := r.providers
	r.cancels = nil
	r.providers = nil
	r.available = nil
	r.current = nil
	r.defaultProvider = nil
	r.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	var errs []error
	for _, provider := range providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", provider.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (r *Registry) emit(event ChangeEvent) {
	r.mu.RLock()
	fn := r.onChange
	r.mu.RUnlock()
	if fn != nil {
		fn(event)
	}
}

func (r *Registry) recomputeLocked() {
	available := make([]Provider, 0, len(r.providers))
	for _, provider := range r.providers {
		if provider.IsAvailable() {
			available = append(available, provider)
		}
	}
	r.available = available
}

func (r *Registry) isAvailableLocked(provider Provider) bool {
	for _, candidate := range r.available {
		if candidate == provider {
			return true
		}
	}
	return false
}

func (r *Registry) resolveDefaultLocked() Provider {
	configured := r.byNameLocked(r.store.GetString(settings.KeyDefaultTranslator))
	if configured != nil && r.isAvailableLocked(configured) {
		return configured
	}
	return r.fallbackLocked()
}

// fallbackLocked walks FallbackOrder, then the first available provider,
// then the first provider of any kind, which may be unavailable.
func (r *Registry) fallbackLocked() Provider {
	for _, name := range FallbackOrder {
		if provider := r.byNameLocked(name); provider != nil && r.isAvailableLocked(provider) {
			return provider
		}
	}
	if len(r.available) > 0 {
		return r.available[0]
	}
	if len(r.providers) > 0 {
		return r.providers[0]
	}
	return nil
}

func (r *Registry) lastUsedLocked() Provider {
	provider := r.byNameLocked(r.store.GetString(settings.KeyLastTranslator))
	if provider == nil || !r.isAvailableLocked(provider) {
		return nil
	}
	return provider
}

func (r *Registry) byNameLocked(name string) Provider {
	normalized := normalizeProviderName(name)
	if normalized == "" {
		return nil
	}
	for _, provider := range r.providers {
		if normalizeProviderName(provider.Name()) == normalized {
			return provider
		}
	}
	return nil
}

func providerNames(providers []Provider) []string {
	names := make([]string, 0, len(providers))
	for _, provider := range providers {
		names = append(names, provider.Name())
	}
	return names
}

func providerName(provider Provider) string {
	if provider == nil {
		return ""
	}
	return provider.Name()
}

func normalizeProviderName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
