// Package settings provides the persisted key/value store shared by the
// provider registry, provider preferences and usage statistics.
package settings

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	KeyDefaultTranslator      = "default-translator"
	KeyLastTranslator         = "last-translator"
	KeyRememberLastTranslator = "remember-last-translator"
	KeyTranslatorsPrefs       = "translators-prefs"
	KeyLanguagesStats         = "languages-stats"
	KeyDeeplAPIKey            = "deepl-api-key"
	KeyYandexAPIKey           = "yandex-api-key"
)

// Store is a key/value settings store with change notifications.
//
// Subscribers run synchronously on the goroutine that performed the write,
// in subscription order, and only when the stored value actually changed.
type Store interface {
	GetString(key string) string
	SetString(key, value string) error
	GetBool(key string) bool
	SetBool(key string, value bool) error
	Subscribe(key string, fn func(key string)) (cancel func())
}

var stringDefaults = map[string]string{
	KeyDefaultTranslator: "Google",
	KeyLastTranslator:    "",
	KeyTranslatorsPrefs:  "{}",
	KeyLanguagesStats:    "{}",
	KeyDeeplAPIKey:       "",
	KeyYandexAPIKey:      "",
}

var boolDefaults = map[string]bool{
	KeyRememberLastTranslator: true,
}

// Keys returns every known settings key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(stringDefaults)+len(boolDefaults))
	for key := range stringDefaults {
		keys = append(keys, key)
	}
	for key := range boolDefaults {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IsBoolKey reports whether key holds a boolean value.
func IsBoolKey(key string) bool {
	_, ok := boolDefaults[key]
	return ok
}

// ValidateKey rejects keys the store does not know about.
func ValidateKey(key string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return fmt.Errorf("settings key is required")
	}
	if _, ok := stringDefaults[trimmed]; ok {
		return nil
	}
	if _, ok := boolDefaults[trimmed]; ok {
		return nil
	}
	return fmt.Errorf("unknown settings key %q (known: %s)", trimmed, strings.Join(Keys(), ", "))
}

// DefaultString returns the value reported for an unset string key.
func DefaultString(key string) string {
	return stringDefaults[key]
}

// DefaultBool returns the value reported for an unset boolean key.
func DefaultBool(key string) bool {
	return boolDefaults[key]
}

type subscription struct {
	id int
	fn func(key string)
}

// hub fans change notifications out to subscribers.
type hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscription
}

func (h *hub) subscribe(key string, fn func(key string)) func() {
	if fn == nil {
		return func() {}
	}

	h.mu.Lock()
	if h.subs == nil {
		h.subs = make(map[string][]subscription)
	}
	h.nextID++
	id := h.nextID
	h.subs[key] = append(h.subs[key], subscription{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			current := h.subs[key]
			for i, sub := range current {
				if sub.id == id {
					h.subs[key] = append(current[:i:i], current[i+1:]...)
					break
				}
			}
			if len(h.subs[key]) == 0 {
				delete(h.subs, key)
			}
		})
	}
}

func (h *hub) notify(keys ...string) {
	for _, key := range keys {
		h.mu.Lock()
		subs := append([]subscription(nil), h.subs[key]...)
		h.mu.Unlock()

		for _, sub := range subs {
			sub.fn(key)
		}
	}
}
