package stats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"horse.fit/translator/internal/settings"
)

// SettingsStore keeps counters inside the languages-stats settings blob:
//
//	{"google": {"source": {"en": {"count": 3, "name": "English", "last_used_at": "..."}}}}
type SettingsStore struct {
	store settings.Store
	now   func() time.Time
	mu    sync.Mutex
}

func NewSettingsStore(store settings.Store) *SettingsStore {
	return &SettingsStore{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *SettingsStore) Increment(_ context.Context, provider string, kind Kind, code, name string) error {
	provider, code, err := normalizeKey(provider, kind, code)
	if errors.Is(err, errSkip) {
		return nil
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.document()
	path := escapePath(provider) + "." + string(kind) + "." + escapePath(code)
	count := gjson.Get(doc, path+".count").Int() + 1

	doc, err = sjson.Set(doc, path+".count", count)
	if err != nil {
		return fmt.Errorf("update %s usage count: %w", code, err)
	}
	doc, err = sjson.Set(doc, path+".last_used_at", s.now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("update %s usage time: %w", code, err)
	}
	if name = strings.TrimSpace(name); name != "" {
		doc, err = sjson.Set(doc, path+".name", name)
		if err != nil {
			return fmt.Errorf("update %s usage name: %w", code, err)
		}
	}
	return s.store.SetString(settings.KeyLanguagesStats, doc)
}

func (s *SettingsStore) MostUsed(_ context.Context, provider string, kind Kind, limit int) ([]Entry, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, fmt.Errorf("provider is required")
	}
	if !kind.valid() {
		return nil, fmt.Errorf("unknown stats kind %q", kind)
	}

	s.mu.Lock()
	doc := s.document()
	s.mu.Unlock()

	entries := make([]Entry, 0)
	gjson.Get(doc, escapePath(provider)+"."+string(kind)).ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		entry := Entry{
			Code:  key.String(),
			Name:  value.Get("name").String(),
			Count: value.Get("count").Int(),
		}
		if ts, err := time.Parse(time.RFC3339Nano, value.Get("last_used_at").String()); err == nil {
			entry.LastUsedAt = ts
		}
		if entry.Count > 0 {
			entries = append(entries, entry)
		}
		return true
	})
	SortEntries(entries)
	return Limit(entries, limit), nil
}

func (s *SettingsStore) document() string {
	raw := strings.TrimSpace(s.store.GetString(settings.KeyLanguagesStats))
	if raw == "" || !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
		return "{}"
	}
	return raw
}

func escapePath(part string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)
	return replacer.Replace(part)
}
