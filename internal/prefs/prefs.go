// Package prefs stores per-provider language preferences inside the shared
// translators-prefs settings blob.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"horse.fit/translator/internal/language"
	"horse.fit/translator/internal/settings"
)

const (
	DefaultSource = "en"
	DefaultTarget = "it"
)

var ErrSwapAuto = errors.New("cannot swap languages while the source is auto")

// Record is one provider's entry in the blob.
type Record struct {
	DefaultSource    string `json:"default_source"`
	DefaultTarget    string `json:"default_target"`
	LastSource       string `json:"last_source"`
	LastTarget       string `json:"last_target"`
	RememberLastLang bool   `json:"remember_last_lang"`
}

func DefaultRecord() Record {
	return Record{
		DefaultSource:    DefaultSource,
		DefaultTarget:    DefaultTarget,
		RememberLastLang: true,
	}
}

type storedRecord struct {
	DefaultSource    *string `json:"default_source"`
	DefaultTarget    *string `json:"default_target"`
	LastSource       *string `json:"last_source"`
	LastTarget       *string `json:"last_target"`
	RememberLastLang *bool   `json:"remember_last_lang"`
}

// recordFromRaw fills blank defaults with en/it; a missing remember flag is false.
func recordFromRaw(raw json.RawMessage) Record {
	var stored storedRecord
	_ = json.Unmarshal(raw, &stored)

	record := Record{
		DefaultSource:    strings.TrimSpace(deref(stored.DefaultSource)),
		DefaultTarget:    strings.TrimSpace(deref(stored.DefaultTarget)),
		LastSource:       strings.TrimSpace(deref(stored.LastSource)),
		LastTarget:       strings.TrimSpace(deref(stored.LastTarget)),
		RememberLastLang: stored.RememberLastLang != nil && *stored.RememberLastLang,
	}
	if record.DefaultSource == "" {
		record.DefaultSource = DefaultSource
	}
	if record.DefaultTarget == "" {
		record.DefaultTarget = DefaultTarget
	}
	return record
}

// Preferences is one provider's view of the blob. Every mutation re-reads and
// rewrites the whole blob; concurrent writers race and the last one wins.
type Preferences struct {
	name   string
	store  settings.Store
	logger zerolog.Logger

	mu     sync.RWMutex
	record Record

	cancel    func()
	closeOnce sync.Once
}

// New loads (or lazily creates) the entry for name and follows blob changes.
func New(name string, store settings.Store, logger zerolog.Logger) *Preferences {
	p := &Preferences{
		name:   name,
		store:  store,
		logger: logger.With().Str("provider", name).Logger(),
	}
	p.load()
	p.cancel = store.Subscribe(settings.KeyTranslatorsPrefs, func(string) { p.load() })
	return p
}

func (p *Preferences) Name() string {
	return p.name
}

// Record returns a snapshot of the current entry.
func (p *Preferences) Record() Record {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.record
}

func (p *Preferences) DefaultSource() string {
	return p.Record().DefaultSource
}

func (p *Preferences) DefaultTarget() string {
	return p.Record().DefaultTarget
}

// LastSource returns "" when no last source was stored.
func (p *Preferences) LastSource() string {
	return p.Record().LastSource
}

// LastTarget returns "" when no last target was stored.
func (p *Preferences) LastTarget() string {
	return p.Record().LastTarget
}

func (p *Preferences) RememberLastLang() bool {
	return p.Record().RememberLastLang
}

func (p *Preferences) SetDefaultSource(code string) error {
	return p.setCodes(map[string]string{"default_source": code}, false)
}

func (p *Preferences) SetDefaultTarget(code string) error {
	return p.setCodes(map[string]string{"default_target": code}, false)
}

func (p *Preferences) SetLastSource(code string) error {
	return p.setCodes(map[string]string{"last_source": code}, true)
}

func (p *Preferences) SetLastTarget(code string) error {
	return p.setCodes(map[string]string{"last_target": code}, true)
}

// SetLastPair stores both last languages with one write.
func (p *Preferences) SetLastPair(source, target string) error {
	return p.setCodes(map[string]string{"last_source": source, "last_target": target}, true)
}

func (p *Preferences) SetRememberLastLang(enable bool) error {
	p.mu.Lock()
	p.record.RememberLastLang = enable
	p.mu.Unlock()
	return p.save(map[string]any{"remember_last_lang": enable})
}

// EffectivePair resolves the languages a new translation should start with:
// the last-used ones when remembering is on and they exist, else the defaults.
func (p *Preferences) EffectivePair() (string, string) {
	record := p.Record()
	source, target := record.DefaultSource, record.DefaultTarget
	if record.RememberLastLang {
		if record.LastSource != "" {
			source = record.LastSource
		}
		if record.LastTarget != "" {
			target = record.LastTarget
		}
	}
	return source, target
}

// Swap exchanges the effective source and target and stores them as last used.
func (p *Preferences) Swap() (string, string, error) {
	source, target := p.EffectivePair()
	if language.IsAuto(source) {
		return source, target, ErrSwapAuto
	}
	if err := p.SetLastPair(target, source); err != nil {
		return source, target, err
	}
	return target, source, nil
}

// Reset makes the defaults the last-used pair.
func (p *Preferences) Reset() (string, string, error) {
	record := p.Record()
	if err := p.SetLastPair(record.DefaultSource, record.DefaultTarget); err != nil {
		return "", "", err
	}
	return record.DefaultSource, record.DefaultTarget, nil
}

// Close stops following blob changes. Safe to call more than once.
func (p *Preferences) Close() {
	p.closeOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}
	})
}

func (p *Preferences) setCodes(fields map[string]string, allowBlank bool) error {
	values := make(map[string]any, len(fields))
	for field, raw := range fields {
		code := language.NormalizeTag(raw)
		if code == "" && (strings.TrimSpace(raw) != "" || !allowBlank) {
			return fmt.Errorf("invalid language code %q for %s", raw, field)
		}
		values[field] = code
	}

	p.mu.Lock()
	for field, value := range values {
		code := value.(string)
		switch field {
		case "default_source":
			p.record.DefaultSource = code
		case "default_target":
			p.record.DefaultTarget = code
		case "last_source":
			p.record.LastSource = code
		case "last_target":
			p.record.LastTarget = code
		}
	}
	p.mu.Unlock()

	return p.save(values)
}

func (p *Preferences) load() {
	entries := p.readBlob()
	raw, exists := entries[p.name]

	record := DefaultRecord()
	if exists {
		record = recordFromRaw(raw)
	}

	p.mu.Lock()
	p.record = record
	p.mu.Unlock()

	if exists {
		return
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		p.logger.Error().Err(err).Msg("encode default preferences failed")
		return
	}
	entries[p.name] = encoded
	if err := p.writeBlob(entries); err != nil {
		p.logger.Error().Err(err).Msg("persist default preferences failed")
	}
}

// save merges fields into this provider's entry, keeping unknown fields.
func (p *Preferences) save(fields map[string]any) error {
	entries := p.readBlob()

	current := map[string]any{}
	if raw, ok := entries[p.name]; ok {
		if err := json.Unmarshal(raw, &current); err != nil || current == nil {
			current = map[string]any{}
		}
	}
	for key, value := range fields {
		current[key] = value
	}

	encoded, err := json.Marshal(current)
	if err != nil {
		return fmt.Errorf("encode preferences for %s: %w", p.name, err)
	}
	entries[p.name] = encoded
	return p.writeBlob(entries)
}

func (p *Preferences) readBlob() map[string]json.RawMessage {
	entries, err := DecodeBlob(p.store.GetString(settings.KeyTranslatorsPrefs))
	if err != nil {
		p.logger.Warn().Err(err).Msg("translators-prefs is invalid, starting from empty preferences")
		return map[string]json.RawMessage{}
	}
	return entries
}

func (p *Preferences) writeBlob(entries map[string]json.RawMessage) error {
	encoded, err := EncodeBlob(entries)
	if err != nil {
		return err
	}
	if err := p.store.SetString(settings.KeyTranslatorsPrefs, encoded); err != nil {
		return fmt.Errorf("write translators-prefs: %w", err)
	}
	return nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
