// Package stats counts how often each language is used per provider so the
// most used ones can be offered first.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Kind separates source from target usage.
type Kind string

const (
	KindSource Kind = "source"
	KindTarget Kind = "target"
)

// Entry is one language counter.
type Entry struct {
	Code       string    `json:"code" yaml:"code"`
	Name       string    `json:"name,omitempty" yaml:"name,omitempty"`
	Count      int64     `json:"count" yaml:"count"`
	LastUsedAt time.Time `json:"last_used_at" yaml:"last_used_at"`
}

// Store persists usage counters.
type Store interface {
	Increment(ctx context.Context, provider string, kind Kind, code, name string) error
	MostUsed(ctx context.Context, provider string, kind Kind, limit int) ([]Entry, error)
}

var errSkip = errors.New("stats: nothing to record")

// ParseKind accepts "source" or "target" in any case.
func ParseKind(raw string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindSource:
		return KindSource, nil
	case KindTarget:
		return KindTarget, nil
	default:
		return "", fmt.Errorf("unknown stats kind %q (expected source or target)", raw)
	}
}

func (k Kind) valid() bool {
	return k == KindSource || k == KindTarget
}

// SortEntries orders by count, then recency, then code.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		if !entries[i].LastUsedAt.Equal(entries[j].LastUsedAt) {
			return entries[i].LastUsedAt.After(entries[j].LastUsedAt)
		}
		return entries[i].Code < entries[j].Code
	})
}

// Limit truncates entries to limit when limit is positive.
func Limit(entries []Entry, limit int) []Entry {
	if limit > 0 && len(entries) > limit {
		return entries[:limit]
	}
	return entries
}

func normalizeKey(provider string, kind Kind, code string) (string, string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	code = strings.ToLower(strings.TrimSpace(code))
	if provider == "" {
		return "", "", fmt.Errorf("provider is required")
	}
	if !kind.valid() {
		return "", "", fmt.Errorf("unknown stats kind %q", kind)
	}
	if code == "" || code == "auto" {
		return "", "", errSkip
	}
	return provider, code, nil
}
