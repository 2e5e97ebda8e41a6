// Package language normalizes language codes across backends with different
// casing conventions.
package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the source-language sentinel asking the backend to detect it.
const Auto = "auto"

// NormalizeTag lowercases a tag and joins its subtags with "-".
// Returns "" for blank or non-alphabetic input.
func NormalizeTag(raw string) string {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return ""
	}

	parts := strings.Split(strings.ReplaceAll(trimmed, "_", "-"), "-")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		if !isAlphaLower(part) {
			return ""
		}
		normalized = append(normalized, part)
	}
	return strings.Join(normalized, "-")
}

// NormalizeCode returns the primary subtag ("en" from "en-US").
func NormalizeCode(raw string) string {
	tag := NormalizeTag(raw)
	if dash := strings.IndexByte(tag, '-'); dash >= 0 {
		return tag[:dash]
	}
	return tag
}

// Upper renders a tag in the upper-case convention some APIs expect ("PT-BR").
func Upper(raw string) string {
	return strings.ToUpper(NormalizeTag(raw))
}

func IsAuto(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), Auto)
}

// DisplayName returns the English name of a code, or the code itself when
// it is not a recognised BCP 47 tag.
func DisplayName(code string) string {
	tag, err := xlanguage.Parse(strings.TrimSpace(code))
	if err != nil {
		return code
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return code
}

func isAlphaLower(value string) bool {
	for _, r := range value {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
