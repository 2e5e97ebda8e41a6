package langdetect

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

const minLetters = 6

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector

	restrictedMu        sync.Mutex
	restrictedDetectors = map[string]lingua.LanguageDetector{}
)

// DetectISO6391 returns the ISO 639-1 code of text, or "" when unsure.
func DetectISO6391(text string) string {
	sample, ok := sampleOf(text)
	if !ok {
		return ""
	}
	detected, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}
	return isoCode(detected)
}

// DetectAmong detects text restricted to the candidate ISO 639-1 codes.
// Returns "" when the text is too short or matches none of them.
func DetectAmong(text string, candidates []string) string {
	sample, ok := sampleOf(text)
	if !ok {
		return ""
	}

	languages, codes := resolveCandidates(candidates)
	if len(languages) < 2 {
		// lingua needs two languages to choose from.
		code := DetectISO6391(sample)
		for _, candidate := range codes {
			if candidate == code {
				return code
			}
		}
		return ""
	}

	detected, exists := restrictedDetector(codes, languages).DetectLanguageOf(sample)
	if !exists {
		return ""
	}
	return isoCode(detected)
}

func sampleOf(text string) (string, bool) {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return "", false
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	return sample, letterCount >= minLetters
}

func resolveCandidates(candidates []string) ([]lingua.Language, []string) {
	wanted := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		wanted[strings.ToLower(strings.TrimSpace(candidate))] = struct{}{}
	}

	languages := make([]lingua.Language, 0, len(wanted))
	codes := make([]string, 0, len(wanted))
	for _, lang := range lingua.AllLanguages() {
		code := isoCode(lang)
		if _, ok := wanted[code]; !ok {
			continue
		}
		languages = append(languages, lang)
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return languages, codes
}

func restrictedDetector(codes []string, languages []lingua.Language) lingua.LanguageDetector {
	key := strings.Join(codes, ",")

	restrictedMu.Lock()
	defer restrictedMu.Unlock()

	if cached, ok := restrictedDetectors[key]; ok {
		return cached
	}
	built := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()
	restrictedDetectors[key] = built
	return built
}

func isoCode(lang lingua.Language) string {
	code := strings.ToLower(lang.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
