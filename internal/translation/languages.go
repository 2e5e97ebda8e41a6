package translation

import (
	"strings"

	"horse.fit/translator/internal/language"
)

// AutoLanguage is offered as a source choice by providers that detect languages.
var AutoLanguage = Language{Code: language.Auto, Name: "Detect language"}

var googleLanguages = []Language{
	{Code: "af", Name: "Afrikaans"},
	{Code: "ar", Name: "Arabic"},
	{Code: "az", Name: "Azerbaijani"},
	{Code: "be", Name: "Belarusian"},
	{Code: "bg", Name: "Bulgarian"},
	{Code: "bn", Name: "Bengali"},
	{Code: "bs", Name: "Bosnian"},
	{Code: "ca", Name: "Catalan"},
	{Code: "ceb", Name: "Cebuano"},
	{Code: "cs", Name: "Czech"},
	{Code: "cy", Name: "Welsh"},
	{Code: "da", Name: "Danish"},
	{Code: "de", Name: "German"},
	{Code: "el", Name: "Greek"},
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "et", Name: "Estonian"},
	{Code: "eu", Name: "Basque"},
	{Code: "fa", Name: "Persian"},
	{Code: "fi", Name: "Finnish"},
	{Code: "fr", Name: "French"},
	{Code: "ga", Name: "Irish"},
	{Code: "gl", Name: "Galician"},
	{Code: "hi", Name: "Hindi"},
	{Code: "hr", Name: "Croatian"},
	{Code: "hu", Name: "Hungarian"},
	{Code: "id", Name: "Indonesian"},
	{Code: "is", Name: "Icelandic"},
	{Code: "it", Name: "Italian"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "lt", Name: "Lithuanian"},
	{Code: "lv", Name: "Latvian"},
	{Code: "nl", Name: "Dutch"},
	{Code: "no", Name: "Norwegian"},
	{Code: "pl", Name: "Polish"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ro", Name: "Romanian"},
	{Code: "ru", Name: "Russian"},
	{Code: "sk", Name: "Slovak"},
	{Code: "sl", Name: "Slovenian"},
	{Code: "sr", Name: "Serbian"},
	{Code: "sv", Name: "Swedish"},
	{Code: "th", Name: "Thai"},
	{Code: "tr", Name: "Turkish"},
	{Code: "uk", Name: "Ukrainian"},
	{Code: "vi", Name: "Vietnamese"},
	{Code: "zh", Name: "Chinese"},
	{Code: "eo", Name: "Esperanto"},
	{Code: "gu", Name: "Gujarati"},
	{Code: "ha", Name: "Hausa"},
	{Code: "he", Name: "Hebrew"},
	{Code: "hmn", Name: "Hmong"},
	{Code: "ht", Name: "Haitian Creole"},
	{Code: "hy", Name: "Armenian"},
	{Code: "ig", Name: "Igbo"},
	{Code: "jw", Name: "Javanese"},
	{Code: "ka", Name: "Georgian"},
	{Code: "kk", Name: "Kazakh"},
	{Code: "km", Name: "Khmer"},
	{Code: "kn", Name: "Kannada"},
	{Code: "la", Name: "Latin"},
	{Code: "lo", Name: "Lao"},
	{Code: "mg", Name: "Malagasy"},
	{Code: "mi", Name: "Maori"},
	{Code: "mk", Name: "Macedonian"},
	{Code: "ml", Name: "Malayalam"},
	{Code: "mn", Name: "Mongolian"},
	{Code: "mr", Name: "Marathi"},
	{Code: "ms", Name: "Malay"},
	{Code: "mt", Name: "Maltese"},
	{Code: "my", Name: "Myanmar (Burmese)"},
	{Code: "ne", Name: "Nepali"},
	{Code: "ny", Name: "Chichewa"},
	{Code: "pa", Name: "Punjabi"},
	{Code: "si", Name: "Sinhala"},
	{Code: "so", Name: "Somali"},
	{Code: "sq", Name: "Albanian"},
	{Code: "st", Name: "Sesotho"},
	{Code: "su", Name: "Sundanese"},
	{Code: "sw", Name: "Swahili"},
	{Code: "ta", Name: "Tamil"},
	{Code: "te", Name: "Telugu"},
	{Code: "tg", Name: "Tajik"},
	{Code: "tl", Name: "Filipino"},
	{Code: "ur", Name: "Urdu"},
	{Code: "uz", Name: "Uzbek"},
	{Code: "yi", Name: "Yiddish"},
	{Code: "yo", Name: "Yoruba"},
	{Code: "zu", Name: "Zulu"},
}

var deeplCodes = []string{
	"BG", "CS", "DA", "DE", "EL", "EN", "ES", "ET", "FI", "FR", "HU", "ID",
	"IT", "JA", "LT", "LV", "NL", "PL", "PT", "RO", "RU", "SK", "SL", "SV",
	"TR", "UK", "ZH",
}

var yandexCodes = []string{
	"az", "be", "bg", "ca", "cs", "da", "de", "el", "en", "es", "et", "fi", "fr",
	"he", "hr", "hu", "hy", "it", "lt", "lv", "mk", "nl", "no", "pl", "pt", "ro",
	"ru", "sk", "sl", "sq", "sr", "sv", "tr", "uk", "vi",
}

var languageNames = func() map[string]string {
	names := make(map[string]string, len(googleLanguages))
	for _, lang := range googleLanguages {
		names[lang.Code] = lang.Name
	}
	return names
}()

// LanguageName returns the English name for code in any casing.
func LanguageName(code string) string {
	normalized := language.NormalizeTag(code)
	if normalized == language.Auto {
		return AutoLanguage.Name
	}
	if name, ok := languageNames[normalized]; ok {
		return name
	}
	return language.DisplayName(normalized)
}

func languagesFromCodes(codes []string) []Language {
	langs := make([]Language, 0, len(codes))
	for _, code := range codes {
		langs = append(langs, Language{Code: code, Name: LanguageName(code)})
	}
	return langs
}

// languageIndex maps codes, folded to lower case, to their canonical spelling.
func languageIndex(langs []Language) map[string]string {
	index := make(map[string]string, len(langs))
	for _, lang := range langs {
		index[strings.ToLower(lang.Code)] = lang.Code
	}
	return index
}

func cloneLanguages(langs []Language) []Language {
	return append([]Language(nil), langs...)
}
