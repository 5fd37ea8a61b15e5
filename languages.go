package lingo

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageNames maps locale codes to human-readable names for AI prompts.
var LanguageNames = map[string]string{
	// Tier 1 (High Quality)
	"en_US": "English (United States)",
	"en_GB": "English (United Kingdom)",
	"de_DE": "German (Germany)",
	"es_ES": "Spanish (Spain)",
	"es_MX": "Spanish (Mexico)",
	"fr_FR": "French (France)",
	"it_IT": "Italian (Italy)",
	"ja_JP": "Japanese (Japan)",
	"pt_BR": "Portuguese (Brazil)",
	"pt_PT": "Portuguese (Portugal)",
	"zh_CN": "Chinese (Simplified)",
	"zh_TW": "Chinese (Traditional)",

	// Tier 2 (Good Quality)
	"ar_SA": "Arabic (Saudi Arabia)",
	"bn_BD": "Bengali (Bangladesh)",
	"cs_CZ": "Czech (Czech Republic)",
	"da_DK": "Danish (Denmark)",
	"el_GR": "Greek (Greece)",
	"fi_FI": "Finnish (Finland)",
	"he_IL": "Hebrew (Israel)",
	"hi_IN": "Hindi (India)",
	"hu_HU": "Hungarian (Hungary)",
	"id_ID": "Indonesian (Indonesia)",
	"ko_KR": "Korean (South Korea)",
	"nl_NL": "Dutch (Netherlands)",
	"nb_NO": "Norwegian Bokmål (Norway)",
	"pl_PL": "Polish (Poland)",
	"ro_RO": "Romanian (Romania)",
	"ru_RU": "Russian (Russia)",
	"sv_SE": "Swedish (Sweden)",
	"th_TH": "Thai (Thailand)",
	"tr_TR": "Turkish (Turkey)",
	"uk_UA": "Ukrainian (Ukraine)",
	"vi_VN": "Vietnamese (Vietnam)",

	// Tier 3 (Functional)
	"bg_BG": "Bulgarian (Bulgaria)",
	"ca_ES": "Catalan (Spain)",
	"fa_IR": "Persian (Iran)",
	"hr_HR": "Croatian (Croatia)",
	"lt_LT": "Lithuanian (Lithuania)",
	"lv_LV": "Latvian (Latvia)",
	"ms_MY": "Malay (Malaysia)",
	"sk_SK": "Slovak (Slovakia)",
	"sl_SI": "Slovenian (Slovenia)",
	"sr_RS": "Serbian (Serbia)",
	"sw_KE": "Swahili (Kenya)",
	"tl_PH": "Tagalog (Philippines)",
	"ur_PK": "Urdu (Pakistan)",
}

// ShortCodeToLocale maps short language codes to full locale codes.
var ShortCodeToLocale = map[string]string{
	"en": "en_US",
	"de": "de_DE",
	"es": "es_ES",
	"fr": "fr_FR",
	"it": "it_IT",
	"ja": "ja_JP",
	"pt": "pt_BR",
	"zh": "zh_CN",
	"ko": "ko_KR",
	"ru": "ru_RU",
	"ar": "ar_SA",
	"he": "he_IL",
	"hi": "hi_IN",
	"nl": "nl_NL",
	"pl": "pl_PL",
	"tr": "tr_TR",
	"vi": "vi_VN",
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the CLDR English name, then to the code itself.
func GetLanguageName(langCode string) string {
	key := strings.ReplaceAll(langCode, "-", "_")
	if name, ok := LanguageNames[key]; ok {
		return name
	}
	// Try expanding short code
	if locale, ok := ShortCodeToLocale[key]; ok {
		if name, ok := LanguageNames[locale]; ok {
			return name
		}
	}
	tag, err := ParseLocale(langCode)
	if err != nil {
		return langCode
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return langCode
}

// ParseLocale parses a locale code in either "es_ES" or "es-ES" form.
func ParseLocale(code string) (language.Tag, error) {
	return language.Parse(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"))
}

// NormalizeLocale converts a locale code to its canonical BCP 47 form
// (e.g., "es_es" → "es-ES"). Unparseable codes are returned trimmed.
func NormalizeLocale(code string) string {
	tag, err := ParseLocale(code)
	if err != nil {
		return strings.TrimSpace(code)
	}
	return tag.String()
}

// BaseLanguage returns the base language of a locale (e.g., "es" for "es-MX").
func BaseLanguage(code string) string {
	tag, err := ParseLocale(code)
	if err != nil {
		return strings.ToLower(strings.Split(strings.ReplaceAll(code, "_", "-"), "-")[0])
	}
	base, _ := tag.Base()
	return base.String()
}

// SameLocale reports whether two locale codes name the same locale.
func SameLocale(a, b string) bool {
	return NormalizeLocale(a) == NormalizeLocale(b)
}
