package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the hint value that asks the engine to detect the language.
const Auto = "auto"

// English word forms accepted in addition to BCP 47 tags. The engine only
// understands ISO 639-1 codes, so every form reduces to one.
var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"ukrainian":  "uk",
	"turkish":    "tr",
}

// bibliographic ISO 639-2 codes that BCP 47 does not canonicalize.
var bibliographic = map[string]string{
	"fre": "fr",
	"ger": "de",
	"chi": "zh",
	"dut": "nl",
}

// Normalize reduces a user-supplied language hint to the code passed to the
// engine. Empty, whitespace and "auto" return "" (detect). Tags with a
// region or script reduce to their base language ("fr-FR" becomes "fr").
func Normalize(hint string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(hint))
	if trimmed == "" || trimmed == Auto {
		return "", nil
	}
	if code, ok := words[trimmed]; ok {
		return code, nil
	}
	if code, ok := bibliographic[trimmed]; ok {
		return code, nil
	}
	tag, err := language.Parse(strings.ReplaceAll(trimmed, "_", "-"))
	if err != nil {
		return "", fmt.Errorf("unrecognized language %q: %w", strings.TrimSpace(hint), err)
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("unrecognized language %q", strings.TrimSpace(hint))
	}
	return base.String(), nil
}

// ToISO2 is Normalize without the error: unrecognized input yields "".
func ToISO2(code string) string {
	normalized, err := Normalize(code)
	if err != nil {
		return ""
	}
	return normalized
}

// DisplayName returns a human-readable English name for a hint. Empty or
// "auto" hints read as "Auto-detect"; unrecognized input is upper-cased.
func DisplayName(code string) string {
	normalized, err := Normalize(code)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	if normalized == "" {
		return "Auto-detect"
	}
	base, err := language.ParseBase(normalized)
	if err != nil {
		return strings.ToUpper(normalized)
	}
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return strings.ToUpper(normalized)
}
