package infra

import (
	"strings"

	"github.com/abadojack/whatlanggo"
)

const UnknownLanguage = "unknown"

// LanguageDetector implementa domain.LanguageDetector com whatlanggo.
type LanguageDetector struct{}

func NewLanguageDetector() LanguageDetector { return LanguageDetector{} }

// Detect devolve o código ISO 639-1, ou "unknown" para texto vazio ou detecção pouco confiável.
func (LanguageDetector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return UnknownLanguage
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return UnknownLanguage
	}
	if code := info.Lang.Iso6391(); code != "" {
		return code
	}
	return UnknownLanguage
}
