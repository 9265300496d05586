// Package textutil reúne as operações de texto usadas pelo extrator e pelos
// analisadores: normalização de espaços, contagem de palavras, sentenças e corte.
package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	citationRe = regexp.MustCompile(`\s*\[\d+\]\s*`)
	spaceRe    = regexp.MustCompile(`\s+`)
	wordRe     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	// fim de sentença seguido de espaço
	sentenceRe = regexp.MustCompile(`([.!?]+)\s+`)
)

// Normalize colapsa qualquer sequência de espaços em um espaço simples.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanCitations remove marcadores como "[12]" e arruma o espaço antes de pontuação.
func CleanCitations(s string) string {
	if s == "" {
		return s
	}
	s = citationRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer(" ,", ",", " .", ".", " ;", ";", " :", ":").Replace(s)
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

func WordCount(s string) int {
	return len(wordRe.FindAllStringIndex(s, -1))
}

// Words devolve as palavras em minúsculas.
func Words(s string) []string {
	found := wordRe.FindAllString(s, -1)
	for i, w := range found {
		found[i] = strings.ToLower(w)
	}
	return found
}

// Truncate corta em no máximo n runas, sem quebrar UTF-8.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Sentences divide o texto em sentenças pelo ponto final/exclamação/interrogação.
func Sentences(s string) []string {
	s = Normalize(s)
	if s == "" {
		return nil
	}
	marked := sentenceRe.ReplaceAllString(s, "$1\x00")
	parts := strings.Split(marked, "\x00")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FirstSentences junta as n primeiras sentenças.
func FirstSentences(s string, n int) string {
	if n <= 0 {
		return ""
	}
	sents := Sentences(s)
	if len(sents) > n {
		sents = sents[:n]
	}
	return strings.Join(sents, " ")
}

// IsNumeric indica se a string só tem dígitos.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
