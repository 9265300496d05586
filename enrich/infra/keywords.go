package infra

import (
	"regexp"
	"sort"
	"strings"

	"url-insights/enrich/textutil"

	"github.com/kljensen/snowball"
)

const (
	DefaultTopK = 12
	// amostra máxima analisada
	maxKeywordSample = 20000
	maxPhraseWords   = 5
)

var (
	// pontuação que encerra uma frase candidata
	phraseBreakRe = regexp.MustCompile(`[.,;:!?()\[\]{}"“”«»|/\\–—]+|\s-\s`)
	tokenRe       = regexp.MustCompile(`[\p{L}\p{N}]+`)
	longWordRe    = regexp.MustCompile(`\b[a-z]{4,}\b`)
)

// RakeKeywords implementa domain.KeywordExtractor no estilo RAKE: frases
// candidatas delimitadas por stopwords e pontuação, score grau/frequência por
// palavra e deduplicação pelo radical (snowball).
type RakeKeywords struct{}

func NewRakeKeywords() RakeKeywords { return RakeKeywords{} }

func (RakeKeywords) Keywords(text string, topK int) []string {
	if topK <= 0 {
		topK = DefaultTopK
	}
	sample := textutil.Normalize(text)
	if sample == "" {
		return []string{}
	}
	sample = textutil.Truncate(sample, maxKeywordSample)

	phrases := candidatePhrases(sample)
	ranked := rankPhrases(phrases)

	var out []string
	seen := map[string]struct{}{}
	for _, p := range ranked {
		if !keepPhrase(p) {
			continue
		}
		sig := stemSignature(p)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, p)
		if len(out) == topK {
			break
		}
	}

	if len(out) == 0 {
		return frequentWords(sample, topK)
	}
	return out
}

func candidatePhrases(text string) [][]string {
	var phrases [][]string
	for _, chunk := range phraseBreakRe.Split(strings.ToLower(text), -1) {
		var cur []string
		flush := func() {
			if len(cur) > 0 {
				phrases = append(phrases, cur)
				cur = nil
			}
		}
		for _, tok := range tokenRe.FindAllString(chunk, -1) {
			if isStopword(tok) || textutil.IsNumeric(tok) {
				flush()
				continue
			}
			cur = append(cur, tok)
		}
		flush()
	}
	return phrases
}

// rankPhrases pontua cada frase distinta pela soma de grau/frequência das
// palavras. Empate: ordem de aparição.
func rankPhrases(phrases [][]string) []string {
	freq := map[string]float64{}
	degree := map[string]float64{}
	for _, p := range phrases {
		for _, w := range p {
			freq[w]++
			degree[w] += float64(len(p))
		}
	}

	type scored struct {
		phrase string
		score  float64
		first  int
	}
	byPhrase := map[string]*scored{}
	var order []*scored
	for i, p := range phrases {
		if len(p) > maxPhraseWords {
			p = p[:maxPhraseWords]
		}
		key := strings.Join(p, " ")
		if _, ok := byPhrase[key]; ok {
			continue
		}
		var score float64
		for _, w := range p {
			score += degree[w] / freq[w]
		}
		s := &scored{phrase: key, score: score, first: i}
		byPhrase[key] = s
		order = append(order, s)
	}

	sort.SliceStable(order, func(a, b int) bool { return order[a].score > order[b].score })

	out := make([]string, len(order))
	for i, s := range order {
		out[i] = s.phrase
	}
	return out
}

// keepPhrase descarta números, frases curtas e frases feitas só de palavras vazias.
func keepPhrase(p string) bool {
	if len(p) < 4 || textutil.IsNumeric(p) || isStoplike(p) {
		return false
	}
	for _, t := range strings.Fields(p) {
		if !isStoplike(t) && len(t) >= 4 {
			return true
		}
	}
	return false
}

func stemSignature(p string) string {
	toks := strings.Fields(p)
	for i, t := range toks {
		if st, err := snowball.Stem(t, "english", true); err == nil && st != "" {
			toks[i] = st
		}
	}
	return strings.Join(toks, " ")
}

func frequentWords(text string, topK int) []string {
	counts := map[string]int{}
	var order []string
	for _, w := range longWordRe.FindAllString(strings.ToLower(text), -1) {
		if isStopword(w) || isStoplike(w) {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	if len(order) > topK {
		order = order[:topK]
	}
	if order == nil {
		return []string{}
	}
	return order
}
