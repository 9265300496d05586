package infra

import (
	"math"
	"sort"
	"strings"

	"url-insights/enrich/textutil"
)

const (
	DefaultSummarySentences = 2
	MaxSummaryChars         = 1000
)

// FrequencySummarizer escolhe as sentenças com maior frequência média de
// palavras de conteúdo e devolve na ordem original do texto.
type FrequencySummarizer struct {
	Sentences int
	MaxChars  int
}

func NewFrequencySummarizer() FrequencySummarizer {
	return FrequencySummarizer{Sentences: DefaultSummarySentences, MaxChars: MaxSummaryChars}
}

func (s FrequencySummarizer) Summarize(text string) string {
	n := s.Sentences
	if n <= 0 {
		n = DefaultSummarySentences
	}
	maxChars := s.MaxChars
	if maxChars <= 0 {
		maxChars = MaxSummaryChars
	}

	sents := textutil.Sentences(text)
	if len(sents) == 0 {
		return ""
	}
	if len(sents) <= n {
		return capSummary(strings.Join(sents, " "), maxChars)
	}

	freq := map[string]int{}
	maxFreq := 0
	for _, w := range textutil.Words(text) {
		if !isContentWord(w) {
			continue
		}
		freq[w]++
		if freq[w] > maxFreq {
			maxFreq = freq[w]
		}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, 0, len(sents))
	for i, sent := range sents {
		words := textutil.Words(sent)
		var sum float64
		content := 0
		for _, w := range words {
			if f, ok := freq[w]; ok {
				sum += float64(f) / float64(maxFreq)
				content++
			}
		}
		score := 0.0
		if content > 0 {
			// raiz amortece o viés a favor de sentenças longas
			score = sum / math.Sqrt(float64(len(words)))
		}
		ranked = append(ranked, scored{idx: i, score: score})
	}

	sort.SliceStable(ranked, func(a, b int) bool { return ranked[a].score > ranked[b].score })
	picked := ranked[:n]
	sort.Slice(picked, func(a, b int) bool { return picked[a].idx < picked[b].idx })

	out := make([]string, 0, n)
	for _, p := range picked {
		out = append(out, sents[p.idx])
	}
	return capSummary(strings.Join(out, " "), maxChars)
}

func capSummary(summary string, maxChars int) string {
	return strings.TrimSpace(textutil.Truncate(summary, maxChars))
}

func isContentWord(w string) bool {
	return len(w) >= 3 && !isStopword(w) && !textutil.IsNumeric(w)
}
