package infra

import (
	"math"
	"net/url"
	"strings"

	"url-insights/enrich/domain"
	"url-insights/enrich/textutil"
)

const (
	sentimentSampleChars = 4000
	// normalização do tipo VADER: s / sqrt(s² + alpha)
	sentimentAlpha  = 15.0
	negationScalar  = -0.74
	boosterIncrease = 0.293
	negationWindow  = 3

	LabelThreshold    = 0.05
	MaxCompound       = 0.6
	ReferenceCompound = 0.04
)

// ReferenceDomains são fontes enciclopédicas: o tom delas é neutro por natureza,
// então o score fica preso em ±ReferenceCompound.
var ReferenceDomains = []string{
	"wikipedia.org",
	"wikidata.org",
	"britannica.com",
	"baike.baidu.com",
	"encyclopedia.com",
	"investopedia.com",
	"dictionary.com",
	"collinsdictionary.com",
	"thefreedictionary.com",
	"wordreference.com",
}

// LexiconSentiment implementa domain.SentimentAnalyzer: léxico com valências,
// negação e intensificadores, média do compound por sentença.
type LexiconSentiment struct{}

func NewLexiconSentiment() LexiconSentiment { return LexiconSentiment{} }

func (LexiconSentiment) Analyze(text, sourceURL string) domain.Sentiment {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return domain.Sentiment{Label: domain.SentimentNeutral, Score: 0}
	}
	sample = textutil.Truncate(sample, sentimentSampleChars)

	sents := textutil.Sentences(sample)
	if len(sents) == 0 {
		sents = []string{sample}
	}
	var sum float64
	for _, s := range sents {
		sum += compound(s)
	}
	comp := sum / float64(len(sents))

	bound := MaxCompound
	if IsReferenceSource(sourceURL) {
		bound = ReferenceCompound
	}
	comp = math.Max(math.Min(comp, bound), -bound)
	comp = math.Round(comp*10000) / 10000

	return domain.Sentiment{Label: labelFor(comp), Score: comp}
}

func labelFor(comp float64) string {
	switch {
	case comp > LabelThreshold:
		return domain.SentimentPositive
	case comp < -LabelThreshold:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}

// IsReferenceSource: o host é (ou é subdomínio de) um ReferenceDomains.
func IsReferenceSource(sourceURL string) bool {
	if sourceURL == "" {
		return false
	}
	u, err := url.Parse(sourceURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range ReferenceDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func compound(sentence string) float64 {
	words := splitSentimentWords(sentence)
	var total float64
	for i, w := range words {
		v, ok := lexicon[w]
		if !ok {
			continue
		}
		for j := max(0, i-negationWindow); j < i; j++ {
			if b, ok := boosters[words[j]]; ok {
				if v > 0 {
					v += b
				} else {
					v -= b
				}
			}
		}
		if negated(words, i) {
			v *= negationScalar
		}
		total += v
	}
	if total == 0 {
		return 0
	}
	return total / math.Sqrt(total*total+sentimentAlpha)
}

func negated(words []string, i int) bool {
	for j := max(0, i-negationWindow); j < i; j++ {
		w := words[j]
		if _, ok := negations[w]; ok || strings.HasSuffix(w, "n't") {
			return true
		}
	}
	return false
}

// splitSentimentWords mantém o apóstrofo para reconhecer "isn't", "don't" etc.
func splitSentimentWords(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r == '\'' || r == '’' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(f, "’", "'")
	}
	return fields
}

var negations = toSet(
	"not", "no", "never", "none", "nobody", "nothing", "neither", "nor", "nowhere",
	"cannot", "without", "hardly", "barely", "rarely", "aint",
)

var boosters = map[string]float64{
	"very":         boosterIncrease,
	"really":       boosterIncrease,
	"extremely":    boosterIncrease,
	"incredibly":   boosterIncrease,
	"highly":       boosterIncrease,
	"remarkably":   boosterIncrease,
	"truly":        boosterIncrease,
	"absolutely":   boosterIncrease,
	"so":           boosterIncrease,
	"especially":   boosterIncrease,
	"somewhat":     -boosterIncrease,
	"slightly":     -boosterIncrease,
	"barely":       -boosterIncrease,
	"marginally":   -boosterIncrease,
	"occasionally": -boosterIncrease,
}

// valências na escala -4..4
var lexicon = map[string]float64{
	// positivas
	"good": 1.9, "great": 3.1, "excellent": 2.7, "amazing": 2.8, "awesome": 3.1,
	"wonderful": 2.7, "fantastic": 2.6, "outstanding": 2.9, "superb": 2.9, "brilliant": 2.8,
	"best": 3.2, "better": 1.9, "love": 3.2, "loved": 2.9, "loves": 2.7, "like": 1.5,
	"liked": 1.8, "enjoy": 2.2, "enjoyed": 2.3, "happy": 2.7, "glad": 2.0, "pleased": 1.9,
	"delighted": 2.9, "success": 2.7, "successful": 2.8, "win": 2.8, "wins": 2.7, "won": 2.7,
	"winning": 2.4, "benefit": 2.0, "benefits": 1.6, "improve": 1.9, "improved": 2.1,
	"improvement": 2.0, "gain": 2.4, "gains": 1.8, "growth": 1.6, "strong": 2.3,
	"positive": 2.6, "hope": 1.9, "hopeful": 2.3, "helpful": 1.8, "useful": 1.9,
	"effective": 2.1, "efficient": 1.8, "easy": 1.9, "clean": 1.7, "safe": 1.9,
	"secure": 1.4, "reliable": 1.9, "perfect": 2.7, "beautiful": 2.9, "nice": 1.8,
	"fun": 2.3, "exciting": 2.2, "excited": 1.4, "impressive": 2.3, "innovative": 1.7,
	"celebrate": 2.7, "celebrated": 2.7, "praise": 2.6, "praised": 2.2, "recommend": 1.5,
	"thrilled": 2.5, "favorite": 2.0, "trust": 2.3, "support": 1.7, "supported": 1.3,
	"progress": 1.8, "profit": 1.9, "profitable": 1.9, "robust": 1.4, "solid": 1.2,
	"valuable": 2.1, "welcome": 2.0, "thanks": 1.9, "thank": 1.5, "grateful": 2.0,
	"calm": 1.3, "peace": 2.5, "peaceful": 2.2, "healthy": 1.7, "smart": 1.7,
	"advantage": 1.0, "breakthrough": 2.0, "boost": 1.7, "boosted": 1.5, "thrive": 2.4,
	// negativas
	"bad": -2.5, "terrible": -2.1, "awful": -2.0, "horrible": -2.5, "worst": -3.1,
	"worse": -2.1, "poor": -2.1, "hate": -2.7, "hated": -3.2, "dislike": -1.6,
	"sad": -2.1, "angry": -2.3, "upset": -1.6, "fear": -2.2, "afraid": -2.2,
	"fail": -2.5, "failed": -2.3, "failure": -2.3, "fails": -2.3, "lose": -1.7,
	"loss": -1.3, "losses": -1.7, "lost": -1.3, "problem": -1.7, "problems": -1.7,
	"issue": -0.8, "issues": -0.9, "crisis": -3.1, "risk": -1.1, "risks": -1.1,
	"danger": -2.4, "dangerous": -2.1, "harm": -2.5, "harmful": -2.6, "damage": -2.2,
	"damaged": -1.9, "broken": -1.9, "bug": -1.2, "bugs": -1.1, "error": -1.7,
	"errors": -1.4, "crash": -1.7, "crashed": -1.8, "slow": -1.0, "weak": -1.9,
	"negative": -2.7, "difficult": -1.5, "hard": -0.4, "pain": -2.3, "painful": -2.4,
	"disaster": -3.1, "war": -2.9, "attack": -2.1, "attacks": -1.9, "killed": -3.5,
	"kill": -3.7, "death": -2.9, "dead": -3.3, "violence": -3.1, "violent": -2.9,
	"corrupt": -3.0, "corruption": -1.9, "fraud": -2.8, "scandal": -1.9, "decline": -1.4,
	"declined": -0.9, "drop": -1.1, "fell": -1.1, "worry": -1.9, "worried": -1.2,
	"concern": -0.9, "concerns": -0.8, "criticism": -1.9, "criticized": -1.5,
	"complain": -1.5, "complaint": -1.2, "disappointed": -1.9, "disappointing": -2.2,
	"useless": -1.8, "ugly": -2.3, "stupid": -2.4, "wrong": -2.1, "threat": -2.4,
	"unsafe": -2.4, "toxic": -2.4, "struggle": -1.5, "struggling": -1.8, "delay": -1.3,
	"delayed": -0.9, "shortage": -1.3, "layoffs": -1.5, "lawsuit": -0.9, "banned": -2.0,
}
