package domain

import "time"

// ParserVersion entra na chave de cache e no ETag. Mudou a forma do resultado? Incrementa.
const ParserVersion = "v1"

// Result é o payload completo devolvido por POST /v1/parse.
//
// Imutável depois de produzido: o cache guarda o valor e quem serve um hit
// trabalha numa cópia (ver WithCacheHit).
type Result struct {
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Text         string    `json:"text"`
	WordCount    int       `json:"word_count"`
	Language     string    `json:"language"`
	PublishedAt  *string   `json:"published_at"`
	LeadImageURL *string   `json:"lead_image_url"`
	Summary      string    `json:"summary"`
	Keywords     []string  `json:"keywords"`
	Sentiment    Sentiment `json:"sentiment"`
	Meta         Meta      `json:"meta"`
}

type Sentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

type Meta struct {
	Site             string   `json:"site,omitempty"`
	PublishedSources []string `json:"published_sources"`
	Parser           string   `json:"parser"`
	FetchedAt        string   `json:"fetched_at"`
	ElapsedMS        int64    `json:"elapsed_ms"`
	Cache            bool     `json:"cache"`
}

// WithCacheHit devolve uma cópia marcada como servida do cache.
// Os slices são copiados para que o chamador não altere a entrada guardada.
func (r Result) WithCacheHit(elapsed time.Duration) Result {
	out := r
	out.Keywords = cloneStrings(r.Keywords)
	out.Meta.PublishedSources = cloneStrings(r.Meta.PublishedSources)
	out.Meta.Cache = true
	out.Meta.ElapsedMS = elapsed.Milliseconds()
	return out
}

// cloneStrings copia o slice e nunca devolve nil: a lista vazia sai como [] no JSON.
func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// Page é a resposta bruta do upstream.
type Page struct {
	URL         string // URL final, depois de redirects
	ContentType string
	StatusCode  int
	Body        []byte
}

// Article é o que o extrator consegue tirar do HTML.
type Article struct {
	Title            string
	Text             string
	Site             string
	LeadImageURL     string
	PublishedAt      string
	PublishedSources []string
	// Parser identifica a estratégia usada (ex: "readability" ou "readability|goquery").
	Parser string
}
