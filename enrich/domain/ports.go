package domain

import (
	"context"
	"time"
)

// Fetcher baixa o HTML bruto. Falhas de rede, timeout e status != 2xx
// devem sair como FetchError/TimeoutError.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// Extractor transforma HTML em texto de artigo + metadados.
// Sem conteúdo aproveitável deve devolver ExtractionError.
type Extractor interface {
	Extract(page Page) (Article, error)
}

// LanguageDetector devolve um código ISO 639-1 ou "unknown".
type LanguageDetector interface {
	Detect(text string) string
}

type Summarizer interface {
	Summarize(text string) string
}

// KeywordExtractor devolve no máximo topK frases, em ordem decrescente de relevância.
type KeywordExtractor interface {
	Keywords(text string, topK int) []string
}

// SentimentAnalyzer recebe a URL de origem para poder amortecer fontes de referência.
type SentimentAnalyzer interface {
	Analyze(text, sourceURL string) Sentiment
}

// ResultCache é o contrato do cache TTL em memória.
type ResultCache interface {
	Get(key string) (Result, bool)
	Put(key string, value Result, ttl time.Duration)
	// Contains consulta sem contar como uso (não promove na LRU).
	Contains(key string) bool
}
