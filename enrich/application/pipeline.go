package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"url-insights/clock"
	"url-insights/enrich/domain"
	"url-insights/enrich/textutil"
)

// Pipeline executa uma requisição de ponta a ponta, sem cache.
// Fetcher e Extractor são obrigatórios; analisadores nil degradam para valores neutros.
type Pipeline struct {
	Fetcher    domain.Fetcher
	Extractor  domain.Extractor
	Language   domain.LanguageDetector
	Summarizer domain.Summarizer
	Keywords   domain.KeywordExtractor
	Sentiment  domain.SentimentAnalyzer

	Clock  clock.Clock
	Logger *slog.Logger
}

// Process busca, extrai e enriquece a URL (já normalizada) respeitando os limites do plano.
func (p *Pipeline) Process(ctx context.Context, url string, limits domain.PlanLimits) (domain.Result, error) {
	clk := clock.OrReal(p.Clock)
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	if p.Fetcher == nil || p.Extractor == nil {
		return domain.Result{}, &domain.Error{Kind: domain.KindInternal, Op: "pipeline", Msg: "pipeline is not configured"}
	}
	limits = limits.Normalize()
	start := clk.Now()

	page, err := p.Fetcher.Fetch(ctx, url)
	if err != nil {
		return domain.Result{}, asKind(err, domain.KindFetch, "fetch")
	}
	log.Debug("pipeline stage", "stage", "fetch", "url", url, "bytes", len(page.Body), "elapsed_ms", clk.Now().Sub(start).Milliseconds())

	art, err := p.Extractor.Extract(page)
	if err != nil {
		return domain.Result{}, asKind(err, domain.KindExtraction, "extract")
	}
	log.Debug("pipeline stage", "stage", "extract", "url", url, "parser", art.Parser, "elapsed_ms", clk.Now().Sub(start).Milliseconds())

	text := art.Text
	// custo da análise limitado pelo plano
	sample := textutil.Truncate(text, limits.MaxChars)

	language := "unknown"
	if p.Language != nil {
		language = p.Language.Detect(sample)
	}

	summary := textutil.FirstSentences(sample, 2)
	if p.Summarizer != nil {
		summary = p.Summarizer.Summarize(sample)
	}

	keywords := []string{}
	if p.Keywords != nil {
		if kw := p.Keywords.Keywords(sample, limits.TopK); kw != nil {
			keywords = kw
		}
	}
	if len(keywords) > limits.TopK {
		keywords = keywords[:limits.TopK]
	}

	sentiment := domain.Sentiment{Label: domain.SentimentNeutral}
	if p.Sentiment != nil {
		input := summary
		if input == "" {
			input = sample
		}
		sentiment = p.Sentiment.Analyze(input, url)
	}
	log.Debug("pipeline stage", "stage", "enrich", "url", url, "language", language, "keywords", len(keywords), "elapsed_ms", clk.Now().Sub(start).Milliseconds())

	sources := art.PublishedSources
	if sources == nil {
		sources = []string{}
	}

	return domain.Result{
		URL:          url,
		Title:        art.Title,
		Text:         text,
		WordCount:    textutil.WordCount(text),
		Language:     language,
		PublishedAt:  optional(art.PublishedAt),
		LeadImageURL: optional(art.LeadImageURL),
		Summary:      summary,
		Keywords:     keywords,
		Sentiment:    sentiment,
		Meta: domain.Meta{
			Site:             art.Site,
			PublishedSources: sources,
			Parser:           art.Parser,
			FetchedAt:        start.UTC().Format(time.RFC3339),
			ElapsedMS:        clk.Now().Sub(start).Milliseconds(),
			Cache:            false,
		},
	}, nil
}

// asKind mantém erros de domínio como vieram e classifica o resto.
func asKind(err error, kind domain.Kind, op string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.TimeoutError(err)
	}
	return &domain.Error{Kind: kind, Op: op, Msg: op + " failed", Err: err}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
