package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"url-insights/enrich/domain"
)

type fakeFetcher struct {
	calls atomic.Int32
	page  domain.Page
	err   error
	// gate, quando não nil, segura o fetch até ser fechado
	gate    chan struct{}
	entered chan struct{}
	once    sync.Once
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (domain.Page, error) {
	f.calls.Add(1)
	if f.entered != nil {
		f.once.Do(func() { close(f.entered) })
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return domain.Page{}, ctx.Err()
		}
	}
	if f.err != nil {
		return domain.Page{}, f.err
	}
	p := f.page
	p.URL = url
	return p, nil
}

type fakeExtractor struct {
	art domain.Article
	err error
}

func (f fakeExtractor) Extract(domain.Page) (domain.Article, error) {
	return f.art, f.err
}

type recordingAnalyzers struct {
	mu          sync.Mutex
	maxInput    int
	keywordsOut []string
}

func (r *recordingAnalyzers) record(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := utf8.RuneCountInString(text); n > r.maxInput {
		r.maxInput = n
	}
}

func (r *recordingAnalyzers) Detect(text string) string {
	r.record(text)
	return "en"
}

func (r *recordingAnalyzers) Summarize(text string) string {
	r.record(text)
	return "A short summary."
}

func (r *recordingAnalyzers) Keywords(text string, topK int) []string {
	r.record(text)
	out := r.keywordsOut
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}

func (r *recordingAnalyzers) Analyze(text, sourceURL string) domain.Sentiment {
	r.record(text)
	return domain.Sentiment{Label: domain.SentimentPositive, Score: 0.3}
}

type recordingObserver struct {
	mu     sync.Mutex
	hits   int
	misses int
	runs   int
	errs   int
}

func (o *recordingObserver) CacheLookup(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func (o *recordingObserver) PipelineDone(_ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runs++
	if err != nil {
		o.errs++
	}
}
