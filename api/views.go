package api

import (
	"unicode/utf8"

	"url-insights/enrich/domain"
)

const (
	snippetMax  = 300
	snippetKeep = 280
)

type MetadataView struct {
	URL          string  `json:"url"`
	Title        string  `json:"title"`
	Language     string  `json:"language"`
	PublishedAt  *string `json:"published_at"`
	LeadImageURL *string `json:"lead_image_url"`
	WordCount    int     `json:"word_count"`
	Site         string  `json:"site"`
}

type SummaryView struct {
	URL       string           `json:"url"`
	Title     string           `json:"title"`
	Summary   string           `json:"summary"`
	Keywords  []string         `json:"keywords"`
	Sentiment domain.Sentiment `json:"sentiment"`
	Language  string           `json:"language"`
	Site      string           `json:"site"`
}

type PreviewView struct {
	URL          string  `json:"url"`
	Title        string  `json:"title"`
	Snippet      string  `json:"snippet"`
	LeadImageURL *string `json:"lead_image_url"`
	PublishedAt  *string `json:"published_at"`
	Site         string  `json:"site"`
}

func metadataOf(r domain.Result) any {
	return MetadataView{
		URL:          r.URL,
		Title:        r.Title,
		Language:     r.Language,
		PublishedAt:  r.PublishedAt,
		LeadImageURL: r.LeadImageURL,
		WordCount:    r.WordCount,
		Site:         r.Meta.Site,
	}
}

func summaryOf(r domain.Result) any {
	kw := r.Keywords
	if kw == nil {
		kw = []string{}
	}
	return SummaryView{
		URL:       r.URL,
		Title:     r.Title,
		Summary:   r.Summary,
		Keywords:  kw,
		Sentiment: r.Sentiment,
		Language:  r.Language,
		Site:      r.Meta.Site,
	}
}

func previewOf(r domain.Result) any {
	return PreviewView{
		URL:          r.URL,
		Title:        r.Title,
		Snippet:      Snippet(r),
		LeadImageURL: r.LeadImageURL,
		PublishedAt:  r.PublishedAt,
		Site:         r.Meta.Site,
	}
}

// Snippet usa o resumo (ou o texto) e corta em 280 runas + "…" quando passa de 300.
func Snippet(r domain.Result) string {
	s := r.Summary
	if s == "" {
		s = r.Text
	}
	if utf8.RuneCountInString(s) <= snippetMax {
		return s
	}
	return string([]rune(s)[:snippetKeep]) + "…"
}
