package infra

import (
	"bytes"
	"html"
	"net/url"
	"strings"

	"url-insights/enrich/domain"
	"url-insights/enrich/textutil"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

const (
	ParserReadability = "readability"
	ParserFallback    = "readability|goquery"

	// abaixo disso o texto do readability é considerado incompleto
	fallbackBelowWords = 20
	// abaixo disso não há artigo
	minArticleWords = 10
	// parágrafos curtos (menus, legendas) ficam de fora no fallback
	minParagraphWords = 5
)

// HTMLExtractor implementa domain.Extractor: readability para o corpo,
// goquery para metadados e fallback de parágrafos, bluemonday como último recurso.
type HTMLExtractor struct {
	strip *bluemonday.Policy
}

func NewHTMLExtractor() *HTMLExtractor {
	p := bluemonday.StrictPolicy()
	p.AddSpaceWhenStrippingTag(true)
	return &HTMLExtractor{strip: p}
}

func (e *HTMLExtractor) Extract(page domain.Page) (domain.Article, error) {
	if len(bytes.TrimSpace(page.Body)) == 0 {
		return domain.Article{}, domain.ExtractionError("empty document")
	}

	base, _ := url.Parse(page.URL)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return domain.Article{}, domain.ExtractionError("invalid html")
	}

	art := domain.Article{Parser: ParserReadability}

	text := cleanText(readabilityText(page.Body, base))
	if textutil.WordCount(text) < fallbackBelowWords {
		art.Parser = ParserFallback
		if alt := cleanText(paragraphText(doc)); textutil.WordCount(alt) > textutil.WordCount(text) {
			text = alt
		}
		if textutil.WordCount(text) < minArticleWords {
			if alt := cleanText(e.stripTags(doc)); textutil.WordCount(alt) > textutil.WordCount(text) {
				text = alt
			}
		}
	}

	if textutil.WordCount(text) < minArticleWords {
		return domain.Article{}, domain.ExtractionError("too little text extracted")
	}

	meta := readMetadata(doc, base)
	art.Text = text
	art.Title = meta.Title
	art.Site = meta.Site
	art.LeadImageURL = meta.LeadImage
	art.PublishedAt = meta.PublishedAt
	art.PublishedSources = meta.PublishedSources
	return art, nil
}

func readabilityText(body []byte, base *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		return ""
	}
	var buf strings.Builder
	if err := article.RenderText(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// paragraphText junta os <p> do conteúdo principal (ou do documento todo).
func paragraphText(doc *goquery.Document) string {
	scope := doc.Find("#mw-content-text").First()
	if scope.Length() == 0 {
		scope = doc.Find("main").First()
	}
	if scope.Length() == 0 {
		scope = doc.Find("article").First()
	}
	if scope.Length() == 0 {
		scope = doc.Selection
	}

	var parts []string
	scope.Find("p").Each(func(_ int, s *goquery.Selection) {
		p := textutil.Normalize(s.Text())
		if textutil.WordCount(p) >= minParagraphWords {
			parts = append(parts, p)
		}
	})
	return strings.Join(parts, " ")
}

func (e *HTMLExtractor) stripTags(doc *goquery.Document) string {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}
	raw, err := body.Html()
	if err != nil {
		return ""
	}
	return html.UnescapeString(e.strip.Sanitize(raw))
}

func cleanText(s string) string {
	return textutil.CleanCitations(textutil.Normalize(s))
}
