package infra

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"url-insights/enrich/textutil"

	"github.com/PuerkitoBio/goquery"
)

type pageMeta struct {
	Title            string
	Site             string
	LeadImage        string
	PublishedAt      string
	PublishedSources []string
}

func readMetadata(doc *goquery.Document, base *url.URL) pageMeta {
	m := pageMeta{
		Title:     findTitle(doc),
		Site:      findSite(doc, base),
		LeadImage: findLeadImage(doc, base),
	}
	m.PublishedAt, m.PublishedSources = findPublished(doc)
	return m
}

func metaContent(doc *goquery.Document, selector string) string {
	v, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(v)
}

func findTitle(doc *goquery.Document) string {
	if t := textutil.Normalize(doc.Find("title").First().Text()); t != "" {
		return t
	}
	for _, sel := range []string{`meta[property="og:title"]`, `meta[name="twitter:title"]`} {
		if t := metaContent(doc, sel); t != "" {
			return t
		}
	}
	for _, sel := range []string{"#firstHeading", "h1"} {
		if t := textutil.Normalize(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func findSite(doc *goquery.Document, base *url.URL) string {
	if s := metaContent(doc, `meta[property="og:site_name"]`); s != "" {
		return s
	}
	if base != nil {
		return strings.ToLower(base.Host)
	}
	return ""
}

func findLeadImage(doc *goquery.Document, base *url.URL) string {
	if src, ok := doc.Find(".infobox .image img").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		return resolveRef(base, src)
	}
	for _, sel := range []string{`meta[property="og:image"]`, `meta[name="twitter:image"]`} {
		if v := metaContent(doc, sel); v != "" {
			return resolveRef(base, v)
		}
	}
	img := doc.Find("article img").First()
	if img.Length() == 0 {
		img = doc.Find("img").First()
	}
	if src, ok := img.Attr("src"); ok && strings.TrimSpace(src) != "" {
		return resolveRef(base, src)
	}
	return ""
}

func resolveRef(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "//") {
		return "https:" + ref
	}
	if base == nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

var articleTypes = map[string]bool{
	"Article":     true,
	"NewsArticle": true,
	"BlogPosting": true,
}

// findPublished tenta, em ordem: JSON-LD, article:published_time, <time datetime>
// e metas genéricas. Devolve a data (RFC3339 UTC quando parseável) e a origem.
func findPublished(doc *goquery.Document) (string, []string) {
	var (
		found  string
		source string
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		found, source = publishedFromJSONLD(s.Text())
		return found == ""
	})
	if found != "" {
		return found, []string{source}
	}

	if v := metaContent(doc, `meta[property="article:published_time"]`); v != "" {
		return normalizeDate(v), []string{"meta:article:published_time"}
	}

	if v, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(v) != "" {
		return normalizeDate(v), []string{"time:datetime"}
	}

	for _, name := range []string{"date", "dc.date", "dc.date.issued", "publish_date", "pubdate"} {
		if v := metaContent(doc, `meta[name="`+name+`"]`); v != "" {
			return normalizeDate(v), []string{"meta:" + name}
		}
	}
	return "", []string{}
}

func publishedFromJSONLD(raw string) (string, string) {
	var data any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &data); err != nil {
		return "", ""
	}

	var items []any
	switch v := data.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
		if g, ok := v["@graph"].([]any); ok {
			items = append(items, g...)
		}
	}

	for _, it := range items {
		obj, ok := it.(map[string]any)
		if !ok || !isArticleType(obj["@type"]) {
			continue
		}
		for _, k := range []string{"datePublished", "dateCreated", "uploadDate"} {
			if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
				return normalizeDate(s), "jsonld:" + k
			}
		}
	}
	return "", ""
}

func isArticleType(t any) bool {
	switch v := t.(type) {
	case string:
		return articleTypes[v]
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok {
				return articleTypes[s]
			}
		}
	}
	return false
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// normalizeDate converte para RFC3339 UTC; formatos desconhecidos passam como vieram.
func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339)
		}
	}
	return s
}
