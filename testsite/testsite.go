// Package testsite serve páginas HTML fixas para testes de ponta a ponta e
// para o binário cmd/sample-site.
package testsite

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Article é uma página de artigo servida pelo site.
type Article struct {
	Path      string
	Title     string
	Site      string
	Image     string
	Published string
	Body      []string
}

var Articles = []Article{
	{
		Path:      "/articles/caching",
		Title:     "Caching strategies for web services",
		Site:      "Example Engineering",
		Image:     "/img/caching.png",
		Published: "2024-03-05T10:00:00+02:00",
		Body: []string{
			"Caching is one of the most effective ways to reduce latency in web services that repeatedly compute the same answers for their clients.",
			"A time based cache keeps each computed result for a bounded period, after which the entry expires and the next request recomputes it from the source.",
			"Least recently used eviction keeps memory bounded when the number of distinct keys grows faster than entries expire on their own.",
			"Coalescing concurrent misses for the same key avoids a thundering herd of identical upstream requests when a popular entry expires.",
			"Operators should watch the hit ratio, the eviction rate and the latency of misses to decide whether the cache is sized correctly.",
		},
	},
	{
		Path:      "/articles/gardening",
		Title:     "A wonderful spring in the community garden",
		Site:      "Neighbourhood News",
		Image:     "https://cdn.example.org/garden.jpg",
		Published: "2024-04-21",
		Body: []string{
			"Volunteers celebrated a wonderful spring in the community garden, where tomatoes, beans and sunflowers grew faster than anyone expected this year.",
			"Families shared seeds and advice, and the children loved watering the new raised beds built from recycled timber donated by a local carpenter.",
			"The organisers thanked everyone for the great support and invited new neighbours to join the weekly planting sessions every Saturday morning.",
			"Fresh vegetables from the harvest will be donated to the food bank, which said the contribution made a real difference for many households.",
		},
	},
}

// Site é o handler do site de teste. Conta acessos por caminho.
type Site struct {
	mux  *http.ServeMux
	mu   sync.Mutex
	hits map[string]int
	// Delay atrasa a resposta de /slow.
	Delay time.Duration
}

func New() *Site {
	s := &Site{mux: http.NewServeMux(), hits: make(map[string]int), Delay: 2 * time.Second}
	for _, a := range Articles {
		s.mux.HandleFunc("GET "+a.Path, s.article(a))
	}
	s.mux.HandleFunc("GET /document.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4\n"))
	})
	s.mux.HandleFunc("GET /empty", func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, `<!doctype html><html><head><title>Nothing here</title></head><body><nav>Home</nav></body></html>`)
	})
	s.mux.HandleFunc("GET /slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(s.Delay):
		case <-r.Context().Done():
			return
		}
		writeHTML(w, render(Articles[0]))
	})
	s.mux.HandleFunc("GET /redirect", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, Articles[0].Path, http.StatusFound)
	})
	s.mux.HandleFunc("GET /{$}", s.index)
	return s
}

func (s *Site) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.hits[r.URL.Path]++
	s.mu.Unlock()
	s.mux.ServeHTTP(w, r)
}

// Hits devolve quantas vezes o caminho foi pedido.
func (s *Site) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Site) article(a Article) http.HandlerFunc {
	page := render(a)
	return func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, page)
	}
}

func (s *Site) index(w http.ResponseWriter, r *http.Request) {
	links := ""
	for _, a := range Articles {
		links += fmt.Sprintf("<li><a href=%q>%s</a></li>", a.Path, a.Title)
	}
	writeHTML(w, "<!doctype html><html><head><title>Sample site</title></head><body><ul>"+links+"</ul></body></html>")
}

func writeHTML(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(body))
}

func render(a Article) string {
	paras := ""
	for _, p := range a.Body {
		paras += "<p>" + p + "</p>\n"
	}
	return fmt.Sprintf(`<!doctype html>
<html>
<head>
  <title>%s</title>
  <meta property="og:site_name" content=%q>
  <meta property="og:image" content=%q>
  <script type="application/ld+json">{"@context":"https://schema.org","@type":"Article","datePublished":%q}</script>
</head>
<body>
  <nav><a href="/">Home</a></nav>
  <article>
    <h1>%s</h1>
%s  </article>
  <footer>Sample site</footer>
</body>
</html>`, a.Title, a.Site, a.Image, a.Published, a.Title, paras)
}
