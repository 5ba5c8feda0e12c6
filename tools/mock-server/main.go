// Package main implements a mock marketplace for local development. It serves
// product pages rendered from a JSON catalog in the same markup the scraper
// reads, and exposes an admin endpoint to move prices and stock between
// refresh cycles.
//
// The tracker only accepts marketplace hosts, so map a name such as
// www.amazon.test to 127.0.0.1 and track http://www.amazon.test:8089/dp/<asin>.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"
)

type catalogFile struct {
	Products []*mockProduct `json:"products"`
}

type mockProduct struct {
	ASIN          string   `json:"asin"`
	Title         string   `json:"title"`
	Currency      string   `json:"currency"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"original_price"`
	OutOfStock    bool     `json:"out_of_stock"`
	ImageURL      string   `json:"image_url"`
	Features      []string `json:"features"`
}

// productUpdate is the admin payload. Nil fields are left unchanged.
type productUpdate struct {
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	OutOfStock    *bool    `json:"out_of_stock"`
}

type catalog struct {
	mu       sync.RWMutex
	products map[string]*mockProduct
}

func newCatalog(f *catalogFile) *catalog {
	c := &catalog{products: make(map[string]*mockProduct, len(f.Products))}
	for _, p := range f.Products {
		c.products[p.ASIN] = p
	}
	return c
}

func (c *catalog) get(asin string) (mockProduct, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[asin]
	if !ok {
		return mockProduct{}, false
	}
	return *p, true
}

func (c *catalog) update(asin string, u productUpdate) (mockProduct, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[asin]
	if !ok {
		return mockProduct{}, false
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.OriginalPrice != nil {
		p.OriginalPrice = *u.OriginalPrice
	}
	if u.OutOfStock != nil {
		p.OutOfStock = *u.OutOfStock
	}
	return *p, true
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	catalogPath := flag.String("catalog", "tools/mock-server/testdata/catalog.json", "path to product catalog fixture")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f, err := loadCatalog(*catalogPath)
	if err != nil {
		logger.Error("failed to load catalog", "path", *catalogPath, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded catalog", "products", len(f.Products))

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("starting mock marketplace", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(logger, newMux(logger, newCatalog(f))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(logger *slog.Logger, c *catalog) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dp/{asin}", pageHandler(logger, c))
	mux.HandleFunc("GET /captcha", captchaHandler)
	mux.HandleFunc("POST /admin/products/{asin}", updateHandler(logger, c))
	return mux
}

func loadCatalog(path string) (*catalogFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var f catalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return &f, nil
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("request", "method", r.Method, "path", r.URL.Path, "user_agent", r.UserAgent())
		next.ServeHTTP(w, r)
	})
}

var funcs = template.FuncMap{
	"amount": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"discount": func(p mockProduct) int {
		if p.OriginalPrice <= 0 || p.Price >= p.OriginalPrice {
			return 0
		}
		return int((p.OriginalPrice - p.Price) / p.OriginalPrice * 100)
	},
	"imageJSON": func(u string) string {
		b, _ := json.Marshal(map[string][2]int{u: {1500, 1500}}) //nolint:errcheck // map of string keys cannot fail
		return string(b)
	},
}

var pageTmpl = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head><title>Amazon.com: {{.Title}}</title></head>
<body>
  <span id="productTitle">{{.Title}}</span>
  <div class="priceToPay">
    <span class="a-price-symbol">{{.Currency}}</span>
    <span class="a-price-whole">{{amount .Price}}</span>
  </div>
  {{- with discount .}}
  <span class="savingsPercentage">-{{.}}%</span>
  {{- end}}
  <span class="a-price a-text-price"><span class="a-offscreen">{{.Currency}}{{amount .OriginalPrice}}</span></span>
  {{- with .ImageURL}}
  <img id="landingImage" data-a-dynamic-image="{{imageJSON .}}" />
  {{- end}}
  <div id="feature-bullets"><ul>
  {{- range .Features}}
    <li><span class="a-list-item">{{.}}</span></li>
  {{- end}}
  </ul></div>
  <div id="availability"><span>{{if .OutOfStock}}Currently unavailable.{{else}}In Stock{{end}}</span></div>
</body>
</html>
`))

const captchaPage = `<!DOCTYPE html>
<html>
<head><title>Robot Check</title></head>
<body><form method="get" action="/errors/validateCaptcha"><input type="text" name="field-keywords" /></form></body>
</html>
`

func pageHandler(logger *slog.Logger, c *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := c.get(r.PathValue("asin"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := pageTmpl.Execute(w, p); err != nil {
			logger.Error("rendering page", "asin", p.ASIN, "error", err)
			return
		}
		logger.Info("served page", "asin", p.ASIN, "price", p.Price, "out_of_stock", p.OutOfStock)
	}
}

func captchaHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	w.Write([]byte(captchaPage))
}

func updateHandler(logger *slog.Logger, c *catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var u productUpdate
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		p, ok := c.update(r.PathValue("asin"), u)
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
		json.NewEncoder(w).Encode(p)
		logger.Info("updated product", "asin", p.ASIN, "price", p.Price, "out_of_stock", p.OutOfStock)
	}
}
