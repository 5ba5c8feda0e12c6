package scrape

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

// Selector lists are tried in order; the first non-empty match wins.
var (
	currentPriceSelectors = []string{
		".priceToPay span.a-price-whole",
		".priceToPay .a-offscreen",
		".a.size.base.a-color-price",
		".a-button-selected .a-color-base",
	}
	originalPriceSelectors = []string{
		"#priceblock_ourprice",
		".a-price.a-text-price span.a-offscreen",
		"span[data-a-strike='true'] .a-offscreen",
		"#listPrice",
		"#priceblock_dealprice",
		".a-size-base.a-color-price",
	}
	descriptionSelectors = []string{
		"#feature-bullets .a-list-item",
		".a-unordered-list .a-list-item",
		".a-expander-content p",
	}
	imageAttrSelectors = []string{
		"#imgBlkFront",
		"#landingImage",
	}
)

const unavailableText = "currently unavailable"

// Extract builds a snapshot from a parsed product page. Defaults are applied
// to every field the page does not provide.
func Extract(doc *goquery.Document, url string) (*domain.Snapshot, error) {
	if isRobotCheck(doc) {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, url)
	}

	snap := &domain.Snapshot{
		URL:          url,
		Title:        strings.TrimSpace(doc.Find("#productTitle").First().Text()),
		Currency:     strings.TrimSpace(doc.Find(".a-price-symbol").First().Text()),
		ImageURL:     extractImage(doc),
		Description:  extractDescription(doc),
		IsOutOfStock: extractOutOfStock(doc),
		DiscountRate: ParsePercent(doc.Find(".savingsPercentage").First().Text()),
	}

	if p, ok := firstPrice(doc, currentPriceSelectors); ok {
		snap.CurrentPrice = p
	}
	if p, ok := firstPrice(doc, originalPriceSelectors); ok {
		snap.OriginalPrice = p
	}

	if snap.Title == "" && snap.CurrentPrice == 0 && snap.OriginalPrice == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySnapshot, url)
	}
	if snap.CurrentPrice == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrice, url)
	}

	ApplyDefaults(snap)
	return snap, nil
}

func isRobotCheck(doc *goquery.Document) bool {
	title := strings.ToLower(doc.Find("title").First().Text())
	if strings.Contains(title, "robot check") || strings.Contains(title, "captcha") {
		return true
	}
	return doc.Find(`form[action="/errors/validateCaptcha"]`).Length() > 0
}

func firstPrice(doc *goquery.Document, selectors []string) (float64, bool) {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).First().Text())
		if text == "" {
			continue
		}
		if d, ok := ParsePrice(text); ok && d.IsPositive() {
			return d.InexactFloat64(), true
		}
	}
	return 0, false
}

func extractOutOfStock(doc *goquery.Document) bool {
	text := strings.ToLower(strings.TrimSpace(doc.Find("#availability span").First().Text()))
	return strings.HasPrefix(text, unavailableText)
}

// extractImage returns the first URL of the data-a-dynamic-image JSON object,
// preserving document key order.
func extractImage(doc *goquery.Document) string {
	for _, sel := range imageAttrSelectors {
		raw, ok := doc.Find(sel).First().Attr("data-a-dynamic-image")
		if !ok || raw == "" {
			continue
		}
		if u := firstJSONKey(raw); u != "" {
			return u
		}
	}
	return ""
}

func firstJSONKey(raw string) string {
	dec := json.NewDecoder(strings.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return ""
	}
	tok, err := dec.Token()
	if err != nil {
		return ""
	}
	key, _ := tok.(string)
	return key
}

func extractDescription(doc *goquery.Document) string {
	for _, sel := range descriptionSelectors {
		var parts []string
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			return strings.Join(parts, "\n")
		}
	}
	return ""
}
