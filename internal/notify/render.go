package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"unicode/utf8"

	domain "github.com/donaldgifford/product-price-tracker/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const subjectTitleLimit = 20

type emailTemplate struct {
	name    string
	subject string
}

var categoryTemplates = map[domain.NotificationCategory]emailTemplate{
	domain.LowestPriceEver: {
		name:    "lowest_price.html",
		subject: "Lowest Price Alert for %s",
	},
	domain.PriceDropAboveThreshold: {
		name:    "discount.html",
		subject: "Discount Alert for %s",
	},
	domain.ReturnedToStock: {
		name:    "restock.html",
		subject: "%s is back in stock!",
	},
}

var welcomeTemplate = emailTemplate{
	name:    "welcome.html",
	subject: "Welcome to Price Tracking for %s",
}

// Render builds the email for a notification category.
func Render(category domain.NotificationCategory, info ProductInfo) (*Message, error) {
	tmpl, ok := categoryTemplates[category]
	if !ok {
		return nil, fmt.Errorf("no email template for category %q", category)
	}
	return render(tmpl, info)
}

// RenderWelcome builds the email sent when a user subscribes to a product.
func RenderWelcome(info ProductInfo) (*Message, error) {
	return render(welcomeTemplate, info)
}

func render(tmpl emailTemplate, info ProductInfo) (*Message, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, tmpl.name, info); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", tmpl.name, err)
	}
	return &Message{
		Subject: fmt.Sprintf(tmpl.subject, shortenTitle(info.Title)),
		HTML:    buf.String(),
	}, nil
}

func shortenTitle(title string) string {
	if utf8.RuneCountInString(title) <= subjectTitleLimit {
		return title
	}
	return string([]rune(title)[:subjectTitleLimit]) + "..."
}
