package scrape

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrInvalidURL is returned for URLs that are not marketplace product pages.
var ErrInvalidURL = errors.New("invalid product URL")

// ValidateProductURL checks that raw is an http(s) URL whose registrable
// domain belongs to one of the allowed marketplaces (matched on the label
// before the public suffix, so "amazon" accepts amazon.com and amazon.co.uk).
// It returns the URL with any fragment removed.
func ValidateProductURL(raw string, allowed []string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	label, _, _ := strings.Cut(site, ".")
	if !slices.Contains(allowed, label) {
		return "", fmt.Errorf("%w: %s is not a supported marketplace", ErrInvalidURL, site)
	}

	u.Fragment = ""
	return u.String(), nil
}
