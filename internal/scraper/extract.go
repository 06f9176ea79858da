// Package scraper implements the listing scrape pipeline: page extraction,
// per-service pagination and the scheduled full run.
package scraper

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/agrisetu/scheme-scraper/internal/catalog"
	"github.com/agrisetu/scheme-scraper/internal/scheme"
)

// Extraction selectors for the listing markup. Every offering is an
// ".ext-link" anchor; its summary paragraph follows the anchor's parent and
// the eligibility text lives in the enclosing ".listing-service" container.
const (
	anchorSelector      = ".ext-link"
	listingSelector     = ".listing-service"
	eligibilitySelector = ".listing-eligibility"
)

// extractPage parses one page's markup into candidate records. Extraction is
// best-effort and structural: anchors missing the expected sibling or
// ancestor elements still yield a record with empty optional fields. Anchors
// with no title text are dropped and counted, never stored.
func extractPage(body []byte, origin, category string) (records []scheme.Scheme, dropped int, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("parse listing page: %w", err)
	}

	doc.Find(anchorSelector).Each(func(_ int, anchor *goquery.Selection) {
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			dropped++
			return
		}

		link, _ := anchor.Attr("href")
		if link != "" && !strings.HasPrefix(link, "http") {
			link = origin + link
		}

		description := strings.TrimSpace(anchor.Parent().NextAllFiltered("p").First().Text())
		eligibility := strings.TrimSpace(anchor.Closest(listingSelector).Find(eligibilitySelector).Text())

		records = append(records, scheme.Scheme{
			Title:       title,
			Link:        link,
			Description: description,
			Eligibility: eligibility,
			Category:    category,
			SubCategory: catalog.Subcategory(description + " " + eligibility),
		})
	})

	return records, dropped, nil
}
