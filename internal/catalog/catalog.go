// Package catalog holds the static service registry and the subcategory
// classifier. Both are hand-curated data, not runtime configuration.
package catalog

import "sort"

// Service pairs a remote service identifier with its top-level category.
type Service struct {
	ID       string
	Category string
}

// serviceCategories maps the remote catalog's cmd_id values to display
// categories. Several ids intentionally share a category.
var serviceCategories = map[string]string{
	"11":   "Agriculture & Rural Development",
	"344":  "Technology & Innovation",
	"345":  "Technology & Innovation",
	"1126": "Financial Support & Loans",
	"1338": "Healthcare & Insurance",
	"1642": "Education & Scholarships",
	"1746": "Employment & Business",
	"1800": "Social Welfare & Disability Support",
	"1993": "Housing & Infrastructure",
	"2056": "Agriculture & Rural Development",
	"2105": "Technology & Innovation",
	"2308": "Employment & Business",
	"2538": "Women & Child Welfare",
}

// Lookup returns the category for a service identifier.
func Lookup(serviceID string) (string, bool) {
	category, ok := serviceCategories[serviceID]
	return category, ok
}

// Services returns the full registry in a deterministic order. The registry
// is the enumeration source for scrape runs, so ordering matters for
// reproducible logs and metrics.
func Services() []Service {
	ids := make([]string, 0, len(serviceCategories))
	for id := range serviceCategories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]Service, 0, len(ids))
	for _, id := range ids {
		out = append(out, Service{ID: id, Category: serviceCategories[id]})
	}
	return out
}
