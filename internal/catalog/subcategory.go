package catalog

import (
	"regexp"
	"strings"
)

// DefaultSubcategory is returned when no classification rule matches.
const DefaultSubcategory = "General Agriculture"

type subcategoryRule struct {
	pattern *regexp.Regexp
	label   string
}

// subcategoryRules is evaluated top to bottom and the first match wins.
// The order is part of the contract; do not sort or convert to a map.
var subcategoryRules = []subcategoryRule{
	{regexp.MustCompile(`irrigation|sprinkler|water|drip`), "Irrigation & Water"},
	{regexp.MustCompile(`soil|fertility|testing`), "Soil & Fertility"},
	{regexp.MustCompile(`seed|fertilizer|agrochemical`), "Seeds & Fertilizers"},
	{regexp.MustCompile(`equipment|machinery|tools`), "Equipment & Machinery"},
	{regexp.MustCompile(`insurance|pmfby|crop loss`), "Insurance"},
	{regexp.MustCompile(`loan|credit|financing`), "Credit & Loans"},
	{regexp.MustCompile(`market|msp|procurement|mandi`), "Market Access & MSP"},
	{regexp.MustCompile(`organic|natural|sustainable`), "Organic Farming"},
	{regexp.MustCompile(`livestock|dairy|poultry`), "Animal Husbandry"},
	{regexp.MustCompile(`training|skill|awareness`), "Training & Awareness"},
	{regexp.MustCompile(`technology|innovation|startup`), "Agri-Tech & Innovation"},
	{regexp.MustCompile(`farmer|cultivation|crop`), "Farming Support"},
}

// Subcategory classifies free text into one of the fixed subcategory labels.
// It is pure and total: every input maps to exactly one label, falling back
// to DefaultSubcategory when no rule matches. Matching is case-insensitive.
func Subcategory(text string) string {
	str := strings.ToLower(text)
	for _, rule := range subcategoryRules {
		if rule.pattern.MatchString(str) {
			return rule.label
		}
	}
	return DefaultSubcategory
}

// Subcategories returns every label the classifier can produce, in rule
// order with the fallback last.
func Subcategories() []string {
	out := make([]string, 0, len(subcategoryRules)+1)
	for _, rule := range subcategoryRules {
		out = append(out, rule.label)
	}
	return append(out, DefaultSubcategory)
}
