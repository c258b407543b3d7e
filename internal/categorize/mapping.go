package categorize

import "strings"

// providerCategories maps provider category labels (lowercased) to internal
// category names, most specific first. The first name that exists in the
// session wins.
var providerCategories = map[string][]string{
	"food & drink":          {"Dining"},
	"restaurants":           {"Dining"},
	"fast food":             {"Dining"},
	"coffee shop":           {"Dining"},
	"coffee shops":          {"Dining"},
	"bars":                  {"Dining", "Entertainment"},
	"groceries":             {"Groceries"},
	"supermarkets":          {"Groceries"},
	"gas":                   {"Transport"},
	"automotive":            {"Transport"},
	"auto & transport":      {"Transport"},
	"travel":                {"Travel"},
	"airfare":               {"Travel"},
	"hotel":                 {"Travel"},
	"entertainment":         {"Entertainment"},
	"shopping":              {"Shopping"},
	"merchandise":           {"Shopping"},
	"home":                  {"Shopping"},
	"health & wellness":     {"Health"},
	"personal":              {"Health", "Shopping"},
	"bills & utilities":     {"Utilities"},
	"utilities":             {"Utilities"},
	"fees & adjustments":    {"Fees"},
	"professional services": {"Expense: Misc"},
	"gifts & donations":     {"Expense: Misc"},
	"education":             {"Expense: Misc"},
	"miscellaneous":         {"Expense: Misc"},
}

// mappedNames returns the internal category names for a provider label.
func mappedNames(label string) []string {
	return providerCategories[strings.ToLower(strings.TrimSpace(label))]
}
