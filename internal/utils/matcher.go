package utils

import "regexp"

// Category is a named keyword pattern.
type Category struct {
	Name    string
	Pattern *regexp.Regexp
}

// KeywordCategory compiles a case-insensitive whole-word pattern for the given
// alternatives.
func KeywordCategory(name, alternatives string) Category {
	return Category{
		Name:    name,
		Pattern: regexp.MustCompile(`(?i)\b(?:` + alternatives + `)`),
	}
}

// FirstMatch returns the index of the first category in table order whose
// pattern matches text, or -1.
func FirstMatch(table []Category, text string) int {
	for i, c := range table {
		if c.Pattern != nil && c.Pattern.MatchString(text) {
			return i
		}
	}
	return -1
}

// AllMatches returns the names of every category whose pattern matches text,
// in table order.
func AllMatches(table []Category, text string) []string {
	var names []string
	for _, c := range table {
		if c.Pattern != nil && c.Pattern.MatchString(text) {
			names = append(names, c.Name)
		}
	}
	return names
}
