package utils

import "strings"

// FormatCategoryTitle turns a category slug into its display label:
// "most-popular" becomes "Most Popular".
func FormatCategoryTitle(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
