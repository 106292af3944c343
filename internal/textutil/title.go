package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// NormalizeTitle cleans up shouty or fully lowercased titles as delivered by
// some metadata providers. Mixed-case titles pass through untouched so
// intentional casing (acronyms, chemical formulas) is preserved.
func NormalizeTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return ""
	}

	hasUpper := false
	hasLower := false
	for _, r := range title {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
		if hasUpper && hasLower {
			return title
		}
	}
	if !hasUpper && !hasLower {
		return title
	}
	return titleCaser.String(strings.ToLower(title))
}
