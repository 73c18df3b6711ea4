// Package normalize cleans up free-text lead fields arriving from the import
// pipeline. Imported CSVs mix full-width and half-width forms (ＡＢＣ, ｶﾀｶﾅ,
// full-width spaces), so store names and prefectures are folded to a single
// canonical width before persistence; otherwise pool filters like
// prefecture = "東京都" silently miss rows.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)

// Field canonicalizes one imported text field: width-folds (half-width
// katakana → full-width, full-width ASCII → half-width), trims, and collapses
// internal whitespace runs.
func Field(s string) string {
	s = width.Fold.String(s)
	s = whitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}

// Prefecture canonicalizes a prefecture value. Same folding as Field, but all
// internal whitespace is removed since prefecture names never contain spaces.
func Prefecture(s string) string {
	s = width.Fold.String(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "")
}
