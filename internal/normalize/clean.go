package normalize

import (
	"regexp"
	"strings"
)

var (
	rePrimaryHealthCenter = regexp.MustCompile(`(?i)primary health center`)
	rePHC                 = regexp.MustCompile(`(?i)phc`)
)

// CleanText folds "primary health center" and any casing of "phc" into PHC
// and trims surrounding whitespace. Language content is left alone.
func CleanText(text string) string {
	if text == "" {
		return text
	}
	text = rePrimaryHealthCenter.ReplaceAllString(text, "PHC")
	text = rePHC.ReplaceAllString(text, "PHC")
	return strings.TrimSpace(text)
}
